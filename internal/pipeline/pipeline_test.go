package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/observability"
	"github.com/couchcryptid/cross-section-service/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.CrossSection, error) {
	if m.err != nil {
		return domain.CrossSection{}, m.err
	}
	return domain.CrossSection{RequestID: string(raw.Key)}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.CrossSection
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, results []domain.CrossSection) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = append(m.loaded, results...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "req-1")

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, testLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "req-1", ldr.loaded[0].RequestID)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesProduced))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, testLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, "req-2")
	raw.Commit = func(_ context.Context) error {
		committed = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{err: errors.New("bad request")}, ldr, testLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.True(t, committed, "poison messages are committed")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors))
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var commits atomic.Int32
	batch := make([]domain.RawEvent, 3)
	for i, id := range []string{"a", "b", "c"} {
		batch[i] = makeRawEvent(t, id)
		batch[i].Topic = "cross-section-requests"
		batch[i].Commit = func(_ context.Context) error {
			commits.Add(1)
			return nil
		}
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, testLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 3, ldr.count())
	assert.Equal(t, int32(3), commits.Load())
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, "req-3")
	raw.Commit = func(_ context.Context) error {
		committed = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{err: errors.New("broker down")}

	p := pipeline.New(ext, &mockTransformer{}, ldr, testLogger(), newTestMetrics(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.False(t, committed)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("connection refused")}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, &mockTransformer{}, ldr, testLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

// --- helpers ---

func makeRawEvent(t *testing.T, id string) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.SectionRequest{
		ID:               id,
		SourceProjection: "EPSG:32652",
		Line:             &domain.Line{StartLat: 37.5, StartLng: 129.0, EndLat: 37.5, EndLng: 129.001},
	})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(id),
		Value: data,
	}
}
