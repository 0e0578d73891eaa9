package section

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/observability"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/couchcryptid/cross-section-service/internal/section"

// Stage labels used in logs and metrics.
const (
	stageBlocks    = "blocks"
	stageElevation = "elevation"
	stagePit       = "pit"
	stageFeatures  = "features"
)

// Computer turns a normalized section into a cross-section.
type Computer interface {
	Compute(ctx context.Context, sec domain.Section) domain.CrossSection
}

// Engine runs the section stages for one request at a time. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	projector domain.Projector
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
}

// NewEngine creates an Engine. The projector converts line endpoints and
// geodetic clouds into each request's source projection.
func NewEngine(projector domain.Projector, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		projector: projector,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer(tracerName),
	}
}

// Options returns the stage options the engine was built with.
func (e *Engine) Options() Options {
	return e.opts
}

// Compute runs the block, elevation and pit stages concurrently and derives
// the elevation range from their outputs. A failing stage contributes an
// empty profile; Compute itself never fails.
func (e *Engine) Compute(ctx context.Context, sec domain.Section) domain.CrossSection {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "section.Compute", trace.WithAttributes(
		attribute.String("source_projection", sec.SourceProjection),
		attribute.Int("blocks", len(sec.Blocks)),
		attribute.Int("elevation_points", len(sec.Elevation)),
	))
	defer span.End()

	line := sec.Line
	if line.Length <= 0 || math.IsNaN(line.Length) {
		line.Length = e.resolveLength(sec.SourceProjection, line)
	}

	var (
		wg        sync.WaitGroup
		blocks    []domain.IntersectedBlock
		profile   []domain.ElevationProfilePoint
		pit       []domain.PitProfilePoint
		blocksErr error
		elevErr   error
		pitErr    error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		_, s := e.tracer.Start(ctx, "section.IntersectBlocks")
		defer s.End()
		blocks, blocksErr = IntersectBlocks(sec.Blocks, e.projector, sec.SourceProjection, line, e.opts)
	}()
	go func() {
		defer wg.Done()
		_, s := e.tracer.Start(ctx, "section.SampleElevation")
		defer s.End()
		profile, elevErr = SampleElevation(sec.Elevation, e.projector, sec.SourceProjection, line, e.opts)
	}()
	go func() {
		defer wg.Done()
		_, s := e.tracer.Start(ctx, "section.ProjectPit")
		defer s.End()
		pit, pitErr = e.pitProfile(sec, line)
	}()
	wg.Wait()

	cs := domain.CrossSection{
		SourceProjection: sec.SourceProjection,
		LineLength:       line.Length,
		Blocks:           blocks,
		ElevationProfile: profile,
		PitProfile:       pit,
		ElevationRange:   ComputeElevationRange(blocks, profile, pit),
		ProcessedAt:      domain.Now(),
	}
	cs.Stats = e.stats(sec, cs)

	e.degraded(span, &cs, stageBlocks, blocksErr)
	e.degraded(span, &cs, stageElevation, elevErr)
	e.degraded(span, &cs, stagePit, pitErr)

	e.record(cs, time.Since(start))
	span.SetAttributes(attribute.Int("intersected_blocks", len(cs.Blocks)))
	return cs
}

// resolveLength measures the projected line, treating a panicking projector
// as a zero-length line.
func (e *Engine) resolveLength(source string, line domain.Line) (length float64) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("line length projection failed", "error", r)
			length = 0
		}
	}()
	return ProjectedLength(e.projector, source, line)
}

// pitProfile merges precomputed samples inside the line with projected
// vertices and orders them by distance.
func (e *Engine) pitProfile(sec domain.Section, line domain.Line) ([]domain.PitProfilePoint, error) {
	projected, err := ProjectPitGeometry(sec.PitVertices, e.projector, sec.SourceProjection, line, e.opts)

	merged := make([]domain.PitSample, 0, len(sec.PitSamples)+len(projected))
	for _, s := range sec.PitSamples {
		if s.Distance >= 0 && s.Distance <= line.Length {
			merged = append(merged, s)
		}
	}
	for _, p := range projected {
		merged = append(merged, domain.PitSample{Distance: p.Distance, Elevation: p.Elevation})
	}
	return ProjectPit(merged), err
}

func (e *Engine) degraded(span trace.Span, cs *domain.CrossSection, stage string, err error) {
	if err == nil {
		return
	}
	cs.Stats.DegradedStages++
	span.RecordError(err)
	e.metrics.StageFailures.WithLabelValues(stage).Inc()
	e.logger.Warn("section stage degraded to empty result", "stage", stage, "error", err)
}

func (e *Engine) stats(sec domain.Section, cs domain.CrossSection) domain.SectionStats {
	st := domain.SectionStats{
		InputBlocks:    sec.InputBlocks,
		ValidBlocks:    len(sec.Blocks),
		InputElevation: sec.InputElevation,
		ValidElevation: len(sec.Elevation),
		InputPit:       sec.InputPit,
		PitPoints:      len(cs.PitProfile),
	}
	for _, b := range cs.Blocks {
		if b.Method == domain.MethodProximity {
			st.ProximityBlocks++
		} else {
			st.ChordBlocks++
		}
	}
	for _, p := range cs.ElevationProfile {
		switch {
		case p.Elevation == nil:
			st.MissingSamples++
		case p.Interpolated:
			st.InterpolatedSamples++
		default:
			st.MeasuredSamples++
		}
	}
	return st
}

func (e *Engine) record(cs domain.CrossSection, elapsed time.Duration) {
	e.metrics.SectionsComputed.Inc()
	e.metrics.ComputeDuration.Observe(elapsed.Seconds())
	e.metrics.BlocksIntersected.Observe(float64(len(cs.Blocks)))
	e.metrics.IntersectionMethods.WithLabelValues(domain.MethodChord).Add(float64(cs.Stats.ChordBlocks))
	e.metrics.IntersectionMethods.WithLabelValues(domain.MethodProximity).Add(float64(cs.Stats.ProximityBlocks))
	e.metrics.ElevationSamples.WithLabelValues("measured").Add(float64(cs.Stats.MeasuredSamples))
	e.metrics.ElevationSamples.WithLabelValues("interpolated").Add(float64(cs.Stats.InterpolatedSamples))
	e.metrics.ElevationSamples.WithLabelValues("missing").Add(float64(cs.Stats.MissingSamples))

	e.logger.Debug("section computed",
		"source_projection", cs.SourceProjection,
		"line_length", cs.LineLength,
		"blocks", len(cs.Blocks),
		"pit_points", len(cs.PitProfile),
		"duration", elapsed,
	)
}

// Features renders the section line and matched footprints as GeoJSON using
// the engine's projector and options.
func (e *Engine) Features(sec domain.Section) *geojson.FeatureCollection {
	fc, err := Features(sec, e.projector, e.opts)
	if err != nil {
		e.metrics.StageFailures.WithLabelValues(stageFeatures).Inc()
		e.logger.Warn("section stage degraded to empty result", "stage", stageFeatures, "error", err)
	}
	return fc
}
