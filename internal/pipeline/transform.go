package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/cross-section-service/internal/adapter/projection"
	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/observability"
	"github.com/couchcryptid/cross-section-service/internal/section"
)

// requestIDHeader is the message header consulted when the body has no ID.
const requestIDHeader = "request_id"

// SectionTransformer implements Transformer by decoding a request message and
// running it through a section.Computer.
type SectionTransformer struct {
	computer section.Computer
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewTransformer creates a SectionTransformer.
func NewTransformer(computer section.Computer, metrics *observability.Metrics, logger *slog.Logger) *SectionTransformer {
	return &SectionTransformer{
		computer: computer,
		metrics:  metrics,
		logger:   logger,
	}
}

func (t *SectionTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.CrossSection, error) {
	req, err := domain.DecodeRequest(raw.Value)
	if err != nil {
		return t.reject(err)
	}
	sec, err := domain.NormalizeRequest(req)
	if err != nil {
		return t.reject(err)
	}
	if err := projection.Validate(sec.SourceProjection); err != nil {
		return t.reject(err)
	}

	cs := t.computer.Compute(ctx, sec)
	cs.RequestID = requestID(req, raw)
	t.logger.Debug("cross-section computed",
		"request_id", cs.RequestID,
		"blocks", len(cs.Blocks),
		"offset", raw.Offset,
	)
	return cs, nil
}

func (t *SectionTransformer) reject(err error) (domain.CrossSection, error) {
	t.metrics.RequestsRejected.WithLabelValues("kafka").Inc()
	return domain.CrossSection{}, fmt.Errorf("transform request: %w", err)
}

// requestID prefers the body ID, then the request_id header, then the
// message key.
func requestID(req domain.SectionRequest, raw domain.RawEvent) string {
	if req.ID != "" {
		return req.ID
	}
	if id := raw.Headers[requestIDHeader]; id != "" {
		return id
	}
	return string(raw.Key)
}
