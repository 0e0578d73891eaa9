package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/cross-section-service/internal/adapter/projection"
	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/observability"
	"github.com/couchcryptid/cross-section-service/internal/section"
	"github.com/paulmach/orb/geojson"
)

const (
	requestIDHeader = "X-Request-ID"
	geoJSONType     = "application/geo+json"
)

// FeatureRenderer renders a normalized section as GeoJSON.
type FeatureRenderer interface {
	Features(sec domain.Section) *geojson.FeatureCollection
}

// SectionAPI serves cross-section computations over HTTP.
type SectionAPI struct {
	computer section.Computer
	renderer FeatureRenderer
	maxBytes int64
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewSectionAPI creates the handlers for the /v1/cross-sections routes.
// Request bodies larger than maxBytes are rejected.
func NewSectionAPI(computer section.Computer, renderer FeatureRenderer, maxBytes int64, metrics *observability.Metrics, logger *slog.Logger) *SectionAPI {
	return &SectionAPI{
		computer: computer,
		renderer: renderer,
		maxBytes: maxBytes,
		metrics:  metrics,
		logger:   logger,
	}
}

func (a *SectionAPI) handleCompute(w http.ResponseWriter, r *http.Request) {
	id, sec, status, err := a.readSection(w, r)
	if err != nil {
		a.reject(w, status, err)
		return
	}

	cs := a.computer.Compute(r.Context(), sec)
	cs.RequestID = id
	writeJSON(w, http.StatusOK, cs)
}

func (a *SectionAPI) handleFeatures(w http.ResponseWriter, r *http.Request) {
	_, sec, status, err := a.readSection(w, r)
	if err != nil {
		a.reject(w, status, err)
		return
	}

	w.Header().Set("Content-Type", geoJSONType)
	fc := a.renderer.Features(sec)
	data, err := fc.MarshalJSON()
	if err != nil {
		a.logger.Error("encode feature collection", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to encode features"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client may have gone away
}

// readSection decodes, normalizes and validates the request body. It returns
// the request ID together with the HTTP status to use on failure.
func (a *SectionAPI) readSection(w http.ResponseWriter, r *http.Request) (string, domain.Section, int, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", domain.Section{}, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return "", domain.Section{}, http.StatusBadRequest, fmt.Errorf("read request body: %w", err)
	}

	req, err := domain.DecodeRequest(body)
	if err != nil {
		return "", domain.Section{}, http.StatusBadRequest, err
	}
	sec, err := domain.NormalizeRequest(req)
	if err != nil {
		return "", domain.Section{}, http.StatusBadRequest, err
	}
	if err := projection.Validate(sec.SourceProjection); err != nil {
		return "", domain.Section{}, http.StatusBadRequest, err
	}

	id := req.ID
	if id == "" {
		id = r.Header.Get(requestIDHeader)
	}
	return id, sec, http.StatusOK, nil
}

func (a *SectionAPI) reject(w http.ResponseWriter, status int, err error) {
	a.metrics.RequestsRejected.WithLabelValues("http").Inc()
	a.logger.Warn("rejected cross-section request", "status", status, "error", err)
	writeError(w, status, err)
}
