// Package section computes block-model cross-sections: which blocks a section
// line crosses, the terrain profile under it, the pit outline along it, and a
// padded elevation window for chart scaling.
//
// The stage functions are pure. Each one recovers from internal panics and
// returns an empty, non-nil slice alongside a descriptive error, so callers can
// always render partial data.
package section

import (
	"fmt"

	"github.com/couchcryptid/cross-section-service/internal/config"
	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/geometry"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Options tunes the section stages.
type Options struct {
	// Samples is the number of elevation intervals; the profile has Samples+1 points.
	Samples int

	// SearchRadius is the nearest-neighbour cutoff for elevation samples (m).
	SearchRadius float64

	// Backfill enables IDW gap filling when fewer than BackfillThreshold of
	// the samples found a neighbour within SearchRadius.
	Backfill          bool
	BackfillThreshold float64
	BackfillRadius    float64

	// ProximityThreshold is the maximum centroid-to-line distance (m) for the
	// fallback match; ProximityDamping scales the fallback width.
	ProximityThreshold float64
	ProximityDamping   float64

	// PitMaxDistance is the maximum vertex-to-line distance (m) for pit vertices.
	PitMaxDistance float64
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Samples:            100,
		SearchRadius:       20,
		Backfill:           true,
		BackfillThreshold:  0.5,
		BackfillRadius:     500,
		ProximityThreshold: 20,
		ProximityDamping:   0.7,
		PitMaxDistance:     150,
	}
}

// OptionsFromConfig overlays the configured values onto the defaults.
func OptionsFromConfig(cfg config.SectionConfig) Options {
	opts := DefaultOptions()
	if cfg.Samples > 0 {
		opts.Samples = cfg.Samples
	}
	if cfg.SearchRadius > 0 {
		opts.SearchRadius = cfg.SearchRadius
	}
	if cfg.BackfillRadius > 0 {
		opts.BackfillRadius = cfg.BackfillRadius
	}
	if cfg.ProximityThreshold > 0 {
		opts.ProximityThreshold = cfg.ProximityThreshold
	}
	if cfg.PitMaxDistance > 0 {
		opts.PitMaxDistance = cfg.PitMaxDistance
	}
	opts.Backfill = cfg.Backfill
	return opts
}

// minLineLength is the projected length below which a line is degenerate.
const minLineLength = 1e-9

// recoverStage turns a panic inside a stage into an empty result and an error.
// It must be deferred directly by the stage function.
func recoverStage[T any](stage string, out *[]T, err *error) {
	if r := recover(); r != nil {
		*out = []T{}
		*err = fmt.Errorf("%s: recovered from panic: %v", stage, r)
	}
}

// toProjected converts a point into the source system, keeping the original
// coordinates when the projector is missing or fails.
func toProjected(proj domain.Projector, from, to string, p orb.Point) orb.Point {
	if proj == nil || from == to {
		return p
	}
	out, err := proj.Project(from, to, p)
	if err != nil || !geometry.IsFinite(out) {
		return p
	}
	return out
}

// projectLine returns the line endpoints in the source system.
func projectLine(proj domain.Projector, source string, line domain.Line) (start, end orb.Point) {
	start = toProjected(proj, domain.WGS84, source, orb.Point{line.StartLng, line.StartLat})
	end = toProjected(proj, domain.WGS84, source, orb.Point{line.EndLng, line.EndLat})
	return start, end
}

// ProjectedLength returns the planar length of the line in the source system.
func ProjectedLength(proj domain.Projector, source string, line domain.Line) float64 {
	start, end := projectLine(proj, source, line)
	return planar.Distance(start, end)
}

// toMetricCloud converts a cloud to the source system when it looks geodetic.
func toMetricCloud(proj domain.Projector, source string, cloud []orb.Point) []orb.Point {
	if !geometry.LooksGeodetic(cloud) {
		return cloud
	}
	out := make([]orb.Point, len(cloud))
	for i, p := range cloud {
		out[i] = toProjected(proj, domain.WGS84, source, p)
	}
	return out
}
