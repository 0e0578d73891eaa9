package section

import (
	"math"

	"github.com/couchcryptid/cross-section-service/internal/domain"
)

// RangePadding is added below the lowest and above the highest elevation.
const RangePadding = 20.0

// DefaultRange is returned when there is no elevation data at all.
var DefaultRange = domain.ElevationRange{Min: 0, Max: 100}

// ComputeElevationRange returns the padded elevation window covering block
// tops and bottoms, measured profile elevations and pit elevations.
func ComputeElevationRange(blocks []domain.IntersectedBlock, profile []domain.ElevationProfilePoint, pit []domain.PitProfilePoint) domain.ElevationRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	add := func(v float64) {
		if !finite(v) {
			return
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	for _, b := range blocks {
		add(b.Elevation - b.Height/2)
		add(b.Elevation + b.Height/2)
	}
	for _, p := range profile {
		if p.Elevation != nil {
			add(*p.Elevation)
		}
	}
	for _, p := range pit {
		add(p.Elevation)
	}

	if lo > hi {
		return DefaultRange
	}
	return domain.ElevationRange{Min: lo - RangePadding, Max: hi + RangePadding}
}
