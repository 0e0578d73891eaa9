package section

import (
	"cmp"
	"math"
	"slices"

	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/geometry"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ProjectPit orders precomputed pit samples by distance. Non-finite samples
// are dropped; nothing is interpolated.
func ProjectPit(samples []domain.PitSample) []domain.PitProfilePoint {
	out := make([]domain.PitProfilePoint, 0, len(samples))
	for _, s := range samples {
		if !finite(s.Distance) || !finite(s.Elevation) {
			continue
		}
		out = append(out, domain.PitProfilePoint{Distance: s.Distance, Elevation: s.Elevation})
	}
	sortPit(out)
	return out
}

// ProjectPitGeometry projects raw pit vertices onto the line. Vertices within
// opts.PitMaxDistance of the segment are kept at their clamped position along
// it, scaled to line.Length.
func ProjectPitGeometry(vertices []domain.PitVertex, proj domain.Projector, source string, line domain.Line, opts Options) (out []domain.PitProfilePoint, err error) {
	out = []domain.PitProfilePoint{}
	defer recoverStage("project pit", &out, &err)

	start, end := projectLine(proj, source, line)
	length := line.Length
	if length <= 0 {
		length = planar.Distance(start, end)
	}

	cloud := make([]orb.Point, len(vertices))
	for i, v := range vertices {
		cloud[i] = orb.Point{v.X, v.Y}
	}
	cloud = toMetricCloud(proj, source, cloud)

	for i, p := range cloud {
		t, dist := geometry.ProjectOntoSegment(p, start, end)
		if dist > opts.PitMaxDistance || !finite(vertices[i].Z) {
			continue
		}
		out = append(out, domain.PitProfilePoint{Distance: t * length, Elevation: vertices[i].Z})
	}

	sortPit(out)
	return out, nil
}

func sortPit(points []domain.PitProfilePoint) {
	slices.SortStableFunc(points, func(a, b domain.PitProfilePoint) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
