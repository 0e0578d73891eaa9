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

// IntersectBlocks maps every block the line crosses onto the line's distance
// axis. The result is sorted by distance, then elevation.
//
// A block whose footprint the line enters yields its true chord. A block the
// line misses by less than opts.ProximityThreshold yields a proximity match
// at the centroid's projected distance with a damped width. A zero-length
// line yields no blocks.
func IntersectBlocks(blocks []domain.Block, proj domain.Projector, source string, line domain.Line, opts Options) (out []domain.IntersectedBlock, err error) {
	out = []domain.IntersectedBlock{}
	defer recoverStage("intersect blocks", &out, &err)

	start, end := projectLine(proj, source, line)
	length := planar.Distance(start, end)
	if length < minLineLength || math.IsNaN(length) {
		return out, nil
	}

	reach := orb.Bound{Min: start, Max: start}.Extend(end).Pad(opts.ProximityThreshold)
	for _, b := range blocks {
		if ib, ok := intersectBlock(b, start, end, length, reach, opts); ok {
			out = append(out, ib)
		}
	}

	sortIntersected(out)
	return out, nil
}

// intersectBlock maps a single block, reporting false when the block is
// neither crossed nor close enough for a proximity match.
func intersectBlock(b domain.Block, start, end orb.Point, length float64, reach orb.Bound, opts Options) (domain.IntersectedBlock, bool) {
	ring := geometry.Footprint(b.X, b.Y, b.Width, b.FootprintDepth())
	if !ring.Bound().Intersects(reach) {
		return domain.IntersectedBlock{}, false
	}

	if entry, exit, ok := chord(ring, start, end, length); ok {
		return newIntersected(b, entry, exit-entry, domain.MethodChord), true
	}

	t, dist := geometry.ProjectOntoSegment(orb.Point{b.X, b.Y}, start, end)
	if dist < opts.ProximityThreshold {
		return newIntersected(b, t*length, b.Width*opts.ProximityDamping, domain.MethodProximity), true
	}
	return domain.IntersectedBlock{}, false
}

// chord returns the entry and exit distances of the line through the ring.
// Edge crossings are collected from every ring edge; an endpoint inside the
// ring contributes its own distance so lines that start or end inside a
// footprint are clipped there.
func chord(ring orb.Ring, start, end orb.Point, length float64) (entry, exit float64, ok bool) {
	entry, exit = math.Inf(1), math.Inf(-1)
	track := func(d float64) {
		entry = math.Min(entry, d)
		exit = math.Max(exit, d)
		ok = true
	}

	for i := 0; i < len(ring)-1; i++ {
		if p, hit := geometry.SegmentIntersection(start, end, ring[i], ring[i+1]); hit {
			track(planar.Distance(start, p))
		}
	}
	if geometry.Contains(ring, start) {
		track(0)
	}
	if geometry.Contains(ring, end) {
		track(length)
	}
	return entry, exit, ok
}

func newIntersected(b domain.Block, distance, width float64, method string) domain.IntersectedBlock {
	return domain.IntersectedBlock{
		Distance:    distance,
		Width:       width,
		Height:      b.Height,
		Elevation:   b.Z,
		Rock:        b.Rock,
		Color:       b.Color,
		Concentrate: b.Concentrate,
		Method:      method,
	}
}

func sortIntersected(blocks []domain.IntersectedBlock) {
	slices.SortStableFunc(blocks, compareIntersected)
}

func compareIntersected(a, b domain.IntersectedBlock) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.Elevation, b.Elevation)
}
