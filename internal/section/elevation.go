package section

import (
	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/geometry"
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// idwEpsilon keeps inverse-distance weights finite at zero distance.
const idwEpsilon = 1e-6

// elevationItem is a terrain sample stored in the spatial index.
type elevationItem struct {
	p orb.Point
	z float64
}

func (e *elevationItem) Bounds() rtreego.Rect {
	return rtreego.Point{e.p[0], e.p[1]}.ToRect(1e-9)
}

// SampleElevation produces opts.Samples+1 evenly spaced terrain samples from
// distance 0 to line.Length inclusive.
//
// Each sample takes the nearest terrain point within opts.SearchRadius. When
// backfill is enabled and fewer than opts.BackfillThreshold of the samples
// were found, the remaining gaps are filled by inverse-distance weighting over
// all points within opts.BackfillRadius. Samples with no data stay nil.
func SampleElevation(points []domain.ElevationPoint, proj domain.Projector, source string, line domain.Line, opts Options) (out []domain.ElevationProfilePoint, err error) {
	out = []domain.ElevationProfilePoint{}
	defer recoverStage("sample elevation", &out, &err)

	n := opts.Samples
	if n <= 0 {
		n = DefaultOptions().Samples
	}

	start, end := projectLine(proj, source, line)
	length := line.Length
	if length <= 0 {
		length = planar.Distance(start, end)
	}

	out = make([]domain.ElevationProfilePoint, n+1)
	for i := range out {
		out[i].Distance = length * float64(i) / float64(n)
	}

	tree := buildElevationIndex(points, proj, source)
	if tree.Size() == 0 {
		return out, nil
	}

	found := 0
	for i := range out {
		pos := geometry.Interpolate(start, end, float64(i)/float64(n))
		if z, ok := nearestWithin(tree, pos, opts.SearchRadius); ok {
			out[i].Elevation = &z
			found++
		}
	}

	if opts.Backfill && float64(found)/float64(len(out)) < opts.BackfillThreshold {
		for i := range out {
			if out[i].Elevation != nil {
				continue
			}
			pos := geometry.Interpolate(start, end, float64(i)/float64(n))
			if z, ok := inverseDistance(tree, pos, opts.BackfillRadius); ok {
				out[i].Elevation = &z
				out[i].Interpolated = true
			}
		}
	}
	return out, nil
}

// buildElevationIndex bulk-loads the metric terrain cloud into an R-tree.
func buildElevationIndex(points []domain.ElevationPoint, proj domain.Projector, source string) *rtreego.Rtree {
	cloud := make([]orb.Point, len(points))
	for i, p := range points {
		cloud[i] = orb.Point{p.X, p.Y}
	}
	cloud = toMetricCloud(proj, source, cloud)

	items := make([]rtreego.Spatial, 0, len(cloud))
	for i, p := range cloud {
		if !geometry.IsFinite(p) {
			continue
		}
		items = append(items, &elevationItem{p: p, z: points[i].Z})
	}
	return rtreego.NewTree(2, 25, 50, items...)
}

func nearestWithin(tree *rtreego.Rtree, pos orb.Point, radius float64) (float64, bool) {
	nn, ok := tree.NearestNeighbor(rtreego.Point{pos[0], pos[1]}).(*elevationItem)
	if !ok || nn == nil {
		return 0, false
	}
	if planar.Distance(pos, nn.p) > radius {
		return 0, false
	}
	return nn.z, true
}

// inverseDistance interpolates with weight 1/(d²+ε) over every point within cutoff.
func inverseDistance(tree *rtreego.Rtree, pos orb.Point, cutoff float64) (float64, bool) {
	window, err := rtreego.NewRect(rtreego.Point{pos[0] - cutoff, pos[1] - cutoff}, []float64{2 * cutoff, 2 * cutoff})
	if err != nil {
		return 0, false
	}

	var sumW, sumZ float64
	for _, s := range tree.SearchIntersect(window) {
		item := s.(*elevationItem)
		d2 := planar.DistanceSquared(pos, item.p)
		if d2 > cutoff*cutoff {
			continue
		}
		w := 1 / (d2 + idwEpsilon)
		sumW += w
		sumZ += w * item.z
	}
	if sumW == 0 {
		return 0, false
	}
	return sumZ / sumW, true
}
