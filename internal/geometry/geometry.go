// Package geometry holds the planar primitives shared by the section stages.
//
// All functions work in a projected metric plane and never return NaN: degenerate
// inputs (zero-length segments, parallel edges) report "no match" instead.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// epsilon below which a cross product or squared length is treated as zero.
const epsilon = 1e-12

func cross(a, b orb.Point) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

func sub(a, b orb.Point) orb.Point {
	return orb.Point{a[0] - b[0], a[1] - b[1]}
}

// SegmentIntersection reports where segment p1-p2 crosses segment p3-p4,
// using the parametric cross-product form. Parallel and collinear segments
// never intersect, even when they overlap.
func SegmentIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	r := sub(p2, p1)
	s := sub(p4, p3)

	denom := cross(r, s)
	if math.Abs(denom) < epsilon {
		return orb.Point{}, false
	}

	qp := sub(p3, p1)
	t := cross(qp, s) / denom
	u := cross(qp, r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return orb.Point{}, false
	}
	return orb.Point{p1[0] + t*r[0], p1[1] + t*r[1]}, true
}

// Footprint returns the closed axis-aligned ring centred on (cx, cy).
// The ring has five vertices; the last repeats the first.
func Footprint(cx, cy, width, depth float64) orb.Ring {
	hw, hd := width/2, depth/2
	return orb.Ring{
		{cx - hw, cy - hd},
		{cx + hw, cy - hd},
		{cx + hw, cy + hd},
		{cx - hw, cy + hd},
		{cx - hw, cy - hd},
	}
}

// Contains reports whether p lies inside the ring by the odd-crossing rule.
func Contains(r orb.Ring, p orb.Point) bool {
	return planar.RingContains(r, p)
}

// ProjectOntoSegment projects p onto the line through a and b, clamps the
// ratio to [0,1] and returns it together with the distance from p to the
// clamped point. A zero-length segment yields (0, +Inf).
func ProjectOntoSegment(p, a, b orb.Point) (t, dist float64) {
	ab := sub(b, a)
	lenSq := ab[0]*ab[0] + ab[1]*ab[1]
	if lenSq < epsilon {
		return 0, math.Inf(1)
	}

	ap := sub(p, a)
	t = (ap[0]*ab[0] + ap[1]*ab[1]) / lenSq
	t = math.Max(0, math.Min(1, t))

	closest := orb.Point{a[0] + t*ab[0], a[1] + t*ab[1]}
	return t, planar.Distance(p, closest)
}

// Interpolate returns the point at ratio t along a-b.
func Interpolate(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// IsFinite reports whether both coordinates are finite numbers.
func IsFinite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}

// geodeticSample is how many leading points decide whether a cloud is geodetic.
const geodeticSample = 10

// LooksGeodetic reports whether the first points of a cloud all fall inside
// [-180,180]x[-90,90], i.e. are longitude/latitude rather than metres.
// An empty cloud is not geodetic.
func LooksGeodetic(points []orb.Point) bool {
	if len(points) == 0 {
		return false
	}
	n := min(len(points), geodeticSample)
	for _, p := range points[:n] {
		if math.Abs(p[0]) > 180 || math.Abs(p[1]) > 90 {
			return false
		}
	}
	return true
}
