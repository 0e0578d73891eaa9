package section

import (
	"fmt"
	"slices"

	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/geometry"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Features returns the section line and every matched block footprint as a
// GeoJSON feature collection in the source projection. Blocks are emitted in
// the same order IntersectBlocks reports them.
//
// Like the stage functions it always returns a collection. After a panic the
// collection holds only the line, in its original coordinates, marked
// degraded, and the error describes the panic.
func Features(sec domain.Section, proj domain.Projector, opts Options) (fc *geojson.FeatureCollection, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw := orb.LineString{
				{sec.Line.StartLng, sec.Line.StartLat},
				{sec.Line.EndLng, sec.Line.EndLat},
			}
			lf := lineFeature(sec.SourceProjection, raw)
			lf.Properties["degraded"] = true
			fc = geojson.NewFeatureCollection()
			fc.Append(lf)
			err = fmt.Errorf("render features: recovered from panic: %v", r)
		}
	}()

	fc = geojson.NewFeatureCollection()

	start, end := projectLine(proj, sec.SourceProjection, sec.Line)
	length := planar.Distance(start, end)
	fc.Append(lineFeature(sec.SourceProjection, orb.LineString{start, end}))

	if length < minLineLength {
		return fc, nil
	}

	type match struct {
		block domain.Block
		ib    domain.IntersectedBlock
	}
	reach := orb.Bound{Min: start, Max: start}.Extend(end).Pad(opts.ProximityThreshold)
	matches := make([]match, 0)
	for _, b := range sec.Blocks {
		if ib, ok := intersectBlock(b, start, end, length, reach, opts); ok {
			matches = append(matches, match{block: b, ib: ib})
		}
	}

	slices.SortStableFunc(matches, func(a, b match) int {
		return compareIntersected(a.ib, b.ib)
	})

	for _, m := range matches {
		ring := geometry.Footprint(m.block.X, m.block.Y, m.block.Width, m.block.FootprintDepth())
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["kind"] = "block"
		f.Properties["rock"] = m.ib.Rock
		f.Properties["method"] = m.ib.Method
		f.Properties["distance"] = m.ib.Distance
		f.Properties["width"] = m.ib.Width
		f.Properties["elevation"] = m.ib.Elevation
		if m.ib.Color != "" {
			f.Properties["color"] = m.ib.Color
		}
		fc.Append(f)
	}
	return fc, nil
}

func lineFeature(source string, line orb.LineString) *geojson.Feature {
	f := geojson.NewFeature(line)
	f.Properties["kind"] = "line"
	f.Properties["source_projection"] = source
	f.Properties["length"] = planar.Distance(line[0], line[1])
	return f
}
