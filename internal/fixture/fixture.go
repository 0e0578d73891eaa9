// Package fixture builds synthetic cross-section requests: a block grid,
// a gently rolling terrain cloud and a circular pit outline around a chosen
// origin, cut by an east-west section line through that origin.
package fixture

import (
	"fmt"
	"math"

	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/paulmach/orb"
)

// Options controls the generated fixture.
type Options struct {
	ID         string
	Projection string
	OriginLat  float64
	OriginLng  float64

	GridSize  int     // blocks per side
	Layers    int     // block layers below the surface
	BlockSize float64 // metres

	TerrainSpacing float64 // metres between terrain points
	PitRadius      float64 // metres
	PitVertices    int
}

// DefaultOptions returns a fixture in UTM zone 52N.
func DefaultOptions() Options {
	return Options{
		ID:             "fixture-1",
		Projection:     "EPSG:32652",
		OriginLat:      37.5,
		OriginLng:      129.0,
		GridSize:       20,
		Layers:         3,
		BlockSize:      10,
		TerrainSpacing: 5,
		PitRadius:      60,
		PitVertices:    36,
	}
}

var rocks = []struct {
	name  string
	color string
}{
	{"ore", "#c0392b"},
	{"waste", "#7f8c8d"},
	{"overburden", "#d4ac0d"},
}

// Surface returns the terrain elevation at an offset (dx, dy) from the origin.
func Surface(dx, dy float64) float64 {
	return 200 + 15*math.Sin(dx/50) + 10*math.Cos(dy/70)
}

// Build generates a request. The projector converts the origin into the
// target system and the line endpoints back to WGS84.
func Build(proj domain.Projector, opts Options) (domain.SectionRequest, error) {
	origin, err := proj.Project(domain.WGS84, opts.Projection, orb.Point{opts.OriginLng, opts.OriginLat})
	if err != nil {
		return domain.SectionRequest{}, fmt.Errorf("project origin: %w", err)
	}

	half := float64(opts.GridSize) * opts.BlockSize / 2
	start, err := proj.Project(opts.Projection, domain.WGS84, orb.Point{origin[0] - half, origin[1]})
	if err != nil {
		return domain.SectionRequest{}, fmt.Errorf("project line start: %w", err)
	}
	end, err := proj.Project(opts.Projection, domain.WGS84, orb.Point{origin[0] + half, origin[1]})
	if err != nil {
		return domain.SectionRequest{}, fmt.Errorf("project line end: %w", err)
	}

	return domain.SectionRequest{
		ID:               opts.ID,
		SourceProjection: opts.Projection,
		Line: &domain.Line{
			StartLat: start[1], StartLng: start[0],
			EndLat: end[1], EndLng: end[0],
			Length: 2 * half,
		},
		Blocks:    blocks(origin, opts),
		Elevation: terrain(origin, opts),
		Pit:       pit(origin, opts),
	}, nil
}

func blocks(origin orb.Point, opts Options) []domain.Record {
	half := float64(opts.GridSize) * opts.BlockSize / 2
	out := make([]domain.Record, 0, opts.GridSize*opts.GridSize*opts.Layers)
	for i := range opts.GridSize {
		for j := range opts.GridSize {
			dx := -half + (float64(i)+0.5)*opts.BlockSize
			dy := -half + (float64(j)+0.5)*opts.BlockSize
			top := Surface(dx, dy)
			for k := range opts.Layers {
				rock := rocks[(i+j+k)%len(rocks)]
				rec := domain.Record{
					"centroid_x": origin[0] + dx,
					"centroid_y": origin[1] + dy,
					"centroid_z": top - (float64(k)+0.5)*opts.BlockSize,
					"dim_x":      opts.BlockSize,
					"dim_y":      opts.BlockSize,
					"dim_z":      opts.BlockSize,
					"rock":       rock.name,
					"color":      rock.color,
				}
				if rock.name == "ore" {
					rec["concentrate"] = 0.5 + float64((i*7+j*3+k)%10)/4
				}
				out = append(out, rec)
			}
		}
	}
	return out
}

func terrain(origin orb.Point, opts Options) []domain.Record {
	half := float64(opts.GridSize) * opts.BlockSize / 2
	n := int(2*half/opts.TerrainSpacing) + 1
	out := make([]domain.Record, 0, n*n)
	for i := range n {
		for j := range n {
			dx := -half + float64(i)*opts.TerrainSpacing
			dy := -half + float64(j)*opts.TerrainSpacing
			out = append(out, domain.Record{
				"x": origin[0] + dx,
				"y": origin[1] + dy,
				"z": Surface(dx, dy),
			})
		}
	}
	return out
}

func pit(origin orb.Point, opts Options) []domain.Record {
	out := make([]domain.Record, 0, opts.PitVertices)
	for i := range opts.PitVertices {
		a := 2 * math.Pi * float64(i) / float64(opts.PitVertices)
		dx := opts.PitRadius * math.Cos(a)
		dy := opts.PitRadius * math.Sin(a)
		out = append(out, domain.Record{
			"x": origin[0] + dx,
			"y": origin[1] + dy,
			"z": Surface(dx, dy) - 40,
		})
	}
	return out
}
