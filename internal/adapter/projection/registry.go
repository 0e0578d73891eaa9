// Package projection implements domain.Projector for the coordinate systems
// block models are delivered in: WGS84 geographic, WGS84 / UTM north and
// south zones, and Web Mercator.
package projection

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

var (
	// ErrUnsupportedCRS is returned for codes the registry cannot transform.
	ErrUnsupportedCRS = errors.New("unsupported coordinate reference system")

	// ErrInvalidCoordinate is returned for non-finite input or output values.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

type crsKind int

const (
	kindGeographic crsKind = iota
	kindMercator
	kindUTM
)

// crs is a parsed coordinate reference system code.
type crs struct {
	kind  crsKind
	zone  int
	north bool
}

// Registry transforms between the supported systems through WGS84.
// It is stateless and safe for concurrent use.
type Registry struct{}

// NewRegistry creates a projection registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Project converts p from one system to another. Points are (x, y) ordered:
// longitude/latitude for geographic systems, easting/northing otherwise.
func (r *Registry) Project(from, to string, p orb.Point) (orb.Point, error) {
	if !finite(p) {
		return orb.Point{}, fmt.Errorf("project %v: %w", p, ErrInvalidCoordinate)
	}
	src, err := parseCode(from)
	if err != nil {
		return orb.Point{}, err
	}
	dst, err := parseCode(to)
	if err != nil {
		return orb.Point{}, err
	}
	if src == dst {
		return p, nil
	}

	lonLat, err := src.toWGS84(p)
	if err != nil {
		return orb.Point{}, fmt.Errorf("project %s to WGS84: %w", from, err)
	}
	out, err := dst.fromWGS84(lonLat)
	if err != nil {
		return orb.Point{}, fmt.Errorf("project WGS84 to %s: %w", to, err)
	}
	if !finite(out) {
		return orb.Point{}, fmt.Errorf("project %s to %s: %w", from, to, ErrInvalidCoordinate)
	}
	return out, nil
}

// Validate reports whether code names a supported system.
func Validate(code string) error {
	_, err := parseCode(code)
	return err
}

// parseCode parses "EPSG:nnnn" (case-insensitive, prefix optional).
func parseCode(code string) (crs, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	c = strings.TrimPrefix(c, "EPSG:")
	switch c {
	case "WGS84", "CRS84":
		return crs{kind: kindGeographic}, nil
	}

	n, err := strconv.Atoi(c)
	if err != nil {
		return crs{}, fmt.Errorf("%w: %q", ErrUnsupportedCRS, code)
	}
	switch {
	case n == 4326 || n == 4979:
		return crs{kind: kindGeographic}, nil
	case n == 3857 || n == 900913 || n == 3785 || n == 102100:
		return crs{kind: kindMercator}, nil
	case n >= 32601 && n <= 32660:
		return crs{kind: kindUTM, zone: n - 32600, north: true}, nil
	case n >= 32701 && n <= 32760:
		return crs{kind: kindUTM, zone: n - 32700, north: false}, nil
	}
	return crs{}, fmt.Errorf("%w: %q", ErrUnsupportedCRS, code)
}

func (c crs) toWGS84(p orb.Point) (orb.Point, error) {
	switch c.kind {
	case kindMercator:
		return project.Mercator.ToWGS84(p), nil
	case kindUTM:
		lon, lat := utmProjection(c.zone, c.north).inverse(p[0], p[1])
		if math.IsNaN(lon) || math.IsNaN(lat) || math.Abs(lat) > 90 {
			return orb.Point{}, fmt.Errorf("easting/northing %v: %w", p, ErrInvalidCoordinate)
		}
		return orb.Point{lon, lat}, nil
	default:
		return p, nil
	}
}

func (c crs) fromWGS84(p orb.Point) (orb.Point, error) {
	lon, lat := p[0], p[1]
	if math.Abs(lon) > 180 || math.Abs(lat) > 90 {
		return orb.Point{}, fmt.Errorf("lon/lat %v: %w", p, ErrInvalidCoordinate)
	}

	switch c.kind {
	case kindMercator:
		return project.WGS84.ToMercator(p), nil
	case kindUTM:
		// The zone's central meridian is fixed; points outside the 6° strip
		// stay on the same grid.
		easting, northing := utmProjection(c.zone, c.north).forward(lon, lat)
		return orb.Point{easting, northing}, nil
	default:
		return p, nil
	}
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}
