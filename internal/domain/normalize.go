package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMissingLine is returned when a request has no section line.
	ErrMissingLine = errors.New("section line is required")

	// ErrMissingProjection is returned when a request names no source projection.
	ErrMissingProjection = errors.New("source projection is required")
)

// Column aliases seen in block-model, topography and pit exports, lower-cased.
var (
	blockXKeys      = []string{"centroid_x", "x", "xc", "x_centre", "x_center", "xcentre", "easting"}
	blockYKeys      = []string{"centroid_y", "y", "yc", "y_centre", "y_center", "ycentre", "northing"}
	blockZKeys      = []string{"centroid_z", "z", "zc", "z_centre", "z_center", "zcentre", "elevation", "rl"}
	blockWidthKeys  = []string{"dim_x", "width", "xinc", "size_x", "dx"}
	blockDepthKeys  = []string{"dim_y", "depth", "yinc", "size_y", "dy"}
	blockHeightKeys = []string{"dim_z", "height", "zinc", "size_z", "dz"}
	rockKeys        = []string{"rock", "rock_type", "rocktype", "lithology", "lith"}
	colorKeys       = []string{"color", "colour"}
	concentrateKeys = []string{"concentrate", "grade", "conc"}

	pointXKeys = []string{"x", "lng", "lon", "long", "longitude", "easting"}
	pointYKeys = []string{"y", "lat", "latitude", "northing"}
	pointZKeys = []string{"z", "elevation", "elev", "level", "height", "rl"}

	pitDistanceKeys  = []string{"distance", "dist"}
	pitElevationKeys = []string{"elevation", "elev", "level", "z"}
)

// DecodeRequest parses the JSON wire form of a cross-section request.
func DecodeRequest(data []byte) (SectionRequest, error) {
	var req SectionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return SectionRequest{}, fmt.Errorf("parse section request: %w", err)
	}
	return req, nil
}

// NormalizeRequest validates a request and maps its heterogeneous records onto
// canonical types. Unusable records are dropped; only a missing line or
// projection is an error.
func NormalizeRequest(req SectionRequest) (Section, error) {
	if req.Line == nil {
		return Section{}, ErrMissingLine
	}
	src := strings.TrimSpace(req.SourceProjection)
	if src == "" {
		return Section{}, ErrMissingProjection
	}

	vertices, samples := NormalizePit(req.Pit)
	return Section{
		SourceProjection: src,
		Line:             *req.Line,
		Blocks:           NormalizeBlocks(req.Blocks),
		Elevation:        NormalizeElevation(req.Elevation),
		PitVertices:      vertices,
		PitSamples:       samples,
		InputBlocks:      len(req.Blocks),
		InputElevation:   len(req.Elevation),
		InputPit:         len(req.Pit),
	}, nil
}

// NormalizeBlocks converts block records, skipping any without a numeric
// centroid or without at least one positive extent.
func NormalizeBlocks(records []Record) []Block {
	blocks := make([]Block, 0, len(records))
	for _, rec := range records {
		if b, ok := normalizeBlock(lowerKeys(rec)); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func normalizeBlock(rec map[string]any) (Block, bool) {
	x, okX := numberField(rec, blockXKeys)
	y, okY := numberField(rec, blockYKeys)
	z, okZ := numberField(rec, blockZKeys)
	if !okX || !okY || !okZ {
		return Block{}, false
	}

	width, hasWidth := positiveField(rec, blockWidthKeys)
	depth, hasDepth := positiveField(rec, blockDepthKeys)
	height, hasHeight := positiveField(rec, blockHeightKeys)

	// Any single extent stands in for the missing ones.
	switch {
	case hasWidth:
	case hasDepth:
		width = depth
	case hasHeight:
		width = height
	default:
		return Block{}, false
	}
	if !hasHeight {
		height = width
	}

	b := Block{
		X:      x,
		Y:      y,
		Z:      z,
		Width:  width,
		Height: height,
		Rock:   "unknown",
	}
	if hasDepth {
		b.Depth = depth
	}
	if rock := stringField(rec, rockKeys); rock != "" {
		b.Rock = rock
	}
	b.Color = stringField(rec, colorKeys)
	if c, ok := numberField(rec, concentrateKeys); ok {
		b.Concentrate = &c
	}
	return b, true
}

// NormalizeElevation converts terrain records, skipping non-numeric ones.
func NormalizeElevation(records []Record) []ElevationPoint {
	points := make([]ElevationPoint, 0, len(records))
	for _, rec := range records {
		lr := lowerKeys(rec)
		x, okX := numberField(lr, pointXKeys)
		y, okY := numberField(lr, pointYKeys)
		z, okZ := numberField(lr, pointZKeys)
		if okX && okY && okZ {
			points = append(points, ElevationPoint{X: x, Y: y, Z: z})
		}
	}
	return points
}

// NormalizePit splits pit records into raw vertices and precomputed samples.
// A record carrying both a distance and an elevation is a sample; otherwise
// it needs a planar position and a level to be a vertex.
func NormalizePit(records []Record) ([]PitVertex, []PitSample) {
	var (
		vertices = make([]PitVertex, 0)
		samples  = make([]PitSample, 0)
	)
	for _, rec := range records {
		lr := lowerKeys(rec)
		if d, ok := numberField(lr, pitDistanceKeys); ok {
			if e, ok := numberField(lr, pitElevationKeys); ok {
				samples = append(samples, PitSample{Distance: d, Elevation: e})
				continue
			}
		}
		x, okX := numberField(lr, pointXKeys)
		y, okY := numberField(lr, pointYKeys)
		z, okZ := numberField(lr, pointZKeys)
		if okX && okY && okZ {
			vertices = append(vertices, PitVertex{X: x, Y: y, Z: z})
		}
	}
	return vertices, samples
}

func lowerKeys(rec Record) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, dup := out[lk]; !dup {
			out[lk] = v
		}
	}
	return out
}

// numberField returns the first alias holding a finite number.
func numberField(rec map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

func positiveField(rec map[string]any, keys []string) (float64, bool) {
	v, ok := numberField(rec, keys)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

func stringField(rec map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
