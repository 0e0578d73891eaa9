package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Record is a single loosely-typed input row as decoded from JSON.
type Record map[string]any

// Line is the user-drawn cross-section line. Endpoints are geodetic degrees;
// Length is the planar length in meters precomputed by the caller.
type Line struct {
	StartLat float64 `json:"start_lat"`
	StartLng float64 `json:"start_lng"`
	EndLat   float64 `json:"end_lat"`
	EndLng   float64 `json:"end_lng"`
	Length   float64 `json:"length"`
}

// SectionRequest is the wire form of a cross-section request.
type SectionRequest struct {
	ID               string   `json:"id"`
	SourceProjection string   `json:"source_projection"`
	Line             *Line    `json:"line"`
	Blocks           []Record `json:"blocks,omitempty"`
	Elevation        []Record `json:"elevation,omitempty"`
	Pit              []Record `json:"pit,omitempty"`
}

// Block is a single block-model cell in projected metric coordinates.
type Block struct {
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Z           float64  `json:"z"`
	Width       float64  `json:"width"`
	Depth       float64  `json:"depth,omitempty"` // 0 when the source has no dim_y
	Height      float64  `json:"height"`
	Rock        string   `json:"rock"`
	Color       string   `json:"color,omitempty"`
	Concentrate *float64 `json:"concentrate,omitempty"`
}

// FootprintDepth returns the Y extent of the block footprint.
func (b Block) FootprintDepth() float64 {
	if b.Depth > 0 {
		return b.Depth
	}
	return b.Width
}

// ElevationPoint is a terrain sample, geodetic or projected.
type ElevationPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PitVertex is a raw pit-boundary vertex.
type PitVertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PitSample is a pit-boundary point already expressed on the section axis.
type PitSample struct {
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
}

// Section is a normalized request, ready for the geometry engine.
type Section struct {
	SourceProjection string           `json:"source_projection"`
	Line             Line             `json:"line"`
	Blocks           []Block          `json:"blocks"`
	Elevation        []ElevationPoint `json:"elevation"`
	PitVertices      []PitVertex      `json:"pit_vertices"`
	PitSamples       []PitSample      `json:"pit_samples"`

	// Record counts before normalization.
	InputBlocks    int `json:"input_blocks"`
	InputElevation int `json:"input_elevation"`
	InputPit       int `json:"input_pit"`
}

// Intersection methods.
const (
	MethodChord     = "chord"
	MethodProximity = "proximity"
)

// IntersectedBlock is a block footprint mapped onto the section distance axis.
type IntersectedBlock struct {
	Distance    float64  `json:"distance"` // entry point along the line
	Width       float64  `json:"width"`    // chord length, or damped width for proximity matches
	Height      float64  `json:"height"`
	Elevation   float64  `json:"elevation"`
	Rock        string   `json:"rock"`
	Color       string   `json:"color,omitempty"`
	Concentrate *float64 `json:"concentrate,omitempty"`
	Method      string   `json:"method"`
}

// ElevationProfilePoint is one terrain sample along the line. A nil Elevation
// means no data was found near that distance.
type ElevationProfilePoint struct {
	Distance     float64  `json:"distance"`
	Elevation    *float64 `json:"elevation"`
	Interpolated bool     `json:"interpolated,omitempty"`
}

// PitProfilePoint is one pit-boundary elevation along the line.
type PitProfilePoint struct {
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
}

// ElevationRange is the padded vertical window for chart scaling.
type ElevationRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SectionStats summarises how a cross-section was derived.
type SectionStats struct {
	InputBlocks         int  `json:"input_blocks"`
	ValidBlocks         int  `json:"valid_blocks"`
	ChordBlocks         int  `json:"chord_blocks"`
	ProximityBlocks     int  `json:"proximity_blocks"`
	InputElevation      int  `json:"input_elevation"`
	ValidElevation      int  `json:"valid_elevation"`
	MeasuredSamples     int  `json:"measured_samples"`
	InterpolatedSamples int  `json:"interpolated_samples"`
	MissingSamples      int  `json:"missing_samples"`
	InputPit            int  `json:"input_pit"`
	PitPoints           int  `json:"pit_points"`
	DegradedStages      int  `json:"degraded_stages"`
	Cached              bool `json:"cached"`
}

// CrossSection is the computed result consumed by chart renderers.
type CrossSection struct {
	RequestID        string                  `json:"request_id,omitempty"`
	SourceProjection string                  `json:"source_projection"`
	LineLength       float64                 `json:"line_length"`
	Blocks           []IntersectedBlock      `json:"blocks"`
	ElevationProfile []ElevationProfilePoint `json:"elevation_profile"`
	PitProfile       []PitProfilePoint       `json:"pit_profile"`
	ElevationRange   ElevationRange          `json:"elevation_range"`
	Stats            SectionStats            `json:"stats"`
	ProcessedAt      time.Time               `json:"processed_at"`
}
