// Command genmock writes a synthetic cross-section request fixture: a block
// grid, a rolling terrain cloud and a pit ring around a chosen origin. With
// -result-out it also runs the request through the section engine so the
// expected output can be committed alongside the request.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/section_request.json \
//	  -result-out data/mock/section_result.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/cross-section-service/internal/adapter/projection"
	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/fixture"
	"github.com/couchcryptid/cross-section-service/internal/observability"
	"github.com/couchcryptid/cross-section-service/internal/section"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := fixture.DefaultOptions()
	out := flag.String("out", "", "output path for the request fixture")
	resultOut := flag.String("result-out", "", "optional output path for the computed cross-section")
	id := flag.String("id", defaults.ID, "request id")
	proj := flag.String("projection", defaults.Projection, "source projection (EPSG code)")
	lat := flag.Float64("lat", defaults.OriginLat, "origin latitude")
	lng := flag.Float64("lng", defaults.OriginLng, "origin longitude")
	grid := flag.Int("grid", defaults.GridSize, "blocks per side")
	layers := flag.Int("layers", defaults.Layers, "block layers")
	blockSize := flag.Float64("block-size", defaults.BlockSize, "block size in metres")
	spacing := flag.Float64("terrain-spacing", defaults.TerrainSpacing, "terrain point spacing in metres")
	pitRadius := flag.Float64("pit-radius", defaults.PitRadius, "pit radius in metres")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	opts := fixture.Options{
		ID:             *id,
		Projection:     *proj,
		OriginLat:      *lat,
		OriginLng:      *lng,
		GridSize:       *grid,
		Layers:         *layers,
		BlockSize:      *blockSize,
		TerrainSpacing: *spacing,
		PitRadius:      *pitRadius,
		PitVertices:    defaults.PitVertices,
	}

	registry := projection.NewRegistry()
	req, err := fixture.Build(registry, opts)
	if err != nil {
		return fmt.Errorf("build fixture: %w", err)
	}
	if err := writeJSON(*out, req); err != nil {
		return fmt.Errorf("writing request fixture: %w", err)
	}
	log.Printf("wrote request fixture: %s (%d blocks, %d terrain points, %d pit vertices)",
		*out, len(req.Blocks), len(req.Elevation), len(req.Pit))

	if *resultOut == "" {
		return nil
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	sec, err := domain.NormalizeRequest(req)
	if err != nil {
		return fmt.Errorf("normalize fixture: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	engine := section.NewEngine(registry, section.DefaultOptions(), logger, observability.NewMetrics())
	cs := engine.Compute(context.Background(), sec)
	cs.RequestID = req.ID

	if err := writeJSON(*resultOut, cs); err != nil {
		return fmt.Errorf("writing result fixture: %w", err)
	}
	log.Printf("wrote result fixture: %s", *resultOut)

	printStats(cs)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(cs domain.CrossSection) {
	st := cs.Stats
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Line length: %.3f m\n", cs.LineLength)
	fmt.Printf("Blocks: %d input, %d valid, %d chord, %d proximity\n",
		st.InputBlocks, st.ValidBlocks, st.ChordBlocks, st.ProximityBlocks)
	fmt.Printf("Elevation: %d input, %d valid, %d measured, %d interpolated, %d missing\n",
		st.InputElevation, st.ValidElevation, st.MeasuredSamples, st.InterpolatedSamples, st.MissingSamples)
	fmt.Printf("Pit: %d input, %d profile points\n", st.InputPit, st.PitPoints)
	fmt.Printf("Elevation range: %.3f .. %.3f\n", cs.ElevationRange.Min, cs.ElevationRange.Max)

	rocks := map[string]int{}
	for _, b := range cs.Blocks {
		rocks[b.Rock]++
	}
	fmt.Printf("By rock: ore=%d, waste=%d, overburden=%d\n", rocks["ore"], rocks["waste"], rocks["overburden"])
}
