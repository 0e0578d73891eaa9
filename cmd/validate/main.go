// Command validate computes a cross-section offline and checks the result
// against the engine's guarantees: block ordering, profile distance bounds,
// elevation range validity, degenerate-line handling and repeatability.
//
// Usage:
//
//	go run ./cmd/validate -request data/mock/section_request.json
//
// Without -request the built-in synthetic fixture is used.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/cross-section-service/internal/adapter/projection"
	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/couchcryptid/cross-section-service/internal/fixture"
	"github.com/couchcryptid/cross-section-service/internal/observability"
	"github.com/couchcryptid/cross-section-service/internal/section"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

// tolerance for distance bound checks.
const tolerance = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	requestPath := flag.String("request", "", "path to a cross-section request JSON (default: synthetic fixture)")
	flag.Parse()

	os.Exit(run(*requestPath))
}

func run(requestPath string) int {
	// Set a fixed clock so repeated computations compare equal.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Cross-Section Validation ===")
	fmt.Println()

	registry := projection.NewRegistry()
	req, err := loadRequest(registry, requestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load request: %v\n", err)
		return 1
	}
	sec, err := domain.NormalizeRequest(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: normalize request: %v\n", err)
		return 1
	}
	if err := projection.Validate(sec.SourceProjection); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := section.NewEngine(registry, section.DefaultOptions(), logger, observability.NewMetrics())
	cs := engine.Compute(context.Background(), sec)

	// ── Run validation phases ──
	phases := []*phase{
		validateBlockOrder(cs),
		validateDistanceBounds(cs),
		validateElevationRange(cs),
		validateDegenerateLine(engine, sec),
		validateRepeatability(engine, sec, cs),
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Line: %.3f m in %s; %d blocks, %d profile samples, %d pit points, degraded stages: %d\n",
		cs.LineLength, cs.SourceProjection, len(cs.Blocks), len(cs.ElevationProfile), len(cs.PitProfile), cs.Stats.DegradedStages)

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadRequest(proj domain.Projector, path string) (domain.SectionRequest, error) {
	if path == "" {
		return fixture.Build(proj, fixture.DefaultOptions())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SectionRequest{}, err
	}
	return domain.DecodeRequest(data)
}

// ── Validation phases ──

func validateBlockOrder(cs domain.CrossSection) *phase {
	p := &phase{name: "Block order (distance, elevation)"}
	for i := 1; i < len(cs.Blocks); i++ {
		prev, cur := cs.Blocks[i-1], cs.Blocks[i]
		if prev.Distance > cur.Distance {
			p.errorf("block %d distance %.6f after %.6f", i, cur.Distance, prev.Distance)
			continue
		}
		if prev.Distance == cur.Distance && prev.Elevation > cur.Elevation {
			p.errorf("block %d elevation %.3f after %.3f at distance %.6f", i, cur.Elevation, prev.Elevation, cur.Distance)
		}
	}
	for i, b := range cs.Blocks {
		if math.IsNaN(b.Distance) || math.IsNaN(b.Width) {
			p.errorf("block %d has NaN geometry", i)
		}
	}
	return p
}

func validateDistanceBounds(cs domain.CrossSection) *phase {
	p := &phase{name: "Profile distance bounds"}
	inBounds := func(d float64) bool {
		return d >= -tolerance && d <= cs.LineLength+tolerance
	}
	for i, pt := range cs.ElevationProfile {
		if !inBounds(pt.Distance) {
			p.errorf("elevation sample %d at %.6f outside [0, %.6f]", i, pt.Distance, cs.LineLength)
		}
	}
	for i, pt := range cs.PitProfile {
		if !inBounds(pt.Distance) {
			p.errorf("pit point %d at %.6f outside [0, %.6f]", i, pt.Distance, cs.LineLength)
		}
	}
	return p
}

func validateElevationRange(cs domain.CrossSection) *phase {
	p := &phase{name: "Elevation range validity"}
	r := cs.ElevationRange
	if !(r.Min < r.Max) {
		p.errorf("range min %.3f is not below max %.3f", r.Min, r.Max)
	}
	empty := section.ComputeElevationRange(nil, nil, nil)
	if empty != section.DefaultRange {
		p.errorf("empty range is %+v, want %+v", empty, section.DefaultRange)
	}
	return p
}

func validateDegenerateLine(engine *section.Engine, sec domain.Section) *phase {
	p := &phase{name: "Degenerate line"}
	sec.Line.EndLat, sec.Line.EndLng = sec.Line.StartLat, sec.Line.StartLng
	sec.Line.Length = 0

	cs := engine.Compute(context.Background(), sec)
	if len(cs.Blocks) != 0 {
		p.errorf("zero-length line matched %d blocks", len(cs.Blocks))
	}
	for i, pt := range cs.ElevationProfile {
		if math.IsNaN(pt.Distance) || (pt.Elevation != nil && math.IsNaN(*pt.Elevation)) {
			p.errorf("elevation sample %d is NaN", i)
		}
	}
	return p
}

func validateRepeatability(engine *section.Engine, sec domain.Section, first domain.CrossSection) *phase {
	p := &phase{name: "Repeatability"}
	second := engine.Compute(context.Background(), sec)
	if diff := cmp.Diff(first, second); diff != "" {
		p.errorf("repeated computation differs (-first +second):\n%s", diff)
	}
	return p
}
