package section

import (
	"math"
	"testing"

	"github.com/couchcryptid/cross-section-service/internal/adapter/projection"
	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block(x, y, z, width float64, rock string) domain.Block {
	return domain.Block{X: x, Y: y, Z: z, Width: width, Height: width, Rock: rock}
}

func TestIntersectBlocks_ChordThroughCentre(t *testing.T) {
	blocks := []domain.Block{block(0, 0, 100, 10, "ore")}
	line := projectedLine(0, -20, 0, 20)

	got, err := IntersectBlocks(blocks, identityProjector{}, localProjection, line, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.InDelta(t, 15.0, got[0].Distance, 1e-9)
	assert.InDelta(t, 10.0, got[0].Width, 1e-9)
	assert.Equal(t, 100.0, got[0].Elevation)
	assert.Equal(t, 10.0, got[0].Height)
	assert.Equal(t, "ore", got[0].Rock)
	assert.Equal(t, domain.MethodChord, got[0].Method)
}

func TestIntersectBlocks_ProximityFallback(t *testing.T) {
	blocks := []domain.Block{block(100, 5, 50, 4, "waste")}
	line := projectedLine(0, 0, 200, 0)

	got, err := IntersectBlocks(blocks, identityProjector{}, localProjection, line, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, domain.MethodProximity, got[0].Method)
	assert.InDelta(t, 2.8, got[0].Width, 1e-9)
	assert.InDelta(t, 100.0, got[0].Distance, 1e-9)
}

func TestIntersectBlocks_LineCrossingZoneBoundary(t *testing.T) {
	const utm52N = "EPSG:32652"
	reg := projection.NewRegistry()

	// 132°E is the eastern edge of zone 52; the line ends in zone 53.
	centre, err := reg.Project(domain.WGS84, utm52N, orb.Point{131.9995, 37})
	require.NoError(t, err)
	start, err := reg.Project(domain.WGS84, utm52N, orb.Point{131.998, 37})
	require.NoError(t, err)

	line := domain.Line{StartLng: 131.998, StartLat: 37, EndLng: 132.001, EndLat: 37}
	assert.InDelta(t, 267.16, ProjectedLength(reg, utm52N, line), 0.05)

	blocks := []domain.Block{block(centre[0], centre[1], 120, 10, "ore")}
	got, err := IntersectBlocks(blocks, reg, utm52N, line, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, domain.MethodChord, got[0].Method)
	assert.InDelta(t, 10.0, got[0].Width, 0.05)
	assert.InDelta(t, planar.Distance(start, centre)-5, got[0].Distance, 0.05)
}

func TestIntersectBlocks_BeyondThreshold(t *testing.T) {
	blocks := []domain.Block{block(100, 30, 50, 4, "waste")}
	line := projectedLine(0, 0, 200, 0)

	got, err := IntersectBlocks(blocks, identityProjector{}, localProjection, line, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestIntersectBlocks_DegenerateLine(t *testing.T) {
	blocks := []domain.Block{block(0, 0, 100, 10, "ore")}
	line := projectedLine(0, 0, 0, 0)

	got, err := IntersectBlocks(blocks, identityProjector{}, localProjection, line, DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestIntersectBlocks_EndpointsInsideFootprint(t *testing.T) {
	t.Run("line starts inside", func(t *testing.T) {
		blocks := []domain.Block{block(0, 0, 10, 10, "ore")}
		line := projectedLine(0, 0, 0, 20)

		got, err := IntersectBlocks(blocks, identityProjector{}, localProjection, line, DefaultOptions())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, 0.0, got[0].Distance, 1e-9)
		assert.InDelta(t, 5.0, got[0].Width, 1e-9)
	})

	t.Run("line entirely inside", func(t *testing.T) {
		blocks := []domain.Block{block(0, 0, 10, 10, "ore")}
		line := projectedLine(-2, 0, 2, 0)

		got, err := IntersectBlocks(blocks, identityProjector{}, localProjection, line, DefaultOptions())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domain.MethodChord, got[0].Method)
		assert.InDelta(t, 0.0, got[0].Distance, 1e-9)
		assert.InDelta(t, 4.0, got[0].Width, 1e-9)
	})
}

func TestIntersectBlocks_LineAlongEdge(t *testing.T) {
	// The line runs along the bottom edge. That edge is collinear and ignored;
	// the crossings come from the two side edges at the corners.
	blocks := []domain.Block{block(50, 5, 0, 10, "ore")}
	line := projectedLine(0, 0, 100, 0)

	got, err := IntersectBlocks(blocks, identityProjector{}, localProjection, line, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.MethodChord, got[0].Method)
	assert.InDelta(t, 45.0, got[0].Distance, 1e-9)
	assert.InDelta(t, 10.0, got[0].Width, 1e-9)
}

func TestIntersectBlocks_TouchingCornerOnly(t *testing.T) {
	// A diagonal line grazing the top-right corner yields a zero-width chord.
	blocks := []domain.Block{block(0, 0, 0, 10, "ore")}
	line := projectedLine(0, 10, 10, 0)

	got, err := IntersectBlocks(blocks, identityProjector{}, localProjection, line, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.MethodChord, got[0].Method)
	assert.InDelta(t, math.Hypot(5, 5), got[0].Distance, 1e-9)
	assert.InDelta(t, 0.0, got[0].Width, 1e-9)
}

func TestIntersectBlocks_SortedByDistanceThenElevation(t *testing.T) {
	blocks := []domain.Block{
		block(60, 0, 20, 10, "c"),
		block(20, 0, 30, 10, "b"),
		block(20, 0, 10, 10, "a"),
		block(90, 0, 5, 10, "d"),
	}
	line := projectedLine(0, 0, 100, 0)

	got, err := IntersectBlocks(blocks, identityProjector{}, localProjection, line, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 4)

	rocks := make([]string, len(got))
	for i, b := range got {
		rocks[i] = b.Rock
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, rocks)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
		if got[i-1].Distance == got[i].Distance {
			assert.LessOrEqual(t, got[i-1].Elevation, got[i].Elevation)
		}
	}
}

func TestIntersectBlocks_UsesDepthForFootprint(t *testing.T) {
	// A 4x40 block: only its depth reaches the line at y=0.
	b := domain.Block{X: 50, Y: 15, Z: 0, Width: 4, Depth: 40, Height: 4, Rock: "ore"}
	line := projectedLine(0, 0, 100, 0)

	got, err := IntersectBlocks([]domain.Block{b}, identityProjector{}, localProjection, line, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.MethodChord, got[0].Method)
	assert.InDelta(t, 48.0, got[0].Distance, 1e-9)
	assert.InDelta(t, 4.0, got[0].Width, 1e-9)
}

func TestIntersectBlocks_ProjectsLineEndpoints(t *testing.T) {
	blocks := []domain.Block{block(1000, 1000, 0, 10, "ore")}
	line := projectedLine(0, -20, 0, 20)

	got, err := IntersectBlocks(blocks, offsetProjector{dx: 1000, dy: 1000}, localProjection, line, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 15.0, got[0].Distance, 1e-9)
}

func TestIntersectBlocks_PanicRecovered(t *testing.T) {
	blocks := []domain.Block{block(0, 0, 100, 10, "ore")}
	line := projectedLine(0, -20, 0, 20)

	got, err := IntersectBlocks(blocks, panickingProjector{}, localProjection, line, DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intersect blocks")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestIntersectBlocks_NoNaN(t *testing.T) {
	blocks := []domain.Block{block(0, 0, 100, 10, "ore"), block(3, 3, 90, 2, "waste")}
	line := projectedLine(-50, -50, 50, 50)

	got, err := IntersectBlocks(blocks, identityProjector{}, localProjection, line, DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, b := range got {
		assert.False(t, math.IsNaN(b.Distance))
		assert.False(t, math.IsNaN(b.Width))
	}
}
