package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	epsg4326 = "EPSG:4326"
	utm52N   = "EPSG:32652"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		code string
		want crs
	}{
		{"EPSG:4326", crs{kind: kindGeographic}},
		{"epsg:4326", crs{kind: kindGeographic}},
		{"WGS84", crs{kind: kindGeographic}},
		{"EPSG:3857", crs{kind: kindMercator}},
		{"900913", crs{kind: kindMercator}},
		{"EPSG:32652", crs{kind: kindUTM, zone: 52, north: true}},
		{" EPSG:32755 ", crs{kind: kindUTM, zone: 55, north: false}},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := parseCode(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "EPSG:", "EPSG:2193", "EPSG:32661", "utm"} {
		t.Run("unsupported "+bad, func(t *testing.T) {
			assert.ErrorIs(t, Validate(bad), ErrUnsupportedCRS)
		})
	}
}

func TestRegistry_IdentityForSameSystem(t *testing.T) {
	r := NewRegistry()
	p := orb.Point{500123.4, 4150321.9}

	got, err := r.Project(utm52N, "epsg:32652", p)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestRegistry_UTMCentralMeridian(t *testing.T) {
	r := NewRegistry()

	// Zone 52 is centred on 129°E; the equator on the central meridian maps to
	// the false easting.
	got, err := r.Project(epsg4326, utm52N, orb.Point{129, 0})
	require.NoError(t, err)
	assert.InDelta(t, 500000, got[0], 1e-3)
	assert.InDelta(t, 0, got[1], 1e-3)
}

func TestRegistry_UTMRoundTrip(t *testing.T) {
	r := NewRegistry()
	in := orb.Point{127.3, 37.55}

	utm, err := r.Project(epsg4326, utm52N, in)
	require.NoError(t, err)
	assert.Greater(t, utm[1], 4_000_000.0)

	back, err := r.Project(utm52N, epsg4326, utm)
	require.NoError(t, err)
	assert.InDelta(t, in[0], back[0], 1e-6)
	assert.InDelta(t, in[1], back[1], 1e-6)
}

func TestRegistry_UTMBeyondZoneEdge(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name      string
		code      string
		in        orb.Point
		wantEast  float64
		wantNorth float64
	}{
		{"just past 132E in zone 52", utm52N, orb.Point{132.001, 37}, 767051.13, 4099083.50},
		{"far past the strip", utm52N, orb.Point{135.5, 37}, 1078688.15, 4114675.73},
		{"Norway exception point in zone 31", "EPSG:32631", orb.Point{5.5, 60}, 639422.09, 6654046.02},
		{"same point in zone 32", "EPSG:32632", orb.Point{5.5, 60}, 304838.83, 6656575.86},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Project(epsg4326, tt.code, tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantEast, got[0], 0.05)
			assert.InDelta(t, tt.wantNorth, got[1], 0.05)

			back, err := r.Project(tt.code, epsg4326, got)
			require.NoError(t, err)
			assert.InDelta(t, tt.in[0], back[0], 1e-9)
			assert.InDelta(t, tt.in[1], back[1], 1e-9)
		})
	}
}

func TestRegistry_UTMSouthernZone(t *testing.T) {
	r := NewRegistry()

	got, err := r.Project(epsg4326, "EPSG:32752", orb.Point{129, 0})
	require.NoError(t, err)
	assert.InDelta(t, 500000, got[0], 1e-3)
	assert.InDelta(t, 10000000, got[1], 1e-3)
}

func TestRegistry_MercatorRoundTrip(t *testing.T) {
	r := NewRegistry()

	origin, err := r.Project(epsg4326, "EPSG:3857", orb.Point{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0, origin[0], 1e-6)
	assert.InDelta(t, 0, origin[1], 1e-6)

	in := orb.Point{-97.74, 30.27}
	merc, err := r.Project(epsg4326, "EPSG:3857", in)
	require.NoError(t, err)
	back, err := r.Project("EPSG:3857", epsg4326, merc)
	require.NoError(t, err)
	assert.InDelta(t, in[0], back[0], 1e-9)
	assert.InDelta(t, in[1], back[1], 1e-9)
}

func TestRegistry_RejectsInvalidInput(t *testing.T) {
	r := NewRegistry()

	_, err := r.Project(epsg4326, utm52N, orb.Point{math.NaN(), 1})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = r.Project(epsg4326, utm52N, orb.Point{500000, 4100000})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	_, err = r.Project("EPSG:9999", epsg4326, orb.Point{1, 1})
	assert.ErrorIs(t, err, ErrUnsupportedCRS)
}

type failingProjector struct{}

func (failingProjector) Project(_, _ string, _ orb.Point) (orb.Point, error) {
	return orb.Point{}, errors.New("boom")
}

func TestInstrumented_CountsFailures(t *testing.T) {
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "projection_failures_total"})

	ok := NewInstrumented(NewRegistry(), failures)
	_, err := ok.Project(epsg4326, epsg4326, orb.Point{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(failures))

	bad := NewInstrumented(failingProjector{}, failures)
	_, err = bad.Project(epsg4326, utm52N, orb.Point{1, 1})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(failures))
}
