package section

import (
	"encoding/json"
	"testing"

	"github.com/couchcryptid/cross-section-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatures(t *testing.T) {
	fc, err := Features(fixtureSection(), identityProjector{}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, fc.Features, 3)

	line := fc.Features[0]
	assert.Equal(t, "line", line.Properties["kind"])
	assert.Equal(t, orb.LineString{{0, 0}, {100, 0}}, line.Geometry)
	assert.InDelta(t, 100.0, line.Properties["length"], 1e-9)

	ore := fc.Features[1]
	assert.Equal(t, "block", ore.Properties["kind"])
	assert.Equal(t, "ore", ore.Properties["rock"])
	assert.Equal(t, domain.MethodChord, ore.Properties["method"])
	poly, ok := ore.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{15, -5}, Max: orb.Point{25, 5}}, poly.Bound())

	assert.Equal(t, "waste", fc.Features[2].Properties["rock"])
	assert.Equal(t, domain.MethodProximity, fc.Features[2].Properties["method"])

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
}

func TestFeatures_DegenerateLine(t *testing.T) {
	sec := fixtureSection()
	sec.Line = projectedLine(1, 1, 1, 1)

	fc, err := Features(sec, identityProjector{}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "line", fc.Features[0].Properties["kind"])
}

func TestFeatures_PanickingProjector(t *testing.T) {
	sec := fixtureSection()
	sec.Line = projectedLine(3, 4, 9, 12)

	fc, err := Features(sec, panickingProjector{}, DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recovered from panic")

	require.NotNil(t, fc)
	require.Len(t, fc.Features, 1)
	line := fc.Features[0]
	assert.Equal(t, "line", line.Properties["kind"])
	assert.Equal(t, true, line.Properties["degraded"])
	assert.Equal(t, orb.LineString{{3, 4}, {9, 12}}, line.Geometry)
	assert.InDelta(t, 10.0, line.Properties["length"], 1e-9)
}

func TestEngine_FeaturesRecordsDegradedRender(t *testing.T) {
	engine, m := newTestEngine(panickingProjector{})

	fc := engine.Features(fixtureSection())

	require.Len(t, fc.Features, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues(stageFeatures)))
}
