package geo

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectGlobal(t *testing.T) {
	tests := []struct {
		name         string
		lon, lat     float64
		wantX, wantY float64
	}{
		{"origin", 0, 0, 50, 50},
		{"antimeridian east", 180, 0, 100, 50},
		{"antimeridian west", -180, 0, 0, 50},
		{"north west quadrant", -90, 45, 25, 25},
		{"south pole", 0, -90, 50, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, ok := Project(tt.lon, tt.lat, ViewGlobal, 1000, 500)
			require.True(t, ok)
			assert.InDelta(t, tt.wantX, pt.X, 1e-9)
			assert.InDelta(t, tt.wantY, pt.Y, 1e-9)
		})
	}
}

func TestProjectRegionalCenters(t *testing.T) {
	tests := []struct {
		view     View
		lon, lat float64
	}{
		{ViewUS, -96.6, 38.7},
		{ViewMideast, 42, 28},
		{ViewUkraine, 35, 50},
		{ViewTaiwan, 118, 23},
	}

	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			pt, ok := Project(tt.lon, tt.lat, tt.view, 960, 600)
			require.True(t, ok)
			assert.InDelta(t, 50, pt.X, 1e-6)
			assert.InDelta(t, 50, pt.Y, 1e-6)
		})
	}
}

func TestProjectUSInsets(t *testing.T) {
	p := NewProjector(ViewUS, 960, 600)

	honolulu, ok := p.Project(-157.86, 21.31)
	require.True(t, ok, "honolulu should land in the hawaii inset")
	assert.InDelta(t, 28, honolulu.X, 2)
	assert.Greater(t, honolulu.Y, 80.0)

	anchorage, ok := p.Project(-149.9, 61.2)
	require.True(t, ok, "anchorage should land in the alaska inset")
	assert.Less(t, anchorage.X, 20.0)

	dc, ok := p.Project(-77.04, 38.9)
	require.True(t, ok)
	assert.Greater(t, dc.X, 50.0)
}

func TestProjectNull(t *testing.T) {
	tests := []struct {
		name     string
		view     View
		lon, lat float64
	}{
		{"nan longitude", ViewGlobal, math.NaN(), 0},
		{"infinite latitude", ViewGlobal, 0, math.Inf(1)},
		{"latitude out of range", ViewGlobal, 0, 91},
		{"longitude out of range", ViewGlobal, 181, 0},
		{"outside every us inset", ViewUS, 0, 0},
		{"paris in us view", ViewUS, 2.35, 48.85},
		{"americas in mideast view", ViewMideast, -100, 40},
		{"africa in taiwan view", ViewTaiwan, 20, 0},
		{"pole in ukraine view", ViewUkraine, 35, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Project(tt.lon, tt.lat, tt.view, 960, 600)
			assert.False(t, ok)
		})
	}
}

func TestProjectZeroCanvas(t *testing.T) {
	_, ok := Project(0, 0, ViewGlobal, 0, 0)
	assert.False(t, ok)
}

func TestProjectorUnknownViewFallsBackToGlobal(t *testing.T) {
	p := NewProjector(View("mars"), 100, 50)
	assert.Equal(t, ViewGlobal, p.View())
}

func TestParseView(t *testing.T) {
	v, err := ParseView(" Ukraine ")
	require.NoError(t, err)
	assert.Equal(t, ViewUkraine, v)

	_, err = ParseView("arctic")
	assert.Error(t, err)
}

func TestLoadBaseMap(t *testing.T) {
	countriesJSON := `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"364","properties":{"name":"Iran"},
		 "geometry":{"type":"Polygon","coordinates":[[[50,30],[55,30],[55,35],[50,35],[50,30]]]}},
		{"type":"Feature","properties":{"ISO_A3":"UKR","NAME":"Ukraine"},
		 "geometry":{"type":"MultiPolygon","coordinates":[[[[30,45],[35,45],[35,50],[30,50],[30,45]]]]}},
		{"type":"Feature","properties":{"name":"Nowhere"},
		 "geometry":{"type":"Point","coordinates":[0,0]}}
	]}`
	statesJSON := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"Kansas"},
		 "geometry":{"type":"Polygon","coordinates":[[[-102,37],[-94.6,37],[-94.6,40],[-102,40],[-102,37]]]}}
	]}`

	b, err := LoadBaseMap(strings.NewReader(countriesJSON), strings.NewReader(statesJSON))
	require.NoError(t, err)
	require.Len(t, b.Countries, 2)
	assert.Equal(t, "IRN", b.Countries[0].ID)
	assert.Equal(t, 364, b.Countries[0].Numeric)
	assert.Equal(t, "UKR", b.Countries[1].ID)
	assert.Equal(t, "Ukraine", b.Countries[1].Name)
	require.Len(t, b.States, 1)
	assert.Equal(t, "Kansas", b.States[0].ID)
	assert.False(t, b.Empty())
}

func TestLoadBaseMapInvalid(t *testing.T) {
	_, err := LoadBaseMap(strings.NewReader("not json"), nil)
	assert.Error(t, err)

	var empty *BaseMap
	assert.True(t, empty.Empty())
}
