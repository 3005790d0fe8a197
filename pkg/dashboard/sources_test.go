package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudorandom/situation-map/pkg/mapstate"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

const quakeFeed = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "id": "us1", "properties": {"mag": 5.5, "place": "Kermadec", "time": 1700000000000},
   "geometry": {"type": "Point", "coordinates": [-177.0, -30.0, 20]}}
]}`

const countriesFeed = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"name": "Iran", "ISO_N3": "364"},
   "geometry": {"type": "Polygon", "coordinates": [[[44, 25], [63, 25], [63, 40], [44, 40], [44, 25]]]}}
]}`

func TestFetchersFor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(quakeFeed))
	}))
	defer srv.Close()

	f := FetchersFor(Sources{Quakes: srv.URL}, nil)
	assert.Nil(t, f.Corpus)
	assert.Nil(t, f.Flights)
	assert.Nil(t, f.Monitors)
	require.NotNil(t, f.Quakes)

	c := mapstate.NewController(nil)
	r := NewRefresher(c, testComposer(t), f)
	require.True(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, countKind(c.Current().Set, overlay.KindQuake))

	all := FetchersFor(DefaultSources, nil)
	assert.Nil(t, all.Corpus, "no corpus by default")
	assert.NotNil(t, all.Flights)
}

func TestLoadBaseMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.geojson")
	require.NoError(t, os.WriteFile(path, []byte(countriesFeed), 0o644))

	c := mapstate.NewController(nil)
	r := NewRefresher(c, testComposer(t), Fetchers{})
	require.NoError(t, r.LoadBaseMap(context.Background(), Sources{Countries: path}))
	require.True(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, countKind(c.Current().Set, overlay.KindCountry))

	assert.Error(t, r.LoadBaseMap(context.Background(), Sources{Countries: filepath.Join(t.TempDir(), "missing.json")}))
	assert.NoError(t, r.LoadBaseMap(context.Background(), Sources{}), "no base map configured")
}
