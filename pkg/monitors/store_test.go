package monitors

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/catalog"
)

func tickingClock() func() time.Time {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Minute)
	}
}

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	s.now = tickingClock()
	return s
}

func TestStoreCRUD(t *testing.T) {
	s := openTestStore(t, "")
	defer func() { require.NoError(t, s.Close()) }()

	a, err := s.Create(catalog.CustomMonitor{Name: " Suez ", Keywords: []string{"suez", " ", "canal"}, Lat: 30, Lon: 32.5, Enabled: true})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Suez", a.Name)
	assert.Equal(t, []string{"suez", "canal"}, a.Keywords)
	assert.Equal(t, DefaultColor, a.Color)

	b, err := s.Create(catalog.CustomMonitor{Name: "Arctic", Keywords: []string{"arctic"}, Color: "#00ffff"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	b.Name = "High North"
	updated, err := s.Update(b)
	require.NoError(t, err)
	assert.Equal(t, b.CreatedAt, updated.CreatedAt)

	on, err := s.SetEnabled(b.ID, true)
	require.NoError(t, err)
	assert.True(t, on.Enabled)

	require.NoError(t, s.Delete(a.ID))
	_, err = s.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(a.ID), ErrNotFound)

	list, err = s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "High North", list[0].Name)
}

func TestStoreRejectsInvalid(t *testing.T) {
	s := openTestStore(t, "")
	defer func() { require.NoError(t, s.Close()) }()

	tests := []struct {
		name string
		m    catalog.CustomMonitor
	}{
		{"no name", catalog.CustomMonitor{Keywords: []string{"x"}}},
		{"no keywords", catalog.CustomMonitor{Name: "x", Keywords: []string{"  "}}},
		{"bad latitude", catalog.CustomMonitor{Name: "x", Keywords: []string{"x"}, Lat: 91}},
		{"bad longitude", catalog.CustomMonitor{Name: "x", Keywords: []string{"x"}, Lon: -181}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(tt.m)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := s.Update(catalog.CustomMonitor{ID: "missing", Name: "x", Keywords: []string{"x"}})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Import([]catalog.CustomMonitor{{Name: "no id"}}), ErrInvalid)
}

func TestStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monitors")
	s := openTestStore(t, path)
	require.NoError(t, s.Import([]catalog.CustomMonitor{
		{ID: "m1", Name: "Panama", Keywords: []string{"panama"}, Enabled: true},
		{ID: "m2", Name: "Taiwan Strait", Keywords: []string{"strait"}, Enabled: true},
	}))
	require.NoError(t, s.Close())

	s = openTestStore(t, path)
	defer func() { require.NoError(t, s.Close()) }()
	list, err := s.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestStoreHotspots(t *testing.T) {
	s := openTestStore(t, "")
	defer func() { require.NoError(t, s.Close()) }()

	hit, err := s.Create(catalog.CustomMonitor{Name: "Panama", Keywords: []string{"panama"}, Enabled: true})
	require.NoError(t, err)
	_, err = s.Create(catalog.CustomMonitor{Name: "Quiet", Keywords: []string{"nothing-matches"}, Enabled: true})
	require.NoError(t, err)
	_, err = s.Create(catalog.CustomMonitor{Name: "Disabled", Keywords: []string{"panama"}})
	require.NoError(t, err)

	corpus := []activity.TextItem{
		{ID: "1", Title: "Drought slows Panama Canal transits"},
		{ID: "2", Title: "Markets close higher"},
	}
	scored, err := s.Hotspots(corpus)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, hit.ID, scored[0].Monitor.ID)
	assert.Equal(t, 1, scored[0].Score.MatchCount)
}

func TestImportFile(t *testing.T) {
	s := openTestStore(t, "")
	defer func() { require.NoError(t, s.Close()) }()

	path := filepath.Join(t.TempDir(), "monitors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
monitors:
  - name: Panama Canal
    keywords: [panama canal, " "]
    lat: 9.08
    lon: -79.68
  - id: strait
    name: Taiwan Strait
    keywords: [taiwan strait]
    enabled: false
`), 0o644))

	n, err := s.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	byName := map[string]catalog.CustomMonitor{}
	for _, m := range list {
		byName[m.Name] = m
	}
	panama := byName["Panama Canal"]
	assert.NotEmpty(t, panama.ID)
	assert.True(t, panama.Enabled)
	assert.Equal(t, []string{"panama canal"}, panama.Keywords)
	assert.Equal(t, DefaultColor, panama.Color)
	assert.Equal(t, "strait", byName["Taiwan Strait"].ID)
	assert.False(t, byName["Taiwan Strait"].Enabled)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("monitors:\n  - name: no keywords\n"), 0o644))
	_, err = s.ImportFile(bad)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.ImportFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
