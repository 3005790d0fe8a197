package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/catalog"
	"github.com/sudorandom/situation-map/pkg/geo"
)

func init() { color.NoColor = true }

func testCorpus() []activity.TextItem {
	return []activity.TextItem{
		{ID: "1", Title: "Tanker seized in the Strait of Hormuz"},
		{ID: "2", Title: "Second tanker diverted from Hormuz"},
		{ID: "3", Title: "Shelling reported in Kharkiv overnight"},
	}
}

func TestScoreTable(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	rows := scoreTable(cat, geo.ViewGlobal, testCorpus(), nil, false)
	require.NotEmpty(t, rows)
	ids := map[string]row{}
	for i, r := range rows {
		assert.Positive(t, r.Score.MatchCount)
		if i > 0 {
			assert.GreaterOrEqual(t, rows[i-1].Score.Score, r.Score.Score, "sorted by score")
		}
		ids[r.Kind+"/"+r.ID] = r
	}
	hormuz, ok := ids["chokepoint/hormuz"]
	require.True(t, ok)
	assert.Equal(t, "Hormuz", hormuz.Name)
	assert.NotEmpty(t, hormuz.Example)
	_, ok = ids["city/kharkiv"]
	assert.False(t, ok, "cities only score in their theater")

	rows = scoreTable(cat, geo.ViewUkraine, testCorpus(), nil, false)
	var kharkiv bool
	for _, r := range rows {
		kharkiv = kharkiv || (r.Kind == "city" && r.ID == "kharkiv")
	}
	assert.True(t, kharkiv)

	all := scoreTable(cat, geo.ViewGlobal, testCorpus(), nil, true)
	assert.Len(t, all, len(cat.Hotspots)+len(cat.Chokepoints)+len(cat.NewsRegions))
}

func TestScoreTableMonitors(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	mons := []catalog.CustomMonitor{
		{ID: "on", Name: "Tankers", Keywords: []string{"tanker"}, Enabled: true},
		{ID: "off", Name: "Also tankers", Keywords: []string{"tanker"}},
	}
	var found []string
	for _, r := range scoreTable(cat, geo.ViewTaiwan, testCorpus(), mons, false) {
		if r.Kind == "monitor" {
			found = append(found, r.ID)
		}
	}
	assert.Equal(t, []string{"on"}, found)
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "1", "title": "Tanker seized in the Strait of Hormuz"},
		{"id": "2", "title": ""}
	]`), 0o644))

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), CLI{Corpus: path, View: "global"}, &buf))
	out := buf.String()
	assert.Contains(t, out, "global view (1 items)")
	assert.Contains(t, out, "hormuz")
	assert.Contains(t, strings.ToLower(out), "tanker seized")

	buf.Reset()
	require.NoError(t, run(context.Background(), CLI{Corpus: path, View: "taiwan"}, &buf))
	assert.Contains(t, buf.String(), "No entity matched the corpus.")

	assert.Error(t, run(context.Background(), CLI{Corpus: path, View: "mars"}, &buf))
	assert.Error(t, run(context.Background(), CLI{Corpus: filepath.Join(t.TempDir(), "missing.json"), View: "global"}, &buf))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
}
