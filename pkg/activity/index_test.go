package activity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headlines(titles ...string) []TextItem {
	items := make([]TextItem, len(titles))
	for i, t := range titles {
		items[i] = TextItem{ID: fmt.Sprintf("item-%d", i), Title: t}
	}
	return items
}

func repeated(title string, n int) []TextItem {
	titles := make([]string, n)
	for i := range titles {
		titles[i] = title
	}
	return headlines(titles...)
}

func TestHotspotAlertBonus(t *testing.T) {
	corpus := []TextItem{{ID: "1", Title: "Tehran protests escalate", IsAlert: true}}
	entities := []Entity{{ID: "tehran", Keywords: []string{"tehran"}, Policy: HotspotPolicy}}

	got := ScoreEntities(entities, corpus)["tehran"]
	assert.Equal(t, 4, got.Score)
	assert.Equal(t, TierElevated, got.Tier)
	require.Len(t, got.Matched, 1)
	assert.Equal(t, "1", got.Matched[0].ID)
}

func TestHotspotNineItemsIsHigh(t *testing.T) {
	entities := []Entity{{ID: "kyiv", Keywords: []string{"kyiv"}, Policy: HotspotPolicy}}

	got := ScoreEntities(entities, repeated("Drone strike near Kyiv", 9))["kyiv"]
	assert.Equal(t, 9, got.Score)
	assert.Equal(t, TierHigh, got.Tier)
	assert.Len(t, got.Matched, 5)
	assert.Equal(t, 9, got.MatchCount)
}

func TestHotspotTierBoundaries(t *testing.T) {
	tests := []struct {
		items int
		want  Tier
	}{
		{0, TierLow},
		{2, TierLow},
		{3, TierElevated},
		{7, TierElevated},
		{8, TierHigh},
		{12, TierHigh},
	}

	entities := []Entity{{ID: "taipei", Keywords: []string{"taiwan"}, Policy: HotspotPolicy}}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("score %d", tt.items), func(t *testing.T) {
			got := ScoreEntities(entities, repeated("Taiwan strait patrol", tt.items))["taipei"]
			assert.Equal(t, tt.items, got.Score)
			assert.Equal(t, tt.want, got.Tier)
		})
	}
}

func TestPerKeywordAccumulation(t *testing.T) {
	entities := []Entity{{ID: "moscow", Keywords: []string{"moscow", "kremlin", "putin"}, Policy: HotspotPolicy}}
	corpus := headlines("Kremlin says Putin will visit", "Weather in Moscow", "Unrelated story")

	got := ScoreEntities(entities, corpus)["moscow"]
	assert.Equal(t, 3, got.Score)
	assert.Equal(t, 2, got.MatchCount)
	assert.Equal(t, []string{"item-0", "item-1"}, ids(got.Matched))
}

func TestDuplicateAndEmptyKeywords(t *testing.T) {
	entities := []Entity{{ID: "dc", Keywords: []string{"pentagon", "Pentagon ", "", "  "}, Policy: HotspotPolicy}}

	got := ScoreEntities(entities, headlines("PENTAGON briefing"))["dc"]
	assert.Equal(t, 1, got.Score)
}

func TestSharedKeywordAcrossEntities(t *testing.T) {
	entities := []Entity{
		{ID: "telaviv", Keywords: []string{"israel", "tel aviv"}, Policy: HotspotPolicy},
		{ID: "jerusalem", Keywords: []string{"israel"}, Policy: CityPolicy},
	}

	scores := ScoreEntities(entities, headlines("Israel cabinet meets in Tel Aviv"))
	assert.Equal(t, 2, scores["telaviv"].Score)
	assert.Equal(t, 1, scores["jerusalem"].Score)
}

func TestOverlappingKeywords(t *testing.T) {
	entities := []Entity{{ID: "taiwan", Keywords: []string{"taiwan strait", "strait", "taiwan"}, Policy: HotspotPolicy}}

	got := ScoreEntities(entities, headlines("Ships transit the Taiwan Strait"))["taiwan"]
	assert.Equal(t, 3, got.Score)
}

func TestChokepointHasNoAlertBonus(t *testing.T) {
	entities := []Entity{{ID: "hormuz", Keywords: []string{"hormuz"}, Policy: ChokepointPolicy}}
	corpus := []TextItem{
		{ID: "1", Title: "Tanker seized in Strait of Hormuz", IsAlert: true},
		{ID: "2", Title: "Hormuz traffic normal"},
	}

	got := ScoreEntities(entities, corpus)["hormuz"]
	assert.Equal(t, 2, got.Score)
	assert.Equal(t, TierElevated, got.Tier)

	quiet := ScoreEntities(entities, headlines("Nothing to see"))["hormuz"]
	assert.Equal(t, TierLow, quiet.Tier)
	assert.Empty(t, quiet.Matched)
}

func TestCityCapAndHighActivity(t *testing.T) {
	entities := []Entity{{ID: "kharkiv", Keywords: []string{"kharkiv"}, Policy: CityPolicy}}

	four := ScoreEntities(entities, repeated("Shelling in Kharkiv", 4))["kharkiv"]
	assert.Equal(t, TierLow, four.Tier)

	ten := ScoreEntities(entities, repeated("Shelling in Kharkiv", 10))["kharkiv"]
	assert.Equal(t, 10, ten.Score)
	assert.Equal(t, TierHigh, ten.Tier)
	assert.Len(t, ten.Matched, 8)
}

func TestRegionalHotspotStaticTier(t *testing.T) {
	entities := []Entity{
		{ID: "natanz", Keywords: []string{"natanz"}, Policy: RegionalHotspotPolicy, Severity: TierCritical},
		{ID: "unset", Keywords: []string{"nothing"}, Policy: RegionalHotspotPolicy},
	}

	scores := ScoreEntities(entities, headlines("Natanz facility"))
	assert.Equal(t, TierCritical, scores["natanz"].Tier)
	assert.Equal(t, 1, scores["natanz"].Score)
	assert.Equal(t, TierLow, scores["unset"].Tier)
}

func TestDensityCountsEveryAlert(t *testing.T) {
	entities := []Entity{{ID: "europe", Keywords: []string{"europe", "nato"}, Policy: DensityPolicy}}
	corpus := []TextItem{
		{ID: "1", Title: "NATO summit in Europe"},
		{ID: "2", Title: "Markets slide", IsAlert: true},
		{ID: "3", Title: "Europe energy prices", IsAlert: true},
	}

	got := ScoreEntities(entities, corpus)["europe"]
	// 2 + 1 keywords, plus 2 for each of the two alerts.
	assert.Equal(t, 7, got.Score)
	assert.Equal(t, TierMedium, got.Tier)
}

func TestDensityTiers(t *testing.T) {
	p := DensityPolicy
	assert.Equal(t, TierLow, p.TierFor(4, ""))
	assert.Equal(t, TierMedium, p.TierFor(5, ""))
	assert.Equal(t, TierMedium, p.TierFor(9, ""))
	assert.Equal(t, TierHigh, p.TierFor(10, ""))
}

func TestScoreIsDeterministic(t *testing.T) {
	entities := []Entity{
		{ID: "a", Keywords: []string{"iran", "tehran"}, Policy: HotspotPolicy},
		{ID: "b", Keywords: []string{"suez"}, Policy: ChokepointPolicy},
		{ID: "c", Keywords: []string{"gaza"}, Policy: DensityPolicy},
	}
	corpus := []TextItem{
		{ID: "1", Title: "Iran and Tehran", IsAlert: true},
		{ID: "2", Title: "Suez canal delays"},
		{ID: "3", Title: "Gaza ceasefire talks", IsAlert: true},
	}

	idx := NewIndex(entities)
	first := idx.Score(corpus)
	second := idx.Score(corpus)
	assert.Equal(t, first, second)
	assert.Equal(t, first, ScoreEntities(entities, corpus))
}

func TestEmptyInputs(t *testing.T) {
	assert.Empty(t, ScoreEntities(nil, headlines("anything")))

	got := ScoreEntities([]Entity{{ID: "x", Keywords: []string{"x"}}}, nil)["x"]
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, TierLow, got.Tier)
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierCritical, ParseTier("critical"))
	assert.Equal(t, TierLow, ParseTier("bogus"))
}

func ids(items []TextItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
