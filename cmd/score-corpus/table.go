package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/catalog"
	"github.com/sudorandom/situation-map/pkg/geo"
)

type row struct {
	Kind    string
	ID      string
	Name    string
	Score   activity.Score
	Example string
}

type named interface {
	Entity() activity.Entity
}

func collect[T named](kind string, items []T, name func(T) string, corpus []activity.TextItem) []row {
	scores := activity.ScoreEntities(catalog.Entities(items), corpus)
	out := make([]row, 0, len(items))
	for _, it := range items {
		id := it.Entity().ID
		s := scores[id]
		r := row{Kind: kind, ID: id, Name: name(it), Score: s}
		if len(s.Matched) > 0 {
			r.Example = s.Matched[0].Title
		}
		out = append(out, r)
	}
	return out
}

// scoreTable scores every entity shown in view, plus the monitors, and
// orders the rows by score.
func scoreTable(cat *catalog.Catalog, view geo.View, corpus []activity.TextItem, monitors []catalog.CustomMonitor, all bool) []row {
	var rows []row
	if view.IsRegional() {
		th := cat.Theater(view)
		rows = append(rows, collect("city", th.Cities, func(c catalog.City) string { return c.Name }, corpus)...)
		rows = append(rows, collect("regional-hotspot", th.Hotspots, func(h catalog.RegionalHotspot) string { return h.Name }, corpus)...)
	} else {
		rows = append(rows, collect("hotspot", cat.Hotspots, func(h catalog.Hotspot) string { return h.Name }, corpus)...)
		rows = append(rows, collect("chokepoint", cat.Chokepoints, func(c catalog.Chokepoint) string { return c.Name }, corpus)...)
		rows = append(rows, collect("density", cat.NewsRegions, func(r catalog.NewsRegion) string { return r.Name }, corpus)...)
	}
	var enabled []catalog.CustomMonitor
	for _, m := range monitors {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}
	rows = append(rows, collect("monitor", enabled, func(m catalog.CustomMonitor) string { return m.Name }, corpus)...)

	if !all {
		kept := rows[:0]
		for _, r := range rows {
			if r.Score.MatchCount > 0 {
				kept = append(kept, r)
			}
		}
		rows = kept
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score.Score != rows[j].Score.Score {
			return rows[i].Score.Score > rows[j].Score.Score
		}
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}

func tierString(t activity.Tier) string {
	switch t {
	case activity.TierHigh, activity.TierCritical:
		return color.New(color.FgRed, color.Bold).Sprint(t)
	case activity.TierElevated, activity.TierMedium:
		return color.YellowString(string(t))
	}
	return string(t)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func writeTable(w io.Writer, view geo.View, corpusSize int, rows []row) {
	fmt.Fprintf(w, "Activity scores for the %s view (%d items)\n", view, corpusSize)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Kind", "ID", "Name", "Score", "Matches", "Tier", "Example"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range rows {
		table.Append([]string{
			r.Kind,
			r.ID,
			r.Name,
			strconv.Itoa(r.Score.Score),
			strconv.Itoa(r.Score.MatchCount),
			tierString(r.Score.Tier),
			truncate(r.Example, 60),
		})
	}
	table.Render()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No entity matched the corpus.")
	}
}
