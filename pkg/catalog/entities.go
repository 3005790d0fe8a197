package catalog

import (
	"time"

	"github.com/sudorandom/situation-map/pkg/activity"
)

func (h Hotspot) Entity() activity.Entity {
	return activity.Entity{ID: h.ID, Keywords: h.Keywords, Policy: activity.HotspotPolicy}
}

func (c Chokepoint) Entity() activity.Entity {
	return activity.Entity{ID: c.ID, Keywords: c.Keywords, Policy: activity.ChokepointPolicy}
}

func (c City) Entity() activity.Entity {
	return activity.Entity{ID: c.ID, Keywords: c.Keywords, Policy: activity.CityPolicy}
}

func (r RegionalHotspot) Entity() activity.Entity {
	return activity.Entity{
		ID:       r.ID,
		Keywords: r.Keywords,
		Policy:   activity.RegionalHotspotPolicy,
		Severity: activity.ParseTier(r.Level),
	}
}

func (r NewsRegion) Entity() activity.Entity {
	return activity.Entity{ID: r.ID, Keywords: r.Keywords, Policy: activity.DensityPolicy}
}

// CustomMonitor is a user-defined keyword watch pinned to a location.
type CustomMonitor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Keywords  []string  `json:"keywords"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

func (m CustomMonitor) Entity() activity.Entity {
	return activity.Entity{ID: m.ID, Keywords: m.Keywords, Policy: activity.MonitorPolicy}
}

// ScoredMonitor is an enabled monitor with at least one match.
type ScoredMonitor struct {
	Monitor CustomMonitor
	Score   activity.Score
}

// ScoreMonitors scores enabled monitors against corpus and keeps those that
// matched, in input order.
func ScoreMonitors(monitors []CustomMonitor, corpus []activity.TextItem) []ScoredMonitor {
	enabled := make([]CustomMonitor, 0, len(monitors))
	entities := make([]activity.Entity, 0, len(monitors))
	for _, m := range monitors {
		if !m.Enabled {
			continue
		}
		enabled = append(enabled, m)
		entities = append(entities, m.Entity())
	}
	scores := activity.ScoreEntities(entities, corpus)

	var out []ScoredMonitor
	for _, m := range enabled {
		s := scores[m.ID]
		if s.MatchCount == 0 {
			continue
		}
		out = append(out, ScoredMonitor{Monitor: m, Score: s})
	}
	return out
}

// Entities collects the scorable entities of a slice.
func Entities[T interface{ Entity() activity.Entity }](items []T) []activity.Entity {
	out := make([]activity.Entity, len(items))
	for i, it := range items {
		out[i] = it.Entity()
	}
	return out
}
