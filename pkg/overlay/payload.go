package overlay

import (
	"time"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/catalog"
)

// HotspotPayload carries a global hotspot and its activity. Level replaces
// the catalog level with the scored tier.
type HotspotPayload struct {
	catalog.Hotspot
	Level      activity.Tier       `json:"level"`
	Score      int                 `json:"score"`
	MatchCount int                 `json:"matchCount"`
	Headlines  []activity.TextItem `json:"headlines"`
}

type ChokepointPayload struct {
	catalog.Chokepoint
	IsAlert   bool                `json:"isAlert"`
	Headlines []activity.TextItem `json:"headlines"`
}

type CyberPayload struct {
	catalog.CyberRegion
	IsActive bool `json:"isActive"`
}

type QuakePayload struct {
	ID    string    `json:"id"`
	Mag   float64   `json:"mag"`
	Place string    `json:"place"`
	Time  time.Time `json:"time"`
	Lat   float64   `json:"lat"`
	Lon   float64   `json:"lon"`
	Depth float64   `json:"depth"`
}

type CityPayload struct {
	catalog.City
	MatchCount int                 `json:"matchCount"`
	Headlines  []activity.TextItem `json:"headlines"`
}

type RegionalHotspotPayload struct {
	catalog.RegionalHotspot
	MatchCount int                 `json:"matchCount"`
	Headlines  []activity.TextItem `json:"headlines"`
}

// MonitorPayload lists at most five matches.
type MonitorPayload struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Color      string              `json:"color"`
	Keywords   []string            `json:"keywords"`
	Lat        float64             `json:"lat"`
	Lon        float64             `json:"lon"`
	MatchCount int                 `json:"matchCount"`
	Matches    []activity.TextItem `json:"matches"`
}
