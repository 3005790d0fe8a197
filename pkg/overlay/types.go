// Package overlay composes the scored, projected entities of one refresh
// cycle into the ordered descriptor set a renderer draws.
package overlay

import (
	"time"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/catalog"
	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/layers"
)

// Kind is the visual type of a descriptor.
type Kind string

const (
	KindBackground      Kind = "background"
	KindCoordinateLabel Kind = "coordinate-label"
	KindCountry         Kind = "country"
	KindState           Kind = "state"
	KindCable           Kind = "cable"
	KindConflictZone    Kind = "conflict-zone"
	KindConflictLabel   Kind = "conflict-label"
	KindBase            Kind = "military-base"
	KindNuclear         Kind = "nuclear-facility"
	KindCyber           Kind = "cyber-zone"
	KindDensity         Kind = "density-blob"
	KindChokepoint      Kind = "chokepoint"
	KindQuake           Kind = "quake"
	KindPulse           Kind = "news-pulse"
	KindHotspot         Kind = "hotspot"
	KindCity            Kind = "city"
	KindRegionalHotspot Kind = "regional-hotspot"
	KindMonitor         Kind = "custom-monitor"
	KindAircraft        Kind = "aircraft"
	KindFlightBadge     Kind = "flight-badge"
)

// Descriptor is one drawable overlay. X and Y are canvas percent. Shapes
// carry their outline in Rings (polygons) or Path (polylines), also in
// percent.
type Descriptor struct {
	EntityID string        `json:"entityId"`
	Kind     Kind          `json:"kind"`
	Layer    layers.Layer  `json:"layer"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	Tier     activity.Tier `json:"tier,omitempty"`
	Class    string        `json:"class,omitempty"`
	Label    string        `json:"label,omitempty"`
	Color    string        `json:"color,omitempty"`
	Payload  any           `json:"payload,omitempty"`
	// Z is the paint step; descriptors are already sorted by it.
	Z        int     `json:"z"`
	Rotation float64 `json:"rotation,omitempty"`
	// Size is a pixel dimension at zoom 1 (blob diameter, marker size).
	Size  float64       `json:"size,omitempty"`
	Style *layers.Style `json:"style,omitempty"`
	Rings [][]geo.Point `json:"rings,omitempty"`
	Path  []geo.Point   `json:"path,omitempty"`
}

// Set is the composed output of one cycle.
type Set struct {
	View        geo.View     `json:"view"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Generation  uint64       `json:"generation"`
	ComposedAt  time.Time    `json:"composedAt"`
	FlightCount int          `json:"flightCount"`
	Descriptors []Descriptor `json:"descriptors"`
}

// Popupable reports whether clicking d opens a popup.
func (d Descriptor) Popupable() bool {
	switch d.Kind {
	case KindHotspot, KindChokepoint, KindQuake, KindCyber, KindMonitor,
		KindConflictLabel, KindCity, KindRegionalHotspot, KindAircraft:
		return true
	}
	return false
}

// Quake is one USGS earthquake. Mag is nil when the feed has no magnitude.
type Quake struct {
	ID    string    `json:"id"`
	Mag   *float64  `json:"mag"`
	Place string    `json:"place"`
	Time  time.Time `json:"time"`
	Lat   float64   `json:"lat"`
	Lon   float64   `json:"lon"`
	Depth float64   `json:"depth"`
}

// Flight is one aircraft state vector. Heading is degrees clockwise from
// north, nil when unknown.
type Flight struct {
	ICAO24   string   `json:"icao24"`
	Callsign string   `json:"callsign"`
	Country  string   `json:"country"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Altitude float64  `json:"altitude"`
	Velocity float64  `json:"velocity"`
	Heading  *float64 `json:"heading"`
	OnGround bool     `json:"onGround"`
}

// Input is everything a compose needs. Nil slices are empty collections.
type Input struct {
	View    geo.View
	Width   int
	Height  int
	Toggles layers.Toggles
	// BaseMap may be nil; polygons are then skipped.
	BaseMap  *geo.BaseMap
	Corpus   []activity.TextItem
	Quakes   []Quake
	Flights  []Flight
	Monitors []catalog.ScoredMonitor
}
