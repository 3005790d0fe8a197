// Package layers decides which overlay layers are visible in a view and how
// base-map countries are shaded.
package layers

import (
	"fmt"
	"sort"

	"github.com/sudorandom/situation-map/pkg/geo"
)

// Layer names an overlay category.
type Layer string

const (
	LayerCountries   Layer = "countries"
	LayerCoordinates Layer = "coordinates"
	LayerSanctions   Layer = "sanctions"
	LayerStates      Layer = "states"
	LayerCables      Layer = "cables"
	LayerConflicts   Layer = "conflicts"
	LayerBases       Layer = "bases"
	LayerNuclear     Layer = "nuclear"
	LayerCyber       Layer = "cyber"
	LayerDensity     Layer = "density"
	LayerChokepoints Layer = "chokepoints"
	LayerQuakes      Layer = "quakes"
	LayerHotspots    Layer = "hotspots"
	LayerTheater     Layer = "theater"
	LayerMonitors    Layer = "monitors"
	LayerFlights     Layer = "flights"
	LayerSatellite   Layer = "satellite"
)

// All lists every layer in paint order.
var All = []Layer{
	LayerCountries, LayerCoordinates, LayerSanctions, LayerStates, LayerSatellite,
	LayerCables, LayerConflicts, LayerDensity, LayerBases, LayerNuclear, LayerCyber,
	LayerChokepoints, LayerQuakes, LayerHotspots, LayerTheater, LayerMonitors, LayerFlights,
}

// Scope is the set of views a layer may appear in.
type Scope int

const (
	// ScopeAll layers are drawn in every view.
	ScopeAll Scope = iota
	// ScopeGlobal layers are suppressed by every regional view.
	ScopeGlobal
	// ScopeUS layers are drawn only in the US view.
	ScopeUS
	// ScopeRegional layers belong to the theater of the active regional view.
	ScopeRegional
)

func (s Scope) admits(view geo.View) bool {
	switch s {
	case ScopeGlobal:
		return view == geo.ViewGlobal
	case ScopeUS:
		return view == geo.ViewUS
	case ScopeRegional:
		return view.IsRegional()
	}
	return true
}

// Rule is the visibility record of one layer.
type Rule struct {
	Scope Scope
	// Toggleable layers are also gated by the user toggle.
	Toggleable bool
	// Default is the toggle value when the user has not set one.
	Default bool
}

// Rules is the visibility table.
var Rules = map[Layer]Rule{
	LayerCountries:   {Scope: ScopeAll},
	LayerCoordinates: {Scope: ScopeGlobal},
	LayerSanctions:   {Scope: ScopeGlobal, Toggleable: true, Default: true},
	LayerStates:      {Scope: ScopeUS},
	LayerCables:      {Scope: ScopeGlobal, Toggleable: true, Default: true},
	LayerConflicts:   {Scope: ScopeGlobal, Toggleable: true, Default: true},
	LayerBases:       {Scope: ScopeGlobal, Toggleable: true, Default: true},
	LayerNuclear:     {Scope: ScopeGlobal, Toggleable: true, Default: true},
	LayerCyber:       {Scope: ScopeGlobal},
	LayerDensity:     {Scope: ScopeGlobal, Toggleable: true, Default: true},
	LayerChokepoints: {Scope: ScopeGlobal},
	LayerQuakes:      {Scope: ScopeAll},
	LayerHotspots:    {Scope: ScopeGlobal},
	LayerTheater:     {Scope: ScopeRegional},
	LayerMonitors:    {Scope: ScopeAll},
	LayerFlights:     {Scope: ScopeAll, Toggleable: true},
	LayerSatellite:   {Scope: ScopeAll, Toggleable: true},
}

// Toggles holds user layer switches. Missing entries take the rule default.
type Toggles map[Layer]bool

// DefaultToggles returns the toggle value of every toggleable layer.
func DefaultToggles() Toggles {
	t := make(Toggles)
	for l, r := range Rules {
		if r.Toggleable {
			t[l] = r.Default
		}
	}
	return t
}

// Enabled reports the toggle state of l. Layers without a toggle are always
// enabled.
func (t Toggles) Enabled(l Layer) bool {
	r, ok := Rules[l]
	if !ok {
		return false
	}
	if !r.Toggleable {
		return true
	}
	if v, set := t[l]; set {
		return v
	}
	return r.Default
}

// Clone returns an independent copy.
func (t Toggles) Clone() Toggles {
	out := make(Toggles, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Toggleable lists the layers with a user toggle, sorted by name.
func Toggleable() []Layer {
	var out []Layer
	for l, r := range Rules {
		if r.Toggleable {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseLayer validates a layer name.
func ParseLayer(s string) (Layer, error) {
	l := Layer(s)
	if _, ok := Rules[l]; !ok {
		return "", fmt.Errorf("unknown layer %q", s)
	}
	return l, nil
}

// IsVisible reports whether l is drawn in view under toggles. Unknown layers
// are never visible.
func IsVisible(l Layer, view geo.View, toggles Toggles) bool {
	r, ok := Rules[l]
	if !ok {
		return false
	}
	return r.Scope.admits(view) && toggles.Enabled(l)
}
