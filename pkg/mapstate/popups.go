package mapstate

import (
	"fmt"

	"github.com/sudorandom/situation-map/pkg/overlay"
)

// Category groups popups; at most one popup per category is open.
type Category string

const (
	PopupHotspot         Category = "hotspot"
	PopupChokepoint      Category = "chokepoint"
	PopupQuake           Category = "quake"
	PopupCyber           Category = "cyber"
	PopupCustomMonitor   Category = "custom-monitor"
	PopupConflict        Category = "conflict"
	PopupCity            Category = "city"
	PopupRegionalHotspot Category = "regional-hotspot"
	PopupAircraft        Category = "aircraft"
)

// Categories lists every popup category.
var Categories = []Category{
	PopupHotspot, PopupChokepoint, PopupQuake, PopupCyber, PopupCustomMonitor,
	PopupConflict, PopupCity, PopupRegionalHotspot, PopupAircraft,
}

var categoryByKind = map[overlay.Kind]Category{
	overlay.KindHotspot:         PopupHotspot,
	overlay.KindChokepoint:      PopupChokepoint,
	overlay.KindQuake:           PopupQuake,
	overlay.KindCyber:           PopupCyber,
	overlay.KindMonitor:         PopupCustomMonitor,
	overlay.KindConflictLabel:   PopupConflict,
	overlay.KindCity:            PopupCity,
	overlay.KindRegionalHotspot: PopupRegionalHotspot,
	overlay.KindAircraft:        PopupAircraft,
}

// CategoryFor maps a clicked descriptor kind to its popup category.
func CategoryFor(kind overlay.Kind) (Category, bool) {
	c, ok := categoryByKind[kind]
	return c, ok
}

// Popup is one open popup.
type Popup struct {
	Category Category `json:"category"`
	EntityID string   `json:"entityId"`
	Payload  any      `json:"payload"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
}

// Target describes what an outside click landed on. Trigger is the category
// whose marker was hit, Popup the category whose open popup was hit.
type Target struct {
	Trigger Category
	Popup   Category
}

// Popups holds the open popup of each category.
type Popups struct {
	open map[Category]Popup
}

func NewPopups() *Popups {
	return &Popups{open: make(map[Category]Popup)}
}

// Open replaces any popup already open in p's category. Other categories are
// untouched.
func (ps *Popups) Open(p Popup) error {
	if !validCategory(p.Category) {
		return fmt.Errorf("unknown popup category %q", p.Category)
	}
	ps.open[p.Category] = p
	return nil
}

// OpenFor opens the popup of a clicked descriptor.
func (ps *Popups) OpenFor(d overlay.Descriptor) (Popup, bool) {
	cat, ok := CategoryFor(d.Kind)
	if !ok {
		return Popup{}, false
	}
	p := Popup{Category: cat, EntityID: d.EntityID, Payload: d.Payload, X: d.X, Y: d.Y}
	ps.open[cat] = p
	return p, true
}

func (ps *Popups) Close(c Category) {
	delete(ps.open, c)
}

func (ps *Popups) CloseAll() {
	clear(ps.open)
}

// OutsideClick closes every open popup whose trigger and popup both lie
// outside the click target.
func (ps *Popups) OutsideClick(t Target) {
	for c := range ps.open {
		if t.Trigger == c || t.Popup == c {
			continue
		}
		delete(ps.open, c)
	}
}

func (ps *Popups) Get(c Category) (Popup, bool) {
	p, ok := ps.open[c]
	return p, ok
}

// List returns the open popups in category order.
func (ps *Popups) List() []Popup {
	out := make([]Popup, 0, len(ps.open))
	for _, c := range Categories {
		if p, ok := ps.open[c]; ok {
			out = append(out, p)
		}
	}
	return out
}

func validCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
