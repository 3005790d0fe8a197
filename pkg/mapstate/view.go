// Package mapstate owns the interactive state of the map: view mode, zoom,
// pan, open popups, layer toggles and the committed overlay set.
package mapstate

import (
	"fmt"
	"math"

	"github.com/sudorandom/situation-map/pkg/geo"
)

const (
	MinZoom  = 1.0
	MaxZoom  = 4.0
	ZoomStep = 0.5
	// PanPerZoom bounds the pan offset to ±(zoom-1)*PanPerZoom.
	PanPerZoom = 200.0
)

// Pan is the drag offset in unscaled pixels.
type Pan struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewState is the view mode and the zoom/pan transform on top of it.
// Pan is zero whenever Zoom is MinZoom.
type ViewState struct {
	Mode geo.View `json:"mode"`
	Zoom float64  `json:"zoom"`
	Pan  Pan      `json:"pan"`

	dragging  bool
	dragStart Pan
}

func NewViewState() ViewState {
	return ViewState{Mode: geo.ViewGlobal, Zoom: MinZoom}
}

// SetView switches the mode. It returns false and changes nothing when mode
// is already active; otherwise zoom and pan are reset and the caller must
// recompose.
func (s *ViewState) SetView(mode geo.View) bool {
	if s.Mode == mode {
		return false
	}
	s.Mode = mode
	s.Reset()
	return true
}

// ZoomIn steps the zoom up. It reports whether the zoom changed.
func (s *ViewState) ZoomIn() bool {
	if s.Zoom >= MaxZoom {
		return false
	}
	s.Zoom = math.Min(MaxZoom, s.Zoom+ZoomStep)
	return true
}

// ZoomOut steps the zoom down, clearing the pan on reaching MinZoom.
func (s *ViewState) ZoomOut() bool {
	if s.Zoom <= MinZoom {
		return false
	}
	s.Zoom = math.Max(MinZoom, s.Zoom-ZoomStep)
	if s.Zoom == MinZoom {
		s.Pan = Pan{}
		s.dragging = false
	} else {
		s.Pan = s.clamp(s.Pan)
	}
	return true
}

func (s *ViewState) Reset() {
	s.Zoom = MinZoom
	s.Pan = Pan{}
	s.dragging = false
}

// Wheel zooms in for a negative deltaY and out otherwise.
func (s *ViewState) Wheel(deltaY float64) bool {
	if deltaY < 0 {
		return s.ZoomIn()
	}
	return s.ZoomOut()
}

// BeginPan starts a drag at screen position (x, y). Dragging is only
// possible while zoomed in.
func (s *ViewState) BeginPan(x, y float64) bool {
	if s.Zoom <= MinZoom {
		return false
	}
	s.dragging = true
	s.dragStart = Pan{X: x - s.Pan.X*s.Zoom, Y: y - s.Pan.Y*s.Zoom}
	return true
}

// PanTo moves an active drag to screen position (x, y).
func (s *ViewState) PanTo(x, y float64) bool {
	if !s.dragging {
		return false
	}
	s.Pan = s.clamp(Pan{X: (x - s.dragStart.X) / s.Zoom, Y: (y - s.dragStart.Y) / s.Zoom})
	return true
}

func (s *ViewState) EndPan() { s.dragging = false }

// Dragging reports whether a pan is in progress.
func (s *ViewState) Dragging() bool { return s.dragging }

func (s *ViewState) clamp(p Pan) Pan {
	limit := (s.Zoom - MinZoom) * PanPerZoom
	return Pan{
		X: math.Max(-limit, math.Min(limit, p.X)),
		Y: math.Max(-limit, math.Min(limit, p.Y)),
	}
}

// ZoomLabel formats the zoom as shown next to the zoom buttons.
func (s ViewState) ZoomLabel() string {
	return fmt.Sprintf("%.1fx", s.Zoom)
}

// ShowPanHint reports whether the drag hint should be displayed.
func (s ViewState) ShowPanHint() bool { return s.Zoom > MinZoom }
