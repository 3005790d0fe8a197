package viewer

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/sudorandom/situation-map/pkg/mapstate"
)

// Transform maps canvas pixels to screen pixels for one zoom/pan state.
// Zooming is anchored on the canvas center.
type Transform struct {
	Width, Height float64
	Zoom          float64
	Pan           mapstate.Pan
}

func NewTransform(width, height int, v mapstate.ViewState) Transform {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = mapstate.MinZoom
	}
	return Transform{Width: float64(width), Height: float64(height), Zoom: zoom, Pan: v.Pan}
}

// ToScreen converts a canvas pixel position.
func (t Transform) ToScreen(x, y float64) (float64, float64) {
	cx, cy := t.Width/2, t.Height/2
	return cx + t.Zoom*(x-cx+t.Pan.X), cy + t.Zoom*(y-cy+t.Pan.Y)
}

// ToCanvas is the inverse of ToScreen.
func (t Transform) ToCanvas(sx, sy float64) (float64, float64) {
	cx, cy := t.Width/2, t.Height/2
	return (sx-cx)/t.Zoom + cx - t.Pan.X, (sy-cy)/t.Zoom + cy - t.Pan.Y
}

// Percent converts a descriptor position in canvas percent to screen pixels.
func (t Transform) Percent(px, py float64) (float64, float64) {
	return t.ToScreen(px/100*t.Width, py/100*t.Height)
}

// GeoM is the same transform for drawing a canvas-sized image.
func (t Transform) GeoM() ebiten.GeoM {
	var m ebiten.GeoM
	m.Translate(-t.Width/2+t.Pan.X, -t.Height/2+t.Pan.Y)
	m.Scale(t.Zoom, t.Zoom)
	m.Translate(t.Width/2, t.Height/2)
	return m
}
