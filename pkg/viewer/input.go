package viewer

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/layers"
	"github.com/sudorandom/situation-map/pkg/mapstate"
)

// dragThreshold is how far the cursor may move before a press stops
// counting as a click.
const dragThreshold = 4.0

var viewKeys = map[ebiten.Key]geo.View{
	ebiten.Key1: geo.ViewGlobal,
	ebiten.Key2: geo.ViewUS,
	ebiten.Key3: geo.ViewMideast,
	ebiten.Key4: geo.ViewUkraine,
	ebiten.Key5: geo.ViewTaiwan,
}

var layerKeys = map[ebiten.Key]layers.Layer{
	ebiten.KeyC: layers.LayerCables,
	ebiten.KeyX: layers.LayerConflicts,
	ebiten.KeyB: layers.LayerBases,
	ebiten.KeyN: layers.LayerNuclear,
	ebiten.KeyD: layers.LayerDensity,
	ebiten.KeyS: layers.LayerSanctions,
	ebiten.KeyF: layers.LayerFlights,
	ebiten.KeyT: layers.LayerSatellite,
}

type dragState struct {
	pressed      bool
	startX       float64
	startY       float64
	moved        bool
	panAvailable bool
}

// press records a button press. panning reports whether the map accepted a
// drag.
func (d *dragState) press(x, y float64, panning bool) {
	*d = dragState{pressed: true, startX: x, startY: y, panAvailable: panning}
}

// move reports whether the cursor has left the click tolerance.
func (d *dragState) move(x, y float64) bool {
	if !d.pressed {
		return false
	}
	if !d.moved && math.Hypot(x-d.startX, y-d.startY) > dragThreshold {
		d.moved = true
	}
	return d.moved
}

// release ends the press and reports whether it was a click.
func (d *dragState) release() bool {
	click := d.pressed && !d.moved
	d.pressed = false
	return click
}

func (g *Game) handleKeys() {
	for _, key := range inpututil.AppendJustPressedKeys(nil) {
		switch key {
		case ebiten.KeyEqual, ebiten.KeyKPAdd:
			g.controller.ZoomIn()
		case ebiten.KeyMinus, ebiten.KeyKPSubtract:
			g.controller.ZoomOut()
		case ebiten.Key0:
			g.controller.ZoomReset()
		case ebiten.KeyEscape:
			for _, c := range mapstate.Categories {
				g.controller.ClosePopup(c)
			}
		case ebiten.KeyP:
			g.capturePending = true
		}
		if g.follow {
			continue
		}
		if v, ok := viewKeys[key]; ok {
			g.controller.SetView(v)
		}
		if l, ok := layerKeys[key]; ok {
			on, err := g.controller.ToggleLayer(l)
			if err != nil {
				g.logger.Warn("Toggle failed", zap.Error(err))
				continue
			}
			g.logger.Info("Layer toggled", zap.String("layer", string(l)), zap.Bool("enabled", on))
			if g.onToggle != nil {
				g.onToggle(l, on)
			}
		}
	}
}

func (g *Game) handleMouse() {
	if _, dy := ebiten.Wheel(); dy != 0 {
		// Wheel up reports a positive offset and zooms in.
		g.controller.Wheel(-dy)
	}

	cx, cy := ebiten.CursorPosition()
	x, y := float64(cx), float64(cy)

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.drag.press(x, y, g.controller.BeginPan(x, y))
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.controller.EndPan()
		if g.drag.release() {
			g.click(x, y)
		}
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if g.drag.move(x, y) && g.drag.panAvailable {
			g.controller.PanTo(x, y)
		}
	}
}

// click routes a click at a screen point to the popup dispatcher.
func (g *Game) click(x, y float64) {
	snap := g.controller.Current()
	t := NewTransform(g.width, g.height, snap.View)

	if cat, ok := popupAt(snap.Popups, t, x, y); ok {
		g.controller.OutsideClick(mapstate.Target{Popup: cat})
		return
	}
	d, ok := HitTest(snap.Set, t, x, y)
	if !ok {
		g.controller.OutsideClick(mapstate.Target{})
		return
	}
	cat, _ := mapstate.CategoryFor(d.Kind)
	g.controller.OutsideClick(mapstate.Target{Trigger: cat})
	if _, err := g.controller.Click(d.Kind, d.EntityID); err != nil {
		g.logger.Debug("Click ignored", zap.Error(err))
	}
}
