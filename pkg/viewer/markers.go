package viewer

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

var (
	ColorAlert    = color.RGBA{255, 68, 68, 255}
	ColorWarn     = color.RGBA{255, 170, 0, 255}
	ColorCalm     = color.RGBA{68, 255, 136, 255}
	ColorWater    = color.RGBA{0, 170, 255, 255}
	ColorBase     = color.RGBA{68, 136, 255, 255}
	ColorNuclear  = color.RGBA{255, 255, 0, 255}
	ColorCyber    = color.RGBA{170, 102, 255, 255}
	ColorCyberHot = color.RGBA{255, 0, 255, 255}
	ColorCable    = color.RGBA{0, 204, 170, 255}
	ColorGrid     = color.RGBA{42, 128, 112, 255}
	ColorText     = color.RGBA{220, 235, 230, 255}
)

var aircraftColors = map[string]color.RGBA{
	overlay.AircraftMilitary:   {255, 80, 80, 255},
	overlay.AircraftGovernment: {255, 200, 0, 255},
	overlay.AircraftCargo:      {255, 140, 0, 255},
	overlay.AircraftCommercial: {120, 200, 255, 255},
	overlay.AircraftPrivate:    {180, 180, 180, 255},
}

// markerStyle is how a point descriptor is drawn at zoom 1.
type markerStyle struct {
	Color  color.RGBA
	Radius float64
	// Ring draws an outline around the dot.
	Ring bool
	// Arrow draws a heading triangle instead of a dot.
	Arrow bool
}

func tierColor(t activity.Tier) color.RGBA {
	switch t {
	case activity.TierHigh, activity.TierCritical:
		return ColorAlert
	case activity.TierElevated, activity.TierMedium:
		return ColorWarn
	}
	return ColorCalm
}

func tierRadius(t activity.Tier) float64 {
	switch t {
	case activity.TierHigh, activity.TierCritical:
		return 7
	case activity.TierElevated, activity.TierMedium:
		return 5.5
	}
	return 4
}

// styleFor returns the marker style of a point descriptor. Shapes, text-only
// and HUD descriptors report false.
func styleFor(d overlay.Descriptor) (markerStyle, bool) {
	switch d.Kind {
	case overlay.KindHotspot, overlay.KindRegionalHotspot:
		tier := activity.Tier(d.Class)
		return markerStyle{Color: tierColor(tier), Radius: tierRadius(tier), Ring: tier == activity.TierHigh}, true
	case overlay.KindChokepoint:
		if d.Class == "alert" {
			return markerStyle{Color: ColorAlert, Radius: 6, Ring: true}, true
		}
		return markerStyle{Color: ColorWater, Radius: 4.5}, true
	case overlay.KindQuake:
		if d.Class == "major" {
			return markerStyle{Color: color.RGBA{255, 102, 0, 255}, Radius: 8, Ring: true}, true
		}
		return markerStyle{Color: ColorWarn, Radius: 5}, true
	case overlay.KindPulse:
		return markerStyle{Color: withAlpha(ColorAlert, 0.6), Radius: 14, Ring: true}, true
	case overlay.KindBase:
		return markerStyle{Color: ColorBase, Radius: 3}, true
	case overlay.KindNuclear:
		if d.Class == "weapons" {
			return markerStyle{Color: ColorNuclear, Radius: 4, Ring: true}, true
		}
		return markerStyle{Color: ColorWarn, Radius: 3.5}, true
	case overlay.KindCyber:
		if d.Class == "active" {
			return markerStyle{Color: ColorCyberHot, Radius: 5, Ring: true}, true
		}
		return markerStyle{Color: ColorCyber, Radius: 4}, true
	case overlay.KindDensity:
		r := d.Size / 2
		if r <= 0 {
			r = 20
		}
		return markerStyle{Color: withAlpha(tierColor(activity.Tier(d.Class)), 0.2), Radius: r}, true
	case overlay.KindCity, overlay.KindMonitor:
		c := ParseColor(d.Color)
		if c.A == 0 {
			c = ColorWarn
		}
		return markerStyle{Color: c, Radius: 5, Ring: true}, true
	case overlay.KindAircraft:
		c, ok := aircraftColors[d.Class]
		if !ok {
			c = ColorText
		}
		return markerStyle{Color: c, Radius: 5, Arrow: true}, true
	}
	return markerStyle{}, false
}

// arrowPoints returns a triangle centered on (x, y) pointing along heading,
// degrees clockwise from north.
func arrowPoints(x, y, size, heading float64) [3][2]float64 {
	rad := heading * math.Pi / 180
	rot := func(dx, dy float64) [2]float64 {
		sin, cos := math.Sincos(rad)
		return [2]float64{x + dx*cos - dy*sin, y + dx*sin + dy*cos}
	}
	return [3][2]float64{rot(0, -size), rot(size*0.6, size*0.7), rot(-size*0.6, size*0.7)}
}

// labelled reports whether the descriptor's label is drawn next to it.
func labelled(d overlay.Descriptor) bool {
	switch d.Kind {
	case overlay.KindHotspot, overlay.KindRegionalHotspot, overlay.KindChokepoint,
		overlay.KindQuake, overlay.KindCity, overlay.KindMonitor, overlay.KindConflictLabel,
		overlay.KindCoordinateLabel, overlay.KindPulse:
		return d.Label != ""
	}
	return false
}

// hitRadius is the click tolerance around a marker in screen pixels.
func hitRadius(d overlay.Descriptor) float64 {
	if d.Kind == overlay.KindConflictLabel {
		return 24
	}
	if s, ok := styleFor(d); ok {
		return math.Max(s.Radius+4, 8)
	}
	return 8
}

// HitTest returns the top-most popupable descriptor under the screen point.
func HitTest(set overlay.Set, t Transform, sx, sy float64) (overlay.Descriptor, bool) {
	for i := len(set.Descriptors) - 1; i >= 0; i-- {
		d := set.Descriptors[i]
		if !d.Popupable() {
			continue
		}
		x, y := t.Percent(d.X, d.Y)
		if math.Hypot(sx-x, sy-y) <= hitRadius(d) {
			return d, true
		}
	}
	return overlay.Descriptor{}, false
}

func (g *Game) drawCable(screen *ebiten.Image, t Transform, d overlay.Descriptor) {
	width := float32(1)
	alpha := 0.5
	if d.Class == "major" {
		width, alpha = 1.5, 0.8
	}
	clr := withAlpha(ColorCable, alpha)
	for i := 1; i < len(d.Path); i++ {
		x1, y1 := t.Percent(d.Path[i-1].X, d.Path[i-1].Y)
		x2, y2 := t.Percent(d.Path[i].X, d.Path[i].Y)
		vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), width, clr, true)
	}
}

func (g *Game) drawMarker(screen *ebiten.Image, t Transform, d overlay.Descriptor) {
	s, ok := styleFor(d)
	if !ok {
		return
	}
	x, y := t.Percent(d.X, d.Y)
	if s.Arrow {
		pts := arrowPoints(x, y, s.Radius*1.6, d.Rotation)
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			vector.StrokeLine(screen, float32(a[0]), float32(a[1]), float32(b[0]), float32(b[1]), 1.5, s.Color, true)
		}
		return
	}
	if s.Ring {
		vector.StrokeCircle(screen, float32(x), float32(y), float32(s.Radius+3), 1, withAlpha(s.Color, 0.6), true)
	}
	vector.DrawFilledCircle(screen, float32(x), float32(y), float32(s.Radius), s.Color, true)
}

func (g *Game) drawLabel(screen *ebiten.Image, t Transform, d overlay.Descriptor) {
	if g.fontSource == nil || !labelled(d) {
		return
	}
	x, y := t.Percent(d.X, d.Y)
	size, alpha := 12.0, float32(0.8)
	clr := ColorText
	op := &text.DrawOptions{}
	switch d.Kind {
	case overlay.KindConflictLabel:
		size, clr = 13, ColorAlert
		op.PrimaryAlign = text.AlignCenter
		op.GeoM.Translate(x, y)
	case overlay.KindCoordinateLabel:
		size, alpha, clr = 10, 0.5, ColorGrid
		op.GeoM.Translate(x+2, y+2)
	default:
		r := 6.0
		if s, ok := styleFor(d); ok {
			r = s.Radius
		}
		op.GeoM.Translate(x+r+4, y-size/2)
	}
	face := &text.GoTextFace{Source: g.fontSource, Size: size}
	op.ColorScale.ScaleWithColor(clr)
	op.ColorScale.ScaleAlpha(alpha)
	text.Draw(screen, d.Label, face, op)
}
