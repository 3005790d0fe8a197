package geo

import (
	"math"
)

const (
	radians = math.Pi / 180
	epsilon = 1e-6
)

// Point is a position in percent of the canvas, (0,0) top-left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// rawFunc is a projection on radians before scale and translate.
type rawFunc func(lambda, phi float64) (x, y float64)

// planar is a projection with center, rotation, scale and translate applied,
// producing pixels. The optional clip rejects points outside an extent.
type planar struct {
	raw    rawFunc
	rotate float64 // radians, applied to longitude only
	k      float64
	offX   float64
	offY   float64
	clip   *extent
}

type extent struct {
	x0, y0, x1, y1 float64
}

func (e *extent) contains(x, y float64) bool {
	return x >= e.x0 && x <= e.x1 && y >= e.y0 && y <= e.y1
}

func newPlanar(raw rawFunc, rotateDeg, centerLon, centerLat, k, tx, ty float64) *planar {
	cx, cy := raw(centerLon*radians, centerLat*radians)
	return &planar{
		raw:    raw,
		rotate: rotateDeg * radians,
		k:      k,
		offX:   tx - k*cx,
		offY:   ty + k*cy,
	}
}

func (p *planar) project(lon, lat float64) (float64, float64, bool) {
	lambda := lon*radians + p.rotate
	if math.Abs(lambda) > math.Pi {
		lambda -= math.Round(lambda/(2*math.Pi)) * 2 * math.Pi
	}
	rx, ry := p.raw(lambda, lat*radians)
	x, y := p.offX+p.k*rx, p.offY-p.k*ry
	if !finite(x) || !finite(y) {
		return 0, 0, false
	}
	if p.clip != nil && !p.clip.contains(x, y) {
		return 0, 0, false
	}
	return x, y, true
}

func equirectangularRaw(lambda, phi float64) (float64, float64) {
	return lambda, phi
}

func mercatorRaw(lambda, phi float64) (float64, float64) {
	return lambda, math.Log(math.Tan((math.Pi/2 + phi) / 2))
}

// conicEqualAreaRaw returns an Albers equal-area conic with the two
// standard parallels given in degrees.
func conicEqualAreaRaw(parallel0, parallel1 float64) rawFunc {
	sy0 := math.Sin(parallel0 * radians)
	n := (sy0 + math.Sin(parallel1*radians)) / 2
	c := 1 + sy0*(2*n-sy0)
	r0 := math.Sqrt(c) / n
	return func(lambda, phi float64) (float64, float64) {
		r := math.Sqrt(c-2*n*math.Sin(phi)) / n
		return r * math.Sin(lambda*n), r0 - r*math.Cos(lambda*n)
	}
}

// Projector places coordinates for a single view and canvas size. A view
// switch builds a new Projector; nothing is re-projected incrementally.
type Projector struct {
	view          View
	width, height float64
	parts         []*planar
}

// regionalAnchor is the Mercator center and width multiplier of a theater.
type regionalAnchor struct {
	lon, lat, scale float64
}

var regionalAnchors = map[View]regionalAnchor{
	ViewMideast: {lon: 42, lat: 28, scale: 1.5},
	ViewUkraine: {lon: 35, lat: 50, scale: 2.2},
	ViewTaiwan:  {lon: 118, lat: 23, scale: 1.8},
}

// NewProjector builds the projection for view on a width x height canvas.
// Unknown views fall back to the global projection.
func NewProjector(view View, width, height int) *Projector {
	w, h := float64(width), float64(height)
	p := &Projector{view: view, width: w, height: h}
	switch view {
	case ViewUS:
		p.parts = albersUsa(w*1.3, w/2, h/2)
	case ViewMideast, ViewUkraine, ViewTaiwan:
		a := regionalAnchors[view]
		p.parts = []*planar{newPlanar(mercatorRaw, 0, a.lon, a.lat, w*a.scale, w/2, h/2)}
	default:
		p.view = ViewGlobal
		p.parts = []*planar{newPlanar(equirectangularRaw, 0, 0, 0, w/(2*math.Pi), w/2, h/2)}
	}
	return p
}

// albersUsa composes the lower 48, Alaska and Hawaii insets. A point is
// placed by the first inset whose clip extent contains it.
func albersUsa(k, x, y float64) []*planar {
	lower48 := newPlanar(conicEqualAreaRaw(29.5, 45.5), 96, -0.6, 38.7, k, x, y)
	lower48.clip = &extent{x - 0.455*k, y - 0.238*k, x + 0.455*k, y + 0.238*k}

	alaska := newPlanar(conicEqualAreaRaw(55, 65), 154, -2, 58.5, k*0.35, x-0.307*k, y+0.201*k)
	alaska.clip = &extent{x - 0.425*k + epsilon, y + 0.120*k + epsilon, x - 0.214*k - epsilon, y + 0.234*k - epsilon}

	hawaii := newPlanar(conicEqualAreaRaw(8, 18), 157, -3, 19.9, k, x-0.205*k, y+0.212*k)
	hawaii.clip = &extent{x - 0.214*k + epsilon, y + 0.166*k + epsilon, x - 0.115*k - epsilon, y + 0.234*k - epsilon}

	return []*planar{lower48, alaska, hawaii}
}

// View returns the view this projector was built for.
func (p *Projector) View() View { return p.view }

// Pixels projects to canvas pixels. ok is false when the coordinate cannot
// be placed.
func (p *Projector) Pixels(lon, lat float64) (x, y float64, ok bool) {
	if !validCoordinate(lon, lat) || p.width <= 0 || p.height <= 0 {
		return 0, 0, false
	}
	for _, part := range p.parts {
		if x, y, ok := part.project(lon, lat); ok {
			return x, y, true
		}
	}
	return 0, 0, false
}

// Project returns the position in canvas percent. Regional views reject
// anything that lands outside [0,100] on either axis.
func (p *Projector) Project(lon, lat float64) (Point, bool) {
	x, y, ok := p.Pixels(lon, lat)
	if !ok {
		return Point{}, false
	}
	pt := Point{X: x / p.width * 100, Y: y / p.height * 100}
	if p.view.IsRegional() && !onCanvas(pt) {
		return Point{}, false
	}
	return pt, true
}

// Vertex projects a polygon or path vertex to percent without the regional
// canvas bound, so shapes crossing the edge of a theater keep their outline.
func (p *Projector) Vertex(lon, lat float64) (Point, bool) {
	x, y, ok := p.Pixels(lon, lat)
	if !ok {
		return Point{}, false
	}
	return Point{X: x / p.width * 100, Y: y / p.height * 100}, true
}

// Project is a one-shot helper around NewProjector.
func Project(lon, lat float64, view View, width, height int) (Point, bool) {
	return NewProjector(view, width, height).Project(lon, lat)
}

func onCanvas(pt Point) bool {
	return pt.X >= 0 && pt.X <= 100 && pt.Y >= 0 && pt.Y <= 100
}

func validCoordinate(lon, lat float64) bool {
	if !finite(lon) || !finite(lat) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
