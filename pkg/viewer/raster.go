package viewer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/layers"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

// ParseColor reads #rgb or #rrggbb. "none" and invalid input give a fully
// transparent color.
func ParseColor(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = fmt.Sprintf("%c%c%c%c%c%c", s[0], s[0], s[1], s[1], s[2], s[2])
	}
	if len(s) != 6 {
		return color.RGBA{}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}

// withAlpha returns c at opacity a, premultiplied.
func withAlpha(c color.RGBA, a float64) color.RGBA {
	a = math.Max(0, math.Min(1, a))
	return color.RGBA{uint8(float64(c.R) * a), uint8(float64(c.G) * a), uint8(float64(c.B) * a), uint8(float64(c.A) * a)}
}

// raster draws polygon shapes onto a CPU image sized like the canvas.
type raster struct {
	img           *image.RGBA
	width, height int
}

func newRaster(width, height int, bg color.RGBA) *raster {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
	return &raster{img: img, width: width, height: height}
}

func (r *raster) px(p geo.Point) (float64, float64) {
	return p.X / 100 * float64(r.width), p.Y / 100 * float64(r.height)
}

// blend composites c over the pixel at off.
func (r *raster) blend(off int, c color.RGBA) {
	if c.A == 255 {
		r.img.Pix[off], r.img.Pix[off+1], r.img.Pix[off+2], r.img.Pix[off+3] = c.R, c.G, c.B, 255
		return
	}
	inv := 255 - uint32(c.A)
	for i, v := range [3]uint8{c.R, c.G, c.B} {
		r.img.Pix[off+i] = uint8(uint32(v) + uint32(r.img.Pix[off+i])*inv/255)
	}
	r.img.Pix[off+3] = 255
}

// fillRings fills rings with the even-odd rule, so holes stay open.
func (r *raster) fillRings(rings [][]geo.Point, c color.RGBA) {
	if len(rings) == 0 || c.A == 0 {
		return
	}
	type point struct{ x, y float64 }
	projected := make([][]point, len(rings))
	minY, maxY := float64(r.height), 0.0
	for i, ring := range rings {
		projected[i] = make([]point, len(ring))
		for j, p := range ring {
			x, y := r.px(p)
			projected[i][j] = point{x, y}
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
	}
	var nodes []int
	for y := int(minY); y <= int(maxY); y++ {
		if y < 0 || y >= r.height {
			continue
		}
		nodes = nodes[:0]
		fy := float64(y)
		for _, ring := range projected {
			for i := 0; i < len(ring); i++ {
				j := (i + 1) % len(ring)
				if (ring[i].y < fy && ring[j].y >= fy) || (ring[j].y < fy && ring[i].y >= fy) {
					nodeX := ring[i].x + (fy-ring[i].y)/(ring[j].y-ring[i].y)*(ring[j].x-ring[i].x)
					nodes = append(nodes, int(nodeX))
				}
			}
		}
		sort.Ints(nodes)
		for i := 0; i < len(nodes)-1; i += 2 {
			xs, xe := max(nodes[i], 0), min(nodes[i+1], r.width-1)
			for x := xs; x < xe; x++ {
				r.blend(y*r.img.Stride+x*4, c)
			}
		}
	}
}

// brush turns a stroke width into a square brush size and color. Widths
// below one pixel draw a single pixel at proportional opacity.
func brush(width float64, c color.RGBA) (int, color.RGBA) {
	switch {
	case width <= 0:
		return 1, c
	case width < 1:
		return 1, withAlpha(c, width)
	}
	return int(math.Round(width)), c
}

func (r *raster) strokeRing(ring []geo.Point, width float64, c color.RGBA, closed bool) {
	size, c := brush(width, c)
	if len(ring) < 2 || c.A == 0 {
		return
	}
	n := len(ring) - 1
	if closed {
		n = len(ring)
	}
	for i := 0; i < n; i++ {
		x1, y1 := r.px(ring[i])
		x2, y2 := r.px(ring[(i+1)%len(ring)])
		r.line(int(x1), int(y1), int(x2), int(y2), size, c)
	}
}

// plot paints a size x size square centered on x, y.
func (r *raster) plot(x, y, size int, c color.RGBA) {
	x0, y0 := x-(size-1)/2, y-(size-1)/2
	for py := max(y0, 0); py < min(y0+size, r.height); py++ {
		for px := max(x0, 0); px < min(x0+size, r.width); px++ {
			r.blend(py*r.img.Stride+px*4, c)
		}
	}
}

// line is Bresenham without antialiasing, drawn with a square brush.
func (r *raster) line(x1, y1, x2, y2, size int, c color.RGBA) {
	dx, dy := math.Abs(float64(x2-x1)), math.Abs(float64(y2-y1))
	sx, sy := -1, -1
	if x1 < x2 {
		sx = 1
	}
	if y1 < y2 {
		sy = 1
	}
	err := dx - dy
	for {
		r.plot(x1, y1, size, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// Conflict zone fill and outline opacity.
const (
	conflictFillAlpha   = 0.15
	conflictStrokeAlpha = 0.6
)

var conflictRed = color.RGBA{255, 68, 68, 255}

// RenderBase rasterizes the background and every polygon descriptor of set
// in paint order.
func RenderBase(set overlay.Set, width, height int) *image.RGBA {
	bg := ParseColor(layers.Background)
	for _, d := range set.Descriptors {
		if d.Kind == overlay.KindBackground && d.Color != "" {
			bg = ParseColor(d.Color)
		}
	}
	r := newRaster(width, height, bg)
	for _, d := range set.Descriptors {
		switch d.Kind {
		case overlay.KindCountry, overlay.KindState:
			if d.Style == nil {
				continue
			}
			if d.Style.Fill != "none" {
				r.fillRings(d.Rings, ParseColor(d.Style.Fill))
			}
			stroke := ParseColor(d.Style.Stroke)
			for _, ring := range d.Rings {
				r.strokeRing(ring, d.Style.StrokeWidth, stroke, true)
			}
		case overlay.KindConflictZone:
			fill := conflictFillAlpha
			if d.Class == "high-intensity" {
				fill *= 1.5
			}
			r.fillRings(d.Rings, withAlpha(conflictRed, fill))
			for _, ring := range d.Rings {
				r.strokeRing(ring, 1, withAlpha(conflictRed, conflictStrokeAlpha), true)
			}
		}
	}
	return r.img
}
