package viewer

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/sudorandom/situation-map/pkg/layers"
	"github.com/sudorandom/situation-map/pkg/mapstate"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

const (
	popupWidth    = 320.0
	popupLineH    = 16.0
	popupPad      = 10.0
	popupMaxChars = 44
	maxHeadlines  = 5
)

var (
	boxFill   = color.RGBA{0, 0, 0, 160}
	boxStroke = color.RGBA{36, 42, 53, 255}
	accent    = color.RGBA{0, 255, 170, 255}
)

// detailKeys are the payload fields listed in a popup, in order.
var detailKeys = []string{
	"subtext", "level", "status", "traffic", "intensity", "group", "aka", "sponsor",
	"type", "country", "altitude", "velocity", "depth", "description",
}

// payloadFields flattens a popup payload into its JSON fields. Payloads
// received over the stream are already maps.
func payloadFields(payload any) map[string]any {
	if m, ok := payload.(map[string]any); ok {
		return m
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func str(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.1f", v)
	case bool:
		if v {
			return "yes"
		}
	}
	return ""
}

// PopupLines is the text shown in the popup, title first.
func PopupLines(p mapstate.Popup) []string {
	f := payloadFields(p.Payload)
	title := p.EntityID
	for _, k := range []string{"name", "callsign", "place"} {
		if s := strings.TrimSpace(str(f[k])); s != "" {
			title = s
			break
		}
	}
	if p.Category == mapstate.PopupQuake {
		if mag, ok := f["mag"].(float64); ok {
			title = fmt.Sprintf("M%.1f %s", mag, title)
		}
	}
	lines := []string{truncate(title, popupMaxChars)}
	for _, k := range detailKeys {
		if s := str(f[k]); s != "" {
			lines = append(lines, truncate(k+": "+s, popupMaxChars))
		}
	}
	if n, ok := f["matchCount"].(float64); ok && n > 0 {
		lines = append(lines, fmt.Sprintf("%d matching headlines", int(n)))
	}
	for _, k := range []string{"headlines", "matches"} {
		items, _ := f[k].([]any)
		for i, it := range items {
			if i == maxHeadlines {
				break
			}
			if m, ok := it.(map[string]any); ok {
				lines = append(lines, truncate("• "+str(m["title"]), popupMaxChars))
			}
		}
	}
	return lines
}

// Rect is a screen rectangle.
type Rect struct{ X, Y, W, H float64 }

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// PopupRect places a popup next to its anchor, kept inside the screen.
func PopupRect(p mapstate.Popup, t Transform, lines int) Rect {
	x, y := t.Percent(p.X, p.Y)
	r := Rect{X: x + 14, Y: y - 14, W: popupWidth, H: float64(lines)*popupLineH + 2*popupPad}
	if r.X+r.W > t.Width {
		r.X = x - 14 - r.W
	}
	r.X = math.Max(0, r.X)
	r.Y = math.Max(0, math.Min(r.Y, t.Height-r.H))
	return r
}

// popupAt returns the category of the open popup under the screen point.
func popupAt(popups []mapstate.Popup, t Transform, sx, sy float64) (mapstate.Category, bool) {
	for i := len(popups) - 1; i >= 0; i-- {
		if PopupRect(popups[i], t, len(PopupLines(popups[i]))).Contains(sx, sy) {
			return popups[i].Category, true
		}
	}
	return "", false
}

func (g *Game) drawBox(screen *ebiten.Image, r Rect) {
	vector.DrawFilledRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), boxFill, false)
	vector.StrokeRect(screen, float32(r.X), float32(r.Y), float32(r.W), float32(r.H), 1, boxStroke, false)
	vector.DrawFilledRect(screen, float32(r.X), float32(r.Y), 4, float32(r.H), accent, false)
}

func (g *Game) drawText(screen *ebiten.Image, s string, x, y, size float64, alpha float32) {
	if g.fontSource == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleAlpha(alpha)
	text.Draw(screen, s, &text.GoTextFace{Source: g.fontSource, Size: size}, op)
}

func (g *Game) drawPopups(screen *ebiten.Image, t Transform, popups []mapstate.Popup) {
	for _, p := range popups {
		lines := PopupLines(p)
		r := PopupRect(p, t, len(lines))
		g.drawBox(screen, r)
		for i, line := range lines {
			size, alpha := 12.0, float32(0.8)
			if i == 0 {
				size, alpha = 14, 1
			}
			g.drawText(screen, line, r.X+popupPad+4, r.Y+popupPad+float64(i)*popupLineH, size, alpha)
		}
	}
}

// hudLines is the status panel text.
func hudLines(snap mapstate.Snapshot, follow bool) []string {
	lines := []string{
		strings.ToUpper(string(snap.View.Mode)) + " VIEW",
		"ZOOM " + snap.ZoomLabel,
	}
	if snap.PanHint {
		lines = append(lines, "drag to pan")
	}
	if follow {
		lines = append(lines, "following stream")
	} else {
		var on []string
		for _, l := range layers.Toggleable() {
			if snap.Toggles.Enabled(l) {
				on = append(on, string(l))
			}
		}
		lines = append(lines, "layers: "+strings.Join(on, " "))
	}
	if !snap.Set.ComposedAt.IsZero() {
		lines = append(lines, "updated "+snap.Set.ComposedAt.Local().Format("15:04:05"))
	}
	return lines
}

func (g *Game) drawHUD(screen *ebiten.Image, snap mapstate.Snapshot) {
	if g.fontSource == nil {
		return
	}
	lines := hudLines(snap, g.follow)
	margin := 20.0
	r := Rect{X: margin, Y: margin, W: 340, H: float64(len(lines))*18 + 2*popupPad}
	g.drawBox(screen, r)
	for i, line := range lines {
		size, alpha := 12.0, float32(0.7)
		if i == 0 {
			size, alpha = 16, 1
		}
		g.drawText(screen, line, r.X+popupPad+4, r.Y+popupPad+float64(i)*18, size, alpha)
	}

	for _, d := range snap.Set.Descriptors {
		if d.Kind != overlay.KindFlightBadge {
			continue
		}
		label := strings.TrimSpace(strings.TrimPrefix(d.Label, "✈"))
		badge := Rect{X: float64(g.width) - margin - 180, Y: margin, W: 180, H: 34}
		g.drawBox(screen, badge)
		g.drawText(screen, strings.ToUpper(label), badge.X+popupPad+4, badge.Y+9, 14, 1)
	}
}
