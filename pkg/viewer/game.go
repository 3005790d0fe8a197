// Package viewer renders the committed overlay set in a desktop window and
// feeds mouse and keyboard input back into the map controller.
package viewer

import (
	"bytes"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/sudorandom/situation-map/pkg/layers"
	"github.com/sudorandom/situation-map/pkg/mapstate"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

// Game implements ebiten.Game on top of a map controller.
type Game struct {
	controller *mapstate.Controller
	logger     *zap.Logger
	width      int
	height     int

	// follow disables view and layer keys; the set comes from a remote
	// server.
	follow     bool
	captureDir string
	onToggle   func(layers.Layer, bool)

	fontSource *text.GoTextFaceSource

	bgImage      *ebiten.Image
	bgGeneration uint64
	bgColor      color.RGBA

	drag           dragState
	capturePending bool
}

type Option func(*Game)

func WithLogger(l *zap.Logger) Option {
	return func(g *Game) { g.logger = l }
}

// WithFollow marks the game as mirroring a remote stream.
func WithFollow() Option {
	return func(g *Game) { g.follow = true }
}

// WithCaptureDir enables PNG screenshots on the P key.
func WithCaptureDir(dir string) Option {
	return func(g *Game) { g.captureDir = dir }
}

// WithToggleHook is called after a layer key flips a layer.
func WithToggleHook(fn func(layers.Layer, bool)) Option {
	return func(g *Game) { g.onToggle = fn }
}

func NewGame(controller *mapstate.Controller, width, height int, opts ...Option) *Game {
	g := &Game{
		controller:   controller,
		logger:       zap.NewNop(),
		width:        width,
		height:       height,
		bgGeneration: ^uint64(0),
		bgColor:      ParseColor(layers.Background),
	}
	for _, opt := range opts {
		opt(g)
	}
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		g.logger.Warn("Loading font failed, text disabled", zap.Error(err))
	} else {
		g.fontSource = s
	}
	return g
}

func (g *Game) Update() error {
	g.handleKeys()
	g.handleMouse()
	return nil
}

// refreshBackground re-rasterizes the polygons when a new set is committed.
func (g *Game) refreshBackground(set overlay.Set) {
	if g.bgImage != nil && set.Generation == g.bgGeneration {
		return
	}
	img := RenderBase(set, g.width, g.height)
	if g.bgImage != nil {
		g.bgImage.Deallocate()
	}
	g.bgImage = ebiten.NewImageFromImage(img)
	g.bgGeneration = set.Generation
	g.logger.Debug("Rendered base map",
		zap.Uint64("generation", set.Generation),
		zap.String("view", string(set.View)))
}

func (g *Game) Draw(screen *ebiten.Image) {
	snap := g.controller.Current()
	g.refreshBackground(snap.Set)
	t := NewTransform(g.width, g.height, snap.View)

	screen.Fill(g.bgColor)
	op := &ebiten.DrawImageOptions{GeoM: t.GeoM()}
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.bgImage, op)

	for _, d := range snap.Set.Descriptors {
		switch d.Kind {
		case overlay.KindBackground, overlay.KindCountry, overlay.KindState,
			overlay.KindConflictZone, overlay.KindFlightBadge:
		case overlay.KindCable:
			g.drawCable(screen, t, d)
		default:
			g.drawMarker(screen, t, d)
			g.drawLabel(screen, t, d)
		}
	}

	g.drawPopups(screen, t, snap.Popups)
	g.drawHUD(screen, snap)

	if g.capturePending {
		g.captureFrame(screen, snap.View.Mode)
		g.capturePending = false
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
