package viewer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/sudorandom/situation-map/pkg/geo"
)

// CaptureName is the file name of a screenshot of view taken at ts.
func CaptureName(view geo.View, ts time.Time) string {
	return fmt.Sprintf("situation-%s-%s.png", view, ts.Format("20060102-150405"))
}

// writePNG encodes img to path, creating the parent directory.
func writePNG(path string, img image.Image) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating capture directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating capture file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing capture file: %w", cerr)
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding capture: %w", err)
	}
	return nil
}

func (g *Game) captureFrame(img *ebiten.Image, view geo.View) {
	if g.captureDir == "" {
		return
	}
	path := filepath.Join(g.captureDir, CaptureName(view, time.Now()))

	// Copy the pixels now so the encode can run off the render goroutine.
	rgba := image.NewRGBA(img.Bounds())
	img.ReadPixels(rgba.Pix)

	go func() {
		if err := writePNG(path, rgba); err != nil {
			g.logger.Error("Capture failed", zap.Error(err))
			return
		}
		g.logger.Info("Captured frame", zap.String("path", path))
	}()
}
