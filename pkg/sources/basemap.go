package sources

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/utils"
)

const baseMapPrefix = "[BaseMap]"

// LoadBaseMap reads the country polygons and, if statesURL is set, the US
// state polygons. Downloads are cached on disk.
func LoadBaseMap(ctx context.Context, countriesURL, statesURL string) (*geo.BaseMap, error) {
	cr, err := openBaseMap(ctx, countriesURL)
	if err != nil {
		return nil, fmt.Errorf("fetch countries: %w", err)
	}
	defer func() { _ = cr.Close() }()

	var sr io.Reader
	if statesURL != "" {
		rc, err := openBaseMap(ctx, statesURL)
		if err != nil {
			return nil, fmt.Errorf("fetch states: %w", err)
		}
		defer func() { _ = rc.Close() }()
		sr = rc
	}

	b, err := geo.LoadBaseMap(cr, sr)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Loaded base map", zap.Int("countries", len(b.Countries)), zap.Int("states", len(b.States)))
	return b, nil
}

// openBaseMap tries location and then its mirrors. A candidate already in
// the cache goes first so a previous download works offline.
func openBaseMap(ctx context.Context, location string) (io.ReadCloser, error) {
	candidates := append([]string{location}, Mirrors[location]...)
	if cached, ok := utils.FindCachedURL(candidates, baseMapPrefix); ok && cached != location {
		ordered := []string{cached}
		for _, c := range candidates {
			if c != cached {
				ordered = append(ordered, c)
			}
		}
		candidates = ordered
	}

	var errs []error
	for _, u := range candidates {
		rc, err := utils.GetCachedReader(ctx, u, true, baseMapPrefix)
		if err == nil {
			if u != location {
				zap.L().Info("Using base map mirror", zap.String("url", u), zap.String("primary", location))
			}
			return rc, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
