package sources

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/sudorandom/situation-map/pkg/overlay"
	"github.com/sudorandom/situation-map/pkg/utils"
)

// ParseQuakes decodes a USGS GeoJSON summary feed, newest first. Features
// without a point geometry are skipped; a null magnitude leaves Mag nil.
func ParseQuakes(r io.Reader) ([]overlay.Quake, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode quake feed: %w", err)
	}

	quakes := make([]overlay.Quake, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil || !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
			continue
		}
		pt := f.Geometry.Point
		q := overlay.Quake{
			ID:    fmt.Sprintf("eq_%d", i),
			Place: f.PropertyMustString("place", ""),
			Lon:   pt[0],
			Lat:   pt[1],
		}
		if id, ok := f.ID.(string); ok && id != "" {
			q.ID = id
		}
		if len(pt) > 2 {
			q.Depth = pt[2]
		}
		if mag, err := f.PropertyFloat64("mag"); err == nil {
			q.Mag = &mag
		}
		if ms, err := f.PropertyFloat64("time"); err == nil {
			q.Time = time.UnixMilli(int64(ms)).UTC()
		}
		quakes = append(quakes, q)
	}
	sort.SliceStable(quakes, func(i, j int) bool {
		return quakes[i].Time.After(quakes[j].Time)
	})
	return quakes, nil
}

// FetchQuakes downloads and parses a USGS feed.
func FetchQuakes(ctx context.Context, url string) ([]overlay.Quake, error) {
	rc, err := utils.GetCachedReader(ctx, url, false, "[USGS]")
	if err != nil {
		return nil, fmt.Errorf("fetch quakes: %w", err)
	}
	defer func() { _ = rc.Close() }()
	return ParseQuakes(rc)
}
