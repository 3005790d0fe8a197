package dashboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/catalog"
	"github.com/sudorandom/situation-map/pkg/overlay"
	"github.com/sudorandom/situation-map/pkg/sources"
)

// Sources are the upstream locations of the feeds. An empty location
// disables its feed.
type Sources struct {
	Corpus    string
	Quakes    string
	Flights   string
	Countries string
	States    string
}

// DefaultSources are the public feeds. No corpus is configured by default.
var DefaultSources = Sources{
	Quakes:    sources.USGSQuakesDayURL,
	Flights:   sources.OpenSkyStatesURL,
	Countries: sources.CountriesGeoJSONURL,
	States:    sources.StatesGeoJSONURL,
}

// FetchersFor wires the fetchers for s. monitors may be nil.
func FetchersFor(s Sources, monitors func([]activity.TextItem) ([]catalog.ScoredMonitor, error)) Fetchers {
	f := Fetchers{Monitors: monitors}
	if s.Corpus != "" {
		f.Corpus = func(ctx context.Context) ([]activity.TextItem, error) {
			return sources.FetchCorpus(ctx, s.Corpus)
		}
	}
	if s.Quakes != "" {
		f.Quakes = func(ctx context.Context) ([]overlay.Quake, error) {
			return sources.FetchQuakes(ctx, s.Quakes)
		}
	}
	if s.Flights != "" {
		f.Flights = func(ctx context.Context) ([]overlay.Flight, error) {
			return sources.FetchFlights(ctx, s.Flights)
		}
	}
	return f
}

// LoadBaseMap fetches the polygons of s and installs them. On failure the
// map keeps drawing without polygons.
func (r *Refresher) LoadBaseMap(ctx context.Context, s Sources) error {
	if s.Countries == "" {
		return nil
	}
	m, err := sources.LoadBaseMap(ctx, s.Countries, s.States)
	if err != nil {
		r.logger.Error("Base map unavailable, drawing without polygons", zap.Error(err))
		return err
	}
	r.SetBaseMap(m)
	r.Request()
	return nil
}
