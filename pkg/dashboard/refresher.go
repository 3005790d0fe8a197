// Package dashboard runs refresh cycles: fetch the upstream feeds, compose
// an overlay set for the current view and commit it to the controller.
package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/catalog"
	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/layers"
	"github.com/sudorandom/situation-map/pkg/mapstate"
	"github.com/sudorandom/situation-map/pkg/metrics"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

// Fetchers are the upstream collaborators. A nil fetcher yields an empty list.
type Fetchers struct {
	Corpus   func(ctx context.Context) ([]activity.TextItem, error)
	Quakes   func(ctx context.Context) ([]overlay.Quake, error)
	Flights  func(ctx context.Context) ([]overlay.Flight, error)
	Monitors func(corpus []activity.TextItem) ([]catalog.ScoredMonitor, error)
}

// feeds is the data of the last fetch, reused when only the view changes.
type feeds struct {
	corpus   []activity.TextItem
	quakes   []overlay.Quake
	flights  []overlay.Flight
	monitors []catalog.ScoredMonitor
}

type Refresher struct {
	controller *mapstate.Controller
	fetch      Fetchers
	metrics    *metrics.Metrics
	logger     *zap.Logger
	width      int
	height     int

	composer atomic.Pointer[overlay.Composer]
	baseMap  atomic.Pointer[geo.BaseMap]

	// refreshMu serializes fetches; feedsMu guards last.
	refreshMu sync.Mutex
	feedsMu   sync.Mutex
	last      feeds

	requests chan struct{}
}

type Option func(*Refresher)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Refresher) { r.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCanvas sets the size overlay sets are composed for.
func WithCanvas(width, height int) Option {
	return func(r *Refresher) { r.width, r.height = width, height }
}

func WithBaseMap(b *geo.BaseMap) Option {
	return func(r *Refresher) { r.baseMap.Store(b) }
}

func NewRefresher(controller *mapstate.Controller, composer *overlay.Composer, fetch Fetchers, opts ...Option) *Refresher {
	r := &Refresher{
		controller: controller,
		fetch:      fetch,
		logger:     zap.NewNop(),
		width:      1920,
		height:     1080,
		requests:   make(chan struct{}, 1),
	}
	r.composer.Store(composer)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetComposer swaps the composer, e.g. after a catalog reload. The next
// cycle uses it.
func (r *Refresher) SetComposer(c *overlay.Composer) { r.composer.Store(c) }

func (r *Refresher) SetBaseMap(b *geo.BaseMap) { r.baseMap.Store(b) }

// Refresh runs one full cycle and reports whether its set was committed.
// Failed fetches are logged and treated as empty.
func (r *Refresher) Refresh(ctx context.Context) bool {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	start := time.Now()
	cycle := r.controller.BeginCycle()
	f := r.fetchAll(ctx, cycle)
	if ctx.Err() != nil {
		return false
	}

	r.feedsMu.Lock()
	r.last = f
	r.feedsMu.Unlock()

	ok := r.composeAndCommit(cycle, f)
	if !ok {
		// The view or toggles moved during the fetch; redraw with the new data.
		ok = r.Recompose()
	}
	if r.metrics != nil {
		r.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
		r.metrics.CorpusItems.Set(float64(len(f.corpus)))
	}
	return ok
}

// Recompose builds a set for the current view from the last fetched data.
func (r *Refresher) Recompose() bool {
	cycle := r.controller.BeginCycle()
	r.feedsMu.Lock()
	f := r.last
	r.feedsMu.Unlock()
	return r.composeAndCommit(cycle, f)
}

// RescoreMonitors scores the custom monitors against the last corpus and
// recomposes. Nothing is fetched.
func (r *Refresher) RescoreMonitors() bool {
	if r.fetch.Monitors == nil {
		return r.Recompose()
	}
	r.feedsMu.Lock()
	ms, err := r.fetch.Monitors(r.last.corpus)
	if err != nil {
		r.logger.Warn("Scoring custom monitors failed", zap.Error(err))
	} else {
		r.last.monitors = ms
	}
	r.feedsMu.Unlock()
	return r.Recompose()
}

// Request asks Run for a full refresh. Requests made while one is pending
// coalesce.
func (r *Refresher) Request() {
	select {
	case r.requests <- struct{}{}:
	default:
	}
}

// Run recomposes whenever the controller is invalidated and refreshes on
// Request, until ctx ends.
func (r *Refresher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.controller.Invalidated():
			r.Recompose()
		case <-r.requests:
			r.Refresh(ctx)
		}
	}
}

func (r *Refresher) fetchAll(ctx context.Context, cycle mapstate.Cycle) feeds {
	var f feeds
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f.corpus = fetchOrEmpty(gctx, r, "corpus", r.fetch.Corpus)
		if r.fetch.Monitors != nil {
			ms, err := r.fetch.Monitors(f.corpus)
			if err != nil {
				r.logger.Warn("Scoring custom monitors failed", zap.Error(err))
			}
			f.monitors = ms
		}
		return nil
	})
	g.Go(func() error {
		f.quakes = fetchOrEmpty(gctx, r, "quakes", r.fetch.Quakes)
		return nil
	})
	if layers.IsVisible(layers.LayerFlights, cycle.View, cycle.Toggles) {
		g.Go(func() error {
			f.flights = fetchOrEmpty(gctx, r, "flights", r.fetch.Flights)
			return nil
		})
	}
	_ = g.Wait()
	return f
}

func fetchOrEmpty[T any](ctx context.Context, r *Refresher, source string, fn func(context.Context) ([]T, error)) []T {
	if fn == nil {
		return nil
	}
	start := time.Now()
	items, err := fn(ctx)
	if r.metrics != nil {
		r.metrics.ObserveFetch(source, start, err)
	}
	if err != nil {
		r.logger.Warn("Fetch failed, using empty list", zap.String("source", source), zap.Error(err))
		return nil
	}
	return items
}

func (r *Refresher) composeAndCommit(cycle mapstate.Cycle, f feeds) bool {
	composer := r.composer.Load()
	start := time.Now()
	set := composer.Compose(overlay.Input{
		View:     cycle.View,
		Width:    r.width,
		Height:   r.height,
		Toggles:  cycle.Toggles,
		BaseMap:  r.baseMap.Load(),
		Corpus:   f.corpus,
		Quakes:   f.quakes,
		Flights:  f.flights,
		Monitors: f.monitors,
	})
	if r.metrics != nil {
		r.metrics.ComposeDuration.WithLabelValues(string(cycle.View)).Observe(time.Since(start).Seconds())
	}

	if !r.controller.Commit(cycle, set) {
		if r.metrics != nil {
			r.metrics.Refreshes.WithLabelValues(metrics.OutcomeStale).Inc()
		}
		return false
	}
	if r.metrics != nil {
		r.metrics.Refreshes.WithLabelValues(metrics.OutcomeCommitted).Inc()
		r.metrics.ObserveDescriptors(countKinds(set))
	}
	r.logger.Info("Committed overlay set",
		zap.String("view", string(cycle.View)),
		zap.Uint64("generation", cycle.Generation),
		zap.Int("descriptors", len(set.Descriptors)))
	return true
}

func countKinds(set overlay.Set) map[string]int {
	counts := make(map[string]int)
	for _, d := range set.Descriptors {
		counts[string(d.Kind)]++
	}
	return counts
}
