package mapstate

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/layers"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

// Cycle is the token of one refresh. Its set is accepted by Commit only if
// no newer cycle, view switch or layer toggle happened in between.
type Cycle struct {
	Generation uint64
	View       geo.View
	Toggles    layers.Toggles
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	View       ViewState      `json:"view"`
	ZoomLabel  string         `json:"zoomLabel"`
	PanHint    bool           `json:"panHint"`
	Toggles    layers.Toggles `json:"toggles"`
	Popups     []Popup        `json:"popups"`
	Generation uint64         `json:"generation"`
	Set        overlay.Set    `json:"set"`
}

// Controller is the single owner of the interactive map state.
type Controller struct {
	logger *zap.Logger

	mu         sync.Mutex
	view       ViewState
	popups     *Popups
	toggles    layers.Toggles
	set        overlay.Set
	generation uint64
	committed  uint64

	subMu       sync.Mutex
	subscribers []func(overlay.Set)

	// pubMu serializes delivery; published is the last generation sent to
	// subscribers.
	pubMu     sync.Mutex
	published uint64

	// invalidated receives a value when the committed set no longer
	// matches the view or toggles.
	invalidated chan struct{}
}

func NewController(logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		logger:      logger,
		view:        NewViewState(),
		popups:      NewPopups(),
		toggles:     layers.DefaultToggles(),
		invalidated: make(chan struct{}, 1),
	}
}

// Invalidated signals that a recompose is needed.
func (c *Controller) Invalidated() <-chan struct{} { return c.invalidated }

func (c *Controller) invalidate() {
	c.generation++
	select {
	case c.invalidated <- struct{}{}:
	default:
	}
}

// Subscribe registers fn to receive committed sets in generation order.
func (c *Controller) Subscribe(fn func(overlay.Set)) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// SetView switches the view mode. Switching to the active mode or to an
// unknown view is a no-op.
func (c *Controller) SetView(v geo.View) bool {
	mode, err := geo.ParseView(string(v))
	if err != nil {
		c.logger.Warn("Ignoring view change", zap.Error(err))
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.view.SetView(mode) {
		return false
	}
	c.popups.CloseAll()
	c.invalidate()
	c.logger.Info("View changed", zap.String("view", string(mode)), zap.Uint64("generation", c.generation))
	return true
}

func (c *Controller) ZoomIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.ZoomIn()
}

func (c *Controller) ZoomOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.ZoomOut()
}

func (c *Controller) ZoomReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Reset()
}

func (c *Controller) Wheel(deltaY float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Wheel(deltaY)
}

func (c *Controller) BeginPan(x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.BeginPan(x, y)
}

func (c *Controller) PanTo(x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.PanTo(x, y)
}

func (c *Controller) EndPan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.EndPan()
}

// ToggleLayer flips a toggleable layer and returns its new state.
func (c *Controller) ToggleLayer(l layers.Layer) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := layers.Rules[l]
	if !ok || !r.Toggleable {
		return false, fmt.Errorf("layer %q cannot be toggled", l)
	}
	on := !c.toggles.Enabled(l)
	c.toggles[l] = on
	c.invalidate()
	return on, nil
}

// SetLayer sets a toggleable layer. Setting the current value is a no-op.
func (c *Controller) SetLayer(l layers.Layer, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := layers.Rules[l]
	if !ok || !r.Toggleable {
		return fmt.Errorf("layer %q cannot be toggled", l)
	}
	if c.toggles.Enabled(l) == on {
		return nil
	}
	c.toggles[l] = on
	c.invalidate()
	return nil
}

// Click opens the popup of the entity of kind with id in the committed set.
func (c *Controller) Click(kind overlay.Kind, id string) (Popup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.set.Descriptors {
		if d.Kind != kind || d.EntityID != id {
			continue
		}
		p, ok := c.popups.OpenFor(d)
		if !ok {
			return Popup{}, fmt.Errorf("%s has no popup", kind)
		}
		return p, nil
	}
	return Popup{}, fmt.Errorf("no %s %q on the map", kind, id)
}

func (c *Controller) OutsideClick(t Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.popups.OutsideClick(t)
}

func (c *Controller) ClosePopup(cat Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.popups.Close(cat)
}

// BeginCycle starts a refresh. Any cycle begun earlier becomes stale.
func (c *Controller) BeginCycle() Cycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return Cycle{Generation: c.generation, View: c.view.Mode, Toggles: c.toggles.Clone()}
}

// Commit installs set if cycle is still current and reports whether it did.
func (c *Controller) Commit(cycle Cycle, set overlay.Set) bool {
	c.mu.Lock()
	if cycle.Generation != c.generation {
		current := c.generation
		c.mu.Unlock()
		c.logger.Debug("Discarding stale overlay set",
			zap.Uint64("generation", cycle.Generation),
			zap.Uint64("current", current))
		return false
	}
	set.Generation = cycle.Generation
	c.set = set
	c.committed = cycle.Generation
	c.mu.Unlock()

	c.publish(set)
	return true
}

// publish hands set to the subscribers unless a newer set already went out.
func (c *Controller) publish(set overlay.Set) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if set.Generation <= c.published {
		return
	}
	c.published = set.Generation

	c.subMu.Lock()
	subs := append([]func(overlay.Set){}, c.subscribers...)
	c.subMu.Unlock()
	for _, fn := range subs {
		fn(set)
	}
}

// Current returns a snapshot of the state.
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		View:       c.view,
		ZoomLabel:  c.view.ZoomLabel(),
		PanHint:    c.view.ShowPanHint(),
		Toggles:    c.toggles.Clone(),
		Popups:     c.popups.List(),
		Generation: c.committed,
		Set:        c.set,
	}
}
