package mapstate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/layers"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

func TestSetViewSameModeIsNoop(t *testing.T) {
	s := NewViewState()
	require.True(t, s.SetView(geo.ViewUS))
	s.ZoomIn()
	s.ZoomIn()
	require.True(t, s.BeginPan(0, 0))
	s.PanTo(100, 50)
	s.EndPan()
	before := s

	assert.False(t, s.SetView(geo.ViewUS))
	assert.Equal(t, before, s)

	assert.True(t, s.SetView(geo.ViewTaiwan))
	assert.Equal(t, MinZoom, s.Zoom)
	assert.Equal(t, Pan{}, s.Pan)
}

func TestZoomBounds(t *testing.T) {
	s := NewViewState()
	assert.False(t, s.ZoomOut(), "zoom out at 1 is a no-op")
	assert.Equal(t, 1.0, s.Zoom)

	for i := 0; i < 10; i++ {
		s.ZoomIn()
	}
	assert.Equal(t, MaxZoom, s.Zoom)
	assert.False(t, s.ZoomIn())
	assert.Equal(t, "4.0x", s.ZoomLabel())
	assert.True(t, s.ShowPanHint())

	for s.ZoomOut() {
		assert.GreaterOrEqual(t, s.Zoom, MinZoom)
	}
	assert.Equal(t, MinZoom, s.Zoom)
	assert.Equal(t, "1.0x", s.ZoomLabel())
	assert.False(t, s.ShowPanHint())
}

func TestPanResetsAtZoomOne(t *testing.T) {
	s := NewViewState()
	assert.False(t, s.BeginPan(10, 10), "no drag at zoom 1")
	assert.False(t, s.PanTo(50, 50))
	assert.Equal(t, Pan{}, s.Pan)

	s.ZoomIn()
	require.True(t, s.BeginPan(0, 0))
	s.PanTo(30, -15)
	assert.Equal(t, Pan{X: 20, Y: -10}, s.Pan)
	s.EndPan()

	s.ZoomOut()
	assert.Equal(t, MinZoom, s.Zoom)
	assert.Equal(t, Pan{}, s.Pan)
}

func TestPanClamp(t *testing.T) {
	tests := []struct {
		zoomSteps int
		toX, toY  float64
		want      Pan
	}{
		{1, 1000, -1000, Pan{X: 100, Y: -100}},
		{2, 1000, 0, Pan{X: 200, Y: 0}},
		{6, -10000, 10000, Pan{X: -600, Y: 600}},
	}
	for _, tt := range tests {
		s := NewViewState()
		for i := 0; i < tt.zoomSteps; i++ {
			s.ZoomIn()
		}
		require.True(t, s.BeginPan(0, 0))
		s.PanTo(tt.toX, tt.toY)
		assert.Equal(t, tt.want, s.Pan, "zoom %.1f", s.Zoom)
	}
}

func TestPanResumesFromCurrentOffset(t *testing.T) {
	s := NewViewState()
	s.ZoomIn()
	s.ZoomIn()
	s.BeginPan(0, 0)
	s.PanTo(100, 0)
	s.EndPan()
	assert.Equal(t, 50.0, s.Pan.X)

	s.BeginPan(500, 500)
	s.PanTo(520, 500)
	assert.Equal(t, 60.0, s.Pan.X)
}

func TestZoomOutClampsPan(t *testing.T) {
	s := NewViewState()
	for i := 0; i < 6; i++ {
		s.ZoomIn()
	}
	s.BeginPan(0, 0)
	s.PanTo(10000, 0)
	s.EndPan()
	assert.Equal(t, 600.0, s.Pan.X)

	s.ZoomOut()
	assert.Equal(t, 3.5, s.Zoom)
	assert.Equal(t, 500.0, s.Pan.X)
}

func TestWheel(t *testing.T) {
	s := NewViewState()
	assert.True(t, s.Wheel(-120))
	assert.Equal(t, 1.5, s.Zoom)
	assert.True(t, s.Wheel(120))
	assert.Equal(t, 1.0, s.Zoom)
	assert.False(t, s.Wheel(0))
}

func TestPopupsOnePerCategory(t *testing.T) {
	ps := NewPopups()
	require.NoError(t, ps.Open(Popup{Category: PopupHotspot, EntityID: "kyiv"}))
	require.NoError(t, ps.Open(Popup{Category: PopupQuake, EntityID: "eq_0"}))
	require.NoError(t, ps.Open(Popup{Category: PopupHotspot, EntityID: "tehran"}))

	open := ps.List()
	require.Len(t, open, 2)
	assert.Equal(t, "tehran", open[0].EntityID)
	assert.Equal(t, "eq_0", open[1].EntityID)

	assert.Error(t, ps.Open(Popup{Category: "weather"}))

	ps.Close(PopupHotspot)
	_, ok := ps.Get(PopupHotspot)
	assert.False(t, ok)
	_, ok = ps.Get(PopupQuake)
	assert.True(t, ok)
}

func TestOutsideClick(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   []Category
	}{
		{"empty map", Target{}, nil},
		{"on hotspot marker", Target{Trigger: PopupHotspot}, []Category{PopupHotspot}},
		{"inside aircraft popup", Target{Popup: PopupAircraft}, []Category{PopupAircraft}},
		{"on a quake, hotspot popup", Target{Trigger: PopupQuake, Popup: PopupHotspot}, []Category{PopupHotspot}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := NewPopups()
			for _, c := range []Category{PopupHotspot, PopupConflict, PopupAircraft} {
				require.NoError(t, ps.Open(Popup{Category: c}))
			}
			ps.OutsideClick(tt.target)
			var got []Category
			for _, p := range ps.List() {
				got = append(got, p.Category)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryFor(t *testing.T) {
	for kind, want := range map[overlay.Kind]Category{
		overlay.KindHotspot:       PopupHotspot,
		overlay.KindConflictLabel: PopupConflict,
		overlay.KindAircraft:      PopupAircraft,
	} {
		got, ok := CategoryFor(kind)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := CategoryFor(overlay.KindCable)
	assert.False(t, ok)
}

func testSet(descriptors ...overlay.Descriptor) overlay.Set {
	return overlay.Set{View: geo.ViewGlobal, Descriptors: descriptors}
}

func TestControllerStaleCommit(t *testing.T) {
	c := NewController(nil)

	first := c.BeginCycle()
	second := c.BeginCycle()
	assert.False(t, c.Commit(first, testSet()), "older cycle is stale")
	assert.True(t, c.Commit(second, testSet()))
	assert.Equal(t, second.Generation, c.Current().Generation)

	inFlight := c.BeginCycle()
	require.True(t, c.SetView(geo.ViewMideast))
	assert.False(t, c.Commit(inFlight, testSet()), "view switch invalidates")

	inFlight = c.BeginCycle()
	assert.Equal(t, geo.ViewMideast, inFlight.View)
	_, err := c.ToggleLayer(layers.LayerFlights)
	require.NoError(t, err)
	assert.False(t, c.Commit(inFlight, testSet()), "toggle invalidates")
}

func TestControllerSameViewKeepsCycle(t *testing.T) {
	c := NewController(nil)
	cycle := c.BeginCycle()
	assert.False(t, c.SetView(geo.ViewGlobal))
	assert.True(t, c.Commit(cycle, testSet()))
}

func TestControllerInvalidated(t *testing.T) {
	c := NewController(nil)
	c.SetView(geo.ViewUS)
	c.SetView(geo.ViewUkraine)
	select {
	case <-c.Invalidated():
	default:
		t.Fatal("expected an invalidation")
	}
	select {
	case <-c.Invalidated():
		t.Fatal("invalidations coalesce")
	default:
	}
}

func TestControllerToggleLayer(t *testing.T) {
	c := NewController(nil)
	on, err := c.ToggleLayer(layers.LayerFlights)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, c.Current().Toggles[layers.LayerFlights])

	_, err = c.ToggleLayer(layers.LayerHotspots)
	assert.Error(t, err)

	require.NoError(t, c.SetLayer(layers.LayerCables, false))
	assert.False(t, c.Current().Toggles.Enabled(layers.LayerCables))
}

func TestControllerClickAndSubscribers(t *testing.T) {
	c := NewController(nil)
	var mu sync.Mutex
	var got []uint64
	c.Subscribe(func(s overlay.Set) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s.Generation)
	})

	cycle := c.BeginCycle()
	require.True(t, c.Commit(cycle, testSet(
		overlay.Descriptor{EntityID: "kyiv", Kind: overlay.KindHotspot, X: 10, Y: 20, Payload: "p"},
		overlay.Descriptor{EntityID: "seamewe", Kind: overlay.KindCable},
	)))
	assert.Equal(t, []uint64{cycle.Generation}, got)

	p, err := c.Click(overlay.KindHotspot, "kyiv")
	require.NoError(t, err)
	assert.Equal(t, PopupHotspot, p.Category)
	assert.Equal(t, "p", p.Payload)

	_, err = c.Click(overlay.KindCable, "seamewe")
	assert.Error(t, err)
	_, err = c.Click(overlay.KindHotspot, "nowhere")
	assert.Error(t, err)

	require.Len(t, c.Current().Popups, 1)
	c.OutsideClick(Target{})
	assert.Empty(t, c.Current().Popups)

	_, err = c.Click(overlay.KindHotspot, "kyiv")
	require.NoError(t, err)
	c.SetView(geo.ViewUS)
	assert.Empty(t, c.Current().Popups, "view switch closes popups")
}

func TestControllerConcurrentUse(t *testing.T) {
	c := NewController(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cycle := c.BeginCycle()
				c.Commit(cycle, testSet())
				c.ZoomIn()
				c.Wheel(1)
				c.SetView(geo.Views[(i+j)%len(geo.Views)])
				_ = c.Current()
			}
		}(i)
	}
	wg.Wait()

	s := c.Current()
	assert.GreaterOrEqual(t, s.View.Zoom, MinZoom)
	assert.LessOrEqual(t, s.View.Zoom, MaxZoom)
	if s.View.Zoom == MinZoom {
		assert.Equal(t, Pan{}, s.View.Pan)
	}
}

func TestControllerIgnoresUnknownView(t *testing.T) {
	c := NewController(nil)
	require.True(t, c.SetView(geo.ViewUkraine))
	before := c.BeginCycle()

	assert.False(t, c.SetView("atlantis"))
	assert.Equal(t, geo.ViewUkraine, c.Current().View.Mode)
	assert.True(t, c.Commit(before, testSet()), "an ignored view does not invalidate the cycle")

	assert.True(t, c.SetView(" TAIWAN "))
	assert.Equal(t, geo.ViewTaiwan, c.Current().View.Mode)
}

func TestControllerPublishesInOrder(t *testing.T) {
	c := NewController(nil)
	var (
		mu  sync.Mutex
		got []uint64
	)
	started := make(chan struct{})
	release := make(chan struct{})
	c.Subscribe(func(s overlay.Set) {
		if s.Generation == 1 {
			close(started)
			<-release
		}
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s.Generation)
	})

	first := c.BeginCycle()
	go c.Commit(first, testSet())
	<-started

	second := c.BeginCycle()
	done := make(chan struct{})
	go func() {
		c.Commit(second, testSet())
		close(done)
	}()
	assert.Never(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 100*time.Millisecond, 10*time.Millisecond, "newer set waits for the delivery in progress")

	close(release)
	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{first.Generation, second.Generation}, got)
}
