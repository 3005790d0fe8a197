package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/mapstate"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readSet(t *testing.T, c *websocket.Conn) overlay.Set {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, TypeSet, msg.Type)
	return msg.Set
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	counts := make(chan int, 8)
	hub.OnClients = func(n int) { counts <- n }
	srv := httptest.NewServer(hub)
	defer srv.Close()

	hub.Publish(overlay.Set{View: geo.ViewGlobal, Generation: 1})

	c1, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer func() { _ = c1.Close() }()
	assert.Equal(t, uint64(1), readSet(t, c1).Generation, "latest set on connect")
	assert.Equal(t, 1, <-counts)

	c2, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	readSet(t, c2)
	assert.Equal(t, 2, <-counts)

	hub.Publish(overlay.Set{
		View:       geo.ViewUS,
		Generation: 2,
		Descriptors: []overlay.Descriptor{
			{EntityID: "eq_0", Kind: overlay.KindQuake, X: 10, Y: 20, Path: []geo.Point{{X: 1, Y: 2}}},
		},
	})
	for _, c := range []*websocket.Conn{c1, c2} {
		set := readSet(t, c)
		assert.Equal(t, geo.ViewUS, set.View)
		require.Len(t, set.Descriptors, 1)
		assert.Equal(t, geo.Point{X: 1, Y: 2}, set.Descriptors[0].Path[0])
	}

	require.NoError(t, c2.Close())
	assert.Equal(t, 1, <-counts)
	assert.Equal(t, 1, hub.Clients())
}

func TestFollow(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	hub.Publish(overlay.Set{View: geo.ViewTaiwan, Generation: 7})

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan overlay.Set, 4)
	done := make(chan struct{})
	go func() {
		Follow(ctx, wsURL(srv), nil, func(s overlay.Set) { got <- s })
		close(done)
	}()

	select {
	case s := <-got:
		assert.Equal(t, geo.ViewTaiwan, s.View)
		assert.Equal(t, uint64(7), s.Generation)
	case <-time.After(2 * time.Second):
		t.Fatal("no set received")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not stop")
	}
}

func TestMirror(t *testing.T) {
	c := mapstate.NewController(nil)
	mirror := Mirror(c)

	mirror(overlay.Set{View: geo.ViewMideast, Generation: 40, Descriptors: []overlay.Descriptor{
		{EntityID: "hormuz", Kind: overlay.KindChokepoint, X: 60, Y: 50},
	}})
	snap := c.Current()
	assert.Equal(t, geo.ViewMideast, snap.View.Mode)
	require.Len(t, snap.Set.Descriptors, 1)

	_, err := c.Click(overlay.KindChokepoint, "hormuz")
	require.NoError(t, err)

	mirror(overlay.Set{View: geo.ViewMideast})
	snap = c.Current()
	assert.Empty(t, snap.Set.Descriptors)
	assert.Len(t, snap.Popups, 1, "same view keeps popups open")

	mirror(overlay.Set{View: geo.ViewGlobal})
	assert.Empty(t, c.Current().Popups, "view switch closes popups")

	before := c.Current().Generation
	mirror(overlay.Set{View: "atlantis", Descriptors: []overlay.Descriptor{{EntityID: "x", Kind: overlay.KindHotspot}}})
	snap = c.Current()
	assert.Equal(t, geo.ViewGlobal, snap.View.Mode)
	assert.Equal(t, before, snap.Generation)
	assert.Empty(t, snap.Set.Descriptors)
}

func TestFollowBacksOffAfterClosedConnection(t *testing.T) {
	prevMin, prevStable := minBackoff, stableAfter
	minBackoff, stableAfter = 50*time.Millisecond, time.Minute
	t.Cleanup(func() { minBackoff, stableAfter = prevMin, prevStable })

	var conns atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns.Add(1)
		_ = c.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	Follow(ctx, wsURL(srv), nil, func(overlay.Set) {})

	// 50ms + 100ms + 200ms of waiting fit in the window.
	assert.GreaterOrEqual(t, conns.Load(), int32(1))
	assert.LessOrEqual(t, conns.Load(), int32(5))
}
