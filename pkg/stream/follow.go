package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sudorandom/situation-map/pkg/geo"
	"github.com/sudorandom/situation-map/pkg/mapstate"
	"github.com/sudorandom/situation-map/pkg/overlay"
)

const maxBackoff = 60 * time.Second

var (
	minBackoff = 1 * time.Second
	// stableAfter is how long a connection must last before the backoff
	// starts over.
	stableAfter = 30 * time.Second
)

// Follow connects to a hub at url and calls fn with every received set,
// reconnecting with exponential backoff until ctx ends.
func Follow(ctx context.Context, url string, logger *zap.Logger, fn func(overlay.Set)) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backoff := minBackoff
	for {
		logger.Info("Connecting to overlay stream", zap.String("url", url))
		c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			logger.Warn("Dial failed, retrying", zap.Error(err), zap.Duration("backoff", backoff))
		} else {
			start := time.Now()
			stop := context.AfterFunc(ctx, func() { _ = c.Close() })
			readSets(c, logger, fn)
			stop()
			_ = c.Close()
			if time.Since(start) >= stableAfter {
				backoff = minBackoff
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func readSets(c *websocket.Conn, logger *zap.Logger, fn func(overlay.Set)) {
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			logger.Info("Stream read ended", zap.Error(err))
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debug("Skipping undecodable message", zap.Error(err))
			continue
		}
		if msg.Type == TypeSet {
			fn(msg.Set)
		}
	}
}

// Mirror returns a Follow callback that installs each received set in c,
// switching c to the set's view first. Sets for an unknown view are dropped.
func Mirror(c *mapstate.Controller) func(overlay.Set) {
	return func(set overlay.Set) {
		if set.View != "" {
			v, err := geo.ParseView(string(set.View))
			if err != nil {
				return
			}
			set.View = v
			c.SetView(v)
		}
		c.Commit(c.BeginCycle(), set)
	}
}
