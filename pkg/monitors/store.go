// Package monitors persists user-defined custom monitors in badger.
package monitors

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/catalog"
)

const keyPrefix = "monitor/"

var (
	ErrNotFound = errors.New("monitor not found")
	ErrInvalid  = errors.New("invalid monitor")
)

// DefaultColor is used for monitors created without a color.
const DefaultColor = "#ff00ff"

type Store struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens the store at path. An empty path keeps everything in memory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open monitor store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(id string) []byte { return []byte(keyPrefix + id) }

func normalize(m catalog.CustomMonitor) (catalog.CustomMonitor, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return m, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	keywords := m.Keywords[:0:0]
	for _, k := range m.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return m, fmt.Errorf("%w: at least one keyword is required", ErrInvalid)
	}
	m.Keywords = keywords
	if m.Lat < -90 || m.Lat > 90 || m.Lon < -180 || m.Lon > 180 {
		return m, fmt.Errorf("%w: location %.4f,%.4f out of range", ErrInvalid, m.Lat, m.Lon)
	}
	if m.Color == "" {
		m.Color = DefaultColor
	}
	return m, nil
}

// Create stores a new monitor under a fresh id and returns it.
func (s *Store) Create(m catalog.CustomMonitor) (catalog.CustomMonitor, error) {
	m, err := normalize(m)
	if err != nil {
		return m, err
	}
	m.ID = uuid.NewString()
	m.CreatedAt = s.now().UTC()
	return m, s.put(m)
}

// Update replaces an existing monitor, keeping its id and creation time.
func (s *Store) Update(m catalog.CustomMonitor) (catalog.CustomMonitor, error) {
	prev, err := s.Get(m.ID)
	if err != nil {
		return m, err
	}
	m, err = normalize(m)
	if err != nil {
		return m, err
	}
	m.CreatedAt = prev.CreatedAt
	return m, s.put(m)
}

func (s *Store) put(m catalog.CustomMonitor) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(m.ID), raw)
	})
}

// Import writes monitors as-is in one batch.
func (s *Store) Import(monitors []catalog.CustomMonitor) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, m := range monitors {
		if m.ID == "" {
			return fmt.Errorf("%w: import requires an id", ErrInvalid)
		}
		raw, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if err := wb.Set(key(m.ID), raw); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (s *Store) Get(id string) (catalog.CustomMonitor, error) {
	var m catalog.CustomMonitor
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &m)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return m, ErrNotFound
	}
	return m, err
}

func (s *Store) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(id))
	})
}

// SetEnabled switches a monitor on or off.
func (s *Store) SetEnabled(id string, enabled bool) (catalog.CustomMonitor, error) {
	m, err := s.Get(id)
	if err != nil {
		return m, err
	}
	m.Enabled = enabled
	return m, s.put(m)
}

// List returns every monitor ordered by creation time.
func (s *Store) List() ([]catalog.CustomMonitor, error) {
	var out []catalog.CustomMonitor
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var m catalog.CustomMonitor
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &m)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Hotspots scores the enabled monitors against corpus and returns those
// with at least one match.
func (s *Store) Hotspots(corpus []activity.TextItem) ([]catalog.ScoredMonitor, error) {
	ms, err := s.List()
	if err != nil {
		return nil, err
	}
	return catalog.ScoreMonitors(ms, corpus), nil
}
