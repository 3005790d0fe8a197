package monitors

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sudorandom/situation-map/pkg/catalog"
)

// monitorFile is the YAML layout accepted by ImportFile:
//
//	monitors:
//	  - name: Panama Canal
//	    keywords: [panama canal]
//	    lat: 9.08
//	    lon: -79.68
//
// Entries without an id get a new one. Enabled defaults to true.
type monitorFile struct {
	Monitors []struct {
		ID       string   `yaml:"id"`
		Name     string   `yaml:"name"`
		Color    string   `yaml:"color"`
		Keywords []string `yaml:"keywords"`
		Lat      float64  `yaml:"lat"`
		Lon      float64  `yaml:"lon"`
		Enabled  *bool    `yaml:"enabled"`
	} `yaml:"monitors"`
}

// ImportFile validates the monitors in a YAML file and writes them in one
// batch. Monitors with an existing id are replaced.
func (s *Store) ImportFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read monitors %s: %w", path, err)
	}
	var f monitorFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("failed to decode monitors %s: %w", path, err)
	}

	ms := make([]catalog.CustomMonitor, 0, len(f.Monitors))
	for i, e := range f.Monitors {
		m, err := normalize(catalog.CustomMonitor{
			ID:       e.ID,
			Name:     e.Name,
			Color:    e.Color,
			Keywords: e.Keywords,
			Lat:      e.Lat,
			Lon:      e.Lon,
			Enabled:  e.Enabled == nil || *e.Enabled,
		})
		if err != nil {
			return 0, fmt.Errorf("monitor #%d in %s: %w", i, path, err)
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.CreatedAt = s.now().UTC()
		ms = append(ms, m)
	}
	if err := s.Import(ms); err != nil {
		return 0, err
	}
	return len(ms), nil
}
