// Package catalog holds the static geographic entities placed on the map:
// global intel hotspots, conflict zones, infrastructure and the per-theater
// cities and hotspots of the regional views.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/biter777/countries"
	"gopkg.in/yaml.v3"

	"github.com/sudorandom/situation-map/pkg/geo"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

// ErrInvalid is returned when a catalog fails validation.
var ErrInvalid = errors.New("invalid catalog")

// LonLat is a coordinate written as {lon, lat}.
type LonLat struct {
	Lon float64 `yaml:"lon" json:"lon"`
	Lat float64 `yaml:"lat" json:"lat"`
}

type Hotspot struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Subtext     string   `yaml:"subtext" json:"subtext,omitempty"`
	Lat         float64  `yaml:"lat" json:"lat"`
	Lon         float64  `yaml:"lon" json:"lon"`
	Level       string   `yaml:"level" json:"level"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
	Description string   `yaml:"description" json:"description"`
	Agencies    []string `yaml:"agencies" json:"agencies,omitempty"`
	Status      string   `yaml:"status" json:"status,omitempty"`
}

// ConflictZone is an armed-conflict area drawn as a polygon. Coords is a
// closed ring of [lon, lat] pairs.
type ConflictZone struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Intensity   string       `yaml:"intensity" json:"intensity"`
	Coords      [][2]float64 `yaml:"coords" json:"coords"`
	LabelPos    LonLat       `yaml:"labelPos" json:"labelPos"`
	Parties     []string     `yaml:"parties" json:"parties,omitempty"`
	StartDate   string       `yaml:"startDate" json:"startDate,omitempty"`
	Keywords    []string     `yaml:"keywords" json:"keywords,omitempty"`
	Description string       `yaml:"description" json:"description"`
}

type MilitaryBase struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Lat         float64 `yaml:"lat" json:"lat"`
	Lon         float64 `yaml:"lon" json:"lon"`
	Type        string  `yaml:"type" json:"type"`
	Description string  `yaml:"description" json:"description"`
}

type NuclearFacility struct {
	ID     string  `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Lat    float64 `yaml:"lat" json:"lat"`
	Lon    float64 `yaml:"lon" json:"lon"`
	Type   string  `yaml:"type" json:"type"`
	Status string  `yaml:"status" json:"status"`
}

// Cable is an undersea cable route. Points are B-spline control points.
type Cable struct {
	ID     string       `yaml:"id" json:"id"`
	Name   string       `yaml:"name" json:"name"`
	Major  bool         `yaml:"major" json:"major"`
	Points [][2]float64 `yaml:"points" json:"points"`
}

type Chokepoint struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Lat         float64  `yaml:"lat" json:"lat"`
	Lon         float64  `yaml:"lon" json:"lon"`
	Traffic     string   `yaml:"traffic" json:"traffic"`
	Description string   `yaml:"description" json:"description"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
}

// CyberRegion is the home of a state-linked threat actor.
type CyberRegion struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Group       string   `yaml:"group" json:"group"`
	Aka         string   `yaml:"aka" json:"aka"`
	Sponsor     string   `yaml:"sponsor" json:"sponsor"`
	Lat         float64  `yaml:"lat" json:"lat"`
	Lon         float64  `yaml:"lon" json:"lon"`
	Description string   `yaml:"description" json:"description"`
	Targets     []string `yaml:"targets" json:"targets"`
}

// NewsRegion is a density region. Radius is in pixels at zoom 1.
type NewsRegion struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Lat      float64  `yaml:"lat" json:"lat"`
	Lon      float64  `yaml:"lon" json:"lon"`
	Radius   float64  `yaml:"radius" json:"radius"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type City struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Lat      float64  `yaml:"lat" json:"lat"`
	Lon      float64  `yaml:"lon" json:"lon"`
	Type     string   `yaml:"type" json:"type"`
	Color    string   `yaml:"color" json:"color,omitempty"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type RegionalHotspot struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Lat         float64  `yaml:"lat" json:"lat"`
	Lon         float64  `yaml:"lon" json:"lon"`
	Level       string   `yaml:"level" json:"level"`
	Category    string   `yaml:"category" json:"category"`
	Icon        string   `yaml:"icon" json:"icon"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
}

// Theater is the regional catalog shown only in its own view.
type Theater struct {
	Cities   []City            `yaml:"cities" json:"cities"`
	Hotspots []RegionalHotspot `yaml:"hotspots" json:"hotspots"`
}

// Catalog is the full set of static entities.
type Catalog struct {
	// Sanctions maps an ISO 3166-1 numeric country code to a severity.
	Sanctions         map[int]string       `yaml:"sanctions" json:"sanctions"`
	Hotspots          []Hotspot            `yaml:"hotspots" json:"hotspots"`
	ConflictZones     []ConflictZone       `yaml:"conflictZones" json:"conflictZones"`
	MilitaryBases     []MilitaryBase       `yaml:"militaryBases" json:"militaryBases"`
	NuclearFacilities []NuclearFacility    `yaml:"nuclearFacilities" json:"nuclearFacilities"`
	Cables            []Cable              `yaml:"cables" json:"cables"`
	Chokepoints       []Chokepoint         `yaml:"chokepoints" json:"chokepoints"`
	CyberRegions      []CyberRegion        `yaml:"cyberRegions" json:"cyberRegions"`
	NewsRegions       []NewsRegion         `yaml:"newsRegions" json:"newsRegions"`
	Theaters          map[geo.View]Theater `yaml:"theaters" json:"theaters"`
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile parses the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ids are present and unique per collection, theaters are
// keyed by regional views and conflict rings have at least three vertices.
// A theater's cities and regional hotspots form a single collection.
func (c *Catalog) Validate() error {
	check := func(kind string, ids []string) error {
		seen := make(map[string]struct{}, len(ids))
		for i, id := range ids {
			if id == "" {
				return fmt.Errorf("%w: %s #%d has no id", ErrInvalid, kind, i)
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("%w: duplicate %s id %q", ErrInvalid, kind, id)
			}
			seen[id] = struct{}{}
		}
		return nil
	}

	collections := []idSet{
		{"hotspot", idsOf(c.Hotspots, func(h Hotspot) string { return h.ID })},
		{"conflict zone", idsOf(c.ConflictZones, func(z ConflictZone) string { return z.ID })},
		{"military base", idsOf(c.MilitaryBases, func(b MilitaryBase) string { return b.ID })},
		{"nuclear facility", idsOf(c.NuclearFacilities, func(n NuclearFacility) string { return n.ID })},
		{"cable", idsOf(c.Cables, func(cb Cable) string { return cb.ID })},
		{"chokepoint", idsOf(c.Chokepoints, func(cp Chokepoint) string { return cp.ID })},
		{"cyber region", idsOf(c.CyberRegions, func(r CyberRegion) string { return r.ID })},
		{"news region", idsOf(c.NewsRegions, func(r NewsRegion) string { return r.ID })},
	}
	for view, th := range c.Theaters {
		if !view.IsRegional() {
			return fmt.Errorf("%w: theater %q is not a regional view", ErrInvalid, view)
		}
		// Cities and regional hotspots are scored together, so they share one
		// id space.
		ids := append(idsOf(th.Cities, func(ct City) string { return ct.ID }),
			idsOf(th.Hotspots, func(h RegionalHotspot) string { return h.ID })...)
		collections = append(collections, idSet{string(view) + " theater", ids})
	}
	for _, col := range collections {
		if err := check(col.kind, col.ids); err != nil {
			return err
		}
	}

	for _, z := range c.ConflictZones {
		if len(z.Coords) < 3 {
			return fmt.Errorf("%w: conflict zone %q needs at least 3 vertices", ErrInvalid, z.ID)
		}
	}
	for code := range c.Sanctions {
		if countries.ByNumeric(code) == countries.Unknown {
			return fmt.Errorf("%w: unknown sanctioned country %d", ErrInvalid, code)
		}
	}
	return nil
}

type idSet struct {
	kind string
	ids  []string
}

func idsOf[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

// Theater returns the regional catalog of view. Views without one get an
// empty theater.
func (c *Catalog) Theater(view geo.View) Theater {
	if c == nil || c.Theaters == nil {
		return Theater{}
	}
	return c.Theaters[view]
}

// SanctionFor returns the sanction severity of a numeric country id, or ""
// when the country is not sanctioned.
func (c *Catalog) SanctionFor(numeric int) string {
	if c == nil {
		return ""
	}
	return c.Sanctions[numeric]
}
