package geo

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biter777/countries"
	geojson "github.com/paulmach/go.geojson"
)

// Shape is one base map feature: a country or a US state.
type Shape struct {
	// ID is the ISO 3166-1 alpha-3 code for countries, the state name for states.
	ID      string
	Numeric int
	Name    string
	// Polygons holds rings of [lon, lat] pairs, outer ring first.
	Polygons [][][][]float64
}

// BaseMap is the polygon layer drawn under the overlays.
type BaseMap struct {
	Countries []Shape
	States    []Shape
}

// Empty reports whether there is nothing to draw.
func (b *BaseMap) Empty() bool {
	return b == nil || (len(b.Countries) == 0 && len(b.States) == 0)
}

// LoadBaseMap decodes a country collection and an optional US state
// collection. states may be nil.
func LoadBaseMap(countriesJSON, statesJSON io.Reader) (*BaseMap, error) {
	b := &BaseMap{}
	cs, err := decodeShapes(countriesJSON, countryIdentity)
	if err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}
	b.Countries = cs
	if statesJSON != nil {
		ss, err := decodeShapes(statesJSON, stateIdentity)
		if err != nil {
			return nil, fmt.Errorf("decode states: %w", err)
		}
		b.States = ss
	}
	return b, nil
}

func decodeShapes(r io.Reader, identify func(*geojson.Feature) (string, int, string)) ([]Shape, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	shapes := make([]Shape, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		var polys [][][][]float64
		switch {
		case f.Geometry.IsPolygon():
			polys = [][][][]float64{f.Geometry.Polygon}
		case f.Geometry.IsMultiPolygon():
			polys = f.Geometry.MultiPolygon
		default:
			continue
		}
		id, numeric, name := identify(f)
		shapes = append(shapes, Shape{ID: id, Numeric: numeric, Name: name, Polygons: polys})
	}
	return shapes, nil
}

// countryIdentity resolves a feature to alpha-3, numeric and display name.
// Natural Earth exports carry ISO_A3/ISO_N3 properties; world-atlas exports
// carry the numeric code as the feature id.
func countryIdentity(f *geojson.Feature) (string, int, string) {
	code := countries.Unknown
	for _, key := range []string{"ISO_N3", "iso_n3"} {
		if n, err := strconv.Atoi(strings.TrimSpace(f.PropertyMustString(key, ""))); err == nil && n > 0 {
			code = countries.ByNumeric(n)
			break
		}
	}
	if code == countries.Unknown {
		switch id := f.ID.(type) {
		case string:
			if n, err := strconv.Atoi(id); err == nil {
				code = countries.ByNumeric(n)
			} else {
				code = countries.ByName(id)
			}
		case float64:
			code = countries.ByNumeric(int(id))
		}
	}
	if code == countries.Unknown {
		for _, key := range []string{"ISO_A3", "iso_a3", "ADM0_A3", "name", "NAME"} {
			if v := f.PropertyMustString(key, ""); v != "" && v != "-99" {
				if c := countries.ByName(v); c != countries.Unknown {
					code = c
					break
				}
			}
		}
	}
	name := f.PropertyMustString("name", f.PropertyMustString("NAME", ""))
	if code == countries.Unknown {
		return "", 0, name
	}
	if name == "" {
		name = code.String()
	}
	return code.Alpha3(), int(code), name
}

func stateIdentity(f *geojson.Feature) (string, int, string) {
	name := f.PropertyMustString("name", f.PropertyMustString("NAME", ""))
	return name, 0, name
}
