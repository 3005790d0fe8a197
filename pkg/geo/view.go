// Package geo maps geographic coordinates into the screen space of the
// supported map views and loads the base map polygons drawn under them.
package geo

import (
	"fmt"
	"strings"
)

// View is one of the supported map projections/theaters.
type View string

const (
	ViewGlobal  View = "global"
	ViewUS      View = "us"
	ViewMideast View = "mideast"
	ViewUkraine View = "ukraine"
	ViewTaiwan  View = "taiwan"
)

// Views lists every view in display order.
var Views = []View{ViewGlobal, ViewUS, ViewMideast, ViewUkraine, ViewTaiwan}

// ParseView accepts a view name case-insensitively.
func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Views {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// IsRegional reports whether v is one of the theater views.
func (v View) IsRegional() bool {
	return v != ViewGlobal
}

func (v View) String() string { return string(v) }
