package layers

import "github.com/sudorandom/situation-map/pkg/geo"

// Background is the map backdrop color.
const Background = "#020a08"

// ShadeTier classifies a country within a view.
type ShadeTier string

const (
	TierDefault   ShadeTier = "default"
	TierSanctions ShadeTier = "sanctioned"
	TierPrimary   ShadeTier = "primary"
	TierTheater   ShadeTier = "theater"
	TierOther     ShadeTier = "other"
)

// Style is the fill and stroke of one polygon.
type Style struct {
	Tier        ShadeTier `json:"tier"`
	Fill        string    `json:"fill"`
	Stroke      string    `json:"stroke"`
	StrokeWidth float64   `json:"strokeWidth"`
}

var (
	defaultCountry = Style{Tier: TierDefault, Fill: "#0a2018", Stroke: "#0f5040", StrokeWidth: 0.5}

	sanctionFill = map[string]string{
		"severe":   "#660000",
		"high":     "#442200",
		"moderate": "#333300",
		"low":      "#223322",
	}

	// StateStyle shades US states, NationStyle outlines the country.
	StateStyle  = Style{Tier: TierDefault, Fill: "#0a2018", Stroke: "#1a6050", StrokeWidth: 0.75}
	NationStyle = Style{Tier: TierDefault, Fill: "none", Stroke: "#2a8070", StrokeWidth: 1.5}
)

type override struct {
	Fill, Stroke string
}

// theaterShading is the membership table of one regional view. Primary
// countries are also theater members.
type theaterShading struct {
	primary   map[string]bool
	theater   map[string]bool
	tiers     map[ShadeTier]Style
	overrides map[string]override
}

func set(codes ...string) map[string]bool {
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

var otherStyle = Style{Tier: TierOther, Fill: "#050f0c", Stroke: "#0a2018", StrokeWidth: 0.3}

var theaterTables = map[geo.View]theaterShading{
	geo.ViewMideast: {
		theater: set("SAU", "ARE", "QAT", "KWT", "BHR", "OMN", "IRN", "IRQ", "SYR", "LBN",
			"JOR", "ISR", "PSE", "YEM", "EGY", "TUR", "CYP", "AFG", "PAK"),
		tiers: map[ShadeTier]Style{
			TierTheater: {Tier: TierTheater, Fill: "#0f3028", Stroke: "#2a8070", StrokeWidth: 1.0},
		},
	},
	geo.ViewUkraine: {
		primary: set("UKR", "RUS", "BLR"),
		theater: set("UKR", "RUS", "BLR", "POL", "ROU", "MDA", "HUN", "SVK", "LTU", "LVA", "EST", "FIN"),
		tiers: map[ShadeTier]Style{
			TierPrimary: {Tier: TierPrimary, Fill: "#0f2820", Stroke: "#806040", StrokeWidth: 1.5},
			TierTheater: {Tier: TierTheater, Fill: "#0f2820", Stroke: "#2a6050", StrokeWidth: 1.0},
		},
		overrides: map[string]override{
			"UKR": {Fill: "#1a4030", Stroke: "#3a9070"},
			"RUS": {Fill: "#301818", Stroke: "#803030"},
			"BLR": {Fill: "#282818"},
		},
	},
	geo.ViewTaiwan: {
		primary: set("CHN", "TWN", "PHL"),
		theater: set("CHN", "TWN", "PHL", "JPN", "VNM", "MYS", "KOR", "IDN", "BRN"),
		tiers: map[ShadeTier]Style{
			TierPrimary: {Tier: TierPrimary, Fill: "#0f2820", Stroke: "#806040", StrokeWidth: 1.5},
			TierTheater: {Tier: TierTheater, Fill: "#0f2820", Stroke: "#2a6050", StrokeWidth: 1.0},
		},
		overrides: map[string]override{
			"CHN": {Fill: "#301818", Stroke: "#803030"},
			"TWN": {Fill: "#1a3040", Stroke: "#3080a0"},
			"PHL": {Fill: "#1a4030", Stroke: "#3a9070"},
			"JPN": {Fill: "#202840"},
		},
	},
}

// ShadeCountry returns the style of the country with ISO3 code iso3 in view.
// sanction is the country's sanction severity, or "" when none.
func ShadeCountry(view geo.View, iso3, sanction string, toggles Toggles) Style {
	if view == geo.ViewGlobal {
		if fill, ok := sanctionFill[sanction]; ok && IsVisible(LayerSanctions, view, toggles) {
			s := defaultCountry
			s.Tier = TierSanctions
			s.Fill = fill
			return s
		}
		return defaultCountry
	}

	table, ok := theaterTables[view]
	if !ok {
		return defaultCountry
	}
	var s Style
	switch {
	case table.primary[iso3]:
		s = table.tiers[TierPrimary]
	case table.theater[iso3]:
		s = table.tiers[TierTheater]
	default:
		return otherStyle
	}
	if o, ok := table.overrides[iso3]; ok {
		if o.Fill != "" {
			s.Fill = o.Fill
		}
		if o.Stroke != "" {
			s.Stroke = o.Stroke
		}
	}
	return s
}
