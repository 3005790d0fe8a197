package overlay

import (
	"math"
	"strings"
)

// Aircraft classes.
const (
	AircraftMilitary   = "military"
	AircraftGovernment = "government"
	AircraftCargo      = "cargo"
	AircraftCommercial = "commercial"
	AircraftPrivate    = "private"
	AircraftUnknown    = "unknown"
)

var militaryPrefixes = []string{
	"RCH", "REACH", "CNV", "NAVY", "ARMY", "DUKE", "FORTE", "HOMER", "JAKE", "LAGR",
	"RRR", "ASCOT", "GAF", "IAM", "PLF", "CFC", "BAF", "HKY", "NATO", "QID", "SHELL",
}

var governmentPrefixes = []string{"SAM", "EXEC", "VENUS", "SPAR", "KAF", "RFF"}

var cargoPrefixes = []string{"FDX", "UPS", "GTI", "CLX", "ABW", "BOX", "DHK", "CKS", "PAC", "MPH"}

// ClassifyAircraft guesses an aircraft class from its callsign and country
// of registration.
func ClassifyAircraft(callsign, country string) string {
	cs := strings.ToUpper(strings.TrimSpace(callsign))
	if cs == "" {
		return AircraftUnknown
	}
	for _, p := range militaryPrefixes {
		if strings.HasPrefix(cs, p) {
			return AircraftMilitary
		}
	}
	for _, p := range governmentPrefixes {
		if strings.HasPrefix(cs, p) {
			return AircraftGovernment
		}
	}
	for _, p := range cargoPrefixes {
		if strings.HasPrefix(cs, p) {
			return AircraftCargo
		}
	}
	// Tail numbers: N12345 in the US, otherwise a registration prefix with
	// no airline designator.
	if country == "United States" && cs[0] == 'N' && len(cs) > 1 && isDigit(cs[1]) {
		return AircraftPrivate
	}
	if len(cs) >= 4 && isLetter(cs[0]) && isLetter(cs[1]) && isLetter(cs[2]) && isDigit(cs[3]) {
		return AircraftCommercial
	}
	return AircraftPrivate
}

var arrows = []string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}

// AircraftArrow returns the eight-way arrow glyph nearest to heading.
// A nil heading gives a plane glyph.
func AircraftArrow(heading *float64) string {
	if heading == nil || math.IsNaN(*heading) {
		return "✈"
	}
	h := math.Mod(*heading, 360)
	if h < 0 {
		h += 360
	}
	return arrows[int(math.Round(h/45))%len(arrows)]
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return b >= 'A' && b <= 'Z' }
