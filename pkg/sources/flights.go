package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sudorandom/situation-map/pkg/overlay"
	"github.com/sudorandom/situation-map/pkg/utils"
)

// OpenSky state vector columns.
const (
	colICAO24   = 0
	colCallsign = 1
	colCountry  = 2
	colLon      = 5
	colLat      = 6
	colAltitude = 7
	colOnGround = 8
	colVelocity = 9
	colTrack    = 10
	minColumns  = 11
)

type openSkyResponse struct {
	Time   int64   `json:"time"`
	States [][]any `json:"states"`
}

// ParseFlights decodes an OpenSky /states/all response. Rows without a
// position are skipped.
func ParseFlights(r io.Reader) ([]overlay.Flight, error) {
	var resp openSkyResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode opensky states: %w", err)
	}
	flights := make([]overlay.Flight, 0, len(resp.States))
	for _, row := range resp.States {
		if len(row) < minColumns {
			continue
		}
		lon, okLon := row[colLon].(float64)
		lat, okLat := row[colLat].(float64)
		if !okLon || !okLat {
			continue
		}
		f := overlay.Flight{
			ICAO24:   str(row[colICAO24]),
			Callsign: strings.TrimSpace(str(row[colCallsign])),
			Country:  str(row[colCountry]),
			Lat:      lat,
			Lon:      lon,
		}
		f.Altitude, _ = row[colAltitude].(float64)
		f.Velocity, _ = row[colVelocity].(float64)
		f.OnGround, _ = row[colOnGround].(bool)
		if track, ok := row[colTrack].(float64); ok {
			f.Heading = &track
		}
		flights = append(flights, f)
	}
	return flights, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// FetchFlights downloads the current OpenSky state vectors.
func FetchFlights(ctx context.Context, url string) ([]overlay.Flight, error) {
	rc, err := utils.GetCachedReader(ctx, url, false, "[OpenSky]")
	if err != nil {
		return nil, fmt.Errorf("fetch flights: %w", err)
	}
	defer func() { _ = rc.Close() }()
	return ParseFlights(rc)
}
