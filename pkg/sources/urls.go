// Package sources fetches and decodes the upstream feeds the map consumes:
// earthquakes, aircraft states, the news corpus and the base map polygons.
package sources

const (
	USGSQuakesDayURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/4.5_day.geojson"

	OpenSkyStatesURL = "https://opensky-network.org/api/states/all"

	CountriesGeoJSONURL = "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_110m_admin_0_countries.geojson"
	StatesGeoJSONURL    = "https://raw.githubusercontent.com/PublicaMundi/MappingAPI/master/data/geojson/us-states.json"

	CountriesGeoJSONMirrorURL = "https://cdn.jsdelivr.net/gh/nvkelso/natural-earth-vector@master/geojson/ne_110m_admin_0_countries.geojson"
	StatesGeoJSONMirrorURL    = "https://cdn.jsdelivr.net/gh/PublicaMundi/MappingAPI@master/data/geojson/us-states.json"
)

// Mirrors lists the alternative locations of a base map download.
var Mirrors = map[string][]string{
	CountriesGeoJSONURL: {CountriesGeoJSONMirrorURL},
	StatesGeoJSONURL:    {StatesGeoJSONMirrorURL},
}
