package models

// GeocodeResponse is the raw provider payload for one address query.
// Held transiently (and cached as opaque JSON); never part of the dataset.
type GeocodeResponse struct {
	Results []GeocodeResult `json:"results"`
	Status  string          `json:"status"`
}

// GeocodeResult is a single candidate match for the queried address.
type GeocodeResult struct {
	AddressComponents []AddressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          Geometry           `json:"geometry"`
	PlaceID           string             `json:"place_id"`
	Types             []string           `json:"types"`
}

// AddressComponent is one structured piece of the matched address. Types
// carries discrete tags like "street_number", "locality", "sublocality".
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type Geometry struct {
	Location     LatLng `json:"location"`
	LocationType string `json:"location_type"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Provider status values the client distinguishes.
const (
	GeocodeStatusOK          = "OK"
	GeocodeStatusZeroResults = "ZERO_RESULTS"
	GeocodeStatusOverLimit   = "OVER_QUERY_LIMIT"
)
