package domain

// LocationResult contains coordinates resolved from a free-text location
// description by a geocoding provider.
type LocationResult struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Provider         string  `json:"provider"`
}
