package geodata

import "errors"

var (
	// ErrNotFound means the provider answered but had nothing for the query.
	ErrNotFound = errors.New("geodata: no result")

	// ErrPhotoUnavailable means the place resolved but has no photo.
	ErrPhotoUnavailable = errors.New("geodata: photo unavailable")

	// ErrProviderUnavailable covers transport failures, timeouts, unexpected
	// statuses and undecodable bodies.
	ErrProviderUnavailable = errors.New("geodata: provider unavailable")
)

// Place is a single text-search match.
type Place struct {
	PlaceID      string  `json:"place_id"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Name         string  `json:"name"`
	IsAttraction bool    `json:"is_attraction"`
}

// CountryFacts holds the structured country metadata shown on detail pages.
type CountryFacts struct {
	Name       string   `json:"name"`
	Subregion  string   `json:"subregion"`
	Region     string   `json:"region"`
	Capital    string   `json:"capital"`
	Currencies []string `json:"currencies"`
	Languages  []string `json:"languages"`
	Population int64    `json:"population"`
	Wiki       string   `json:"wiki"`
}
