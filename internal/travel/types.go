package travel

import "strings"

// User is an authenticated principal.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
}

// DisplayName returns the first name, falling back to the login name.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	return u.Username
}

// DreamDestinationList is the single dream list a user owns.
type DreamDestinationList struct {
	ID      int64
	Label   string
	OwnerID int64
}

// Destination is a place on a dream list. OwnerID is read through the
// parent list and is never taken from client input.
type Destination struct {
	ID      int64  `json:"id"`
	Name    string `json:"destination_name"`
	Country string `json:"country"`
	ListID  int64  `json:"-"`
	OwnerID int64  `json:"-"`
}

// CountryList is the single country checklist a user owns.
type CountryList struct {
	ID      int64
	Label   string
	OwnerID int64
}

// Country is a checklist entry.
type Country struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	CitiesToVisit int    `json:"cities_to_visit"`
	Visited       bool   `json:"visited"`
	ListID        int64  `json:"-"`
	OwnerID       int64  `json:"-"`
}

const (
	// UnitedStates is seeded with a larger city budget than other countries.
	UnitedStates = "United States"

	citiesUnitedStates = 250
	citiesDefault      = 30
)

// SeedCitiesToVisit returns the registration-time cities budget for a country.
func SeedCitiesToVisit(country string) int {
	if country == UnitedStates {
		return citiesUnitedStates
	}
	return citiesDefault
}

// DreamListLabel is the label a new user's dream list is created with.
func DreamListLabel(username string) string {
	return username + "'s dream destinations"
}

// CountryListLabel is the label a new user's country checklist is created with.
func CountryListLabel(username string) string {
	return username + "'s countries"
}
