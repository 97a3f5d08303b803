package api

import "github.com/neexbeast/travelplanner/internal/travel"

// Template names.
const (
	viewHome        = "home"
	viewDreamList   = "dream_list"
	viewDestination = "destination"
	viewDetails     = "details"
	viewRegister    = "register"
	viewLogin       = "login"
	viewError       = "error"
)

// Layout carries fields shared by every page.
type Layout struct {
	Username string
}

type HomeView struct {
	Layout
}

// DreamListView is the dream destinations page. PhotoURL is empty when no
// photo could be found.
type DreamListView struct {
	Layout
	Name     string
	Items    []travel.Destination
	PhotoURL string
}

// Banner is the most visited country's capital shown on the find page.
type Banner struct {
	Country  string
	Capital  string
	PhotoURL string
}

type DestinationView struct {
	Layout
	Name   string
	Items  []travel.Country
	Banner *Banner
}

type DetailsView struct {
	Layout
	DestinationID   int64
	DestinationName string
	Country         string
	Capital         string
	Region          string
	Subregion       string
	Currencies      []string
	Languages       []string
	Population      int64
	Wiki            string
	PhotoURL        string
}

// FormView backs the register and login pages.
type FormView struct {
	Layout
	Values   map[string]string
	Errors   map[string][]string
	NonField []string
	Next     string
}

func newFormView() FormView {
	return FormView{Values: map[string]string{}, Errors: map[string][]string{}}
}

// HasErrors reports whether any field or form-level error is set.
func (f FormView) HasErrors() bool {
	return len(f.Errors) > 0 || len(f.NonField) > 0
}

type ErrorView struct {
	Layout
	Status  int
	Message string
}
