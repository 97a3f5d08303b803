package api

import (
	"context"
	"net/http"
	"time"

	"github.com/neexbeast/travelplanner/internal/auth"
	"github.com/neexbeast/travelplanner/internal/geodata"
	"github.com/neexbeast/travelplanner/internal/travel"
)

// Repository defines the ownership-scoped storage operations needed by handlers.
// *storage.Repository satisfies it.
type Repository interface {
	GetOwnedDestination(ctx context.Context, principal, id int64) (*travel.Destination, error)
	ListDestinations(ctx context.Context, principal int64) (*travel.DreamDestinationList, []travel.Destination, error)
	ListCountries(ctx context.Context, principal int64) (*travel.CountryList, []travel.Country, error)
	AddDestination(ctx context.Context, principal int64, name, country string) (*travel.Destination, error)
	RemoveDestination(ctx context.Context, principal, id int64) error
	ToggleCountryVisited(ctx context.Context, principal, id int64, state bool) (*travel.Country, error)
	MostVisitedCountry(ctx context.Context, principal int64) (*travel.Country, error)

	CreateUserWithLists(ctx context.Context, u *travel.User, countryNames []string) (*travel.User, error)
	GetUser(ctx context.Context, id int64) (*travel.User, error)
	GetUserByUsername(ctx context.Context, username string) (*travel.User, error)
}

// Geodata defines the lookups used to decorate pages. *geodata.Service satisfies it.
type Geodata interface {
	PlacePhoto(ctx context.Context, query string) (*geodata.Photo, error)
	CountryFacts(ctx context.Context, country string) (*geodata.CountryFacts, error)
	CountryNames() []string
}

// Sessions issues and verifies session tokens. *auth.Tokens satisfies it.
type Sessions interface {
	Issue(userID int64) (string, *auth.Claims, error)
	Parse(token string) (*auth.Claims, error)
	TTL() time.Duration
}

// Revoker tracks logged-out sessions. *auth.Revocations satisfies it.
type Revoker interface {
	Revoke(ctx context.Context, claims *auth.Claims) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Renderer turns a named view model into a response document.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, data any) error
}

// Selector picks an index in [0, n). Handlers use it to feature one
// destination of a non-empty list.
type Selector func(n int) int
