package geodata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// placesLookup is the interface satisfied by PlacesClient.
type placesLookup interface {
	ResolvePlace(ctx context.Context, query string, radius int, kind string) ([]Place, error)
	PhotoURL(ctx context.Context, placeID string) (string, error)
}

// factsLookup is the interface satisfied by CountriesClient.
type factsLookup interface {
	CountryFacts(ctx context.Context, country string) (*CountryFacts, error)
}

// Store is the read-through cache used by Service. *cache.Cache satisfies it.
type Store interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Photo is a resolved place together with its photo URL. URL is empty when
// the provider has no image for the place.
type Photo struct {
	Place Place  `json:"place"`
	URL   string `json:"url"`
}

// Service is the geodata lookup facade used by request handlers.
type Service struct {
	places  placesLookup
	facts   factsLookup
	catalog *Catalog
	store   Store
	log     *slog.Logger
}

// NewService constructs a Service using production provider URLs. store may be nil.
func NewService(placesKey string, store Store, log *slog.Logger) *Service {
	return NewServiceWithClients(NewPlacesClient(placesKey), NewCountriesClient(), NewCatalog(), store, log)
}

// NewServiceWithClients constructs a Service with injectable clients (used in tests).
func NewServiceWithClients(p placesLookup, f factsLookup, c *Catalog, store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{places: p, facts: f, catalog: c, store: store, log: log}
}

// IsCountryValid reports an exact match against the ISO-3166 catalog.
func (s *Service) IsCountryValid(name string) bool {
	return s.catalog.IsCountryValid(name)
}

// CountryNames returns every canonical country name, for seeding.
func (s *Service) CountryNames() []string {
	return s.catalog.Names()
}

// ResolvePlace passes through to the places provider.
func (s *Service) ResolvePlace(ctx context.Context, query string, radius int, kind string) ([]Place, error) {
	return s.places.ResolvePlace(ctx, query, radius, kind)
}

// PlacePhoto resolves query to its first match and looks up that place's
// photo. When the place resolves but has no photo, the returned Photo has an
// empty URL and the error is ErrPhotoUnavailable.
func (s *Service) PlacePhoto(ctx context.Context, query string) (*Photo, error) {
	key := cacheKey("photo", query)

	var cached Photo
	if s.cacheGet(ctx, key, &cached) {
		if cached.URL == "" {
			return &cached, ErrPhotoUnavailable
		}
		return &cached, nil
	}

	places, err := s.places.ResolvePlace(ctx, query, 0, "")
	if err != nil {
		return nil, err
	}

	photo := &Photo{Place: places[0]}
	photoURL, err := s.places.PhotoURL(ctx, photo.Place.PlaceID)
	switch {
	case errors.Is(err, ErrPhotoUnavailable):
		s.cacheSet(ctx, key, photo)
		return photo, ErrPhotoUnavailable
	case err != nil:
		return nil, err
	}

	photo.URL = photoURL
	s.cacheSet(ctx, key, photo)
	return photo, nil
}

// CountryFacts returns structured metadata for a country name.
func (s *Service) CountryFacts(ctx context.Context, country string) (*CountryFacts, error) {
	key := cacheKey("facts", country)

	var cached CountryFacts
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	facts, err := s.facts.CountryFacts(ctx, country)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, facts)
	return facts, nil
}

func cacheKey(kind, key string) string {
	return fmt.Sprintf("geodata:%s:%s", kind, strings.ToLower(strings.TrimSpace(key)))
}

// Cache failures are logged and bypassed.
func (s *Service) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.store == nil {
		return false
	}
	hit, err := s.store.Get(ctx, key, dst)
	if err != nil {
		s.log.Warn("geodata cache get failed", "key", key, "err", err)
		return false
	}
	return hit
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.store == nil {
		return
	}
	if err := s.store.Set(ctx, key, value); err != nil {
		s.log.Warn("geodata cache set failed", "key", key, "err", err)
	}
}
