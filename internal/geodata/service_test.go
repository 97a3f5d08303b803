package geodata_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/travelplanner/internal/geodata"
)

// ---- mocks ----

type mockPlaces struct {
	resolveFn func(ctx context.Context, query string, radius int, kind string) ([]geodata.Place, error)
	photoFn   func(ctx context.Context, placeID string) (string, error)
	resolves  int
}

func (m *mockPlaces) ResolvePlace(ctx context.Context, query string, radius int, kind string) ([]geodata.Place, error) {
	m.resolves++
	return m.resolveFn(ctx, query, radius, kind)
}
func (m *mockPlaces) PhotoURL(ctx context.Context, placeID string) (string, error) {
	return m.photoFn(ctx, placeID)
}

type mockFacts struct {
	factsFn func(ctx context.Context, country string) (*geodata.CountryFacts, error)
	calls   int
}

func (m *mockFacts) CountryFacts(ctx context.Context, country string) (*geodata.CountryFacts, error) {
	m.calls++
	return m.factsFn(ctx, country)
}

// memStore is an in-memory Store that round-trips through JSON like redis does.
type memStore struct {
	data   map[string][]byte
	getErr error
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string, dst any) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (m *memStore) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func onePlace(id string) func(context.Context, string, int, string) ([]geodata.Place, error) {
	return func(_ context.Context, q string, _ int, _ string) ([]geodata.Place, error) {
		return []geodata.Place{{PlaceID: id, Name: q}}, nil
	}
}

func newService(p *mockPlaces, f *mockFacts, store geodata.Store) *geodata.Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return geodata.NewServiceWithClients(p, f, geodata.NewCatalogFromNames([]string{"Netherlands", "Hungary"}), store, log)
}

// ---- tests ----

func TestService_PlacePhoto(t *testing.T) {
	p := &mockPlaces{
		resolveFn: onePlace("ams"),
		photoFn:   func(_ context.Context, id string) (string, error) { return "https://img/" + id, nil },
	}
	s := newService(p, &mockFacts{}, nil)

	photo, err := s.PlacePhoto(context.Background(), "Amsterdam, Netherlands")
	require.NoError(t, err)
	assert.Equal(t, "https://img/ams", photo.URL)
	assert.Equal(t, "ams", photo.Place.PlaceID)
}

func TestService_PlacePhoto_Unavailable(t *testing.T) {
	p := &mockPlaces{
		resolveFn: onePlace("hu"),
		photoFn:   func(_ context.Context, _ string) (string, error) { return "", geodata.ErrPhotoUnavailable },
	}
	s := newService(p, &mockFacts{}, nil)

	photo, err := s.PlacePhoto(context.Background(), "Hungary, Hungary")
	require.ErrorIs(t, err, geodata.ErrPhotoUnavailable)
	require.NotNil(t, photo, "the resolved place is still returned")
	assert.Empty(t, photo.URL)
}

func TestService_PlacePhoto_ResolveErrorsPropagate(t *testing.T) {
	for _, want := range []error{geodata.ErrNotFound, geodata.ErrProviderUnavailable} {
		p := &mockPlaces{
			resolveFn: func(_ context.Context, _ string, _ int, _ string) ([]geodata.Place, error) {
				return nil, fmt.Errorf("wrapped: %w", want)
			},
		}
		s := newService(p, &mockFacts{}, nil)

		_, err := s.PlacePhoto(context.Background(), "x")
		require.ErrorIs(t, err, want)
	}
}

func TestService_PlacePhoto_PhotoProviderError(t *testing.T) {
	p := &mockPlaces{
		resolveFn: onePlace("ams"),
		photoFn:   func(_ context.Context, _ string) (string, error) { return "", geodata.ErrProviderUnavailable },
	}
	s := newService(p, &mockFacts{}, nil)

	photo, err := s.PlacePhoto(context.Background(), "Amsterdam")
	require.ErrorIs(t, err, geodata.ErrProviderUnavailable)
	assert.Nil(t, photo)
}

func TestService_PlacePhoto_ReadThroughCache(t *testing.T) {
	p := &mockPlaces{
		resolveFn: onePlace("hu"),
		photoFn:   func(_ context.Context, _ string) (string, error) { return "", geodata.ErrPhotoUnavailable },
	}
	store := newMemStore()
	s := newService(p, &mockFacts{}, store)

	_, err := s.PlacePhoto(context.Background(), "Hungary, Hungary")
	require.ErrorIs(t, err, geodata.ErrPhotoUnavailable)

	// Second lookup with different casing is served from cache and keeps the error kind.
	_, err = s.PlacePhoto(context.Background(), "hungary, hungary")
	require.ErrorIs(t, err, geodata.ErrPhotoUnavailable)
	assert.Equal(t, 1, p.resolves)
	assert.Contains(t, store.data, "geodata:photo:hungary, hungary")
}

func TestService_CountryFacts_Cached(t *testing.T) {
	f := &mockFacts{factsFn: func(_ context.Context, c string) (*geodata.CountryFacts, error) {
		return &geodata.CountryFacts{Name: c, Capital: "Amsterdam"}, nil
	}}
	s := newService(&mockPlaces{}, f, newMemStore())

	for i := 0; i < 2; i++ {
		cf, err := s.CountryFacts(context.Background(), "Netherlands")
		require.NoError(t, err)
		assert.Equal(t, "Amsterdam", cf.Capital)
	}
	assert.Equal(t, 1, f.calls)
}

func TestService_CountryFacts_CacheFailureIsBypassed(t *testing.T) {
	f := &mockFacts{factsFn: func(_ context.Context, c string) (*geodata.CountryFacts, error) {
		return &geodata.CountryFacts{Name: c}, nil
	}}
	store := newMemStore()
	store.getErr = fmt.Errorf("redis down")
	s := newService(&mockPlaces{}, f, store)

	cf, err := s.CountryFacts(context.Background(), "Netherlands")
	require.NoError(t, err)
	assert.Equal(t, "Netherlands", cf.Name)
}

func TestService_CountryFacts_Error(t *testing.T) {
	f := &mockFacts{factsFn: func(_ context.Context, _ string) (*geodata.CountryFacts, error) {
		return nil, geodata.ErrNotFound
	}}
	store := newMemStore()
	s := newService(&mockPlaces{}, f, store)

	_, err := s.CountryFacts(context.Background(), "Atlantis")
	require.ErrorIs(t, err, geodata.ErrNotFound)
	assert.Empty(t, store.data, "errors are not cached")
}

func TestService_Catalog(t *testing.T) {
	s := newService(&mockPlaces{}, &mockFacts{}, nil)
	assert.True(t, s.IsCountryValid("Netherlands"))
	assert.False(t, s.IsCountryValid("Narnia"))
	assert.Equal(t, []string{"Netherlands", "Hungary"}, s.CountryNames())
}

func TestService_ResolvePlace_PassesThrough(t *testing.T) {
	var gotKind string
	var gotRadius int
	p := &mockPlaces{resolveFn: func(_ context.Context, q string, radius int, kind string) ([]geodata.Place, error) {
		gotRadius, gotKind = radius, kind
		return []geodata.Place{{PlaceID: "sofia", Name: q, IsAttraction: true}}, nil
	}}
	s := newService(p, &mockFacts{}, newMemStore())

	places, err := s.ResolvePlace(context.Background(), "Sofia", 5000, "museum")
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.True(t, places[0].IsAttraction)
	assert.Equal(t, 5000, gotRadius)
	assert.Equal(t, "museum", gotKind)
}
