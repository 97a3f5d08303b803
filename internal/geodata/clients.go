package geodata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

// newHTTPClient returns an http.Client with a 10-second timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// doGet performs a GET request and decodes the JSON response into dst.
// A 404 maps to ErrNotFound; any other failure wraps ErrProviderUnavailable.
func doGet(ctx context.Context, client *http.Client, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", redact(rawURL), err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w: %v", redact(rawURL), ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", redact(rawURL), ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("GET %s returned status %d: %w", redact(rawURL), resp.StatusCode, ErrProviderUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w: %v", redact(rawURL), ErrProviderUnavailable, err)
	}

	return nil
}

// redact strips the API key from a URL before it lands in an error message.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// ---- Google Places ----

// PlacesClient resolves free-text places and their photos via Google Places.
type PlacesClient struct {
	apiKey         string
	baseURL        string
	client         *http.Client
	photoMaxWidth  int
	noRedirectHTTP *http.Client
}

const placesDefaultURL = "https://maps.googleapis.com/maps/api/place"

// NewPlacesClient constructs a PlacesClient with the given API key.
func NewPlacesClient(apiKey string) *PlacesClient {
	return NewPlacesClientWithURL(placesDefaultURL, apiKey)
}

// NewPlacesClientWithURL constructs a PlacesClient pointing at a custom base URL (for tests).
func NewPlacesClientWithURL(baseURL, apiKey string) *PlacesClient {
	noRedirect := newHTTPClient()
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &PlacesClient{
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         newHTTPClient(),
		photoMaxWidth:  1600,
		noRedirectHTTP: noRedirect,
	}
}

type placesSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Types []string `json:"types"`
	} `json:"results"`
}

type placeDetailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"result"`
}

// statusErr maps a Places API status field onto the error taxonomy.
func statusErr(status string) error {
	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return ErrNotFound
	default:
		return fmt.Errorf("places status %q: %w", status, ErrProviderUnavailable)
	}
}

// ResolvePlace runs a text search. When kind is set the query becomes
// "<kind> in <query>". radius is in meters and ignored when zero.
func (c *PlacesClient) ResolvePlace(ctx context.Context, query string, radius int, kind string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("places search: empty query: %w", ErrNotFound)
	}
	if kind != "" {
		query = kind + " in " + query
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	if radius > 0 {
		params.Set("radius", strconv.Itoa(radius))
	}

	var raw placesSearchResponse
	if err := doGet(ctx, c.client, c.baseURL+"/textsearch/json?"+params.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("places search for %q: %w", query, err)
	}
	if err := statusErr(raw.Status); err != nil {
		return nil, fmt.Errorf("places search for %q: %w", query, err)
	}
	if len(raw.Results) == 0 {
		return nil, fmt.Errorf("places search for %q: %w", query, ErrNotFound)
	}

	places := make([]Place, 0, len(raw.Results))
	for _, r := range raw.Results {
		places = append(places, Place{
			PlaceID:      r.PlaceID,
			Latitude:     r.Geometry.Location.Lat,
			Longitude:    r.Geometry.Location.Lng,
			Name:         r.Name,
			IsAttraction: hasType(r.Types, "tourist_attraction"),
		})
	}

	return places, nil
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// PhotoURL returns the public URL of the first photo of a place. The photo
// endpoint answers with a redirect; its Location is the image URL.
func (c *PlacesClient) PhotoURL(ctx context.Context, placeID string) (string, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "photos")
	params.Set("key", c.apiKey)

	var details placeDetailsResponse
	if err := doGet(ctx, c.client, c.baseURL+"/details/json?"+params.Encode(), &details); err != nil {
		return "", fmt.Errorf("place details for %s: %w", placeID, err)
	}
	if err := statusErr(details.Status); err != nil {
		return "", fmt.Errorf("place details for %s: %w", placeID, err)
	}
	if len(details.Result.Photos) == 0 || details.Result.Photos[0].PhotoReference == "" {
		return "", ErrPhotoUnavailable
	}

	photo := url.Values{}
	photo.Set("maxwidth", strconv.Itoa(c.photoMaxWidth))
	photo.Set("photo_reference", details.Result.Photos[0].PhotoReference)
	photo.Set("key", c.apiKey)
	photoURL := c.baseURL + "/photo?" + photo.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating photo request: %w", err)
	}
	resp, err := c.noRedirectHTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("place photo for %s: %w: %v", placeID, ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", ErrPhotoUnavailable
		}
		return loc, nil
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrPhotoUnavailable
	default:
		return "", fmt.Errorf("place photo for %s returned status %d: %w", placeID, resp.StatusCode, ErrProviderUnavailable)
	}
}

// ---- RestCountries ----

// CountriesClient fetches country info from RestCountries (no API key required).
type CountriesClient struct {
	baseURL string
	client  *http.Client
}

const (
	countriesDefaultURL = "https://restcountries.com/v3.1/name"
	wikiBaseURL         = "https://en.wikipedia.org/wiki/"
)

// NewCountriesClient constructs a CountriesClient.
func NewCountriesClient() *CountriesClient {
	return &CountriesClient{baseURL: countriesDefaultURL, client: newHTTPClient()}
}

// NewCountriesClientWithURL constructs a CountriesClient pointing at a custom base URL (for tests).
func NewCountriesClientWithURL(baseURL string) *CountriesClient {
	return &CountriesClient{baseURL: strings.TrimRight(baseURL, "/"), client: newHTTPClient()}
}

type restCountriesEntry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	AltSpellings []string          `json:"altSpellings"`
	Capital      []string          `json:"capital"`
	Region       string            `json:"region"`
	Subregion    string            `json:"subregion"`
	Population   int64             `json:"population"`
	Languages    map[string]string `json:"languages"`
	Currencies   map[string]struct {
		Name string `json:"name"`
	} `json:"currencies"`
}

// CountryFacts retrieves country data for the given country name. ISO names
// such as "Korea, Republic of" rarely match RestCountries' full text, so a
// full-text miss is retried as a partial match. Partial results only count
// when one of them carries the name as its common or official name or as an
// alternative spelling.
func (c *CountriesClient) CountryFacts(ctx context.Context, country string) (*CountryFacts, error) {
	base := c.baseURL + "/" + url.PathEscape(country)

	var raw []restCountriesEntry
	partial := false
	err := doGet(ctx, c.client, base+"?fullText=true", &raw)
	if errors.Is(err, ErrNotFound) {
		raw = nil
		partial = true
		err = doGet(ctx, c.client, base, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("restcountries fetch for %s: %w", country, err)
	}

	if partial {
		raw = matchingEntries(raw, country)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("restcountries: no results for %s: %w", country, ErrNotFound)
	}

	entry := raw[0]

	currencies := make([]string, 0, len(entry.Currencies))
	for _, cur := range entry.Currencies {
		currencies = append(currencies, cur.Name)
	}
	sort.Strings(currencies)

	languages := make([]string, 0, len(entry.Languages))
	for _, lang := range entry.Languages {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	capital := ""
	if len(entry.Capital) > 0 {
		capital = entry.Capital[0]
	}

	name := entry.Name.Common
	if name == "" {
		name = country
	}

	return &CountryFacts{
		Name:       name,
		Subregion:  entry.Subregion,
		Region:     entry.Region,
		Capital:    capital,
		Currencies: currencies,
		Languages:  languages,
		Population: entry.Population,
		Wiki:       wikiURL(name),
	}, nil
}

func matchingEntries(entries []restCountriesEntry, country string) []restCountriesEntry {
	var out []restCountriesEntry
	for _, e := range entries {
		if e.matches(country) {
			out = append(out, e)
		}
	}
	return out
}

func (e restCountriesEntry) matches(country string) bool {
	if strings.EqualFold(e.Name.Common, country) || strings.EqualFold(e.Name.Official, country) {
		return true
	}
	for _, alt := range e.AltSpellings {
		if strings.EqualFold(alt, country) {
			return true
		}
	}
	return false
}

func wikiURL(name string) string {
	return wikiBaseURL + url.PathEscape(strings.ReplaceAll(name, " ", "_"))
}
