package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/travelplanner/internal/auth"
	"github.com/neexbeast/travelplanner/internal/geodata"
	"github.com/neexbeast/travelplanner/internal/travel"
)

// FallbackPhotoQuery decorates an empty dream list.
const FallbackPhotoQuery = "Burgas, Bridge"

const (
	sessionCookie = "session"
	loginPath     = "/login/"
	dreamListPath = "/dream_destinations/"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	repo     Repository
	geo      Geodata
	sessions Sessions
	revoker  Revoker
	render   Renderer
	log      *slog.Logger

	selector     Selector
	secureCookie bool
	validate     *validator.Validate
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(repo Repository, geo Geodata, sessions Sessions, revoker Revoker, render Renderer, log *slog.Logger) *Handlers {
	return &Handlers{
		repo:     repo,
		geo:      geo,
		sessions: sessions,
		revoker:  revoker,
		render:   render,
		log:      log,
		selector: rand.IntN,
		validate: newValidator(),
	}
}

// WithSelector replaces the random source used to feature a destination.
func (h *Handlers) WithSelector(s Selector) *Handlers {
	h.selector = s
	return h
}

// WithSecureCookie marks the session cookie Secure.
func (h *Handlers) WithSecureCookie(secure bool) *Handlers {
	h.secureCookie = secure
	return h
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handlers) page(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.render.Render(w, status, name, data); err != nil {
		h.log.Error("render failed", "template", name, "path", r.URL.Path, "err", err)
		if errors.Is(err, ErrWriteBody) {
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handlers) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	view := ErrorView{Status: status, Message: message}
	if u, ok := auth.UserFrom(r.Context()); ok {
		view.Username = u.DisplayName()
	}
	h.page(w, r, status, viewError, view)
}

// fail maps a repository or geodata error onto an error page.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, travel.ErrNotFound), errors.Is(err, geodata.ErrNotFound):
		h.errorPage(w, r, http.StatusNotFound, notFoundMsg)
	case travel.IsValidation(err):
		h.errorPage(w, r, http.StatusNotFound, validationMessage(err))
	case errors.Is(err, geodata.ErrProviderUnavailable):
		h.log.Warn("geodata provider unavailable", "path", r.URL.Path, "err", err)
		h.errorPage(w, r, http.StatusServiceUnavailable, "A travel data provider is unavailable. Please try again later.")
	default:
		h.log.Error("request failed", "path", r.URL.Path, "err", err)
		h.errorPage(w, r, http.StatusInternalServerError, "Something went wrong.")
	}
}

// failJSON is fail for the JSON endpoints.
func (h *Handlers) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, travel.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	h.log.Error("request failed", "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func validationMessage(err error) string {
	var ve *travel.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// principal returns the user placed in the context by RequireUser.
func principal(r *http.Request) *travel.User {
	u, _ := auth.UserFrom(r.Context())
	return u
}

// queryID parses a positive integer id parameter.
func queryID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.FormValue(key)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// isAbsent reports geodata results that leave a decoration out of the page.
func isAbsent(err error) bool {
	return errors.Is(err, geodata.ErrNotFound) || errors.Is(err, geodata.ErrPhotoUnavailable)
}

// ---- pages ----

// Home handles GET /.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	u := principal(r)
	h.page(w, r, http.StatusOK, viewHome, HomeView{Layout: Layout{Username: u.DisplayName()}})
}

// DreamList handles GET /dream_destinations/.
// An empty list shows the fallback photo. Otherwise one item is featured and
// a failure to resolve it fails the request.
func (h *Handlers) DreamList(w http.ResponseWriter, r *http.Request) {
	u := principal(r)

	list, items, err := h.repo.ListDestinations(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err, "You do not have a dream destination list.")
		return
	}

	view := DreamListView{Layout: Layout{Username: u.DisplayName()}, Name: list.Label, Items: items}

	if len(items) == 0 {
		photo, err := h.geo.PlacePhoto(r.Context(), FallbackPhotoQuery)
		switch {
		case err == nil:
			view.PhotoURL = photo.URL
		case isAbsent(err):
		default:
			h.fail(w, r, err, "")
			return
		}
		h.page(w, r, http.StatusOK, viewDreamList, view)
		return
	}

	featured := items[h.pick(len(items))]
	photo, err := h.geo.PlacePhoto(r.Context(), featured.Name+", "+featured.Country)
	switch {
	case err == nil:
		view.PhotoURL = photo.URL
	case errors.Is(err, geodata.ErrPhotoUnavailable):
	default:
		h.fail(w, r, err, fmt.Sprintf("Could not find %s, %s. Please check the destination.", featured.Name, featured.Country))
		return
	}

	h.page(w, r, http.StatusOK, viewDreamList, view)
}

func (h *Handlers) pick(n int) int {
	i := h.selector(n)
	if i < 0 || i >= n {
		return 0
	}
	return i
}

// FindDestination handles GET /destination/.
func (h *Handlers) FindDestination(w http.ResponseWriter, r *http.Request) {
	u := principal(r)

	list, countries, err := h.repo.ListCountries(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err, "You do not have a country list.")
		return
	}

	banner, err := h.banner(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	h.page(w, r, http.StatusOK, viewDestination, DestinationView{
		Layout: Layout{Username: u.DisplayName()},
		Name:   list.Label,
		Items:  countries,
		Banner: banner,
	})
}

// banner pictures the capital of the principal's most visited country.
// A nil banner with a nil error means there is nothing to show.
func (h *Handlers) banner(ctx context.Context, userID int64) (*Banner, error) {
	top, err := h.repo.MostVisitedCountry(ctx, userID)
	if errors.Is(err, travel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	facts, err := h.geo.CountryFacts(ctx, top.Name)
	if isAbsent(err) || (err == nil && facts.Capital == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	photo, err := h.geo.PlacePhoto(ctx, facts.Capital)
	if isAbsent(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &Banner{Country: top.Name, Capital: facts.Capital, PhotoURL: photo.URL}, nil
}

// Details handles GET /dream_destinations/details/?id=.
// The photo and the country facts are fetched concurrently.
func (h *Handlers) Details(w http.ResponseWriter, r *http.Request) {
	u := principal(r)

	id, ok := queryID(r, "id")
	if !ok {
		h.errorPage(w, r, http.StatusNotFound, "Destination not found.")
		return
	}

	d, err := h.repo.GetOwnedDestination(r.Context(), u.ID, id)
	if err != nil {
		h.fail(w, r, err, "Destination not found.")
		return
	}

	var (
		photo *geodata.Photo
		facts *geodata.CountryFacts
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		p, err := h.geo.PlacePhoto(ctx, d.Name+", "+d.Country)
		if errors.Is(err, geodata.ErrPhotoUnavailable) {
			return nil
		}
		photo = p
		return err
	})
	g.Go(func() error {
		var err error
		facts, err = h.geo.CountryFacts(ctx, d.Country)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err, fmt.Sprintf("Could not find details for %s, %s.", d.Name, d.Country))
		return
	}

	view := DetailsView{
		Layout:          Layout{Username: u.DisplayName()},
		DestinationID:   d.ID,
		DestinationName: d.Name,
		Country:         d.Country,
		Capital:         facts.Capital,
		Region:          facts.Region,
		Subregion:       facts.Subregion,
		Currencies:      facts.Currencies,
		Languages:       facts.Languages,
		Population:      facts.Population,
		Wiki:            facts.Wiki,
	}
	if photo != nil {
		view.PhotoURL = photo.URL
	}

	h.page(w, r, http.StatusOK, viewDetails, view)
}

// ---- mutations ----

// AddItem handles POST /dream_destinations/add_item/.
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	u := principal(r)

	if err := r.ParseForm(); err != nil {
		h.errorPage(w, r, http.StatusNotFound, "Destination name and country are required.")
		return
	}

	_, err := h.repo.AddDestination(r.Context(), u.ID, r.PostFormValue("destination_name"), r.PostFormValue("country"))
	if err != nil {
		h.fail(w, r, err, "You do not have a dream destination list.")
		return
	}

	http.Redirect(w, r, dreamListPath, http.StatusFound)
}

// RemoveItem handles GET|POST /dream_destinations/remove_item/?id=.
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	u := principal(r)

	id, ok := queryID(r, "id")
	if !ok {
		h.failJSON(w, r, travel.ErrNotFound)
		return
	}

	if err := h.repo.RemoveDestination(r.Context(), u.ID, id); err != nil {
		h.failJSON(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

// ToggleVisited handles GET /visit_item/?id=&state=.
func (h *Handlers) ToggleVisited(w http.ResponseWriter, r *http.Request) {
	u := principal(r)

	id, ok := queryID(r, "id")
	if !ok {
		h.failJSON(w, r, travel.ErrNotFound)
		return
	}
	state, err := strconv.ParseBool(r.URL.Query().Get("state"))
	if err != nil {
		h.failJSON(w, r, travel.ErrNotFound)
		return
	}

	c, err := h.repo.ToggleCountryVisited(r.Context(), u.ID, id, state)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": c.ID, "visited": c.Visited})
}

// ---- accounts ----

// Register handles GET|POST /register/.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	view := newFormView()
	if r.Method != http.MethodPost {
		h.page(w, r, http.StatusOK, viewRegister, view)
		return
	}

	if err := r.ParseForm(); err != nil {
		view.NonField = append(view.NonField, "The form could not be read.")
		h.page(w, r, http.StatusOK, viewRegister, view)
		return
	}

	form := parseRegisterForm(r)
	view.Values = form.values()

	errs, err := form.validate(h.validate)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	if len(errs) > 0 {
		view.Errors = errs
		h.page(w, r, http.StatusOK, viewRegister, view)
		return
	}

	hash, err := auth.HashPassword(form.Password1)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}

	created, err := h.repo.CreateUserWithLists(r.Context(), &travel.User{
		Username:     form.Username,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		PasswordHash: hash,
	}, h.geo.CountryNames())
	if err != nil {
		var ve *travel.ValidationError
		if errors.As(err, &ve) {
			view.Errors[ve.Field] = append(view.Errors[ve.Field], ve.Message)
			h.page(w, r, http.StatusOK, viewRegister, view)
			return
		}
		h.fail(w, r, err, "")
		return
	}

	h.log.Info("user registered", "user_id", created.ID)

	if err := h.startSession(w, created.ID); err != nil {
		h.fail(w, r, err, "")
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Login handles GET|POST /login/.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	view := newFormView()
	view.Next = safeNext(r.FormValue("next"))
	if r.Method != http.MethodPost {
		h.page(w, r, http.StatusOK, viewLogin, view)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	view.Values["username"] = username

	u, err := h.repo.GetUserByUsername(r.Context(), username)
	switch {
	case errors.Is(err, travel.ErrNotFound):
	case err != nil:
		h.fail(w, r, err, "")
		return
	}
	if u == nil || auth.CheckPassword(u.PasswordHash, r.PostFormValue("password")) != nil {
		view.NonField = append(view.NonField, "Please enter a correct username and password.")
		h.page(w, r, http.StatusOK, viewLogin, view)
		return
	}

	if err := h.startSession(w, u.ID); err != nil {
		h.fail(w, r, err, "")
		return
	}
	http.Redirect(w, r, view.Next, http.StatusFound)
}

// Logout handles GET /logout/.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := claimsFrom(r.Context()); ok {
		if err := h.revoker.Revoke(r.Context(), claims); err != nil {
			h.log.Error("session revoke failed", "err", err)
		}
	}

	http.SetCookie(w, h.cookie("", -1))
	http.Redirect(w, r, loginPath, http.StatusFound)
}

func (h *Handlers) startSession(w http.ResponseWriter, userID int64) error {
	token, _, err := h.sessions.Issue(userID)
	if err != nil {
		return fmt.Errorf("issuing session: %w", err)
	}
	http.SetCookie(w, h.cookie(token, int(h.sessions.TTL()/time.Second)))
	return nil
}

func (h *Handlers) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// safeNext only allows local absolute paths as a post-login target.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
