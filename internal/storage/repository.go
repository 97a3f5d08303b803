package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/travelplanner/internal/travel"
)

// Querier abstracts the subset of pgxpool.Pool and pgx.Tx used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DB is a Querier that can also open transactions.
type DB interface {
	Querier
	TxBeginner
}

// CountryValidator checks a country name against the canonical list.
type CountryValidator interface {
	IsCountryValid(name string) bool
}

const uniqueViolation = "23505"

// Repository provides ownership-scoped access to users, dream lists and
// country checklists. Every record read through it is joined to its parent
// list so the owner comes from the database, never from the caller.
type Repository struct {
	db        DB
	countries CountryValidator
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool, countries CountryValidator) *Repository {
	return &Repository{db: pool, countries: countries}
}

// NewRepositoryWithDB constructs a Repository with a custom DB (for tests).
func NewRepositoryWithDB(db DB, countries CountryValidator) *Repository {
	return &Repository{db: db, countries: countries}
}

// ---- users ----

const userColumns = `id, username, first_name, last_name, password_hash`

func scanUser(row pgx.Row) (*travel.User, error) {
	var u travel.User
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUserWithLists inserts the user and seeds their lists in one
// transaction. A taken username yields a ValidationError on "username".
func (r *Repository) CreateUserWithLists(ctx context.Context, u *travel.User, countryNames []string) (*travel.User, error) {
	created := *u

	err := withTx(ctx, r.db, func(q Querier) error {
		const insert = `
			INSERT INTO users (username, first_name, last_name, password_hash)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		err := q.QueryRow(ctx, insert, u.Username, u.FirstName, u.LastName, u.PasswordHash).Scan(&created.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return travel.NewValidationError("username", "a user with that username already exists")
			}
			return fmt.Errorf("inserting user %s: %w", u.Username, err)
		}

		return SeedLists(ctx, q, &created, countryNames)
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// SeedLists creates the principal's country checklist, one unvisited row per
// country name, and an empty dream destination list.
func SeedLists(ctx context.Context, q Querier, owner *travel.User, countryNames []string) error {
	var countryListID int64
	const insertCountryList = `
		INSERT INTO country_lists (label, owner_id)
		VALUES ($1, $2)
		RETURNING id
	`
	if err := q.QueryRow(ctx, insertCountryList, travel.CountryListLabel(owner.Username), owner.ID).Scan(&countryListID); err != nil {
		return fmt.Errorf("creating country list for user %d: %w", owner.ID, err)
	}

	if len(countryNames) > 0 {
		cities := make([]int32, len(countryNames))
		for i, name := range countryNames {
			cities[i] = int32(travel.SeedCitiesToVisit(name))
		}

		const insertCountries = `
			INSERT INTO countries (list_id, name, cities_to_visit, visited)
			SELECT $1, t.name, t.cities, FALSE
			FROM unnest($2::text[], $3::int[]) AS t(name, cities)
		`
		if _, err := q.Exec(ctx, insertCountries, countryListID, countryNames, cities); err != nil {
			return fmt.Errorf("seeding countries for user %d: %w", owner.ID, err)
		}
	}

	const insertDreamList = `
		INSERT INTO dream_destination_lists (label, owner_id)
		VALUES ($1, $2)
	`
	if _, err := q.Exec(ctx, insertDreamList, travel.DreamListLabel(owner.Username), owner.ID); err != nil {
		return fmt.Errorf("creating dream list for user %d: %w", owner.ID, err)
	}

	return nil
}

// GetUser returns the user with the given id.
func (r *Repository) GetUser(ctx context.Context, id int64) (*travel.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, travel.ErrNotFound
		}
		return nil, fmt.Errorf("querying user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername returns the user with the given login name.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*travel.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, travel.ErrNotFound
		}
		return nil, fmt.Errorf("querying user %s: %w", username, err)
	}
	return u, nil
}

// DeleteUser removes a user; lists, destinations and countries cascade.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return travel.ErrNotFound
	}
	return nil
}

// ---- dream destinations ----

func (r *Repository) dreamList(ctx context.Context, q Querier, principal int64) (*travel.DreamDestinationList, error) {
	const sel = `SELECT id, label, owner_id FROM dream_destination_lists WHERE owner_id = $1`

	var l travel.DreamDestinationList
	if err := q.QueryRow(ctx, sel, principal).Scan(&l.ID, &l.Label, &l.OwnerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, travel.ErrNotFound
		}
		return nil, fmt.Errorf("querying dream list for user %d: %w", principal, err)
	}
	return &l, nil
}

func (r *Repository) ownedDestination(ctx context.Context, q Querier, principal, id int64, lock bool) (*travel.Destination, error) {
	sel := `
		SELECT d.id, d.name, d.country, d.list_id, l.owner_id
		FROM destinations d
		JOIN dream_destination_lists l ON l.id = d.list_id
		WHERE d.id = $1
	`
	if lock {
		sel += ` FOR UPDATE OF d`
	}

	var d travel.Destination
	if err := q.QueryRow(ctx, sel, id).Scan(&d.ID, &d.Name, &d.Country, &d.ListID, &d.OwnerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, travel.ErrNotFound
		}
		return nil, fmt.Errorf("querying destination %d: %w", id, err)
	}

	if d.OwnerID != principal {
		return nil, travel.ErrNotFound
	}
	return &d, nil
}

// GetOwnedDestination returns the destination if principal owns it.
func (r *Repository) GetOwnedDestination(ctx context.Context, principal, id int64) (*travel.Destination, error) {
	return r.ownedDestination(ctx, r.db, principal, id, false)
}

// ListDestinations returns the principal's dream list and its items ordered
// by insertion. A list without items yields an empty slice.
func (r *Repository) ListDestinations(ctx context.Context, principal int64) (*travel.DreamDestinationList, []travel.Destination, error) {
	list, err := r.dreamList(ctx, r.db, principal)
	if err != nil {
		return nil, nil, err
	}

	const sel = `
		SELECT id, name, country, list_id
		FROM destinations
		WHERE list_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, sel, list.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying destinations for user %d: %w", principal, err)
	}
	defer rows.Close()

	items := []travel.Destination{}
	for rows.Next() {
		d := travel.Destination{OwnerID: list.OwnerID}
		if err := rows.Scan(&d.ID, &d.Name, &d.Country, &d.ListID); err != nil {
			return nil, nil, fmt.Errorf("scanning destination row: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating destination rows: %w", err)
	}

	return list, items, nil
}

// AddDestination validates and appends a destination to the principal's list.
func (r *Repository) AddDestination(ctx context.Context, principal int64, name, country string) (*travel.Destination, error) {
	name, country, err := travel.ValidateDestination(name, country)
	if err != nil {
		return nil, err
	}
	if !r.countries.IsCountryValid(country) {
		return nil, travel.NewValidationError("country", "please enter a valid country")
	}

	var d *travel.Destination
	err = withTx(ctx, r.db, func(q Querier) error {
		list, err := r.dreamList(ctx, q, principal)
		if err != nil {
			return err
		}

		d = &travel.Destination{Name: name, Country: country, ListID: list.ID, OwnerID: list.OwnerID}
		const insert = `
			INSERT INTO destinations (name, country, list_id)
			VALUES ($1, $2, $3)
			RETURNING id
		`
		if err := q.QueryRow(ctx, insert, name, country, list.ID).Scan(&d.ID); err != nil {
			return fmt.Errorf("inserting destination for user %d: %w", principal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return d, nil
}

// RemoveDestination deletes the destination if principal owns it.
func (r *Repository) RemoveDestination(ctx context.Context, principal, id int64) error {
	return withTx(ctx, r.db, func(q Querier) error {
		if _, err := r.ownedDestination(ctx, q, principal, id, true); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `DELETE FROM destinations WHERE id = $1`, id); err != nil {
			return fmt.Errorf("deleting destination %d: %w", id, err)
		}
		return nil
	})
}

// DeleteDreamList removes the principal's dream list and, by cascade, all of
// its destinations.
func (r *Repository) DeleteDreamList(ctx context.Context, principal int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM dream_destination_lists WHERE owner_id = $1`, principal)
	if err != nil {
		return fmt.Errorf("deleting dream list for user %d: %w", principal, err)
	}
	if tag.RowsAffected() == 0 {
		return travel.ErrNotFound
	}
	return nil
}

// ---- countries ----

const countryColumns = `c.id, c.name, c.cities_to_visit, c.visited, c.list_id, l.owner_id`

func scanCountry(row pgx.Row) (*travel.Country, error) {
	var c travel.Country
	if err := row.Scan(&c.ID, &c.Name, &c.CitiesToVisit, &c.Visited, &c.ListID, &c.OwnerID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ownedCountry(ctx context.Context, q Querier, principal, id int64, lock bool) (*travel.Country, error) {
	sel := `
		SELECT ` + countryColumns + `
		FROM countries c
		JOIN country_lists l ON l.id = c.list_id
		WHERE c.id = $1
	`
	if lock {
		sel += ` FOR UPDATE OF c`
	}

	c, err := scanCountry(q.QueryRow(ctx, sel, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, travel.ErrNotFound
		}
		return nil, fmt.Errorf("querying country %d: %w", id, err)
	}

	if c.OwnerID != principal {
		return nil, travel.ErrNotFound
	}
	return c, nil
}

// GetOwnedCountry returns the checklist entry if principal owns it.
func (r *Repository) GetOwnedCountry(ctx context.Context, principal, id int64) (*travel.Country, error) {
	return r.ownedCountry(ctx, r.db, principal, id, false)
}

// ListCountries returns the principal's checklist ordered by country name.
func (r *Repository) ListCountries(ctx context.Context, principal int64) (*travel.CountryList, []travel.Country, error) {
	const selList = `SELECT id, label, owner_id FROM country_lists WHERE owner_id = $1`

	var list travel.CountryList
	if err := r.db.QueryRow(ctx, selList, principal).Scan(&list.ID, &list.Label, &list.OwnerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, travel.ErrNotFound
		}
		return nil, nil, fmt.Errorf("querying country list for user %d: %w", principal, err)
	}

	const sel = `
		SELECT id, name, cities_to_visit, visited, list_id
		FROM countries
		WHERE list_id = $1
		ORDER BY name, id
	`
	rows, err := r.db.Query(ctx, sel, list.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying countries for user %d: %w", principal, err)
	}
	defer rows.Close()

	items := []travel.Country{}
	for rows.Next() {
		c := travel.Country{OwnerID: list.OwnerID}
		if err := rows.Scan(&c.ID, &c.Name, &c.CitiesToVisit, &c.Visited, &c.ListID); err != nil {
			return nil, nil, fmt.Errorf("scanning country row: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating country rows: %w", err)
	}

	return &list, items, nil
}

// ToggleCountryVisited sets the visited flag if principal owns the entry.
func (r *Repository) ToggleCountryVisited(ctx context.Context, principal, id int64, state bool) (*travel.Country, error) {
	var c *travel.Country
	err := withTx(ctx, r.db, func(q Querier) error {
		var err error
		c, err = r.ownedCountry(ctx, q, principal, id, true)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `UPDATE countries SET visited = $2 WHERE id = $1`, id, state); err != nil {
			return fmt.Errorf("updating country %d: %w", id, err)
		}
		c.Visited = state
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// MostVisitedCountry ranks the principal's own checklist by visited first,
// then fewest cities left, then name.
func (r *Repository) MostVisitedCountry(ctx context.Context, principal int64) (*travel.Country, error) {
	sel := strings.Join([]string{
		`SELECT ` + countryColumns,
		`FROM countries c`,
		`JOIN country_lists l ON l.id = c.list_id`,
		`WHERE l.owner_id = $1`,
		`ORDER BY c.visited DESC, c.cities_to_visit ASC, c.name ASC`,
		`LIMIT 1`,
	}, "\n")

	c, err := scanCountry(r.db.QueryRow(ctx, sel, principal))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, travel.ErrNotFound
		}
		return nil, fmt.Errorf("querying most visited country for user %d: %w", principal, err)
	}
	return c, nil
}
