package db

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Reading is one archived container observation.
type Reading struct {
	RegistrationNumber  string    `json:"registration_number"`
	CheckedAt           time.Time `json:"checked_at"`
	FillingDegree       float64   `json:"filling_degree"`
	FillingDegreeStatus string    `json:"filling_degree_status"`
	IsOutOfUse          bool      `json:"is_out_of_use"`
	IsSkipped           bool      `json:"is_skipped"`
	IsEmptiedToday      bool      `json:"is_emptied_today"`
	DateLastEmptied     time.Time `json:"date_last_emptied"`
	ProductName         string    `json:"product_name"`
	ContainerKindName   string    `json:"container_kind_name"`
	Lat                 float64   `json:"lat"`
	Lon                 float64   `json:"lon"`
}

// ReadingQuery holds filters for retrieving readings.
type ReadingQuery struct {
	RegistrationNumber string
	Limit              int
	Since              *time.Time
	Until              *time.Time
}

const readingColumns = `registration_number, checked_at, filling_degree, filling_degree_status,
    is_out_of_use, is_skipped, is_emptied_today, date_last_emptied,
    product_name, container_kind_name, lat, lon`

const latestPerContainerSQL = `
    SELECT DISTINCT ON (registration_number) ` + readingColumns + `
    FROM spaarnelanden.container_readings
    ORDER BY registration_number, checked_at DESC
`

const latestReadingSQL = `
    SELECT ` + readingColumns + `
    FROM spaarnelanden.container_readings
    WHERE registration_number = $1
    ORDER BY checked_at DESC
    LIMIT 1
`

const readingsBase = `
    SELECT ` + readingColumns + `
    FROM spaarnelanden.container_readings
    WHERE registration_number = $1
`

func scanReading(row pgx.Row) (Reading, error) {
	var r Reading
	err := row.Scan(
		&r.RegistrationNumber,
		&r.CheckedAt,
		&r.FillingDegree,
		&r.FillingDegreeStatus,
		&r.IsOutOfUse,
		&r.IsSkipped,
		&r.IsEmptiedToday,
		&r.DateLastEmptied,
		&r.ProductName,
		&r.ContainerKindName,
		&r.Lat,
		&r.Lon,
	)
	return r, err
}

// ListLatest returns the latest reading of every archived container.
func (s *Store) ListLatest(ctx context.Context) ([]Reading, error) {
	rows, err := s.pool.Query(ctx, latestPerContainerSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]Reading, 0)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// LatestReading returns the newest reading of one container, or nil when the
// container was never archived.
func (s *Store) LatestReading(ctx context.Context, registrationNumber string) (*Reading, error) {
	r, err := scanReading(s.pool.QueryRow(ctx, latestReadingSQL, registrationNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// buildReadingsQuery assembles the filtered readings statement and its args.
func buildReadingsQuery(q ReadingQuery) (string, []any) {
	args := []any{q.RegistrationNumber}
	clause := ""
	argPos := 2
	if q.Since != nil {
		clause += " AND checked_at >= $" + strconv.Itoa(argPos)
		args = append(args, *q.Since)
		argPos++
	}
	if q.Until != nil {
		clause += " AND checked_at <= $" + strconv.Itoa(argPos)
		args = append(args, *q.Until)
		argPos++
	}
	order := " ORDER BY checked_at DESC"
	limit := ""
	if q.Limit > 0 {
		limit = " LIMIT $" + strconv.Itoa(argPos)
		args = append(args, q.Limit)
	}
	return readingsBase + clause + order + limit, args
}

// FetchReadings returns readings for a container, newest first.
func (s *Store) FetchReadings(ctx context.Context, q ReadingQuery) ([]Reading, error) {
	sql, args := buildReadingsQuery(q)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]Reading, 0)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
