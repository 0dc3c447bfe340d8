package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/models"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/utils"
)

const (
	defaultMinInterval  = time.Hour
	defaultValueEpsilon = 0.01
)

// dbtx is the subset of *pgxpool.Pool the archive needs.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Archive appends container readings to Postgres. It never feeds the
// acquisition cache.
type Archive struct {
	db          dbtx
	pool        *pgxpool.Pool
	minInterval time.Duration
	epsilon     float64
}

// Open connects to databaseURL and makes sure the readings table exists.
func Open(ctx context.Context, databaseURL string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect archive: %w", err)
	}

	a := newArchive(pool)
	a.pool = pool
	if err := a.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

func newArchive(db dbtx) *Archive {
	return &Archive{db: db, minInterval: defaultMinInterval, epsilon: defaultValueEpsilon}
}

// Close releases the pool resources.
func (a *Archive) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS spaarnelanden;
CREATE TABLE IF NOT EXISTS spaarnelanden.container_readings (
    registration_number   TEXT             NOT NULL,
    checked_at            TIMESTAMPTZ      NOT NULL,
    filling_degree        DOUBLE PRECISION NOT NULL,
    filling_degree_status TEXT             NOT NULL,
    is_out_of_use         BOOLEAN          NOT NULL,
    is_skipped            BOOLEAN          NOT NULL,
    is_emptied_today      BOOLEAN          NOT NULL,
    date_last_emptied     DATE             NOT NULL,
    product_name          TEXT             NOT NULL,
    container_kind_name   TEXT             NOT NULL,
    lat                   DOUBLE PRECISION NOT NULL,
    lon                   DOUBLE PRECISION NOT NULL,
    metadata              JSONB,
    created_at            TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
    PRIMARY KEY (registration_number, checked_at)
)`

// EnsureSchema creates the readings table when missing.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	return nil
}

// FetchLastReading loads the most recent stored reading for a container, or
// nil when there is none.
func (a *Archive) FetchLastReading(ctx context.Context, registrationNumber string) (*models.LastReading, error) {
	var last models.LastReading
	err := a.db.QueryRow(ctx, `
SELECT filling_degree, date_last_emptied, checked_at
FROM spaarnelanden.container_readings
WHERE registration_number = $1
ORDER BY checked_at DESC
LIMIT 1`, registrationNumber).Scan(&last.FillingDegree, &last.DateLastEmptied, &last.CheckedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &last, nil
}

// InsertReading writes one reading; re-inserting the same capture is a no-op.
func (a *Archive) InsertReading(ctx context.Context, row models.ReadingRow) error {
	_, err := a.db.Exec(ctx, `INSERT INTO spaarnelanden.container_readings
    (registration_number, checked_at, filling_degree, filling_degree_status, is_out_of_use, is_skipped,
     is_emptied_today, date_last_emptied, product_name, container_kind_name, lat, lon, metadata)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (registration_number, checked_at) DO NOTHING`,
		row.RegistrationNumber, row.CheckedAt, row.FillingDegree, row.FillingDegreeStatus,
		row.IsOutOfUse, row.IsSkipped, row.IsEmptiedToday, row.DateLastEmptied,
		row.ProductName, row.ContainerKindName, row.Latitude, row.Longitude, row.Metadata)
	return err
}

// Archive stores rec unless it repeats the last stored reading.
func (a *Archive) Archive(ctx context.Context, rec models.ContainerRecord) error {
	row := utils.BuildReadingRow(rec)

	last, err := a.FetchLastReading(ctx, row.RegistrationNumber)
	if err != nil {
		return fmt.Errorf("fetch last reading: %w", err)
	}
	if !utils.ShouldArchive(row, last, a.minInterval, a.epsilon) {
		return nil
	}

	if err := a.InsertReading(ctx, row); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}
