package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Trip kinds stored in the trips table.
const (
	KindDayTrip  = "day_trip"
	KindMultiDay = "multi_day"
)

const defaultListLimit = 20

// TripRecord is a composed plan together with the request that produced it.
type TripRecord struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	StartName string          `json:"start"`
	EndName   string          `json:"end"`
	Request   json.RawMessage `json:"request"`
	Plan      json.RawMessage `json:"plan"`
	CreatedAt time.Time       `json:"created_at"`
}

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists trip records.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// SaveTrip inserts rec. A zero ID is replaced by a fresh UUID; CreatedAt is
// set from the database.
func (r *Repository) SaveTrip(ctx context.Context, rec *TripRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if len(rec.Request) == 0 {
		rec.Request = json.RawMessage("{}")
	}
	if !json.Valid(rec.Plan) {
		return fmt.Errorf("saving trip %s: plan is not valid JSON", rec.ID)
	}

	const q = `
		INSERT INTO trips (id, kind, start_name, end_name, request, plan)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, q, rec.ID, rec.Kind, rec.StartName, rec.EndName, []byte(rec.Request), []byte(rec.Plan)).
		Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting trip %s: %w", rec.ID, err)
	}
	return nil
}

// GetTrip retrieves a trip by ID.
// Returns nil, nil when the trip does not exist.
func (r *Repository) GetTrip(ctx context.Context, id uuid.UUID) (*TripRecord, error) {
	const q = `
		SELECT id, kind, start_name, end_name, request, plan, created_at
		FROM trips
		WHERE id = $1
	`

	rec, err := scanTrip(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying trip %s: %w", id, err)
	}
	return rec, nil
}

// ListTrips returns the most recent trips, newest first.
func (r *Repository) ListTrips(ctx context.Context, limit int) ([]*TripRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	const q = `
		SELECT id, kind, start_name, end_name, request, plan, created_at
		FROM trips
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	return collectTrips(rows)
}

// FindTripsWithActivity returns trips whose plan schedules the named
// activity. Uses the JSONB @> containment operator.
func (r *Repository) FindTripsWithActivity(ctx context.Context, name string, limit int) ([]*TripRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter, err := json.Marshal(map[string]any{
		"steps": []any{map[string]any{
			"type":     "activity",
			"activity": map[string]any{"name": name},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling JSONB filter: %w", err)
	}

	const q = `
		SELECT id, kind, start_name, end_name, request, plan, created_at
		FROM trips
		WHERE plan @> $1::jsonb
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, q, string(filter), limit)
	if err != nil {
		return nil, fmt.Errorf("querying trips with activity %s: %w", name, err)
	}
	return collectTrips(rows)
}

func scanTrip(row pgx.Row) (*TripRecord, error) {
	var (
		rec         TripRecord
		request, pl []byte
	)
	if err := row.Scan(&rec.ID, &rec.Kind, &rec.StartName, &rec.EndName, &request, &pl, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Request = json.RawMessage(request)
	rec.Plan = json.RawMessage(pl)
	return &rec, nil
}

func collectTrips(rows pgx.Rows) ([]*TripRecord, error) {
	defer rows.Close()

	var results []*TripRecord
	for rows.Next() {
		rec, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning trip row: %w", err)
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trip rows: %w", err)
	}

	return results, nil
}
