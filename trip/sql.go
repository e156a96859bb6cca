package trip

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound = errors.New("trip not found")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create opens a trip. The caller has already claimed the rider's session
// flags, so a second open trip for the same rider indicates a bug upstream.
func (r *Repository) Create(ctx context.Context, t *Trip) error {
	return r.db.GetContext(ctx, t, createTrip,
		t.ID, t.RiderID, t.BikeID, t.Operator,
		t.SourceStationID, t.SourceStationName, t.StartedAt)
}

const createTrip = `
INSERT INTO trips (id, rider_id, bike_id, operator, source_station_id, source_station_name,
                   started_at, track_location_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
RETURNING *
`

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Trip, error) {
	var t Trip
	err := r.db.GetContext(ctx, &t, getTrip, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Trip{}, ErrNotFound
	}
	return t, err
}

const getTrip = `SELECT * FROM trips WHERE id = $1`

// OpenByRider fetches the rider's open trip, or nil if none is in progress.
func (r *Repository) OpenByRider(ctx context.Context, riderID uuid.UUID) (*Trip, error) {
	var t Trip
	err := r.db.GetContext(ctx, &t, openByRider, riderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const openByRider = `SELECT * FROM trips WHERE rider_id = $1 AND ended_at IS NULL`

// MarkHold records a confirmed hold with its absolute start time.
func (r *Repository) MarkHold(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.exec(ctx, markHold, id, at)
}

const markHold = `
UPDATE trips SET is_hold = true, hold_started_at = $2, track_location_time = now()
WHERE id = $1 AND ended_at IS NULL
`

// AccumulateHold folds a completed hold into the cumulative hold timer and
// clears the hold flag.
func (r *Repository) AccumulateHold(ctx context.Context, id uuid.UUID, seconds int64) error {
	return r.exec(ctx, accumulateHold, id, seconds)
}

const accumulateHold = `
UPDATE trips SET hold_timer = hold_timer + $2, is_hold = false, hold_started_at = NULL,
                 track_location_time = now()
WHERE id = $1 AND ended_at IS NULL
`

// UpdateRideTimer persists a client-reported active-riding total. Values are
// monotonic; a smaller value than the stored one is discarded.
func (r *Repository) UpdateRideTimer(ctx context.Context, id uuid.UUID, seconds int64) error {
	return r.exec(ctx, updateRideTimer, id, seconds)
}

const updateRideTimer = `
UPDATE trips SET ride_timer = GREATEST(ride_timer, $2), track_location_time = now()
WHERE id = $1 AND ended_at IS NULL
`

// EndParams finalizes a trip's destination, timers and fare.
type EndParams struct {
	RideTimer              int64
	HoldTimer              int64
	TotalTripTime          int64
	Fare                   string
	DestinationStationID   sql.NullString
	DestinationStationName string
	EndedAt                time.Time
}

// End closes the trip. The ended_at guard makes the call idempotent: ending
// an already-closed trip reports ended=false so callers skip the station
// bookkeeping a real end performs.
func (r *Repository) End(ctx context.Context, id uuid.UUID, p EndParams) (bool, error) {
	res, err := r.db.ExecContext(ctx, endTrip, id,
		p.RideTimer, p.HoldTimer, p.TotalTripTime, p.Fare,
		p.DestinationStationID, p.DestinationStationName, p.EndedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const endTrip = `
UPDATE trips
SET ride_timer = $2, hold_timer = $3, total_trip_time = $4, fare = $5,
    destination_station_id = $6, destination_station_name = $7,
    is_hold = false, hold_started_at = NULL,
    ended_at = $8, track_location_time = $8
WHERE id = $1 AND ended_at IS NULL
`

func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
