package rider

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound = errors.New("rider not found")
	// ErrRideInProgress is returned when a session claim loses to an existing
	// open ride. The flags are claimed with a conditional update, so two
	// near-simultaneous unlock attempts from the same account cannot both win.
	ErrRideInProgress = errors.New("rider already has a ride in progress")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByAuth0ID(ctx context.Context, auth0ID string) (*Rider, error) {
	var rider Rider
	err := r.db.GetContext(ctx, &rider, getByAuth0IDQuery, auth0ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}
	return &rider, nil
}

const getByAuth0IDQuery = "SELECT * FROM riders WHERE auth0_id = $1"

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Rider, error) {
	var rider Rider
	err := r.db.GetContext(ctx, &rider, getByIDQuery, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}
	return &rider, nil
}

const getByIDQuery = "SELECT * FROM riders WHERE id = $1"

func (r *Repository) Create(ctx context.Context, auth0ID, email, name string) (*Rider, error) {
	var rider Rider
	err := r.db.GetContext(ctx, &rider, createRiderQuery, uuid.New(), auth0ID,
		sql.NullString{String: email, Valid: email != ""},
		sql.NullString{String: name, Valid: name != ""})
	return &rider, err
}

const createRiderQuery = `
INSERT INTO riders (id, auth0_id, email, name) VALUES ($1, $2, $3, $4) RETURNING *`

func (r *Repository) AddStripeID(ctx context.Context, auth0ID, stripeID string) error {
	_, err := r.db.ExecContext(ctx, addStripeIDQuery, stripeID, auth0ID)
	return err
}

const addStripeIDQuery = "UPDATE riders SET stripe_id = $1 WHERE auth0_id = $2"

// ClaimRide sets the session flags to the open state. The ride_ongoing guard
// is the check-and-set that enforces one open trip per rider.
func (r *Repository) ClaimRide(ctx context.Context, riderID uuid.UUID, bikeID string, bookingID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, claimRideQuery, riderID, bikeID, bookingID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRideInProgress
	}
	return nil
}

const claimRideQuery = `
UPDATE riders SET ride_id = $2, booking_id = $3, ride_ongoing = true
WHERE id = $1 AND ride_ongoing = false
`

// ReleaseRide clears the session flags back to the closed state.
func (r *Repository) ReleaseRide(ctx context.Context, riderID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, releaseRideQuery, riderID)
	return err
}

const releaseRideQuery = `
UPDATE riders SET ride_id = NULL, booking_id = NULL, ride_ongoing = false
WHERE id = $1
`

func (r *Repository) TouchHeartbeat(ctx context.Context, riderID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, touchHeartbeatQuery, riderID)
	return err
}

const touchHeartbeatQuery = `UPDATE riders SET heartbeat_at = now() WHERE id = $1`

func (r *Repository) UpdateProfile(ctx context.Context, auth0ID, email, name string) error {
	_, err := r.db.ExecContext(ctx, updateProfileQuery, email, name, auth0ID)
	return err
}

const updateProfileQuery = `UPDATE riders SET email = NULLIF($1, ''), name = NULLIF($2, '') WHERE auth0_id = $3`
