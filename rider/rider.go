package rider

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Rider is an account plus its ride-session flags. The flags are the
// single-active-ride lock: RideOngoing, RideID and BookingID are set together
// when a ride starts and cleared together when it ends.
type Rider struct {
	ID       uuid.UUID
	Auth0ID  string         `db:"auth0_id"`
	StripeID sql.NullString `db:"stripe_id"`
	Email    sql.NullString `db:"email"`
	Name     sql.NullString `db:"name"`

	RideID      sql.NullString `db:"ride_id"`
	BookingID   sql.NullString `db:"booking_id"`
	RideOngoing bool           `db:"ride_ongoing"`
	HeartbeatAt sql.NullTime   `db:"heartbeat_at"`

	CreatedAt time.Time `db:"created_at"`
}
