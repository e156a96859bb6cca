package trip

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Trip is one ride attempt. A trip is open while EndedAt is null; once ended
// it is immutable. Timers are stored as whole seconds: RideTimer counts
// active riding, HoldTimer accumulates completed holds. While a hold is in
// effect IsHold is set and HoldStartedAt anchors it, so elapsed hold time can
// be reconstructed exactly after a client restart.
type Trip struct {
	// ID doubles as the booking id handed to the rider's device.
	ID       uuid.UUID `db:"id"`
	RiderID  uuid.UUID `db:"rider_id"`
	BikeID   string    `db:"bike_id"`
	Operator string    `db:"operator"`

	SourceStationID        sql.NullString `db:"source_station_id"`
	SourceStationName      string         `db:"source_station_name"`
	DestinationStationID   sql.NullString `db:"destination_station_id"`
	DestinationStationName sql.NullString `db:"destination_station_name"`

	RideTimer     int64 `db:"ride_timer"`
	HoldTimer     int64 `db:"hold_timer"`
	TotalTripTime int64 `db:"total_trip_time"`

	IsHold        bool         `db:"is_hold"`
	HoldStartedAt sql.NullTime `db:"hold_started_at"`

	Fare sql.NullString `db:"fare"`

	StartedAt         time.Time    `db:"started_at"`
	EndedAt           sql.NullTime `db:"ended_at"`
	TrackLocationTime time.Time    `db:"track_location_time"`
}

// Open reports whether the trip has not yet ended.
func (t Trip) Open() bool {
	return !t.EndedAt.Valid
}
