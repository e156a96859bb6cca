package station

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("station not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetStations(ctx context.Context) ([]Station, error) {
	var stations []Station
	err := r.db.SelectContext(ctx, &stations, getStations)
	return stations, err
}

const getStations = `SELECT * FROM stations`

func (r *Repository) GetStation(ctx context.Context, id string) (Station, error) {
	var station Station
	err := r.db.GetContext(ctx, &station, getStation, id)
	if errors.Is(err, sql.ErrNoRows) {
		return station, ErrNotFound
	}
	return station, err
}

const getStation = `SELECT * FROM stations WHERE id = $1`

// BikeDeparted decrements the station's cycle count, floored at zero. Returns
// ErrNotFound when the station id does not resolve; callers log and move on.
func (r *Repository) BikeDeparted(ctx context.Context, id string) error {
	return r.adjustCycleCount(ctx, bikeDeparted, id)
}

const bikeDeparted = `UPDATE stations SET cycle_count = GREATEST(cycle_count - 1, 0) WHERE id = $1`

// BikeArrived increments the station's cycle count.
func (r *Repository) BikeArrived(ctx context.Context, id string) error {
	return r.adjustCycleCount(ctx, bikeArrived, id)
}

const bikeArrived = `UPDATE stations SET cycle_count = cycle_count + 1 WHERE id = $1`

func (r *Repository) adjustCycleCount(ctx context.Context, query, id string) error {
	res, err := r.db.ExecContext(ctx, query, id)
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
