package bike

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("bike not found")

// Store reads and writes bike records in the shared state store. Records live
// in hashes keyed operator → entity → id; lock firmware writes confirmation
// codes into the same hash, so readers must treat every observed value as the
// latest truth regardless of who wrote last.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func key(operator, id string) string {
	return fmt.Sprintf("pubbs:%s:bike:%s", operator, id)
}

const (
	fieldOperation   = "operation"
	fieldStatus      = "status"
	fieldBattery     = "battery"
	fieldRideTime    = "ridetime"
	fieldClass       = "class"
	fieldStationID   = "station_id"
	fieldStationName = "station_name"
)

func (s *Store) Get(ctx context.Context, operator, id string) (Bike, error) {
	fields, err := s.rdb.HGetAll(ctx, key(operator, id)).Result()
	if err != nil {
		return Bike{}, err
	}
	if len(fields) == 0 {
		return Bike{}, ErrNotFound
	}

	b := Bike{
		ID:          id,
		Operation:   Operation(fields[fieldOperation]),
		Status:      Status(fields[fieldStatus]),
		Class:       ParseClass(fields[fieldClass]),
		StationID:   fields[fieldStationID],
		StationName: fields[fieldStationName],
	}
	if b.StationName == "" {
		b.StationName = UnknownStation
	}
	b.Battery, _ = strconv.Atoi(fields[fieldBattery])
	b.RideTime, _ = strconv.Atoi(fields[fieldRideTime])
	return b, nil
}

// WriteOperation writes a command/state code pair. This is the only mutation
// path the ride subsystem uses while a ride is in flight.
func (s *Store) WriteOperation(ctx context.Context, operator, id string, op Operation, status Status) error {
	return s.rdb.HSet(ctx, key(operator, id),
		fieldOperation, string(op),
		fieldStatus, string(status),
	).Err()
}

// ForceReset returns a stuck bike to the idle/available state. Offered to the
// rider when the ready-to-ride check rejects a bike.
func (s *Store) ForceReset(ctx context.Context, operator, id string) error {
	return s.WriteOperation(ctx, operator, id, OpIdle, StatusActive)
}

// SetStation records the bike's current station assignment.
func (s *Store) SetStation(ctx context.Context, operator, id, stationID, stationName string) error {
	return s.rdb.HSet(ctx, key(operator, id),
		fieldStationID, stationID,
		fieldStationName, stationName,
	).Err()
}

// List scans the operator's bike namespace. Used by the discovery endpoints;
// not on any ride-critical path.
func (s *Store) List(ctx context.Context, operator string) ([]Bike, error) {
	var bikes []Bike
	prefix := fmt.Sprintf("pubbs:%s:bike:", operator)

	iter := s.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(prefix):]
		b, err := s.Get(ctx, operator, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		bikes = append(bikes, b)
	}
	return bikes, iter.Err()
}

// Provision writes a full bike record. Provisioning is an out-of-band admin
// concern; it exists here so deployments and tests can seed the store.
func (s *Store) Provision(ctx context.Context, operator string, b Bike) error {
	name := b.StationName
	if name == "" {
		name = UnknownStation
	}
	return s.rdb.HSet(ctx, key(operator, b.ID),
		fieldOperation, string(b.Operation),
		fieldStatus, string(b.Status),
		fieldBattery, strconv.Itoa(b.Battery),
		fieldRideTime, strconv.Itoa(b.RideTime),
		fieldClass, b.Class.String(),
		fieldStationID, b.StationID,
		fieldStationName, name,
	).Err()
}
