package ride

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carti0459/PubbsTestingIITK-sub000/bike"
	"github.com/carti0459/PubbsTestingIITK-sub000/rider"
	"github.com/carti0459/PubbsTestingIITK-sub000/trip"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeBikes plays both the shared store and the lock firmware: request codes
// flip to their confirmed codes on the next read unless the bike is marked
// unresponsive.
type fakeBikes struct {
	mu           sync.Mutex
	bikes        map[string]bike.Bike
	unresponsive bool
}

func newFakeBikes(bs ...bike.Bike) *fakeBikes {
	f := &fakeBikes{bikes: make(map[string]bike.Bike)}
	for _, b := range bs {
		f.bikes[b.ID] = b
	}
	return f
}

var firmwareConfirm = map[bike.Operation]bike.Operation{
	bike.OpUnlockRequested: bike.OpUnlockConfirmed,
	bike.OpHoldRequested:   bike.OpHoldConfirmed,
	bike.OpResumeRequested: bike.OpResumeConfirmed,
}

func (f *fakeBikes) Get(ctx context.Context, operator, id string) (bike.Bike, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bikes[id]
	if !ok {
		return bike.Bike{}, bike.ErrNotFound
	}
	if f.unresponsive {
		// Firmware is offline: the record keeps whatever the lock last wrote.
		stale := b
		stale.Status = bike.StatusBusy
		return stale, nil
	}
	if confirmed, ok := firmwareConfirm[b.Operation]; ok {
		b.Operation = confirmed
		f.bikes[id] = b
	}
	return b, nil
}

func (f *fakeBikes) WriteOperation(ctx context.Context, operator, id string, op bike.Operation, status bike.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.bikes[id]
	b.ID = id
	b.Operation = op
	b.Status = status
	f.bikes[id] = b
	return nil
}

func (f *fakeBikes) ForceReset(ctx context.Context, operator, id string) error {
	return f.WriteOperation(ctx, operator, id, bike.OpIdle, bike.StatusActive)
}

func (f *fakeBikes) SetStation(ctx context.Context, operator, id, stationID, stationName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.bikes[id]
	b.StationID = stationID
	b.StationName = stationName
	f.bikes[id] = b
	return nil
}

func (f *fakeBikes) get(id string) bike.Bike {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bikes[id]
}

type fakeTrips struct {
	mu    sync.Mutex
	trips map[uuid.UUID]*trip.Trip
}

func newFakeTrips() *fakeTrips {
	return &fakeTrips{trips: make(map[uuid.UUID]*trip.Trip)}
}

func (f *fakeTrips) Create(ctx context.Context, t *trip.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.trips[t.ID] = &cp
	return nil
}

func (f *fakeTrips) OpenByRider(ctx context.Context, riderID uuid.UUID) (*trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.trips {
		if t.RiderID == riderID && t.Open() {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTrips) MarkHold(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok || !t.Open() {
		return trip.ErrNotFound
	}
	t.IsHold = true
	t.HoldStartedAt = sql.NullTime{Time: at, Valid: true}
	return nil
}

func (f *fakeTrips) AccumulateHold(ctx context.Context, id uuid.UUID, seconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok || !t.Open() {
		return trip.ErrNotFound
	}
	t.HoldTimer += seconds
	t.IsHold = false
	t.HoldStartedAt = sql.NullTime{}
	return nil
}

func (f *fakeTrips) UpdateRideTimer(ctx context.Context, id uuid.UUID, seconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok || !t.Open() {
		return trip.ErrNotFound
	}
	if seconds > t.RideTimer {
		t.RideTimer = seconds
	}
	return nil
}

func (f *fakeTrips) End(ctx context.Context, id uuid.UUID, p trip.EndParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok {
		return false, trip.ErrNotFound
	}
	if !t.Open() {
		return false, nil
	}
	t.RideTimer = p.RideTimer
	t.HoldTimer = p.HoldTimer
	t.TotalTripTime = p.TotalTripTime
	t.Fare = sql.NullString{String: p.Fare, Valid: true}
	t.DestinationStationID = p.DestinationStationID
	t.DestinationStationName = sql.NullString{String: p.DestinationStationName, Valid: true}
	t.IsHold = false
	t.HoldStartedAt = sql.NullTime{}
	t.EndedAt = sql.NullTime{Time: p.EndedAt, Valid: true}
	return true, nil
}

func (f *fakeTrips) get(id uuid.UUID) trip.Trip {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.trips[id]
}

type fakeRiders struct {
	mu     sync.Mutex
	riders map[uuid.UUID]*rider.Rider
}

func newFakeRiders(rs ...*rider.Rider) *fakeRiders {
	f := &fakeRiders{riders: make(map[uuid.UUID]*rider.Rider)}
	for _, r := range rs {
		f.riders[r.ID] = r
	}
	return f
}

func (f *fakeRiders) Get(ctx context.Context, id uuid.UUID) (*rider.Rider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.riders[id]
	if !ok {
		return nil, rider.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRiders) ClaimRide(ctx context.Context, riderID uuid.UUID, bikeID string, bookingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.riders[riderID]
	if !ok {
		return rider.ErrNotFound
	}
	if r.RideOngoing {
		return rider.ErrRideInProgress
	}
	r.RideID = sql.NullString{String: bikeID, Valid: true}
	r.BookingID = sql.NullString{String: bookingID.String(), Valid: true}
	r.RideOngoing = true
	return nil
}

func (f *fakeRiders) ReleaseRide(ctx context.Context, riderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.riders[riderID]
	if !ok {
		return rider.ErrNotFound
	}
	r.RideID = sql.NullString{}
	r.BookingID = sql.NullString{}
	r.RideOngoing = false
	return nil
}

func (f *fakeRiders) TouchHeartbeat(ctx context.Context, riderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.riders[riderID]
	if !ok {
		return rider.ErrNotFound
	}
	r.HeartbeatAt = sql.NullTime{Time: time.Now(), Valid: true}
	return nil
}

func (f *fakeRiders) get(id uuid.UUID) rider.Rider {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.riders[id]
}

type fakeStations struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeStations(counts map[string]int) *fakeStations {
	return &fakeStations{counts: counts}
}

func (f *fakeStations) BikeDeparted(ctx context.Context, stationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.counts[stationID]; !ok {
		return errNoStation
	}
	if f.counts[stationID] > 0 {
		f.counts[stationID]--
	}
	return nil
}

func (f *fakeStations) BikeArrived(ctx context.Context, stationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.counts[stationID]; !ok {
		return errNoStation
	}
	f.counts[stationID]++
	return nil
}

func (f *fakeStations) count(stationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[stationID]
}

var errNoStation = errNotFound("station not found")

type errNotFound string

func (e errNotFound) Error() string { return string(e) }

type fakeLiveness struct {
	mu    sync.Mutex
	beats int
}

func (f *fakeLiveness) Beat(ctx context.Context, operator, riderID string, rideStart time.Time, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beats++
	return nil
}

type fakeLinks struct {
	mu      sync.Mutex
	dropped []string
}

func (f *fakeLinks) Drop(bikeID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, bikeID)
}
