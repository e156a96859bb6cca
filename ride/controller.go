// Package ride coordinates a physical bike's lock state with a rider's trip:
// the ready-to-ride check, unlock dispatch, the hold/continue protocol, and
// end-of-ride finalization with station and session bookkeeping.
package ride

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/carti0459/PubbsTestingIITK-sub000/bike"
	"github.com/carti0459/PubbsTestingIITK-sub000/billing"
	"github.com/carti0459/PubbsTestingIITK-sub000/rider"
	"github.com/carti0459/PubbsTestingIITK-sub000/trip"
	"github.com/carti0459/PubbsTestingIITK-sub000/unlock"
)

// Config bounds the hardware-confirmation waits. The defaults preserve the
// 1s × 30 budget physical locks are expected to answer within.
type Config struct {
	PollInterval time.Duration
	PollAttempts int
}

func (c Config) withDefaults() Config {
	if c.PollInterval == 0 {
		c.PollInterval = time.Second
	}
	if c.PollAttempts == 0 {
		c.PollAttempts = 30
	}
	return c
}

func (c Config) unlockConfig() unlock.Config {
	return unlock.Config{PollInterval: c.PollInterval, PollAttempts: c.PollAttempts}
}

// BikeStore is the slice of the shared state store the controller drives.
type BikeStore interface {
	Get(ctx context.Context, operator, id string) (bike.Bike, error)
	WriteOperation(ctx context.Context, operator, id string, op bike.Operation, status bike.Status) error
	ForceReset(ctx context.Context, operator, id string) error
	SetStation(ctx context.Context, operator, id, stationID, stationName string) error
}

type TripRepository interface {
	Create(ctx context.Context, t *trip.Trip) error
	OpenByRider(ctx context.Context, riderID uuid.UUID) (*trip.Trip, error)
	MarkHold(ctx context.Context, id uuid.UUID, at time.Time) error
	AccumulateHold(ctx context.Context, id uuid.UUID, seconds int64) error
	UpdateRideTimer(ctx context.Context, id uuid.UUID, seconds int64) error
	End(ctx context.Context, id uuid.UUID, p trip.EndParams) (bool, error)
}

type RiderRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*rider.Rider, error)
	ClaimRide(ctx context.Context, riderID uuid.UUID, bikeID string, bookingID uuid.UUID) error
	ReleaseRide(ctx context.Context, riderID uuid.UUID) error
	TouchHeartbeat(ctx context.Context, riderID uuid.UUID) error
}

// StationCounter does the best-effort cycle-count bookkeeping. Failures are
// logged and never abort a ride operation.
type StationCounter interface {
	BikeDeparted(ctx context.Context, stationID string) error
	BikeArrived(ctx context.Context, stationID string) error
}

type Liveness interface {
	Beat(ctx context.Context, operator, riderID string, rideStart time.Time, bookingID string) error
}

type StrategySelector interface {
	Select(b bike.Bike) unlock.Strategy
}

// LinkDropper tears down any lingering wireless bridge for a bike.
type LinkDropper interface {
	Drop(bikeID string)
}

// Deps wires the controller's collaborators. Invoicer and Links are optional.
type Deps struct {
	Bikes      BikeStore
	Trips      TripRepository
	Riders     RiderRepository
	Stations   StationCounter
	Liveness   Liveness
	Strategies StrategySelector
	Invoicer   billing.Invoicer
	Links      LinkDropper
	Logger     *slog.Logger
}

type Controller struct {
	bikes      BikeStore
	trips      TripRepository
	riders     RiderRepository
	stations   StationCounter
	live       Liveness
	strategies StrategySelector
	invoicer   billing.Invoicer
	links      LinkDropper
	logger     *slog.Logger
	cfg        Config
	now        func() time.Time
}

func New(d Deps, cfg Config) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		bikes:      d.Bikes,
		trips:      d.Trips,
		riders:     d.Riders,
		stations:   d.Stations,
		live:       d.Liveness,
		strategies: d.Strategies,
		invoicer:   d.Invoicer,
		links:      d.Links,
		logger:     logger,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
}

// CheckAndInitiateRide is the ready-to-ride validation: the bike must read
// idle and active. Anything else comes back as a NotReadyError so the UI can
// offer the force-reset path before retrying.
func (c *Controller) CheckAndInitiateRide(ctx context.Context, operator, bikeID string) (bike.Bike, error) {
	b, err := c.bikes.Get(ctx, operator, bikeID)
	if err != nil {
		return bike.Bike{}, err
	}
	if !b.ReadyToRide() {
		return b, &NotReadyError{Operation: b.Operation, Status: b.Status}
	}
	return b, nil
}

// ResetBike force-resets a stuck bike to idle/available.
func (c *Controller) ResetBike(ctx context.Context, operator, bikeID string) error {
	c.logger.Info("force-resetting bike", "operator", operator, "bike", bikeID)
	return c.bikes.ForceReset(ctx, operator, bikeID)
}

// Unlock re-validates the bike and dispatches to the transport strategy for
// its hardware class. On success the bike record reads OpUnlockConfirmed/busy
// regardless of transport.
func (c *Controller) Unlock(ctx context.Context, operator, bikeID string, report unlock.ProgressFunc) error {
	ctx, span := otel.Tracer("ride").Start(ctx, "Unlock")
	defer span.End()

	b, err := c.CheckAndInitiateRide(ctx, operator, bikeID)
	if err != nil {
		return err
	}

	err = c.strategies.Select(b).Unlock(ctx, operator, b, report)
	unlockAttemptsTotal.WithLabelValues(b.Class.String(), outcome(err)).Inc()
	switch {
	case errors.Is(err, unlock.ErrCancelled):
		c.logger.Debug("unlock cancelled by rider", "bike", bikeID)
		return err
	case err != nil:
		c.logger.Warn("unlock failed", "bike", bikeID, "class", b.Class.String(), "error", err)
		return err
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, unlock.ErrConfirmationTimeout):
		return "timeout"
	case errors.Is(err, unlock.ErrCancelled):
		return "cancelled"
	default:
		return "error"
	}
}

// StartRide opens a trip for an unlocked bike. The rider's session flags are
// claimed first with a conditional update, so a second open trip cannot be
// created even by a racing device.
func (c *Controller) StartRide(ctx context.Context, operator string, riderID uuid.UUID, bikeID string) (trip.Trip, error) {
	b, err := c.bikes.Get(ctx, operator, bikeID)
	if err != nil {
		return trip.Trip{}, err
	}
	if b.Operation != bike.OpUnlockConfirmed || b.Status != bike.StatusBusy {
		return trip.Trip{}, ErrNotUnlocked
	}

	bookingID := uuid.New()
	if err := c.riders.ClaimRide(ctx, riderID, bikeID, bookingID); err != nil {
		return trip.Trip{}, err
	}

	now := c.now().UTC()
	t := &trip.Trip{
		ID:                bookingID,
		RiderID:           riderID,
		BikeID:            bikeID,
		Operator:          operator,
		SourceStationID:   nullString(b.StationID),
		SourceStationName: stationName(b),
		StartedAt:         now,
		TrackLocationTime: now,
	}
	if err := c.trips.Create(ctx, t); err != nil {
		if relErr := c.riders.ReleaseRide(ctx, riderID); relErr != nil {
			c.logger.Error("failed to release session after trip create failure", "rider", riderID, "error", relErr)
		}
		return trip.Trip{}, err
	}

	if b.StationID != "" {
		if err := c.stations.BikeDeparted(ctx, b.StationID); err != nil {
			c.logger.Warn("station cycle count decrement failed", "station", b.StationID, "error", err)
		}
	}

	c.logger.Info("ride started", "rider", riderID, "bike", bikeID, "booking", bookingID)
	return *t, nil
}

// Hold pauses the open ride. The hold only takes effect once the lock
// confirms; the absolute hold start is then persisted so elapsed hold time
// survives client restarts.
func (c *Controller) Hold(ctx context.Context, operator string, riderID uuid.UUID, report unlock.ProgressFunc) error {
	t, err := c.openTrip(ctx, riderID)
	if err != nil {
		return err
	}
	if t.IsHold {
		return ErrAlreadyOnHold
	}

	if err := c.requestAndAwait(ctx, operator, t.BikeID, bike.OpHoldRequested, bike.OpHoldConfirmed, report); err != nil {
		return err
	}

	return c.trips.MarkHold(ctx, t.ID, c.now().UTC())
}

// Continue resumes a held ride, folding the completed hold into the
// cumulative hold timer.
func (c *Controller) Continue(ctx context.Context, operator string, riderID uuid.UUID, report unlock.ProgressFunc) error {
	t, err := c.openTrip(ctx, riderID)
	if err != nil {
		return err
	}
	if !t.IsHold {
		return ErrNotOnHold
	}

	if err := c.requestAndAwait(ctx, operator, t.BikeID, bike.OpResumeRequested, bike.OpResumeConfirmed, report); err != nil {
		return err
	}

	var holdSeconds int64
	if t.HoldStartedAt.Valid {
		holdSeconds = int64(c.now().UTC().Sub(t.HoldStartedAt.Time).Seconds())
	}
	if holdSeconds < 0 {
		holdSeconds = 0
	}
	return c.trips.AccumulateHold(ctx, t.ID, holdSeconds)
}

func (c *Controller) requestAndAwait(ctx context.Context, operator, bikeID string, request, confirmed bike.Operation, report unlock.ProgressFunc) error {
	if err := c.bikes.WriteOperation(ctx, operator, bikeID, request, bike.StatusBusy); err != nil {
		return err
	}
	return unlock.AwaitOperation(ctx, c.bikes, c.cfg.unlockConfig(), operator, bikeID, func(b bike.Bike) bool {
		return b.Operation == confirmed && b.Status == bike.StatusBusy
	}, report)
}

// Destination names where the ride ends. Zero value means "use the bike's
// last known station".
type Destination struct {
	StationID   string
	StationName string
}

// End finalizes the open trip. The end request reuses the idle code; if the
// lock never confirms within the budget the ride is ended anyway; leaving a
// rider stuck with an uncloseable ride is worse than a possibly-stale
// hardware flag. The wireless bridge, if any, is dropped unconditionally.
func (c *Controller) End(ctx context.Context, operator string, riderID uuid.UUID, dest Destination, report unlock.ProgressFunc) (trip.Trip, error) {
	ctx, span := otel.Tracer("ride").Start(ctx, "End")
	defer span.End()

	t, err := c.openTrip(ctx, riderID)
	if err != nil {
		return trip.Trip{}, err
	}

	b, err := c.bikes.Get(ctx, operator, t.BikeID)
	if err != nil {
		c.logger.Warn("could not read bike record at end of ride", "bike", t.BikeID, "error", err)
	}

	if err := c.bikes.WriteOperation(ctx, operator, t.BikeID, bike.OpIdle, bike.StatusActive); err != nil {
		c.logger.Warn("end command write failed, ending ride regardless", "bike", t.BikeID, "error", err)
	} else {
		err = unlock.AwaitOperation(ctx, c.bikes, c.cfg.unlockConfig(), operator, t.BikeID, func(cur bike.Bike) bool {
			return (cur.Operation == bike.OpIdle || cur.Operation == bike.OpEndConfirmed) &&
				cur.Status == bike.StatusActive
		}, report)
		if err != nil {
			endConfirmTimeoutsTotal.Inc()
			c.logger.Warn("ending ride without hardware confirmation", "bike", t.BikeID, "error", err)
		}
	}

	now := c.now().UTC()
	holdTimer := t.HoldTimer
	if t.IsHold && t.HoldStartedAt.Valid {
		holdTimer += int64(now.Sub(t.HoldStartedAt.Time).Seconds())
	}
	rideTimer := int64(now.Sub(t.StartedAt).Seconds()) - holdTimer
	if rideTimer < 0 {
		rideTimer = 0
	}

	if dest.StationID == "" && dest.StationName == "" {
		dest.StationID = b.StationID
		dest.StationName = stationName(b)
	}
	if dest.StationName == "" {
		dest.StationName = bike.UnknownStation
	}

	params := trip.EndParams{
		RideTimer:              rideTimer,
		HoldTimer:              holdTimer,
		TotalTripTime:          rideTimer + holdTimer,
		Fare:                   billing.Fare(rideTimer, holdTimer),
		DestinationStationID:   nullString(dest.StationID),
		DestinationStationName: dest.StationName,
		EndedAt:                now,
	}
	ended, err := c.trips.End(ctx, t.ID, params)
	if err != nil {
		return trip.Trip{}, err
	}

	if ended {
		if dest.StationID != "" {
			if err := c.stations.BikeArrived(ctx, dest.StationID); err != nil {
				c.logger.Warn("station cycle count increment failed", "station", dest.StationID, "error", err)
			}
			if err := c.bikes.SetStation(ctx, operator, t.BikeID, dest.StationID, dest.StationName); err != nil {
				c.logger.Warn("bike station assignment failed", "bike", t.BikeID, "error", err)
			}
		}
		c.invoice(ctx, riderID, rideTimer, holdTimer)
	}

	if err := c.riders.ReleaseRide(ctx, riderID); err != nil {
		return trip.Trip{}, err
	}
	if c.links != nil {
		c.links.Drop(t.BikeID)
	}

	t.RideTimer = rideTimer
	t.HoldTimer = holdTimer
	t.TotalTripTime = params.TotalTripTime
	t.Fare = nullString(params.Fare)
	t.IsHold = false
	t.HoldStartedAt = sql.NullTime{}
	t.DestinationStationID = params.DestinationStationID
	t.DestinationStationName = nullString(params.DestinationStationName)
	t.EndedAt = sql.NullTime{Time: now, Valid: true}

	c.logger.Info("ride ended", "rider", riderID, "booking", t.ID,
		"rideTimer", rideTimer, "holdTimer", holdTimer, "fare", params.Fare)
	return *t, nil
}

func (c *Controller) invoice(ctx context.Context, riderID uuid.UUID, rideSeconds, holdSeconds int64) {
	if c.invoicer == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		r, err := c.riders.Get(ctx, riderID)
		if err != nil {
			c.logger.Error("cannot load rider for invoicing", "rider", riderID, "error", err)
			return
		}
		if err := c.invoicer.InvoiceRide(ctx, r.StripeID.String, rideSeconds, holdSeconds); err != nil {
			c.logger.Error("ride invoicing failed", "rider", riderID, "error", err)
		}
	}()
}

// Snapshot reconstructs the ride UI's timer anchors after a client restart.
type Snapshot struct {
	Trip trip.Trip
	// EstimatedStartTime is now minus the active riding already accrued: a
	// wall-clock anchor the client can run its ride timer from.
	EstimatedStartTime time.Time
	// HoldElapsed is how long the current hold has been in effect, exact
	// because the hold start is persisted as an absolute timestamp.
	HoldElapsed time.Duration
}

// Resume returns the open trip and recomputed timer anchors, or ErrNoOpenTrip.
func (c *Controller) Resume(ctx context.Context, riderID uuid.UUID) (Snapshot, error) {
	t, err := c.openTrip(ctx, riderID)
	if err != nil {
		return Snapshot{}, err
	}

	now := c.now().UTC()
	var holdElapsed time.Duration
	if t.IsHold && t.HoldStartedAt.Valid {
		holdElapsed = now.Sub(t.HoldStartedAt.Time)
	}

	active := now.Sub(t.StartedAt) - time.Duration(t.HoldTimer)*time.Second - holdElapsed
	if active < 0 {
		active = 0
	}

	return Snapshot{
		Trip:               *t,
		EstimatedStartTime: now.Add(-active),
		HoldElapsed:        holdElapsed,
	}, nil
}

// Heartbeat records the 10-second liveness ping from the ride UI. It never
// touches the trip's timers.
func (c *Controller) Heartbeat(ctx context.Context, operator string, riderID uuid.UUID, rideStart time.Time, bookingID string) error {
	if err := c.live.Beat(ctx, operator, riderID.String(), rideStart, bookingID); err != nil {
		return err
	}
	return c.riders.TouchHeartbeat(ctx, riderID)
}

// SaveRideTimer persists a client-reported active-riding total for the open
// trip; the repository keeps it monotonic.
func (c *Controller) SaveRideTimer(ctx context.Context, riderID uuid.UUID, seconds int64) error {
	t, err := c.openTrip(ctx, riderID)
	if err != nil {
		return err
	}
	return c.trips.UpdateRideTimer(ctx, t.ID, seconds)
}

func (c *Controller) openTrip(ctx context.Context, riderID uuid.UUID) (*trip.Trip, error) {
	t, err := c.trips.OpenByRider(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNoOpenTrip
	}
	return t, nil
}

func stationName(b bike.Bike) string {
	if b.StationName == "" {
		return bike.UnknownStation
	}
	return b.StationName
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
