package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/carti0459/PubbsTestingIITK-sub000/internal/middleware"
	"github.com/carti0459/PubbsTestingIITK-sub000/ride"
	"github.com/carti0459/PubbsTestingIITK-sub000/rider"
	"github.com/carti0459/PubbsTestingIITK-sub000/trip"
	"github.com/carti0459/PubbsTestingIITK-sub000/unlock"
)

type rideRequest struct {
	BikeID string `json:"bikeId"`
}

// rideErrorStatus maps the ride and transport error taxonomy onto HTTP
// statuses. Cancellation is not here: it is not an error to the rider and the
// handlers answer it with a plain 200.
func rideErrorStatus(err error) int {
	var notReady *ride.NotReadyError
	switch {
	case errors.As(err, &notReady),
		errors.Is(err, ride.ErrAlreadyOnHold),
		errors.Is(err, ride.ErrNotOnHold),
		errors.Is(err, ride.ErrNotUnlocked),
		errors.Is(err, rider.ErrRideInProgress):
		return http.StatusConflict
	case errors.Is(err, ride.ErrNoOpenTrip):
		return http.StatusNotFound
	case errors.Is(err, unlock.ErrConfirmationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, unlock.ErrRadioUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, unlock.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, unlock.ErrInsecureContext):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) checkRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req rideRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	b, err := a.rides.CheckAndInitiateRide(c.Request.Context(), a.operator, req.BikeID)
	var notReady *ride.NotReadyError
	switch {
	case errors.As(err, &notReady):
		c.JSON(http.StatusConflict, gin.H{
			"ready":     false,
			"operation": notReady.Operation,
			"status":    notReady.Status,
		})
		return
	case err != nil:
		logger.Error("ready-to-ride check failed", "error", err)
		c.JSON(rideErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"ready": true, "bike": toBikeResponse(b)})
}

func (a *API) resetBikeHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	if err := a.rides.ResetBike(c.Request.Context(), a.operator, c.Param("id")); err != nil {
		logger.Error("bike reset failed", "error", err)
		c.JSON(rideErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}

func (a *API) unlockHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req rideRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	err := a.rides.Unlock(c.Request.Context(), a.operator, req.BikeID, nil)
	switch {
	case errors.Is(err, unlock.ErrCancelled):
		// Rider backed out of the wireless pairing. Quietly done.
		c.JSON(200, gin.H{"status": "cancelled"})
		return
	case err != nil:
		logger.Error("unlock failed", "bike", req.BikeID, "error", err)
		c.JSON(rideErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "unlocked"})
}

func (a *API) startRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req rideRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	r, err := a.currentRider(c)
	if err != nil {
		logger.Error("cannot resolve rider", "error", err)
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	t, err := a.rides.StartRide(c.Request.Context(), a.operator, r.ID, req.BikeID)
	if err != nil {
		logger.Error("failed to start ride", "bike", req.BikeID, "error", err)
		c.JSON(rideErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, toTripResponse(t))
}

func (a *API) holdHandler(c *gin.Context) {
	a.holdOrContinue(c, a.rides.Hold, "hold")
}

func (a *API) continueHandler(c *gin.Context) {
	a.holdOrContinue(c, a.rides.Continue, "continue")
}

func (a *API) holdOrContinue(c *gin.Context, op func(ctx context.Context, operator string, riderID uuid.UUID, report unlock.ProgressFunc) error, name string) {
	logger := middleware.GetLogger(c)

	r, err := a.currentRider(c)
	if err != nil {
		logger.Error("cannot resolve rider", "error", err)
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	if err := op(c.Request.Context(), a.operator, r.ID, nil); err != nil {
		logger.Error("ride "+name+" failed", "error", err)
		c.JSON(rideErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}

type endRideRequest struct {
	StationID   string `json:"stationId"`
	StationName string `json:"stationName"`
}

func (a *API) endRideHandler(c *gin.Context) {
	ctx, span := otel.Tracer("api").Start(c.Request.Context(), "endRideHandler")
	defer span.End()

	logger := middleware.GetLogger(c)

	var req endRideRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	r, err := a.currentRider(c)
	if err != nil {
		logger.Error("cannot resolve rider", "error", err)
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	t, err := a.rides.End(ctx, a.operator, r.ID,
		ride.Destination{StationID: req.StationID, StationName: req.StationName}, nil)
	if err != nil {
		logger.Error("failed to end ride", "error", err)
		c.JSON(rideErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, toTripResponse(t))
}

// RideState is what the ride UI needs to rebuild itself after a restart.
type RideState struct {
	InProgress         bool       `json:"inProgress"`
	BookingID          string     `json:"bookingId,omitempty"`
	BikeID             string     `json:"bikeId,omitempty"`
	IsHold             bool       `json:"isHold,omitempty"`
	HoldSeconds        int64      `json:"holdSeconds,omitempty"`
	HoldElapsedSeconds int64      `json:"holdElapsedSeconds,omitempty"`
	EstimatedStartTime *time.Time `json:"estimatedStartTime,omitempty"`
}

func (a *API) currentRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	r, err := a.currentRider(c)
	if err != nil {
		logger.Error("cannot resolve rider", "error", err)
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	snap, err := a.rides.Resume(c.Request.Context(), r.ID)
	if errors.Is(err, ride.ErrNoOpenTrip) {
		c.JSON(200, RideState{InProgress: false})
		return
	}
	if err != nil {
		logger.Error("failed to resume ride", "error", err)
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	start := snap.EstimatedStartTime
	c.JSON(200, RideState{
		InProgress:         true,
		BookingID:          snap.Trip.ID.String(),
		BikeID:             snap.Trip.BikeID,
		IsHold:             snap.Trip.IsHold,
		HoldSeconds:        snap.Trip.HoldTimer,
		HoldElapsedSeconds: int64(snap.HoldElapsed.Seconds()),
		EstimatedStartTime: &start,
	})
}

type heartbeatRequest struct {
	RideStartTime time.Time `json:"rideStartTime"`
	BookingID     string    `json:"bookingId"`
}

func (a *API) heartbeatHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req heartbeatRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	r, err := a.currentRider(c)
	if err != nil {
		logger.Error("cannot resolve rider", "error", err)
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	if err := a.rides.Heartbeat(c.Request.Context(), a.operator, r.ID, req.RideStartTime, req.BookingID); err != nil {
		logger.Error("heartbeat failed", "error", err)
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}

type saveTimerRequest struct {
	Seconds int64 `json:"seconds"`
}

func (a *API) saveTimerHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req saveTimerRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	r, err := a.currentRider(c)
	if err != nil {
		logger.Error("cannot resolve rider", "error", err)
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	if err := a.rides.SaveRideTimer(c.Request.Context(), r.ID, req.Seconds); err != nil {
		logger.Error("saving ride timer failed", "error", err)
		c.JSON(rideErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}

type tripResponse struct {
	BookingID              string     `json:"bookingId"`
	BikeID                 string     `json:"bikeId"`
	SourceStationID        string     `json:"sourceStationId,omitempty"`
	SourceStationName      string     `json:"sourceStationName"`
	DestinationStationID   string     `json:"destinationStationId,omitempty"`
	DestinationStationName string     `json:"destinationStationName,omitempty"`
	RideTimer              int64      `json:"rideTimer"`
	HoldTimer              int64      `json:"holdTimer"`
	TotalTripTime          int64      `json:"totalTripTime"`
	IsHold                 bool       `json:"isHold"`
	Fare                   string     `json:"fare,omitempty"`
	StartedAt              time.Time  `json:"startedAt"`
	EndedAt                *time.Time `json:"endedAt,omitempty"`
}

func toTripResponse(t trip.Trip) tripResponse {
	resp := tripResponse{
		BookingID:              t.ID.String(),
		BikeID:                 t.BikeID,
		SourceStationID:        t.SourceStationID.String,
		SourceStationName:      t.SourceStationName,
		DestinationStationID:   t.DestinationStationID.String,
		DestinationStationName: t.DestinationStationName.String,
		RideTimer:              t.RideTimer,
		HoldTimer:              t.HoldTimer,
		TotalTripTime:          t.TotalTripTime,
		IsHold:                 t.IsHold,
		Fare:                   t.Fare.String,
		StartedAt:              t.StartedAt,
	}
	if t.EndedAt.Valid {
		ended := t.EndedAt.Time
		resp.EndedAt = &ended
	}
	return resp
}
