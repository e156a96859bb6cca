// Package api exposes the ride service over HTTP: discovery endpoints for
// bikes and stations, the authenticated ride lifecycle, and the websocket
// bridge a rider's device uses for direct wireless unlocks.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carti0459/PubbsTestingIITK-sub000/bike"
	"github.com/carti0459/PubbsTestingIITK-sub000/internal/auth0"
	"github.com/carti0459/PubbsTestingIITK-sub000/internal/middleware"
	"github.com/carti0459/PubbsTestingIITK-sub000/internal/o11y"
	"github.com/carti0459/PubbsTestingIITK-sub000/ride"
	"github.com/carti0459/PubbsTestingIITK-sub000/rider"
	"github.com/carti0459/PubbsTestingIITK-sub000/station"
	"github.com/carti0459/PubbsTestingIITK-sub000/trip"
	"github.com/carti0459/PubbsTestingIITK-sub000/unlock"
)

type Config struct {
	// Operator namespaces all bike and heartbeat records in the shared store.
	Operator string

	Auth0Domain string
	Audience    string

	MetricsUsername string
	MetricsPassword string
}

// RideService is the slice of the ride controller the handlers drive.
type RideService interface {
	CheckAndInitiateRide(ctx context.Context, operator, bikeID string) (bike.Bike, error)
	ResetBike(ctx context.Context, operator, bikeID string) error
	Unlock(ctx context.Context, operator, bikeID string, report unlock.ProgressFunc) error
	StartRide(ctx context.Context, operator string, riderID uuid.UUID, bikeID string) (trip.Trip, error)
	Hold(ctx context.Context, operator string, riderID uuid.UUID, report unlock.ProgressFunc) error
	Continue(ctx context.Context, operator string, riderID uuid.UUID, report unlock.ProgressFunc) error
	End(ctx context.Context, operator string, riderID uuid.UUID, dest ride.Destination, report unlock.ProgressFunc) (trip.Trip, error)
	Resume(ctx context.Context, riderID uuid.UUID) (ride.Snapshot, error)
	Heartbeat(ctx context.Context, operator string, riderID uuid.UUID, rideStart time.Time, bookingID string) error
	SaveRideTimer(ctx context.Context, riderID uuid.UUID, seconds int64) error
}

type BikeDirectory interface {
	Get(ctx context.Context, operator, id string) (bike.Bike, error)
	List(ctx context.Context, operator string) ([]bike.Bike, error)
}

type StationDirectory interface {
	GetStations(ctx context.Context) ([]station.Station, error)
	GetStation(ctx context.Context, id string) (station.Station, error)
}

type RiderDirectory interface {
	GetByAuth0ID(ctx context.Context, auth0ID string) (*rider.Rider, error)
	Create(ctx context.Context, auth0ID, email, name string) (*rider.Rider, error)
}

// Deps wires the API's collaborators. Auth overrides the Auth0 JWT middleware
// when set; tests use it to stamp a fixed subject.
type Deps struct {
	Rides    RideService
	Bikes    BikeDirectory
	Stations StationDirectory
	Riders   RiderDirectory
	Auth0    auth0.Client
	Broker   *unlock.Broker
	Obs      *o11y.Observability
	Auth     gin.HandlerFunc
}

type API struct {
	r        *gin.Engine
	rides    RideService
	bikes    BikeDirectory
	stations StationDirectory
	riders   RiderDirectory
	auth0    auth0.Client
	broker   *unlock.Broker
	operator string
}

func New(d Deps, cfg Config) (*API, error) {
	a := &API{
		r:        gin.New(),
		rides:    d.Rides,
		bikes:    d.Bikes,
		stations: d.Stations,
		riders:   d.Riders,
		auth0:    d.Auth0,
		broker:   d.Broker,
		operator: cfg.Operator,
	}

	a.r.Use(middleware.Tracing())
	a.r.Use(middleware.Logging(d.Obs.Logger))
	a.r.Use(middleware.Metrics(d.Obs.Registry))
	a.r.Use(gin.Recovery())

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	metricsHandler := gin.WrapH(promhttp.HandlerFor(d.Obs.Registry, promhttp.HandlerOpts{}))
	if cfg.MetricsUsername != "" {
		metrics := a.r.Group("/metrics", gin.BasicAuth(gin.Accounts{
			cfg.MetricsUsername: cfg.MetricsPassword,
		}))
		metrics.GET("", metricsHandler)
	} else {
		a.r.GET("/metrics", metricsHandler)
	}

	a.r.GET("/bikes", a.bikesHandler)
	a.r.GET("/bikes/:id", a.bikeHandler)
	a.r.GET("/stations", a.stationsHandler)
	a.r.GET("/stations/:id", a.stationHandler)

	auth := d.Auth
	if auth == nil {
		var err error
		auth, err = middleware.Auth(cfg.Auth0Domain, cfg.Audience)
		if err != nil {
			return nil, err
		}
	}

	authed := a.r.Group("/", auth)
	authed.POST("/bikes/:id/reset", a.resetBikeHandler)
	authed.POST("/ride/check", a.checkRideHandler)
	authed.POST("/ride/unlock", a.unlockHandler)
	authed.POST("/ride/start", a.startRideHandler)
	authed.POST("/ride/hold", a.holdHandler)
	authed.POST("/ride/continue", a.continueHandler)
	authed.POST("/ride/end", a.endRideHandler)
	authed.GET("/ride/current", a.currentRideHandler)
	authed.POST("/ride/heartbeat", a.heartbeatHandler)
	authed.POST("/ride/timer", a.saveTimerHandler)
	authed.GET("/ws/unlock/:id", a.unlockBridgeHandler)

	return a, nil
}

func (a *API) Router() *gin.Engine {
	return a.r
}

// currentRider resolves the authenticated subject to a rider record, creating
// one on first sight. The profile fields come from the userinfo endpoint when
// the access token is still at hand; an empty profile is acceptable.
func (a *API) currentRider(c *gin.Context) (*rider.Rider, error) {
	auth0ID, ok := middleware.GetAuth0ID(c)
	if !ok {
		return nil, rider.ErrNotFound
	}

	r, err := a.riders.GetByAuth0ID(c.Request.Context(), auth0ID)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, rider.ErrNotFound) {
		return nil, err
	}

	var email, name string
	if token := middleware.BearerToken(c.Request); token != "" && a.auth0 != nil {
		if info, err := a.auth0.GetUserInfo(c.Request.Context(), token); err == nil {
			email, name = info.Email, info.Name
		}
	}
	return a.riders.Create(c.Request.Context(), auth0ID, email, name)
}
