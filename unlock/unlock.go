// Package unlock implements the transport strategies that get a bike's lock
// open: a remote command relay through the shared state store, a direct
// short-range wireless handshake, and a fire-and-proceed fallback. Every
// strategy leaves the bike record mirroring OpUnlockConfirmed/StatusBusy on
// success so the rest of the system is transport-agnostic afterwards.
package unlock

import (
	"context"
	"time"

	"github.com/carti0459/PubbsTestingIITK-sub000/bike"
)

// ProgressFunc receives coarse progress (0–100) and a human-readable status
// for the rider's unlock modal. May be nil.
type ProgressFunc func(pct int, status string)

func (f ProgressFunc) report(pct int, status string) {
	if f != nil {
		f(pct, status)
	}
}

// RecordStore is the slice of the bike store a strategy needs.
type RecordStore interface {
	Get(ctx context.Context, operator, id string) (bike.Bike, error)
	WriteOperation(ctx context.Context, operator, id string, op bike.Operation, status bike.Status) error
}

// Strategy performs the transport-specific part of one unlock attempt.
type Strategy interface {
	Unlock(ctx context.Context, operator string, b bike.Bike, report ProgressFunc) error
}

// Config carries the transport tunables. The defaults preserve the 30s
// confirmation ceiling physical locks are known to respond within.
type Config struct {
	// PollInterval and PollAttempts bound the relay confirmation wait.
	PollInterval time.Duration
	PollAttempts int

	// DialTimeout bounds how long the wireless strategy waits for the rider's
	// device to bridge a connection. StepTimeout bounds each notification wait
	// within the handshake.
	DialTimeout time.Duration
	StepTimeout time.Duration

	// AppID and SeedKey parameterize the handshake frames; both are shared
	// with the lock firmware out of band.
	AppID   uint64
	SeedKey []byte
}

func (c Config) withDefaults() Config {
	if c.PollInterval == 0 {
		c.PollInterval = time.Second
	}
	if c.PollAttempts == 0 {
		c.PollAttempts = 30
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 30 * time.Second
	}
	if c.StepTimeout == 0 {
		c.StepTimeout = 5 * time.Second
	}
	return c
}

// Selector picks the strategy for a bike's hardware class.
type Selector struct {
	store  RecordStore
	dialer LinkDialer
	cfg    Config
}

func NewSelector(store RecordStore, dialer LinkDialer, cfg Config) *Selector {
	return &Selector{store: store, dialer: dialer, cfg: cfg.withDefaults()}
}

func (s *Selector) Select(b bike.Bike) Strategy {
	switch b.Class {
	case bike.ClassDirectWireless:
		return &DirectWireless{store: s.store, dialer: s.dialer, cfg: s.cfg}
	case bike.ClassRemoteRelay:
		return &RemoteRelay{store: s.store, cfg: s.cfg}
	default:
		return &Fallback{store: s.store}
	}
}
