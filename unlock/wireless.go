package unlock

import (
	"context"
	"errors"
	"fmt"

	"github.com/carti0459/PubbsTestingIITK-sub000/bike"
)

// DirectWireless drives the 4-step handshake against the bike's lock over a
// short-range wireless link bridged by the rider's device:
//
//  1. obtain a connected link (discovery and pairing happen device-side)
//  2. notifications are live before the first write (a DeviceLink guarantee)
//  3. key exchange: seed-key frame out, session key back
//  4. unlock frame with the session key, then mirror the confirmed state
//     into the bike record and drop the link; the app does not hold the
//     physical connection for the duration of the ride.
type DirectWireless struct {
	store  RecordStore
	dialer LinkDialer
	cfg    Config
}

func (s *DirectWireless) Unlock(ctx context.Context, operator string, b bike.Bike, report ProgressFunc) error {
	report.report(5, "Connecting to the bike")

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	defer cancel()
	link, err := s.dialer.Dial(dialCtx, b.ID)
	if err != nil {
		// ErrCancelled passes through untouched: a dismissed picker is a
		// silent no-op, not a failure.
		return err
	}
	defer link.Close()

	report.report(30, "Exchanging keys")
	frame := keyExchangeFrame(s.cfg.AppID, s.cfg.SeedKey)
	if err := link.Write(ctx, frame[:]); err != nil {
		return fmt.Errorf("%w: key exchange write: %v", ErrLinkFailure, err)
	}
	resp, err := awaitNotification(ctx, link, s.cfg.StepTimeout)
	if err != nil {
		return keyExchangeErr(err)
	}
	key, err := sessionKey(resp)
	if err != nil {
		return err
	}

	report.report(60, "Unlocking")
	frame = unlockFrame(s.cfg.AppID, key)
	if err := link.Write(ctx, frame[:]); err != nil {
		return fmt.Errorf("%w: unlock write: %v", ErrLinkFailure, err)
	}
	if _, err := awaitNotification(ctx, link, s.cfg.StepTimeout); err != nil {
		return unlockErr(err)
	}

	report.report(90, "Updating bike state")
	if err := s.store.WriteOperation(ctx, operator, b.ID, bike.OpUnlockConfirmed, bike.StatusBusy); err != nil {
		return fmt.Errorf("mirroring unlock state: %w", err)
	}

	report.report(100, "Unlocked")
	return nil
}

func keyExchangeErr(err error) error {
	if errors.Is(err, ErrLinkFailure) {
		return fmt.Errorf("%w: no key exchange response", ErrLinkFailure)
	}
	return err
}

func unlockErr(err error) error {
	if errors.Is(err, ErrLinkFailure) {
		return fmt.Errorf("%w: no unlock confirmation", ErrLinkFailure)
	}
	return err
}
