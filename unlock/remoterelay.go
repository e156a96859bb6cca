package unlock

import (
	"context"
	"errors"
	"fmt"

	"github.com/carti0459/PubbsTestingIITK-sub000/bike"
	"github.com/carti0459/PubbsTestingIITK-sub000/internal/poll"
)

// RemoteRelay commands a bike by writing the request code into the shared
// state store and polling the same record until the firmware writes the
// confirmed code back.
type RemoteRelay struct {
	store RecordStore
	cfg   Config
}

func (s *RemoteRelay) Unlock(ctx context.Context, operator string, b bike.Bike, report ProgressFunc) error {
	report.report(10, "Sending unlock command")
	if err := s.store.WriteOperation(ctx, operator, b.ID, bike.OpUnlockRequested, bike.StatusBusy); err != nil {
		return fmt.Errorf("writing unlock command: %w", err)
	}

	report.report(20, "Waiting for the bike to respond")
	err := AwaitOperation(ctx, s.store, s.cfg, operator, b.ID, func(cur bike.Bike) bool {
		return cur.Operation == bike.OpUnlockConfirmed && cur.Status == bike.StatusBusy
	}, report)
	if err != nil {
		return err
	}

	report.report(100, "Unlocked")
	return nil
}

// AwaitOperation polls the bike record until confirmed reports the wanted
// state. Timeouts surface as ErrConfirmationTimeout; there is deliberately no
// backoff and no distinction between an offline bike and a busy one.
func AwaitOperation(ctx context.Context, store RecordStore, cfg Config, operator, id string, confirmed func(bike.Bike) bool, report ProgressFunc) error {
	cfg = cfg.withDefaults()
	attempt := 0
	err := poll.Until(ctx, cfg.PollInterval, cfg.PollAttempts, func(ctx context.Context) (bool, error) {
		attempt++
		cur, err := store.Get(ctx, operator, id)
		if err != nil {
			return false, err
		}
		if pct := 20 + attempt*70/cfg.PollAttempts; pct < 90 {
			report.report(pct, "Waiting for the bike to respond")
		}
		return confirmed(cur), nil
	})
	if errors.Is(err, poll.ErrTimeout) {
		return ErrConfirmationTimeout
	}
	return err
}
