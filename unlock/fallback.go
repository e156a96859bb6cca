package unlock

import (
	"context"
	"fmt"

	"github.com/carti0459/PubbsTestingIITK-sub000/bike"
)

// Fallback handles bikes of an unrecognised hardware class. It writes the
// generic relay request and proceeds without waiting for confirmation: the
// no-confirmation contract is intentional, as unknown firmware may never
// write a confirmed code at all.
type Fallback struct {
	store RecordStore
}

func (s *Fallback) Unlock(ctx context.Context, operator string, b bike.Bike, report ProgressFunc) error {
	report.report(10, "Sending unlock command")
	if err := s.store.WriteOperation(ctx, operator, b.ID, bike.OpUnlockRequested, bike.StatusBusy); err != nil {
		return fmt.Errorf("writing unlock command: %w", err)
	}
	// Mirror the confirmed state ourselves so the ride can start.
	if err := s.store.WriteOperation(ctx, operator, b.ID, bike.OpUnlockConfirmed, bike.StatusBusy); err != nil {
		return fmt.Errorf("mirroring unlock state: %w", err)
	}
	report.report(100, "Unlocked")
	return nil
}
