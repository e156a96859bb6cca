package ride

import (
	"errors"
	"fmt"

	"github.com/carti0459/PubbsTestingIITK-sub000/bike"
)

var (
	ErrNoOpenTrip    = errors.New("no ride in progress")
	ErrAlreadyOnHold = errors.New("ride is already on hold")
	ErrNotOnHold     = errors.New("ride is not on hold")
	ErrNotUnlocked   = errors.New("bike has not confirmed unlock")
)

// NotReadyError rejects the ready-to-ride check. The observed pair is carried
// so the UI can show it and offer the force-reset path.
type NotReadyError struct {
	Operation bike.Operation
	Status    bike.Status
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("bike is not ready to ride (operation %q, status %q)", e.Operation, e.Status)
}
