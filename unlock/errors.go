package unlock

import "errors"

var (
	// ErrConfirmationTimeout means the lock never wrote the confirmed code
	// within the poll budget. The attempt failed but the bike is not assumed
	// faulty; the rider may retry.
	ErrConfirmationTimeout = errors.New("bike did not confirm within the wait budget")

	// ErrRadioUnavailable, ErrPermissionDenied and ErrInsecureContext map the
	// rider device's wireless failure classes; each gets its own message in
	// the UI.
	ErrRadioUnavailable = errors.New("wireless radio unavailable on the rider's device")
	ErrPermissionDenied = errors.New("wireless permission denied on the rider's device")
	ErrInsecureContext  = errors.New("wireless requires a secure page context")

	// ErrLinkFailure covers write failures, dropped links and missed
	// notifications during the handshake.
	ErrLinkFailure = errors.New("wireless communication failed")

	// ErrCancelled means the rider dismissed the device picker. It is not an
	// error condition: callers abort silently and show nothing.
	ErrCancelled = errors.New("device selection cancelled")
)
