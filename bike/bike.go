// Package bike models a physical bike's record in the shared state store:
// the operation/status code pair driven by the ride protocol, the hardware
// class that selects an unlock transport, and the station assignment.
package bike

import (
	"github.com/goccy/go-json"
)

// Operation is the hardware command/state code exchanged with the lock
// firmware through the shared state store. The app writes the bare request
// code, firmware confirms by writing the code with a trailing zero.
type Operation string

const (
	OpIdle            Operation = "0"
	OpUnlockRequested Operation = "1"
	OpUnlockConfirmed Operation = "10"
	OpHoldRequested   Operation = "2"
	OpHoldConfirmed   Operation = "20"
	OpResumeRequested Operation = "3"
	OpResumeConfirmed Operation = "30"
	// OpEndConfirmed is written by firmware after an end request. End requests
	// reuse OpIdle rather than a distinct code.
	OpEndConfirmed Operation = "00"
)

// Status is the coarse availability of a bike.
type Status string

const (
	StatusActive      Status = "active"
	StatusBusy        Status = "busy"
	StatusMaintenance Status = "maintenance"
	StatusInactive    Status = "inactive"
)

// Class selects the unlock transport for a bike.
type Class int

const (
	// ClassRemoteRelay bikes are commanded by writing operation codes into the
	// shared store for the firmware to observe over its cellular link.
	ClassRemoteRelay Class = iota
	// ClassDirectWireless bikes are commanded over a short-range wireless
	// pairing relayed by the rider's device.
	ClassDirectWireless
	// ClassUnknown bikes get the relay command with no confirmation wait.
	ClassUnknown
)

func (c Class) String() string {
	switch c {
	case ClassRemoteRelay:
		return "gsm"
	case ClassDirectWireless:
		return "ble"
	}
	return "unknown"
}

func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// ParseClass maps the stored hardware-class string to a Class. Anything
// unrecognised is ClassUnknown.
func ParseClass(s string) Class {
	switch s {
	case "gsm":
		return ClassRemoteRelay
	case "ble":
		return ClassDirectWireless
	}
	return ClassUnknown
}

// UnknownStation is the station name recorded when a bike has no assignment.
const UnknownStation = "Unknown"

// Bike is one physical bike's record in the shared state store.
type Bike struct {
	// ID is the stable identifier within an operator namespace. It is printed
	// on the bike's QR label and advertised over the wireless link.
	ID string `json:"id"`

	Operation Operation `json:"operation"`
	Status    Status    `json:"status"`

	// Battery is a charge percentage reported by the lock.
	Battery int `json:"battery"`
	// RideTime is the seconds budget for the current or next ride.
	RideTime int `json:"ridetime"`

	Class Class `json:"type"`

	StationID   string `json:"inStationId,omitempty"`
	StationName string `json:"inStationName"`
}

// ReadyToRide reports whether the bike is idle and available for unlocking.
func (b Bike) ReadyToRide() bool {
	return b.Operation == OpIdle && b.Status == StatusActive
}
