// Package billing computes ride fares and raises invoices for them.
package billing

import "fmt"

// Tariff in paise. Hold minutes are billed at a reduced rate so riders are
// not penalised for parking mid-ride.
const (
	unlockFeePaise     = 500
	ridePaisePerMinute = 100
	holdPaisePerMinute = 25
	secondsPerMinute   = 60
)

// minutes rounds seconds up to whole billed minutes.
func minutes(seconds int64) int64 {
	if seconds <= 0 {
		return 0
	}
	return (seconds + secondsPerMinute - 1) / secondsPerMinute
}

// Fare returns the trip fare in rupees as a decimal string, e.g. "12.50".
func Fare(rideSeconds, holdSeconds int64) string {
	paise := unlockFeePaise +
		minutes(rideSeconds)*ridePaisePerMinute +
		minutes(holdSeconds)*holdPaisePerMinute
	return fmt.Sprintf("%d.%02d", paise/100, paise%100)
}
