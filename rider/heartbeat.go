package rider

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// heartbeatTTL bounds how long a rider counts as live after their last beat.
// Beats arrive every 10s from the ride UI, so three missed beats expire it.
const heartbeatTTL = 30 * time.Second

// Liveness keeps the per-rider heartbeat key in the shared state store. It is
// a pure liveness signal: it never touches bike or trip timers.
type Liveness struct {
	rdb *redis.Client
}

func NewLiveness(rdb *redis.Client) *Liveness {
	return &Liveness{rdb: rdb}
}

type beat struct {
	RideStartTime time.Time `json:"rideStartTime"`
	BookingID     string    `json:"bookingId"`
	At            time.Time `json:"at"`
}

func heartbeatKey(operator string, riderID string) string {
	return fmt.Sprintf("pubbs:%s:heartbeat:%s", operator, riderID)
}

func (l *Liveness) Beat(ctx context.Context, operator, riderID string, rideStart time.Time, bookingID string) error {
	payload, err := json.Marshal(beat{
		RideStartTime: rideStart,
		BookingID:     bookingID,
		At:            time.Now(),
	})
	if err != nil {
		return err
	}
	return l.rdb.Set(ctx, heartbeatKey(operator, riderID), payload, heartbeatTTL).Err()
}

// Alive reports whether the rider's heartbeat key has not yet expired.
func (l *Liveness) Alive(ctx context.Context, operator, riderID string) (bool, error) {
	n, err := l.rdb.Exists(ctx, heartbeatKey(operator, riderID)).Result()
	return n > 0, err
}
