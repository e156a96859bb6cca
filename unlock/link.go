package unlock

import (
	"context"
	"sync"
	"time"
)

// DeviceLink is a single connection to a bike's wireless attribute server.
// Notifications must be enabled by the implementation before the first Write
// so no response is missed. The channel closes when the link drops.
type DeviceLink interface {
	Write(ctx context.Context, frame []byte) error
	Notifications() <-chan []byte
	Close() error
}

// LinkDialer obtains a DeviceLink for a bike. Dial errors use the transport
// taxonomy in errors.go; ErrCancelled means the rider dismissed the picker.
type LinkDialer interface {
	Dial(ctx context.Context, bikeID string) (DeviceLink, error)
}

// Broker matches bridge connections offered by rider devices to in-flight
// unlock attempts. The rider's device pairs with the bike first, then offers
// the link; Dial picks it up or reports the device-side failure.
type Broker struct {
	mu      sync.Mutex
	pending map[string]*pendingLink
}

type pendingLink struct {
	ready chan struct{}
	link  DeviceLink
	err   error
}

func NewBroker() *Broker {
	return &Broker{pending: make(map[string]*pendingLink)}
}

func (b *Broker) entry(bikeID string) *pendingLink {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[bikeID]
	if !ok {
		p = &pendingLink{ready: make(chan struct{})}
		b.pending[bikeID] = p
	}
	return p
}

// Offer hands a connected link to whichever unlock attempt is waiting on the
// bike. A second offer for the same bike replaces an unclaimed first one.
func (b *Broker) Offer(bikeID string, link DeviceLink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.pending[bikeID]; ok {
		select {
		case <-p.ready:
			// Already resolved; the old entry is stale.
			if p.link != nil {
				p.link.Close()
			}
			delete(b.pending, bikeID)
		default:
			p.link = link
			close(p.ready)
			return
		}
	}
	p := &pendingLink{ready: make(chan struct{}), link: link}
	close(p.ready)
	b.pending[bikeID] = p
}

// Fail records a device-side failure (picker cancelled, radio off, …) so the
// waiting unlock attempt surfaces the right cause.
func (b *Broker) Fail(bikeID string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[bikeID]
	if !ok {
		p = &pendingLink{ready: make(chan struct{})}
		b.pending[bikeID] = p
	}
	select {
	case <-p.ready:
	default:
		p.err = err
		close(p.ready)
	}
}

// Dial waits for the rider's device to offer a link for the bike. A link that
// never arrives reads as an unavailable radio: from the attempt's point of
// view there is no device to talk to.
func (b *Broker) Dial(ctx context.Context, bikeID string) (DeviceLink, error) {
	p := b.entry(bikeID)

	select {
	case <-p.ready:
	case <-ctx.Done():
		b.remove(bikeID, p)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrRadioUnavailable
		}
		return nil, ctx.Err()
	}

	b.remove(bikeID, p)
	if p.err != nil {
		return nil, p.err
	}
	return p.link, nil
}

// Drop discards any offered-but-unclaimed link for the bike. Called on ride
// end so no stale physical link outlives the trip.
func (b *Broker) Drop(bikeID string) {
	b.mu.Lock()
	p, ok := b.pending[bikeID]
	if ok {
		delete(b.pending, bikeID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-p.ready:
		if p.link != nil {
			p.link.Close()
		}
	default:
		p.err = ErrLinkFailure
		close(p.ready)
	}
}

func (b *Broker) remove(bikeID string, p *pendingLink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.pending[bikeID]; ok && cur == p {
		delete(b.pending, bikeID)
	}
}

// awaitNotification waits for one notification frame with a per-step timeout.
func awaitNotification(ctx context.Context, link DeviceLink, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame, ok := <-link.Notifications():
		if !ok {
			return nil, ErrLinkFailure
		}
		return frame, nil
	case <-timer.C:
		return nil, ErrLinkFailure
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
