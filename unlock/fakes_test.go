package unlock

import (
	"context"
	"sync"

	"github.com/carti0459/PubbsTestingIITK-sub000/bike"
)

// fakeStore is an in-memory RecordStore. A confirmAfter hook lets tests play
// the lock firmware: after N reads of a requested code, the confirmed code
// appears.
type fakeStore struct {
	mu           sync.Mutex
	bikes        map[string]bike.Bike
	gets         int
	confirmAfter int
	confirm      map[bike.Operation]bike.Operation
}

func newFakeStore(b bike.Bike) *fakeStore {
	return &fakeStore{
		bikes:        map[string]bike.Bike{b.ID: b},
		confirmAfter: -1,
		confirm: map[bike.Operation]bike.Operation{
			bike.OpUnlockRequested: bike.OpUnlockConfirmed,
			bike.OpHoldRequested:   bike.OpHoldConfirmed,
			bike.OpResumeRequested: bike.OpResumeConfirmed,
			bike.OpIdle:            bike.OpEndConfirmed,
		},
	}
}

func (s *fakeStore) Get(ctx context.Context, operator, id string) (bike.Bike, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bikes[id]
	if !ok {
		return bike.Bike{}, bike.ErrNotFound
	}
	s.gets++
	if s.confirmAfter >= 0 && s.gets > s.confirmAfter {
		if confirmed, ok := s.confirm[b.Operation]; ok {
			b.Operation = confirmed
			s.bikes[id] = b
		}
	}
	return b, nil
}

func (s *fakeStore) WriteOperation(ctx context.Context, operator, id string, op bike.Operation, status bike.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bikes[id]
	b.ID = id
	b.Operation = op
	b.Status = status
	s.bikes[id] = b
	return nil
}

func (s *fakeStore) get(id string) bike.Bike {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bikes[id]
}

// scriptedLink replays a fixed notify sequence, one frame per write.
type scriptedLink struct {
	mu        sync.Mutex
	responses [][]byte
	writes    [][]byte
	notify    chan []byte
	closed    bool
	writeErr  error
}

func newScriptedLink(responses ...[]byte) *scriptedLink {
	return &scriptedLink{
		responses: responses,
		notify:    make(chan []byte, len(responses)+1),
	}
}

func (l *scriptedLink) Write(ctx context.Context, frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return l.writeErr
	}
	l.writes = append(l.writes, append([]byte(nil), frame...))
	if len(l.responses) > 0 {
		l.notify <- l.responses[0]
		l.responses = l.responses[1:]
	}
	return nil
}

func (l *scriptedLink) Notifications() <-chan []byte {
	return l.notify
}

func (l *scriptedLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

type fakeDialer struct {
	link DeviceLink
	err  error
}

func (d *fakeDialer) Dial(ctx context.Context, bikeID string) (DeviceLink, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.link, nil
}
