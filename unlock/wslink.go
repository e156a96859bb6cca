package unlock

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 512
	notifyBuffer   = 8
)

// bridgeHello is the first message a rider's device sends on the bridge
// socket: either ready (pairing succeeded, binary frames follow) or the
// device-side failure class.
type bridgeHello struct {
	Event string `json:"event"`
}

// Bridge events reported by the rider's device.
const (
	EventReady       = "ready"
	EventUnavailable = "unavailable"
	EventDenied      = "denied"
	EventInsecure    = "insecure"
	EventCancelled   = "cancelled"
)

// linkErrorFromEvent maps a device-reported failure to the transport error
// taxonomy.
func linkErrorFromEvent(event string) error {
	switch event {
	case EventUnavailable:
		return ErrRadioUnavailable
	case EventDenied:
		return ErrPermissionDenied
	case EventInsecure:
		return ErrInsecureContext
	case EventCancelled:
		return ErrCancelled
	}
	return ErrLinkFailure
}

// ServeBridge owns an upgraded bridge socket: it reads the hello message,
// then either offers the link to the waiting unlock attempt or records the
// device-side failure. It returns when the hello has been handled; the link's
// read pump keeps running until the socket closes.
func (b *Broker) ServeBridge(bikeID string, conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	msgType, payload, err := conn.ReadMessage()
	if err != nil || msgType != websocket.TextMessage {
		b.Fail(bikeID, ErrLinkFailure)
		conn.Close()
		return
	}

	var hello bridgeHello
	if err := json.Unmarshal(payload, &hello); err != nil {
		b.Fail(bikeID, ErrLinkFailure)
		conn.Close()
		return
	}

	if hello.Event != EventReady {
		b.Fail(bikeID, linkErrorFromEvent(hello.Event))
		conn.Close()
		return
	}

	b.Offer(bikeID, newWSLink(conn))
}

// wsLink adapts a bridge socket to DeviceLink. Binary messages from the
// device are lock notifications; the read pump forwards them and closes the
// notification channel when the socket drops.
type wsLink struct {
	conn      *websocket.Conn
	notify    chan []byte
	closeOnce sync.Once
	writeMu   sync.Mutex
}

func newWSLink(conn *websocket.Conn) *wsLink {
	l := &wsLink{
		conn:   conn,
		notify: make(chan []byte, notifyBuffer),
	}
	go l.readPump()
	return l
}

func (l *wsLink) readPump() {
	defer func() {
		close(l.notify)
		l.conn.Close()
	}()

	for {
		msgType, payload, err := l.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		select {
		case l.notify <- payload:
		default:
			// Device is notifying faster than the handshake consumes;
			// dropping is safe because each step awaits exactly one frame.
		}
	}
}

func (l *wsLink) Write(ctx context.Context, frame []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	l.conn.SetWriteDeadline(deadline)
	return l.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (l *wsLink) Notifications() <-chan []byte {
	return l.notify
}

func (l *wsLink) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.writeMu.Lock()
		l.conn.SetWriteDeadline(time.Now().Add(writeWait))
		l.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		l.writeMu.Unlock()
		err = l.conn.Close()
	})
	return err
}
