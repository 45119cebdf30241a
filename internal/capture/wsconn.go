package capture

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ProxymanApp/atlantis-go/internal/domain"
	"github.com/ProxymanApp/atlantis-go/pkg/shared/id"
)

// WSConn wraps a gorilla/websocket connection and mirrors every frame event
// to the inspector. All per-frame records share one connection id and are
// derived as independent snapshots of the base package. Overlapping close
// paths (Close, read failure, explicit close frame) collapse into exactly
// one close-type record.
type WSConn struct {
	conn   *websocket.Conn
	sender Sender
	log    *zerolog.Logger

	base      domain.TrafficPackage
	closeOnce sync.Once
}

// NewWSConn starts capturing an already-dialed connection. The open event is
// reported immediately.
func NewWSConn(conn *websocket.Conn, sender Sender, url string, reqHeader http.Header, log *zerolog.Logger) *WSConn {
	w := &WSConn{
		conn:   conn,
		sender: sender,
		log:    log,
		base: domain.TrafficPackage{
			ID:          id.New(),
			StartAt:     domain.Now(),
			PackageType: domain.PackageTypeWebsocket,
			Request: &domain.Request{
				URL:     url,
				Method:  http.MethodGet,
				Headers: domain.HeadersFromHTTP(reqHeader),
			},
		},
	}
	safely(log, "ws-open", func() { w.emit(w.base) })
	return w
}

func (w *WSConn) WriteMessage(messageType int, data []byte) error {
	err := w.conn.WriteMessage(messageType, data)
	safely(w.log, "ws-send", func() { w.record(messageType, data, true) })
	return err
}

func (w *WSConn) ReadMessage() (int, []byte, error) {
	messageType, data, err := w.conn.ReadMessage()
	if err != nil {
		// covers close frames, resets and timeouts; one close record total
		safely(w.log, "ws-close", w.recordClose)
		return messageType, data, err
	}
	safely(w.log, "ws-receive", func() { w.record(messageType, data, false) })
	return messageType, data, err
}

func (w *WSConn) Close() error {
	safely(w.log, "ws-close", w.recordClose)
	return w.conn.Close()
}

// Conn exposes the wrapped connection for options not mirrored here
// (deadlines, compression, handlers).
func (w *WSConn) Conn() *websocket.Conn { return w.conn }

func (w *WSConn) record(messageType int, data []byte, outgoing bool) {
	var frame domain.WebsocketMessagePackage
	switch messageType {
	case websocket.TextMessage:
		t := domain.WebsocketMessageReceive
		if outgoing {
			t = domain.WebsocketMessageSend
		}
		frame = domain.NewTextFrame(w.base.ID, t, string(data))
	case websocket.BinaryMessage:
		t := domain.WebsocketMessageReceive
		if outgoing {
			t = domain.WebsocketMessageSend
		}
		frame = domain.NewBinaryFrame(w.base.ID, t, data)
	case websocket.PingMessage, websocket.PongMessage:
		frame = domain.NewBinaryFrame(w.base.ID, domain.WebsocketMessagePingPong, data)
	case websocket.CloseMessage:
		w.recordClose()
		return
	default:
		return
	}
	w.emit(w.base.WithWebsocketMessage(frame))
}

func (w *WSConn) recordClose() {
	w.closeOnce.Do(func() {
		frame := domain.NewTextFrame(w.base.ID, domain.WebsocketMessageClose, "")
		w.emit(w.base.WithWebsocketMessage(frame))
	})
}

func (w *WSConn) emit(pkg domain.TrafficPackage) {
	msg, err := domain.NewWebsocketMessage(w.sender.SessionID(), pkg)
	if err != nil {
		w.log.Debug().Err(err).Msg("capture: websocket package encode failed, skipping")
		return
	}
	w.sender.Send(msg)
}
