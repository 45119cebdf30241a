package transporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ProxymanApp/atlantis-go/internal/discovery"
	"github.com/ProxymanApp/atlantis-go/internal/domain"
	obs "github.com/ProxymanApp/atlantis-go/internal/infrastructure/observability"
	"github.com/ProxymanApp/atlantis-go/internal/wire"
)

// State is the connection lifecycle as observed by listeners. Owned by the
// connection manager; everyone else reads it.
type State int32

const (
	StateIdle State = iota
	StateDiscovering
	StateConnecting
	StateConnected
	StateDisconnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	errNotConnected = errors.New("transporter: not connected")
	// errEncode marks per-message serialization failures. The message is
	// dropped; the connection stays up.
	errEncode = errors.New("transporter: message encode failed")
)

// skippable errors cost one message, fatal ones cost the connection.
func isSkippable(err error) bool {
	return errors.Is(err, errEncode) || errors.Is(err, wire.ErrFrameTooLarge)
}

// connManager owns the single socket to the inspector. All mutating methods
// run on the transporter's worker goroutine; State is atomic so Send can
// take the fast path without entering the worker.
type connManager struct {
	log     *zerolog.Logger
	metrics *obs.Metrics
	timeout time.Duration

	state atomic.Int32
	conn  net.Conn
	peer  discovery.Peer
}

func newConnManager(timeout time.Duration, log *zerolog.Logger, metrics *obs.Metrics) *connManager {
	return &connManager{log: log, metrics: metrics, timeout: timeout}
}

func (c *connManager) State() State { return State(c.state.Load()) }

func (c *connManager) setState(s State) {
	c.state.Store(int32(s))
	c.metrics.ConnectionState.Set(float64(s))
}

// dial connects to the peer with the fixed connect timeout and disables
// Nagle so interactive captures show up without batching delay.
func (c *connManager) dial(ctx context.Context, p discovery.Peer) error {
	c.setState(StateConnecting)
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(p.Host, strconv.Itoa(p.Port)))
	if err != nil {
		c.metrics.ConnectErrorsTotal.WithLabelValues("dial").Inc()
		return err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	c.conn = conn
	c.peer = p
	c.setState(StateConnected)
	c.log.Info().Str("host", p.Host).Int("port", p.Port).Str("peer", p.Name).Msg("transporter: connected to inspector")
	return nil
}

// write serializes, compresses and frames one message onto the socket.
func (c *connManager) write(m *domain.Message) error {
	if c.conn == nil {
		return errNotConnected
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %v", errEncode, err)
	}
	if err := wire.WriteFrame(c.conn, wire.EncodePayload(data)); err != nil {
		return err
	}
	c.metrics.MessagesSentTotal.WithLabelValues(string(m.MessageType)).Inc()
	return nil
}

// close tears the socket down and records the resulting state.
func (c *connManager) close(next State) {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.setState(next)
}
