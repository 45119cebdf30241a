// Package capture holds the client-side interception adapters: an
// http.RoundTripper wrapper and a WebSocket conn wrapper that turn real
// traffic into TrafficPackage records and hand them to the transporter.
// This is the outermost edge next to the application's traffic path, so
// every capture failure is absorbed and logged here, never returned.
package capture

import (
	"github.com/rs/zerolog"

	"github.com/ProxymanApp/atlantis-go/internal/domain"
)

// Sender is the slice of the transporter the adapters need. Kept narrow so
// tests can record messages without a socket.
type Sender interface {
	Send(m *domain.Message)
	SessionID() string
}

// safely runs capture-only work behind a recover so a bug in this package
// can never take down the host application's request.
func safely(log *zerolog.Logger, stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stage", stage).Msg("capture: recovered")
		}
	}()
	fn()
}
