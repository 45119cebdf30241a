package discovery

import (
	"context"

	"github.com/rs/zerolog"
)

// Direct yields a single fixed peer without touching the network. Used on
// emulators, where the inspector is reachable through the host loopback
// forward instead of mDNS.
type Direct struct {
	Host   string
	Port   int
	Logger *zerolog.Logger
}

func NewDirect(host string, port int, logger *zerolog.Logger) *Direct {
	if host == "" {
		host = DirectHost
	}
	if port == 0 {
		port = DirectPort
	}
	return &Direct{Host: host, Port: port, Logger: logger}
}

func (d *Direct) Discover(ctx context.Context, peers chan<- Peer) error {
	d.Logger.Info().Str("host", d.Host).Int("port", d.Port).Msg("discovery: direct mode")
	select {
	case peers <- Peer{Host: d.Host, Port: d.Port, Name: "direct"}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
