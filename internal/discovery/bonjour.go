package discovery

import (
	"context"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog"
)

// Bonjour browses the local network for inspector instances over mDNS.
type Bonjour struct {
	Service string
	Domain  string
	// Filter restricts accepted instance names (see MatchesFilter).
	Filter string
	Logger *zerolog.Logger
}

func NewBonjour(filter string, logger *zerolog.Logger) *Bonjour {
	return &Bonjour{Service: ServiceType, Domain: ServiceDomain, Filter: filter, Logger: logger}
}

// Discover browses until ctx is done, forwarding every resolved instance
// that passes the filter. A peer disappearing from the network is logged but
// does not tear down an already-established connection; the connection
// manager finds out through its own I/O errors.
func (b *Bonjour) Discover(ctx context.Context, peers chan<- Peer) error {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return err
	}

	entries := make(chan *zeroconf.ServiceEntry, 8)
	go func() {
		for entry := range entries {
			if entry == nil {
				continue
			}
			if !MatchesFilter(entry.Instance, b.Filter) {
				b.Logger.Debug().Str("instance", entry.Instance).Str("filter", b.Filter).Msg("discovery: peer filtered out")
				continue
			}
			host := ""
			if len(entry.AddrIPv4) > 0 {
				host = entry.AddrIPv4[0].String()
			} else if len(entry.AddrIPv6) > 0 {
				host = entry.AddrIPv6[0].String()
			}
			if host == "" || entry.Port == 0 {
				b.Logger.Debug().Str("instance", entry.Instance).Msg("discovery: entry without usable address")
				continue
			}
			b.Logger.Info().Str("instance", entry.Instance).Str("host", host).Int("port", entry.Port).Msg("discovery: resolved inspector")
			select {
			case peers <- Peer{Host: host, Port: entry.Port, Name: entry.Instance}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return resolver.Browse(ctx, b.Service, b.Domain, entries)
}
