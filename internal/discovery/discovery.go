// Package discovery resolves the desktop inspector's address. Physical
// devices browse the local network over mDNS; emulators dial a fixed
// loopback-forwarding address because multicast rarely survives an emulated
// network stack.
package discovery

import (
	"context"
	"strings"
)

// Default endpoints of the desktop inspector.
const (
	// ServiceType is the well-known mDNS service advertised by the inspector.
	ServiceType = "_Proxyman._tcp"
	// ServiceDomain is the mDNS browse domain.
	ServiceDomain = "local."
	// DirectHost is the emulator's loopback-forwarding address for the host
	// machine (10.0.2.2 on the Android emulator).
	DirectHost = "10.0.2.2"
	// DirectPort is the fixed TCP port the inspector listens on.
	DirectPort = 10909
)

// Peer is one resolved inspector endpoint.
type Peer struct {
	Host string
	Port int
	Name string
}

// Discoverer yields resolved peers on the given channel until ctx is done.
// Implementations never panic across this boundary; failures come back as
// the return value.
type Discoverer interface {
	Discover(ctx context.Context, peers chan<- Peer) error
}

// MatchesFilter reports whether a discovered instance name passes the
// configured hostname filter. Matching is case-insensitive substring with
// trailing dots stripped on both sides; an empty filter accepts everything.
func MatchesFilter(name, filter string) bool {
	if filter == "" {
		return true
	}
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	filter = strings.ToLower(strings.TrimSuffix(filter, "."))
	return strings.Contains(name, filter)
}
