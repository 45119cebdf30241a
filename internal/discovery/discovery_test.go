package discovery

import (
	"context"
	"io"
	"testing"
	"time"

	obs "github.com/ProxymanApp/atlantis-go/internal/infrastructure/observability"
)

func TestMatchesFilter(t *testing.T) {
	cases := []struct {
		name   string
		filter string
		want   bool
	}{
		{"Proxyman-mac-mini.local", "mac-mini.local", true},
		{"Proxyman-imac.local", "mac-mini.local", false},
		{"Proxyman-Mac-Mini.local.", "mac-mini.local", true},
		{"Proxyman-mac-mini.local", "MAC-MINI.LOCAL.", true},
		{"anything", "", true},
		{"", "mac-mini", false},
	}
	for _, c := range cases {
		if got := MatchesFilter(c.name, c.filter); got != c.want {
			t.Fatalf("MatchesFilter(%q, %q) = %v, want %v", c.name, c.filter, got, c.want)
		}
	}
}

func TestIsEmulator(t *testing.T) {
	emulated := []string{
		"google/sdk_gphone_x86/generic_x86:11",
		"ranchu",
		"Android SDK built for goldfish",
		"iOS Simulator",
		"innotek GmbH VirtualBox vbox86p",
	}
	for _, fp := range emulated {
		if !IsEmulator(fp) {
			t.Fatalf("IsEmulator(%q) = false, want true", fp)
		}
	}
	physical := []string{
		"samsung/beyond1lte/SM-G973F:12",
		"google/raven/raven:13",
		"",
	}
	for _, fp := range physical {
		if IsEmulator(fp) {
			t.Fatalf("IsEmulator(%q) = true, want false", fp)
		}
	}
}

func TestDirectYieldsFixedPeer(t *testing.T) {
	log := obs.NewLoggerTo(io.Discard, "error")
	d := NewDirect("", 0, log)
	peers := make(chan Peer, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Discover(ctx, peers); err != nil {
		t.Fatalf("discover: %v", err)
	}
	p := <-peers
	if p.Host != DirectHost || p.Port != DirectPort {
		t.Fatalf("peer = %+v, want %s:%d", p, DirectHost, DirectPort)
	}
}

func TestDirectHonorsCancellation(t *testing.T) {
	log := obs.NewLoggerTo(io.Discard, "error")
	d := NewDirect("10.0.2.2", 10909, log)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// unbuffered channel with no reader: only cancellation can release it
	if err := d.Discover(ctx, make(chan Peer)); err == nil {
		t.Fatalf("expected ctx error after cancellation")
	}
}
