package integration

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ProxymanApp/atlantis-go/internal/capture"
	"github.com/ProxymanApp/atlantis-go/internal/discovery"
	"github.com/ProxymanApp/atlantis-go/internal/domain"
	"github.com/ProxymanApp/atlantis-go/internal/infrastructure/config"
	obs "github.com/ProxymanApp/atlantis-go/internal/infrastructure/observability"
	"github.com/ProxymanApp/atlantis-go/internal/transporter"
	"github.com/ProxymanApp/atlantis-go/internal/wire"
)

// inspector is the desktop side of the private channel, reduced to what the
// tests need: accept, decode, collect.
type inspector struct {
	ln   net.Listener
	msgs chan domain.Message
}

func startInspector(t *testing.T) *inspector {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ins := &inspector{ln: ln, msgs: make(chan domain.Message, 256)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				for {
					payload, err := wire.ReadFrame(c)
					if err != nil {
						return
					}
					raw, err := wire.DecodePayload(payload)
					if err != nil {
						continue
					}
					var m domain.Message
					if json.Unmarshal(raw, &m) == nil {
						ins.msgs <- m
					}
				}
			}(conn)
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return ins
}

func (i *inspector) port() int { return i.ln.Addr().(*net.TCPAddr).Port }

func (i *inspector) next(t *testing.T) domain.Message {
	t.Helper()
	select {
	case m := <-i.msgs:
		return m
	case <-time.After(5 * time.Second):
		t.Fatalf("inspector timed out waiting for a message")
		return domain.Message{}
	}
}

func startAgent(t *testing.T, ins *inspector) (*transporter.Transporter, config.Config) {
	t.Helper()
	log := obs.NewLoggerTo(io.Discard, "error")
	cfg := config.Config{
		ConnectTimeout: 2 * time.Second,
		RetryDelay:     30 * time.Millisecond,
		MaxRetries:     5,
		QueueCapacity:  50,
		BodyMaxBytes:   1 << 20,
	}
	agent := transporter.New(transporter.Options{
		Config:     cfg,
		Logger:     log,
		Metrics:    obs.NewMetrics(),
		Discoverer: discovery.NewDirect("127.0.0.1", ins.port(), log),
	})
	agent.Start(domain.NewConfiguration("integration", "host", "test-rig", "com.example.it"))
	t.Cleanup(agent.Stop)
	return agent, cfg
}

func TestCapturedHTTPTrafficReachesInspector(t *testing.T) {
	ins := startInspector(t)
	agent, cfg := startAgent(t, ins)

	hello := ins.next(t)
	if hello.MessageType != domain.MessageTypeConnection {
		t.Fatalf("first message = %s, want connection", hello.MessageType)
	}
	if hello.ID != "com.example.it-test-rig" {
		t.Fatalf("session id on the wire = %q", hello.ID)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	log := obs.NewLoggerTo(io.Discard, "error")
	client := &http.Client{Transport: capture.NewTransport(http.DefaultTransport, agent, cfg, log)}
	resp, err := client.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("application response = %q", body)
	}

	m := ins.next(t)
	if m.MessageType != domain.MessageTypeTraffic {
		t.Fatalf("message type = %s, want traffic", m.MessageType)
	}
	var pkg domain.TrafficPackage
	if err := json.Unmarshal(m.Content, &pkg); err != nil {
		t.Fatalf("content: %v", err)
	}
	if string(pkg.ResponseBodyData) != "pong" || pkg.Response.StatusCode != http.StatusOK {
		t.Fatalf("captured exchange wrong: %+v", pkg)
	}
}

func TestOfflineBufferReplaysInOrder(t *testing.T) {
	// agent starts before any inspector exists
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	log := obs.NewLoggerTo(io.Discard, "error")
	cfg := config.Config{
		ConnectTimeout: 2 * time.Second,
		RetryDelay:     80 * time.Millisecond,
		MaxRetries:     50,
		QueueCapacity:  10,
	}
	agent := transporter.New(transporter.Options{
		Config:     cfg,
		Logger:     log,
		Metrics:    obs.NewMetrics(),
		Discoverer: discovery.NewDirect("127.0.0.1", port, log),
	})
	agent.Start(domain.NewConfiguration("integration", "host", "test-rig", "com.example.it"))
	defer agent.Stop()

	for i := 0; i < 3; i++ {
		m, _ := domain.NewTrafficMessage(agent.SessionID(), domain.TrafficPackage{ID: string(rune('a' + i))})
		agent.Send(m)
	}

	// inspector appears late, on the port the agent keeps retrying
	lateLn, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		t.Skipf("retry port got reused: %v", err)
	}
	ins := &inspector{ln: lateLn, msgs: make(chan domain.Message, 64)}
	go func() {
		conn, err := lateLn.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			payload, err := wire.ReadFrame(conn)
			if err != nil {
				return
			}
			raw, derr := wire.DecodePayload(payload)
			if derr != nil {
				continue
			}
			var m domain.Message
			if json.Unmarshal(raw, &m) == nil {
				ins.msgs <- m
			}
		}
	}()
	defer lateLn.Close()

	if got := ins.next(t); got.MessageType != domain.MessageTypeConnection {
		t.Fatalf("first replayed message = %s, want connection", got.MessageType)
	}
	for i := 0; i < 3; i++ {
		m := ins.next(t)
		var pkg domain.TrafficPackage
		if err := json.Unmarshal(m.Content, &pkg); err != nil {
			t.Fatalf("content: %v", err)
		}
		if pkg.ID != string(rune('a'+i)) {
			t.Fatalf("replay order broken at %d: got %q", i, pkg.ID)
		}
	}
}
