// Package transporter streams capture messages from the host application to
// the desktop inspector over a private TCP channel. It owns peer discovery,
// the single socket, reconnect/backoff and the bounded outbound queue.
// Nothing in here may ever block or fail the application's real traffic.
package transporter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ProxymanApp/atlantis-go/internal/discovery"
	"github.com/ProxymanApp/atlantis-go/internal/domain"
	"github.com/ProxymanApp/atlantis-go/internal/infrastructure/config"
	obs "github.com/ProxymanApp/atlantis-go/internal/infrastructure/observability"
)

// ConnectionListener observes connection-state transitions. Single slot:
// setting a new listener replaces the previous one.
type ConnectionListener interface {
	OnConnected(host string, port int)
	OnDisconnected()
	OnConnectionFailed(reason error)
}

// Options wires the transporter's dependencies. Logger and Metrics are
// required; Discoverer overrides the start-time strategy probe (tests and
// the demo binary use it).
type Options struct {
	Config     config.Config
	Logger     *zerolog.Logger
	Metrics    *obs.Metrics
	Discoverer discovery.Discoverer
}

// Transporter is the public capture transport. Construct with New at the
// application's composition root; there is no package-level singleton.
type Transporter struct {
	cfg        config.Config
	log        *zerolog.Logger
	metrics    *obs.Metrics
	discoverer discovery.Discoverer

	queue *sendQueue
	conn  *connManager

	mu      sync.Mutex
	started bool
	session domain.Configuration
	cancel  context.CancelFunc
	done    chan struct{}
	cmds    chan *domain.Message

	lmu      sync.Mutex
	listener ConnectionListener
}

func New(opts Options) *Transporter {
	cfg := opts.Config
	return &Transporter{
		cfg:        cfg,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		discoverer: opts.Discoverer,
		queue:      newSendQueue(cfg.QueueCapacity),
		conn:       newConnManager(cfg.ConnectTimeout, opts.Logger, opts.Metrics),
	}
}

// SetListener registers the single connection-status observer. Passing nil
// unregisters. Callers unregister before tearing down their own state.
func (t *Transporter) SetListener(l ConnectionListener) {
	t.lmu.Lock()
	t.listener = l
	t.lmu.Unlock()
}

// SessionID returns the stable id messages are stamped with. Empty before
// Start.
func (t *Transporter) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.ID
}

// State reports the current connection state.
func (t *Transporter) State() State { return t.conn.State() }

// Start begins discovery and connection maintenance in the background and
// returns immediately. Idempotent: a second Start without an intervening
// Stop is a logged no-op — that includes the terminal direct-mode failure
// state, so recovering from StateFailed takes a Stop followed by a new
// Start.
func (t *Transporter) Start(session domain.Configuration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		t.log.Warn().Msg("transporter: already started, ignoring")
		return
	}
	t.session = session

	disc := t.discoverer
	if disc == nil {
		if t.cfg.ForceDirect || discovery.IsEmulator(session.Fingerprint) {
			disc = discovery.NewDirect(t.cfg.DirectHost, t.cfg.DirectPort, t.log)
		} else {
			filter := session.HostnameFilter
			if filter == "" {
				filter = t.cfg.HostnameFilter
			}
			b := discovery.NewBonjour(filter, t.log)
			b.Service = t.cfg.ServiceType
			disc = b
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	cmds := make(chan *domain.Message, 64)
	t.cancel = cancel
	t.done = done
	t.cmds = cmds
	t.started = true
	// run gets its channels as parameters so a worker shutting down can
	// never touch the channels of a newer Start
	go t.run(ctx, disc, cmds, done)
	t.log.Info().Str("session", session.ID).Msg("transporter: started")
}

// Stop cancels discovery, pending retries and any in-flight connect, closes
// the socket and clears the outbound queue. Idempotent. Returns after the
// worker has shut down, so listener notifications are done when it does and
// a subsequent Start begins from a clean slate (fresh retry budget included).
func (t *Transporter) Stop() {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.started = false
	cancel := t.cancel
	done := t.done
	t.mu.Unlock()

	cancel()
	<-done
	t.queue.Clear()
	t.metrics.QueueDepth.Set(0)
	t.log.Info().Msg("transporter: stopped")
}

// Send transmits m when connected, queues it otherwise. Safe from any
// goroutine, never blocks on network I/O and never reports failure to the
// caller; the connection listener is the only failure signal.
func (t *Transporter) Send(m *domain.Message) {
	if m == nil {
		return
	}
	t.mu.Lock()
	started := t.started
	cmds := t.cmds
	t.mu.Unlock()

	if started && t.conn.State() == StateConnected {
		select {
		case cmds <- m:
			return
		default:
			// worker is busy; fall through to the queue
		}
	}
	t.enqueue(m)
}

func (t *Transporter) enqueue(m *domain.Message) {
	if t.queue.Enqueue(m) {
		t.metrics.QueueEvictions.Inc()
	}
	t.metrics.QueueDepth.Set(float64(t.queue.Len()))
}

// run is the single-writer worker: every socket and state mutation happens
// here. Discovery callbacks, sends and retry timers are all marshaled into
// this loop.
func (t *Transporter) run(ctx context.Context, disc discovery.Discoverer, cmds chan *domain.Message, done chan struct{}) {
	defer close(done)

	_, directMode := disc.(*discovery.Direct)

	peers := make(chan discovery.Peer, 4)
	t.conn.setState(StateDiscovering)
	go func() {
		if err := disc.Discover(ctx, peers); err != nil && ctx.Err() == nil {
			t.log.Error().Err(err).Msg("transporter: discovery error")
			t.metrics.ConnectErrorsTotal.WithLabelValues("discovery").Inc()
			t.notifyFailed(fmt.Errorf("discovery: %w", err))
		}
	}()

	var (
		lastPeer       discovery.Peer
		attempts       int
		retryC         <-chan time.Time
		failedNotified bool
	)

	handleIOFailure := func(err error) {
		t.conn.close(StateDisconnected)
		t.metrics.ConnectErrorsTotal.WithLabelValues("io").Inc()
		t.log.Warn().Err(err).Msg("transporter: connection lost")
		t.notifyDisconnected()
		if directMode {
			attempts = 0
			retryC = time.After(t.cfg.RetryDelay)
		}
		// discovery mode: wait for the next resolved peer
	}

	connect := func(p discovery.Peer) {
		lastPeer = p
		if err := t.conn.dial(ctx, p); err != nil {
			if ctx.Err() != nil {
				return
			}
			t.conn.setState(StateDisconnected)
			t.log.Warn().Err(err).Str("host", p.Host).Int("port", p.Port).Msg("transporter: connect failed")
			if !directMode {
				return
			}
			attempts++
			if attempts >= t.cfg.MaxRetries {
				t.conn.setState(StateFailed)
				if !failedNotified {
					failedNotified = true
					t.notifyFailed(fmt.Errorf("giving up after %d connect attempts: %w", attempts, err))
				}
				retryC = nil
				return
			}
			retryC = time.After(t.cfg.RetryDelay)
			return
		}

		attempts = 0
		retryC = nil
		failedNotified = false
		t.notifyConnected(p)

		// Identify the session before any traffic flows, then flush
		// everything that piled up while we were away.
		hello, err := domain.NewConnectionMessage(t.session)
		if err != nil {
			t.log.Error().Err(err).Msg("transporter: connection message encode failed")
		} else if err := t.conn.write(hello); err != nil && !isSkippable(err) {
			handleIOFailure(err)
			return
		}
		t.flushQueue(handleIOFailure)
	}

	flushTicker := time.NewTicker(time.Second)
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			wasConnected := t.conn.State() == StateConnected
			t.conn.close(StateIdle)
			if wasConnected {
				t.notifyDisconnected()
			}
			return

		case p := <-peers:
			if t.conn.State() == StateConnected {
				// already talking to an inspector; a newly advertised
				// peer does not preempt the live connection
				continue
			}
			connect(p)

		case <-retryC:
			retryC = nil
			connect(lastPeer)

		case m := <-cmds:
			t.deliver(m, handleIOFailure)

		case <-flushTicker.C:
			if t.conn.State() == StateConnected && t.queue.Len() > 0 {
				t.flushQueue(handleIOFailure)
			}
		}
	}
}

// deliver writes one message coming off the fast path. Anything that
// overflowed into the queue while the worker was busy goes out first, so a
// send burst cannot reorder messages on the wire.
func (t *Transporter) deliver(m *domain.Message, onFailure func(error)) {
	if t.conn.State() != StateConnected {
		t.enqueue(m)
		return
	}
	if t.queue.Len() > 0 {
		t.flushQueue(onFailure)
		if t.conn.State() != StateConnected {
			t.enqueue(m)
			return
		}
	}
	if err := t.conn.write(m); err != nil {
		if isSkippable(err) {
			t.log.Debug().Err(err).Msg("transporter: dropping unsendable message")
			return
		}
		t.queue.PushFront(m)
		t.metrics.QueueDepth.Set(float64(t.queue.Len()))
		onFailure(err)
	}
}

// flushQueue drains the outbound queue FIFO onto the socket, stopping at the
// first I/O failure (the failed entry stays queued).
func (t *Transporter) flushQueue(onFailure func(error)) {
	err := t.queue.DrainInto(func(m *domain.Message) error {
		werr := t.conn.write(m)
		if werr != nil && isSkippable(werr) {
			t.log.Debug().Err(werr).Msg("transporter: dropping unsendable message")
			return nil
		}
		return werr
	})
	t.metrics.QueueDepth.Set(float64(t.queue.Len()))
	if err != nil {
		onFailure(err)
	}
}

func (t *Transporter) notifyConnected(p discovery.Peer) {
	if l := t.currentListener(); l != nil {
		l.OnConnected(p.Host, p.Port)
	}
}

func (t *Transporter) notifyDisconnected() {
	if l := t.currentListener(); l != nil {
		l.OnDisconnected()
	}
}

func (t *Transporter) notifyFailed(reason error) {
	if l := t.currentListener(); l != nil {
		l.OnConnectionFailed(reason)
	}
}

func (t *Transporter) currentListener() ConnectionListener {
	t.lmu.Lock()
	defer t.lmu.Unlock()
	return t.listener
}
