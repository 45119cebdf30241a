package capture

import (
	"bytes"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ProxymanApp/atlantis-go/internal/domain"
	"github.com/ProxymanApp/atlantis-go/internal/infrastructure/config"
	"github.com/ProxymanApp/atlantis-go/pkg/shared/id"
	"github.com/ProxymanApp/atlantis-go/pkg/shared/redact"
)

// Transport wraps an http.RoundTripper and captures every exchange passing
// through it. The underlying exchange is never altered or failed by capture.
type Transport struct {
	base    http.RoundTripper
	sender  Sender
	log     *zerolog.Logger
	bodyMax int
	redact  bool
}

func NewTransport(base http.RoundTripper, sender Sender, cfg config.Config, log *zerolog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	bodyMax := cfg.BodyMaxBytes
	if bodyMax <= 0 || bodyMax > domain.MaxBodySize {
		bodyMax = domain.MaxBodySize
	}
	return &Transport{base: base, sender: sender, log: log, bodyMax: bodyMax, redact: cfg.RedactBodies}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	pkg := domain.TrafficPackage{
		ID:          id.New(),
		StartAt:     domain.Now(),
		PackageType: domain.PackageTypeHTTP,
	}
	safely(t.log, "request", func() {
		pkg.Request = t.captureRequest(req)
	})

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		safely(t.log, "error", func() {
			pkg.EndAt = domain.Now()
			pkg.Error = &domain.PackageError{Code: -1, Message: err.Error()}
			t.emit(pkg)
		})
		return resp, err
	}

	safely(t.log, "response", func() {
		pkg.Response = &domain.Response{StatusCode: resp.StatusCode, Headers: domain.HeadersFromHTTP(resp.Header)}
		// The package ships once the application has consumed (or closed)
		// the response body, so the captured body matches what it saw.
		resp.Body = newBodyRecorder(resp.Body, t.bodyMax, func(body []byte, overflow bool) {
			safely(t.log, "emit", func() {
				pkg.EndAt = domain.Now()
				if overflow {
					pkg.ResponseBodyData = []byte(domain.TruncatedBodyPlaceholder)
				} else {
					pkg.ResponseBodyData = t.processBody(body)
				}
				t.emit(pkg)
			})
		})
	})
	return resp, nil
}

// captureRequest snapshots URL, method, headers and body. One-shot streaming
// bodies are buffered and replayed so the real request is untouched.
func (t *Transport) captureRequest(req *http.Request) *domain.Request {
	r := &domain.Request{
		URL:     req.URL.String(),
		Method:  req.Method,
		Headers: domain.HeadersFromHTTP(req.Header),
	}
	if req.Body == nil || req.Body == http.NoBody {
		return r
	}
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return r
		}
		data, err := io.ReadAll(io.LimitReader(rc, int64(t.bodyMax)+1))
		_ = rc.Close()
		if err == nil {
			r.Body = t.boundedBody(data)
		}
		return r
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		// can't replay a half-read body; let the transport surface the error
		req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(data), errReader{err}))
		return r
	}
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(data))
	r.Body = t.boundedBody(data)
	return r
}

func (t *Transport) boundedBody(data []byte) []byte {
	if len(data) > t.bodyMax {
		return []byte(domain.TruncatedBodyPlaceholder)
	}
	return t.processBody(data)
}

func (t *Transport) processBody(body []byte) []byte {
	if len(body) == 0 {
		return body
	}
	if t.redact {
		body = redact.JSON(body)
	}
	return domain.CapBody(body)
}

func (t *Transport) emit(pkg domain.TrafficPackage) {
	msg, err := domain.NewTrafficMessage(t.sender.SessionID(), pkg)
	if err != nil {
		t.log.Debug().Err(err).Msg("capture: traffic package encode failed, skipping")
		return
	}
	t.sender.Send(msg)
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

// bodyRecorder tees the response body into a bounded buffer and fires
// onDone exactly once when the body is fully read or closed.
type bodyRecorder struct {
	rc       io.ReadCloser
	buf      bytes.Buffer
	max      int
	overflow bool
	once     sync.Once
	onDone   func(body []byte, overflow bool)
}

func newBodyRecorder(rc io.ReadCloser, max int, onDone func([]byte, bool)) *bodyRecorder {
	return &bodyRecorder{rc: rc, max: max, onDone: onDone}
}

func (b *bodyRecorder) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if n > 0 {
		if !b.overflow && b.buf.Len()+n <= b.max {
			b.buf.Write(p[:n])
		} else {
			b.overflow = true
		}
	}
	if err != nil {
		b.finish()
	}
	return n, err
}

func (b *bodyRecorder) Close() error {
	err := b.rc.Close()
	b.finish()
	return err
}

func (b *bodyRecorder) finish() {
	b.once.Do(func() {
		b.onDone(b.buf.Bytes(), b.overflow)
	})
}
