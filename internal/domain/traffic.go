package domain

import (
	"net/http"
	"sort"
	"strings"
)

type PackageType string

const (
	PackageTypeHTTP      PackageType = "http"
	PackageTypeWebsocket PackageType = "websocket"
)

// MaxBodySize is the hard cap for any single captured body. Bodies above it
// are replaced with a placeholder instead of being shipped whole.
const MaxBodySize = 50 << 20 // 52,428,800 bytes

// TruncatedBodyPlaceholder replaces bodies above MaxBodySize.
const TruncatedBodyPlaceholder = "<body too large to capture>"

// Header is one request/response header pair. Order is preserved and
// duplicate names are joined with "," before they reach the wire.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Request struct {
	URL     string   `json:"url"`
	Method  string   `json:"method"`
	Headers []Header `json:"headers"`
	Body    []byte   `json:"body"`
}

type Response struct {
	StatusCode int      `json:"statusCode"`
	Headers    []Header `json:"headers"`
}

// PackageError carries a transport-level failure of the captured exchange
// (not of the capture itself).
type PackageError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TrafficPackage is one HTTP exchange or one WebSocket connection lifecycle
// record. For WebSocket connections many per-frame snapshots share one ID;
// snapshots are derived with WithWebsocketMessage and never alias each other.
type TrafficPackage struct {
	ID               string                   `json:"id"`
	StartAt          float64                  `json:"startAt"`
	Request          *Request                 `json:"request"`
	Response         *Response                `json:"response"`
	Error            *PackageError            `json:"error"`
	ResponseBodyData []byte                   `json:"responseBodyData"`
	EndAt            float64                  `json:"endAt"`
	PackageType      PackageType              `json:"packageType"`
	WebsocketMessage *WebsocketMessagePackage `json:"websocketMessagePackage"`
}

// WithWebsocketMessage derives an independent per-frame snapshot of p.
// All reference fields are copied so mutating the snapshot (or the base)
// never shows through on the other.
func (p TrafficPackage) WithWebsocketMessage(msg WebsocketMessagePackage) TrafficPackage {
	cp := p
	cp.Request = p.Request.clone()
	cp.Response = p.Response.clone()
	if p.Error != nil {
		e := *p.Error
		cp.Error = &e
	}
	cp.ResponseBodyData = cloneBytes(p.ResponseBodyData)
	m := msg.clone()
	cp.WebsocketMessage = &m
	cp.EndAt = msg.CreatedAt
	return cp
}

// CapBody enforces MaxBodySize, replacing oversize payloads with the
// placeholder. Bodies of exactly MaxBodySize pass unchanged.
func CapBody(body []byte) []byte {
	if len(body) > MaxBodySize {
		return []byte(TruncatedBodyPlaceholder)
	}
	return body
}

// HeadersFromHTTP flattens an http.Header map into the ordered wire list.
// Keys are sorted for a stable order; duplicate values join with ",".
func HeadersFromHTTP(h http.Header) []Header {
	if len(h) == 0 {
		return nil
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Header, 0, len(keys))
	for _, k := range keys {
		out = append(out, Header{Key: k, Value: strings.Join(h[k], ",")})
	}
	return out
}

func (r *Request) clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Headers = append([]Header(nil), r.Headers...)
	cp.Body = cloneBytes(r.Body)
	return &cp
}

func (r *Response) clone() *Response {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Headers = append([]Header(nil), r.Headers...)
	return &cp
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
