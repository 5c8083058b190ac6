// Package httputil provides shared HTTP utilities with connection pooling
// and safe response handling for outbound detector and embedding calls.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize is the default maximum size for reading HTTP response
// bodies. External classifier endpoints are untrusted; an unbounded read
// would let a broken service exhaust memory.
const MaxResponseSize = 4 * 1024 * 1024 // 4MB

// Shared transport with connection pooling. Safe for concurrent use;
// reusing TCP connections matters when every scan may hit a detector.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier defines standard timeout categories for outbound calls.
type TimeoutTier int

const (
	// TierFast for health checks and blacklist refreshes (5s)
	TierFast TimeoutTier = iota
	// TierDetector for external classification calls (15s). This is the
	// outer bound; per-request context deadlines are usually tighter.
	TierDetector
	// TierSlow for embedding backfills and model downloads (60s)
	TierSlow
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:     5 * time.Second,
	TierDetector: 15 * time.Second,
	TierSlow:     60 * time.Second,
}

// Singleton clients per tier - initialized once, reused everywhere.
var (
	clientFast     *http.Client
	clientDetector *http.Client
	clientSlow     *http.Client
	clientOnce     sync.Once
)

func initClients() {
	clientFast = &http.Client{Timeout: timeoutDurations[TierFast], Transport: sharedTransport}
	clientDetector = &http.Client{Timeout: timeoutDurations[TierDetector], Transport: sharedTransport}
	clientSlow = &http.Client{Timeout: timeoutDurations[TierSlow], Transport: sharedTransport}
}

// Client returns the shared HTTP client for the given timeout tier.
// Use these instead of constructing http.Client per request so all
// callers share one connection pool.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	switch tier {
	case TierFast:
		return clientFast
	case TierSlow:
		return clientSlow
	default:
		return clientDetector
	}
}

// FastClient returns a client with a 5s timeout.
func FastClient() *http.Client {
	return Client(TierFast)
}

// DetectorClient returns a client with a 15s timeout for classifier calls.
func DetectorClient() *http.Client {
	return Client(TierDetector)
}

// SlowClient returns a client with a 60s timeout.
func SlowClient() *http.Client {
	return Client(TierSlow)
}

// ReadResponseBody reads an HTTP response body with a size limit.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// DrainAndClose drains and closes a response body so the underlying
// connection can return to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
