// Package httpclient implements the retrying JSON fetcher used by the
// provider fan-out. Every outbound request flows through a per-host rate
// limiter and circuit breaker; failures surface as typed kinds, never panics.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sportsettle/sportsettle/internal/circuit"
	"github.com/sportsettle/sportsettle/internal/metrics"
)

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	KindCircuitOpen ErrorKind = "circuit_open"
	KindTransport   ErrorKind = "transport"
	KindHTTPStatus  ErrorKind = "http_status"
	KindDecode      ErrorKind = "decode"
	KindCanceled    ErrorKind = "canceled"
)

// Error is a terminal fetch failure. It never wraps a panic; the fetcher's
// contract is fail kinds across the boundary.
type Error struct {
	Kind   ErrorKind
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (HTTP %d)", e.URL, e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// RetryPolicy controls the exponential backoff loop. Attempt i waits
// InitialDelay * Factor^(i-1) before retrying.
type RetryPolicy struct {
	Retries      int
	InitialDelay time.Duration
	Factor       float64
}

// DefaultRetry is two retries starting at 300ms, doubling.
func DefaultRetry() RetryPolicy {
	return RetryPolicy{Retries: 2, InitialDelay: 300 * time.Millisecond, Factor: 2}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 300 * time.Millisecond
	}
	if p.Factor < 1 {
		p.Factor = 2
	}
	return p
}

// Config holds fetcher-wide settings.
type Config struct {
	Timeout   time.Duration // transport timeout per request
	HostRPS   float64       // per-host request pacing
	HostBurst int
	UserAgent string
}

// DefaultConfig mirrors the provider defaults: 15s transport timeout and
// gentle per-host pacing.
func DefaultConfig() Config {
	return Config{Timeout: 15 * time.Second, HostRPS: 5, HostBurst: 10}
}

// Fetcher retrieves JSON documents with retry, pacing and breaker
// protection. Safe for concurrent use.
type Fetcher struct {
	config   Config
	client   *http.Client
	breakers *circuit.Manager

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Fetcher around the given breaker manager.
func New(config Config, breakers *circuit.Manager) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.HostRPS <= 0 {
		config.HostRPS = 5
	}
	if config.HostBurst <= 0 {
		config.HostBurst = 10
	}
	if breakers == nil {
		breakers = circuit.NewManager(circuit.DefaultConfig())
	}
	return &Fetcher{
		config:   config,
		client:   &http.Client{Timeout: config.Timeout},
		breakers: breakers,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Breakers exposes the manager so callers can pre-check host state.
func (f *Fetcher) Breakers() *circuit.Manager { return f.breakers }

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(f.config.HostRPS), f.config.HostBurst)
	f.limiters[host] = l
	return l
}

// FetchJSON retrieves url and decodes the body. One breaker record is made
// per call: the whole retry loop counts as a single failure or success. A
// context cancelled before the first attempt began does not touch the
// breaker.
func (f *Fetcher) FetchJSON(ctx context.Context, provider, url string, headers map[string]string, retry RetryPolicy) (any, error) {
	host := circuit.Host(url)
	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		metrics.FetchTotal.WithLabelValues(provider, string(KindCanceled)).Inc()
		return nil, &Error{Kind: KindCanceled, URL: url, Err: err}
	}
	if err := f.limiter(host).Wait(ctx); err != nil {
		metrics.FetchTotal.WithLabelValues(provider, string(KindCanceled)).Inc()
		return nil, &Error{Kind: KindCanceled, URL: url, Err: err}
	}

	var payload any
	err := f.breakers.Do(host, func() error {
		var err error
		payload, err = f.fetchWithRetry(ctx, url, headers, retry.normalized())
		return err
	})
	if err == circuit.ErrCircuitOpen {
		metrics.FetchTotal.WithLabelValues(provider, string(KindCircuitOpen)).Inc()
		return nil, &Error{Kind: KindCircuitOpen, URL: url, Err: err}
	}
	if err != nil {
		if fe, ok := err.(*Error); ok {
			metrics.FetchTotal.WithLabelValues(provider, string(fe.Kind)).Inc()
			return nil, fe
		}
		metrics.FetchTotal.WithLabelValues(provider, string(KindTransport)).Inc()
		return nil, &Error{Kind: KindTransport, URL: url, Err: err}
	}
	metrics.FetchTotal.WithLabelValues(provider, "ok").Inc()
	return payload, nil
}

// fetchWithRetry runs the attempt loop. Any non-2xx status, transport error
// or decode error counts as a failed attempt.
func (f *Fetcher) fetchWithRetry(ctx context.Context, url string, headers map[string]string, retry RetryPolicy) (any, error) {
	var lastErr *Error
	for attempt := 0; attempt <= retry.Retries; attempt++ {
		if attempt > 0 {
			delay := retry.InitialDelay
			for i := 1; i < attempt; i++ {
				delay = time.Duration(float64(delay) * retry.Factor)
			}
			log.Debug().
				Dur("backoff", delay).
				Int("attempt", attempt).
				Str("url", url).
				Msg("retrying fetch")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &Error{Kind: KindCanceled, URL: url, Err: ctx.Err()}
			}
		}

		payload, err := f.attempt(ctx, url, headers)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		if err.Kind == KindCanceled {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *Fetcher) attempt(ctx context.Context, url string, headers map[string]string) (any, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Kind: KindCanceled, URL: url, Err: ctx.Err()}
		}
		return nil, &Error{Kind: KindTransport, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{Kind: KindHTTPStatus, URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, URL: url, Err: err}
	}

	var payload any
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Kind: KindDecode, URL: url, Err: err}
	}
	return payload, nil
}
