// Package circuit maintains one circuit breaker per upstream host. Cells are
// created lazily and never evicted; the host set is small and bounded.
package circuit

import (
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/sportsettle/sportsettle/internal/metrics"
)

// ErrCircuitOpen is returned when a host's breaker rejects a call without
// issuing a request.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds per-host breaker parameters.
type Config struct {
	FailureThreshold int           // Consecutive failures to open
	Cooldown         time.Duration // Open duration before a probe is allowed
}

// DefaultConfig mirrors the fetcher defaults: open after 3 consecutive
// failures, allow a probe after 15 seconds.
func DefaultConfig() Config {
	return Config{FailureThreshold: 3, Cooldown: 15 * time.Second}
}

// Manager owns the process-wide host -> breaker map. The map mutex guards
// lookup only; each breaker carries its own lock, so hosts stay independent.
type Manager struct {
	config Config
	mu     sync.Mutex
	cells  map[string]*gobreaker.CircuitBreaker
}

// NewManager creates a breaker manager with the given cell configuration.
func NewManager(config Config) *Manager {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 3
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 15 * time.Second
	}
	return &Manager{
		config: config,
		cells:  make(map[string]*gobreaker.CircuitBreaker),
	}
}

// cell returns the breaker for host, creating it on first use.
func (m *Manager) cell(host string) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, ok := m.cells[host]; ok {
		return cb
	}

	threshold := uint32(m.config.FailureThreshold)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1, // single probe after cooldown
		Timeout:     m.config.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Debug().
				Str("host", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			if to == gobreaker.StateOpen {
				metrics.BreakerOpens.WithLabelValues(name).Inc()
			}
		},
	})
	m.cells[host] = cb
	return cb
}

// Do runs fn under host's breaker. When the breaker is open (or the half-open
// probe slot is taken) fn is not invoked and ErrCircuitOpen is returned.
// fn's error is passed through and counted against the breaker.
func (m *Manager) Do(host string, fn func() error) error {
	_, err := m.cell(host).Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// Open reports whether host's breaker currently rejects calls.
func (m *Manager) Open(host string) bool {
	return m.cell(host).State() == gobreaker.StateOpen
}

// Host extracts the breaker key from a URL. Malformed URLs key on the raw
// string so they still share one cell.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
