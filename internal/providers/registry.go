package providers

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sportsettle/sportsettle/internal/cache"
	"github.com/sportsettle/sportsettle/internal/circuit"
	"github.com/sportsettle/sportsettle/internal/domain"
	"github.com/sportsettle/sportsettle/internal/httpclient"
)

// Registry resolves provider specs to envelopes. Env lookup is injectable
// for tests; everything else is shared, immutable state.
type Registry struct {
	specs   []Spec
	fetcher *httpclient.Fetcher
	cache   *cache.Cache
	rss     *RSSClient
	getenv  func(string) string
	retry   httpclient.RetryPolicy
}

// Option configures a Registry.
type Option func(*Registry)

// WithGetenv substitutes the environment lookup (tests).
func WithGetenv(getenv func(string) string) Option {
	return func(r *Registry) { r.getenv = getenv }
}

// WithCache attaches an optional payload cache.
func WithCache(c *cache.Cache) Option {
	return func(r *Registry) { r.cache = c }
}

// WithSpecs replaces the default provider table.
func WithSpecs(specs []Spec) Option {
	return func(r *Registry) { r.specs = specs }
}

// WithRetry sets the registry-wide retry policy. A provider spec's own
// Retry still takes precedence for that provider.
func WithRetry(retry httpclient.RetryPolicy) Option {
	return func(r *Registry) { r.retry = retry }
}

// NewRegistry builds a registry over the default provider table.
func NewRegistry(fetcher *httpclient.Fetcher, opts ...Option) *Registry {
	r := &Registry{
		specs:   Defaults(),
		fetcher: fetcher,
		rss:     NewRSSClient(),
		getenv:  os.Getenv,
		retry:   httpclient.DefaultRetry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Specs returns the full provider table.
func (r *Registry) Specs() []Spec { return r.specs }

// For returns the specs serving the given pipeline.
func (r *Registry) For(p Pipeline) []Spec {
	var out []Spec
	for _, s := range r.specs {
		if s.Pipelines&p != 0 {
			out = append(out, s)
		}
	}
	return out
}

// Configured reports whether a spec's base URL (and key, when declared) are
// present in the environment.
func (r *Registry) Configured(s Spec) (ok bool, reason string) {
	if r.getenv(s.BaseURLEnv) == "" {
		return false, "base url not configured (" + s.BaseURLEnv + ")"
	}
	if s.APIKeyEnv != "" && r.getenv(s.APIKeyEnv) == "" {
		return false, "api key not configured (" + s.APIKeyEnv + ")"
	}
	return true, ""
}

// Fetch issues one provider request and wraps the result in an envelope.
// Never returns an error: failures and skips are recorded on the envelope so
// the fan-out can always join a full result set.
func (r *Registry) Fetch(ctx context.Context, s Spec, params Params) domain.ProviderResponse {
	env := domain.ProviderResponse{
		Provider:    s.Key,
		Tier:        s.Tier,
		Weight:      Weight(s.Tier),
		CollectedAt: time.Now(),
	}

	ok, reason := r.Configured(s)
	if !ok {
		env.Skipped = true
		env.SkipReason = reason
		return env
	}

	base := r.getenv(s.BaseURLEnv)
	apiKey := ""
	if s.APIKeyEnv != "" {
		apiKey = r.getenv(s.APIKeyEnv)
	}

	url := ""
	if s.ComposeURL != nil {
		url = s.ComposeURL(base, apiKey, params)
	} else {
		url = composeURL(base, s.Path, params.Encode())
	}

	var headers map[string]string
	if s.BuildHeaders != nil {
		headers = s.BuildHeaders(apiKey)
	} else {
		headers = bearerHeaders(apiKey)
	}

	env.Meta = map[string]string{"host": circuit.Host(url)}

	if payload, hit := r.cache.Get(ctx, url); hit {
		env.Payload = payload
		env.Meta["cache"] = "hit"
		return env
	}

	retry := r.retry
	if s.Retry != nil {
		retry = *s.Retry
	}

	payload, err := r.fetcher.FetchJSON(ctx, s.Key, url, headers, retry)
	if err != nil {
		log.Warn().Err(err).Str("provider", s.Key).Msg("provider fetch failed")
		env.Err = err.Error()
		if fe, isFetch := err.(*httpclient.Error); isFetch && fe.Kind == httpclient.KindCircuitOpen {
			env.Skipped = true
			env.SkipReason = "circuit open for " + env.Meta["host"]
		}
		return env
	}

	env.Payload = payload
	r.cache.Set(ctx, url, payload)
	return env
}

// FetchRSS fetches every configured feed and returns one envelope per feed.
// Feeds come from SPORTS_RSS_FEEDS (comma-separated) with built-in defaults.
func (r *Registry) FetchRSS(ctx context.Context) []domain.ProviderResponse {
	return r.rss.FetchAll(ctx, Feeds(r.getenv))
}
