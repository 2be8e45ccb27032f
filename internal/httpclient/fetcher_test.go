package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportsettle/sportsettle/internal/circuit"
)

func fastRetry() RetryPolicy {
	return RetryPolicy{Retries: 2, InitialDelay: 5 * time.Millisecond, Factor: 2}
}

func newTestFetcher(breakerCfg circuit.Config) *Fetcher {
	cfg := DefaultConfig()
	cfg.HostRPS = 1000
	cfg.HostBurst = 1000
	return New(cfg, circuit.NewManager(breakerCfg))
}

func TestFetchJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		w.Write([]byte(`{"events":[{"id":1}]}`))
	}))
	defer srv.Close()

	f := newTestFetcher(circuit.DefaultConfig())
	payload, err := f.FetchJSON(context.Background(), "test", srv.URL, map[string]string{"Authorization": "Bearer sekrit"}, fastRetry())
	require.NoError(t, err)

	obj, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, obj, "events")
}

func TestFetchJSON_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := newTestFetcher(circuit.DefaultConfig())
	_, err := f.FetchJSON(context.Background(), "test", srv.URL, nil, fastRetry())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchJSON_DecodeErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	f := newTestFetcher(circuit.DefaultConfig())
	_, err := f.FetchJSON(context.Background(), "test", srv.URL, nil, fastRetry())
	require.Error(t, err)
	fe, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindDecode, fe.Kind)
}

func TestFetchJSON_BreakerOpensAndSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(circuit.Config{FailureThreshold: 3, Cooldown: 15 * time.Second})
	retry := RetryPolicy{Retries: 0, InitialDelay: time.Millisecond, Factor: 2}

	// Three terminal failures open the breaker.
	for i := 0; i < 3; i++ {
		_, err := f.FetchJSON(context.Background(), "test", srv.URL, nil, retry)
		require.Error(t, err)
	}
	before := atomic.LoadInt32(&calls)

	_, err := f.FetchJSON(context.Background(), "test", srv.URL, nil, retry)
	require.Error(t, err)
	fe, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindCircuitOpen, fe.Kind)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "open breaker must not issue a request")
}

func TestFetchJSON_BreakerRecoveryAfterCooldown(t *testing.T) {
	var fail int32 = 1
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&fail) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := newTestFetcher(circuit.Config{FailureThreshold: 2, Cooldown: 40 * time.Millisecond})
	retry := RetryPolicy{Retries: 0, InitialDelay: time.Millisecond, Factor: 2}

	for i := 0; i < 2; i++ {
		_, err := f.FetchJSON(context.Background(), "test", srv.URL, nil, retry)
		require.Error(t, err)
	}
	_, err := f.FetchJSON(context.Background(), "test", srv.URL, nil, retry)
	fe := err.(*Error)
	require.Equal(t, KindCircuitOpen, fe.Kind)

	atomic.StoreInt32(&fail, 0)
	time.Sleep(50 * time.Millisecond)

	_, err = f.FetchJSON(context.Background(), "test", srv.URL, nil, retry)
	require.NoError(t, err)
	assert.False(t, f.Breakers().Open(circuit.Host(srv.URL)))
}

func TestFetchJSON_CanceledBeforeStartSkipsBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := newTestFetcher(circuit.Config{FailureThreshold: 1, Cooldown: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchJSON(ctx, "test", srv.URL, nil, fastRetry())
	require.Error(t, err)
	fe := err.(*Error)
	assert.Equal(t, KindCanceled, fe.Kind)
	assert.False(t, f.Breakers().Open(circuit.Host(srv.URL)), "pre-start cancel must not count toward breaker")
}
