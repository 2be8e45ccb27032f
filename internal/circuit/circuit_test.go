package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_OpensAfterThreshold(t *testing.T) {
	m := NewManager(Config{FailureThreshold: 3, Cooldown: 15 * time.Second})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := m.Do("api.example.com", func() error { return boom })
		require.ErrorIs(t, err, boom)
	}

	// Fourth call is rejected without running fn.
	ran := false
	err := m.Do("api.example.com", func() error { ran = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
	assert.True(t, m.Open("api.example.com"))
}

func TestManager_HostsAreIndependent(t *testing.T) {
	m := NewManager(Config{FailureThreshold: 2, Cooldown: time.Minute})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_ = m.Do("bad.example.com", func() error { return boom })
	}
	assert.True(t, m.Open("bad.example.com"))

	err := m.Do("good.example.com", func() error { return nil })
	assert.NoError(t, err)
	assert.False(t, m.Open("good.example.com"))
}

func TestManager_RecoversAfterCooldown(t *testing.T) {
	m := NewManager(Config{FailureThreshold: 2, Cooldown: 50 * time.Millisecond})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_ = m.Do("flaky.example.com", func() error { return boom })
	}
	require.ErrorIs(t, m.Do("flaky.example.com", func() error { return nil }), ErrCircuitOpen)

	time.Sleep(60 * time.Millisecond)

	// Probe succeeds, breaker closes and failure count is back to zero.
	require.NoError(t, m.Do("flaky.example.com", func() error { return nil }))
	assert.False(t, m.Open("flaky.example.com"))
	require.ErrorIs(t, m.Do("flaky.example.com", func() error { return boom }), boom)
	assert.False(t, m.Open("flaky.example.com"), "single failure after reset must not re-open")
}

func TestManager_SuccessResetsConsecutiveFailures(t *testing.T) {
	m := NewManager(Config{FailureThreshold: 3, Cooldown: time.Minute})
	boom := errors.New("boom")

	_ = m.Do("h", func() error { return boom })
	_ = m.Do("h", func() error { return boom })
	require.NoError(t, m.Do("h", func() error { return nil }))
	_ = m.Do("h", func() error { return boom })
	_ = m.Do("h", func() error { return boom })
	assert.False(t, m.Open("h"))
}

func TestHost(t *testing.T) {
	assert.Equal(t, "api.example.com", Host("https://api.example.com/v1/events?id=1"))
	assert.Equal(t, "api.example.com:8080", Host("http://api.example.com:8080/x"))
	assert.Equal(t, "not a url", Host("not a url"))
}
