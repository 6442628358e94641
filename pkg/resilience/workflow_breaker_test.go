package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failed")

func TestExecute_NilBreakerRunsDirectly(t *testing.T) {
	got, err := Execute(nil, func() (int, error) { return 7, nil })

	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestExecute_TripsAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", FailureThreshold: 3, OpenTimeout: time.Hour})
	calls := 0
	fail := func() (string, error) {
		calls++
		return "", errUpstream
	}

	for i := 0; i < 3; i++ {
		_, err := Execute(b, fail)
		assert.ErrorIs(t, err, errUpstream)
		assert.False(t, IsRejection(err))
	}
	assert.Equal(t, "open", b.State())

	_, err := Execute(b, fail)
	assert.True(t, IsRejection(err))
	assert.Equal(t, 3, calls, "open breaker must not invoke the call")
}

func TestExecute_SuccessResetsFailureStreak(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "streak", FailureThreshold: 2})

	_, _ = Execute(b, func() (int, error) { return 0, errUpstream })
	_, _ = Execute(b, func() (int, error) { return 1, nil })
	_, _ = Execute(b, func() (int, error) { return 0, errUpstream })

	assert.Equal(t, "closed", b.State())
	assert.Equal(t, "streak", b.Name())
}

func TestExecute_HalfOpenTrialCloses(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "half-open", FailureThreshold: 1, OpenTimeout: 20 * time.Millisecond})

	_, _ = Execute(b, func() (int, error) { return 0, errUpstream })
	require.Equal(t, "open", b.State())

	time.Sleep(40 * time.Millisecond)
	got, err := Execute(b, func() (int, error) { return 42, nil })

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, "closed", b.State())
}
