package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithBackoffSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), testConfig(), zap.NewNop(), "test op", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithBackoffExhaustsAttempts(t *testing.T) {
	attempts := 0
	cause := errors.New("still broken")
	err := WithBackoff(context.Background(), testConfig(), zap.NewNop(), "test op", func() error {
		attempts++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.True(t, errors.Is(err, cause))
}

func TestWithBackoffStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithBackoff(ctx, testConfig(), zap.NewNop(), "test op", func() error {
		return errors.New("never succeeds")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
