package whatsapp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleFirstCallDoesNotSleep(t *testing.T) {
	th := newThrottle()
	var slept []time.Duration
	th.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, th.wait(context.Background(), opSend))
	assert.Empty(t, slept)
}

func TestThrottleEnforcesSpacing(t *testing.T) {
	th := newThrottle()
	var slept []time.Duration
	th.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, th.wait(context.Background(), opSend))
	require.NoError(t, th.wait(context.Background(), opSend))

	require.Len(t, slept, 1)
	assert.Greater(t, slept[0], time.Duration(0))
	assert.LessOrEqual(t, slept[0], 2*time.Second)
}

func TestThrottleCategoriesAreIndependent(t *testing.T) {
	th := newThrottle()
	var slept []time.Duration
	th.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, th.wait(context.Background(), opSend))
	require.NoError(t, th.wait(context.Background(), opGroupList))
	assert.Empty(t, slept, "first call in each category is free")
}

func TestThrottleHonorsCancelledContext(t *testing.T) {
	th := newThrottle()

	require.NoError(t, th.wait(context.Background(), opQRCode))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := th.wait(ctx, opQRCode)
	assert.ErrorIs(t, err, context.Canceled)
}
