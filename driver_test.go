package wstask

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChannelDriver_ParkTimeoutZeroIsNonBlocking(t *testing.T) {
	d := NewChannelDriver()
	start := time.Now()
	require := assert.New(t)
	require.NoError(d.ParkTimeout(0))
	require.Less(time.Since(start), 100*time.Millisecond)
}

func TestChannelDriver_UnparkWakesPark(t *testing.T) {
	d := NewChannelDriver()
	done := make(chan error, 1)
	go func() { done <- d.Park() }()

	// Give the parker a moment to actually block before waking it, so this
	// isn't just racing Unpark's buffered-channel fast path.
	time.Sleep(10 * time.Millisecond)
	d.Unpark()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Unpark did not wake a parked Park call")
	}
}

func TestChannelDriver_ParkTimeoutExpiresWithoutUnpark(t *testing.T) {
	d := NewChannelDriver()
	start := time.Now()
	require := assert.New(t)
	require.NoError(d.ParkTimeout(20 * time.Millisecond))
	require.GreaterOrEqual(time.Since(start), 15*time.Millisecond)
}

func TestChannelDriver_ShutdownUnparksAndIsIdempotent(t *testing.T) {
	d := NewChannelDriver()
	require := assert.New(t)
	require.NoError(d.Shutdown())
	require.NoError(d.Shutdown(), "a second Shutdown is harmless")
	// A Park call after Shutdown's Unpark should return immediately,
	// consuming the buffered wake.
	start := time.Now()
	require.NoError(d.ParkTimeout(time.Second))
	require.Less(time.Since(start), 500*time.Millisecond)
}
