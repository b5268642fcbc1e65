package jobcontrol

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPointPassesThroughWhenNotPaused(t *testing.T) {
	h := newRunHandle()
	assert.NoError(t, h.CheckPoint())
}

func TestCheckPointBlocksUntilResumed(t *testing.T) {
	h := newRunHandle()
	h.pause()

	done := make(chan error, 1)
	go func() { done <- h.CheckPoint() }()

	select {
	case <-done:
		t.Fatal("CheckPoint returned before resume")
	case <-time.After(30 * time.Millisecond):
	}

	h.resume()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("CheckPoint did not unblock after resume")
	}
}

func TestCheckPointReturnsContextErrorOnStop(t *testing.T) {
	h := newRunHandle()
	h.pause()

	done := make(chan error, 1)
	go func() { done <- h.CheckPoint() }()

	h.stop()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("CheckPoint did not unblock after stop")
	}
}

func TestPauseAndResumeAreIdempotent(t *testing.T) {
	h := newRunHandle()
	h.pause()
	h.pause()
	h.resume()
	h.resume()
	assert.NoError(t, h.CheckPoint())
}
