package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"artmarket/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerRefreshesUntilCancelled(t *testing.T) {
	l, err := logger.CreateLogger("error")
	require.NoError(t, err)

	var calls int32
	p := NewPoller(10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, l)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}

func TestPollerSurvivesRefreshErrors(t *testing.T) {
	l, err := logger.CreateLogger("error")
	require.NoError(t, err)

	var calls int32
	p := NewPoller(10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("backend down")
	}, l)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	// One failure per tick, no early exit.
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}
