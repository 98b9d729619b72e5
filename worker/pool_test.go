package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoolRunsJobs(t *testing.T) {
	p := NewPool(Config{Workers: 3, QueueSize: 10}, zap.NewNop())

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(Job{Name: "count", Run: func(context.Context) error {
			ran.Add(1)
			return nil
		}}))
	}
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Equal(t, int32(10), ran.Load())
	assert.Equal(t, int64(10), p.Stats().Completed)
}

func TestPoolCountsFailuresAndPanics(t *testing.T) {
	p := NewPool(Config{Workers: 1, QueueSize: 4}, zap.NewNop())

	require.NoError(t, p.Submit(Job{Name: "fail", Run: func(context.Context) error { return errors.New("boom") }}))
	require.NoError(t, p.Submit(Job{Name: "panic", Run: func(context.Context) error { panic("oops") }}))
	require.NoError(t, p.Submit(Job{Name: "ok", Run: func(context.Context) error { return nil }}))
	require.NoError(t, p.Shutdown(context.Background()))

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Failed)
	assert.Equal(t, int64(1), stats.Completed)
}

func TestPoolRejectsWhenFull(t *testing.T) {
	p := NewPool(Config{Workers: 1, QueueSize: 1}, zap.NewNop())

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(Job{Name: "block", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started

	require.NoError(t, p.Submit(Job{Name: "queued", Run: func(context.Context) error { return nil }}))
	assert.ErrorIs(t, p.Submit(Job{Name: "overflow", Run: func(context.Context) error { return nil }}), ErrQueueFull)
	assert.Equal(t, int64(1), p.Stats().Rejected)

	close(release)
	require.NoError(t, p.Shutdown(context.Background()))
	assert.ErrorIs(t, p.Submit(Job{Name: "late"}), ErrClosed)
}

func TestShutdownCancelsRunningJobsOnDeadline(t *testing.T) {
	p := NewPool(Config{Workers: 1, QueueSize: 1, JobTimeout: time.Minute}, zap.NewNop())

	started := make(chan struct{})
	require.NoError(t, p.Submit(Job{Name: "slow", Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)
	assert.Equal(t, int64(1), p.Stats().Failed)
	assert.NoError(t, p.Shutdown(context.Background()))
}
