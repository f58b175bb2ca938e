package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	sched := NewTickerScheduler(5*time.Minute, clock)

	var runs atomic.Int32
	ran := make(chan struct{}, 8)
	job := func(context.Context) {
		runs.Add(1)
		ran <- struct{}{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, sched.Start(ctx, job))
	<-ran

	clock.Advance(5 * time.Minute)
	<-ran
	clock.Advance(5 * time.Minute)
	<-ran

	require.NoError(t, sched.Stop(ctx))
	assert.Equal(t, int32(3), runs.Load())
}

func TestTickerScheduler_StartTwiceIsNoop(t *testing.T) {
	t.Parallel()

	sched := NewTickerScheduler(time.Hour, clockwork.NewFakeClock())
	ran := make(chan struct{}, 4)
	job := func(context.Context) { ran <- struct{}{} }

	require.NoError(t, sched.Start(context.Background(), job))
	require.NoError(t, sched.Start(context.Background(), job))
	<-ran

	require.NoError(t, sched.Stop(context.Background()))
	assert.Len(t, ran, 0)
	require.NoError(t, sched.Stop(context.Background()))
}

func TestTickerScheduler_ZeroIntervalDoesNothing(t *testing.T) {
	t.Parallel()

	sched := NewTickerScheduler(0, nil)
	require.NoError(t, sched.Start(context.Background(), func(context.Context) { t.Fatal("must not run") }))
	require.NoError(t, sched.Stop(context.Background()))
}
