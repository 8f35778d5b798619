package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mzohaib/bankdealworker/internal/pipeline"
)

type countingRunner struct {
	runs atomic.Int32
	err  error
}

func (r *countingRunner) RunFullScrape(ctx context.Context) (int, error) {
	r.runs.Add(1)
	return 0, r.err
}

func TestWorkerRunsImmediatelyAndStops(t *testing.T) {
	runner := &countingRunner{}
	w := New(runner, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := w.Start(ctx)

	assert.Eventually(t, func() bool { return runner.runs.Load() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestWorkerRepeatsOnInterval(t *testing.T) {
	runner := &countingRunner{}
	w := New(runner, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 3 }, time.Second, 10*time.Millisecond)
}

func TestWorkerToleratesBusyPipeline(t *testing.T) {
	runner := &countingRunner{err: pipeline.ErrRunInProgress}
	w := New(runner, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := w.Start(ctx)

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
