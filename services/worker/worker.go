// Package worker runs the scrape pipeline on a fixed interval.
package worker

import (
	"context"
	"errors"
	"time"

	"mzohaib/bankdealworker/internal/pipeline"
	"mzohaib/bankdealworker/logger"
)

// Runner is the unit of work the worker drives
type Runner interface {
	RunFullScrape(ctx context.Context) (int, error)
}

// Worker triggers scrape rounds until its context is cancelled
type Worker struct {
	runner   Runner
	interval time.Duration
	log      *logger.Logger
}

// New creates a worker
func New(runner Runner, interval time.Duration) *Worker {
	return &Worker{
		runner:   runner,
		interval: interval,
		log:      logger.ForComponent("worker"),
	}
}

// Start launches the scrape loop in a goroutine. The first round runs
// immediately; later rounds run every interval. Returns a channel closed
// when the loop exits.
func (w *Worker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.log.Info().Dur("interval", w.interval).Msg("Scrape worker started")

		for {
			w.runOnce(ctx)
			select {
			case <-ctx.Done():
				w.log.Info().Msg("Scrape worker stopping")
				return
			case <-time.After(w.interval):
			}
		}
	}()
	return done
}

func (w *Worker) runOnce(ctx context.Context) {
	_, err := w.runner.RunFullScrape(ctx)
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrRunInProgress):
		w.log.Warn().Msg("Previous scrape round still running, skipping this tick")
	default:
		w.log.Error().Err(err).Msg("Scrape round failed")
	}
}
