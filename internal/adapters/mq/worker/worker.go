// Package worker runs the background consumers that turn queued score
// reports into recorded seeding scores and fresh rankings.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tannerhall/bracketeer/internal/domain/model"
	"github.com/tannerhall/bracketeer/pkg/logger"
	"github.com/tannerhall/bracketeer/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// Report is what workers read off the queue.
type Report = model.ScoreReport

// Recorder persists one seeding-match score for a team.
type Recorder interface {
	RecordSeedScore(ctx context.Context, teamID uuid.UUID, score float64) error
}

// Ranker recomputes and persists the full seeding ranking.
type Ranker interface {
	RecomputeRankings(ctx context.Context) error
}

// Queue defines how workers receive reports.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Report
}

// Worker processes score reports until its context ends.
type Worker struct {
	queue    Queue
	recorder Recorder
	ranker   Ranker
	name     string

	done chan struct{}

	log logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(queue Queue, recorder Recorder, ranker Ranker, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		recorder: recorder,
		ranker:   ranker,
		name:     "worker",
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = logger.Named(w.name)
	return w
}

// Run consumes reports until the context is canceled or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	reports := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-reports:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				metrics.RecordReportError()
				w.log.Error(ctx, "score report failed",
					logger.String("reportID", r.ReportID),
					logger.Error(err),
				)
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, r Report) error {
	start := time.Now()
	defer func() {
		metrics.ObserveWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.recorder.RecordSeedScore(ctx, r.TeamID, r.Score); err != nil {
		return fmt.Errorf("record score for team %s: %w", r.TeamID, err)
	}
	if err := w.ranker.RecomputeRankings(ctx); err != nil {
		return fmt.Errorf("recompute rankings: %w", err)
	}
	metrics.RecordReportAccepted()
	return nil
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*Worker
}

// NewPool creates workerCount workers sharing the queue and collaborators.
func NewPool(workerCount int, queue Queue, recorder Recorder, ranker Ranker) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{workers: make([]*Worker, workerCount)}
	for i := range p.workers {
		p.workers[i] = NewWorker(queue, recorder, ranker, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop waits for workers to drain, bounded per worker.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(shutdownTimeout):
		}
	}
	metrics.UpdateWorkerCount(0)
}
