// Package worker consumes scoring jobs from the queue and publishes their
// outcome.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/soltixdb/sst/internal/logging"
	"github.com/soltixdb/sst/internal/models"
	"github.com/soltixdb/sst/internal/queue"
)

// ErrStopped is returned for jobs delivered after Stop began; they are left
// unacknowledged.
var ErrStopped = errors.New("worker: stopped")

// JobProcessor scores one job
type JobProcessor interface {
	ProcessJob(ctx context.Context, job *models.ScoreJob) models.JobResult
}

// Config contains configuration for the worker
type Config struct {
	JobSubject    string
	ResultSubject string // empty disables result publishing
	Concurrency   int
}

// Worker runs jobs from JobSubject on at most Concurrency goroutines.
// Messages are acknowledged once a slot is taken; failures are reported in
// the published JobResult, not by redelivery.
type Worker struct {
	config    Config
	logger    *logging.Logger
	processor JobProcessor
	sub       queue.Subscriber
	pub       queue.Publisher

	slots chan struct{}

	// mu orders wg.Add in handle against wg.Wait in Stop
	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a worker. Call Start to begin consuming.
func New(cfg Config, logger *logging.Logger, processor JobProcessor, sub queue.Subscriber, pub queue.Publisher) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		config:    cfg,
		logger:    logger.Component("worker"),
		processor: processor,
		sub:       sub,
		pub:       pub,
		slots:     make(chan struct{}, cfg.Concurrency),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start subscribes to the job subject
func (w *Worker) Start() error {
	if err := w.sub.Subscribe(w.config.JobSubject, w.handle); err != nil {
		return err
	}
	w.logger.Info("Worker started",
		"job_subject", w.config.JobSubject,
		"result_subject", w.config.ResultSubject,
		"concurrency", w.config.Concurrency)
	return nil
}

// Stop unsubscribes and waits for running jobs
func (w *Worker) Stop() {
	w.mu.Lock()
	w.stopping = true
	w.mu.Unlock()

	if err := w.sub.Unsubscribe(w.config.JobSubject); err != nil {
		w.logger.Warn("Failed to unsubscribe worker", "subject", w.config.JobSubject, "error", err)
	}
	w.wg.Wait()
	w.cancel()
	w.logger.Info("Worker stopped")
}

func (w *Worker) handle(ctx context.Context, data []byte) error {
	w.mu.Lock()
	if w.stopping {
		w.mu.Unlock()
		return ErrStopped
	}
	w.wg.Add(1)
	w.mu.Unlock()

	var job models.ScoreJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.wg.Done()
		// poison message, redelivery cannot help
		w.logger.Error("Dropping undecodable job", "error", err, "bytes", len(data))
		return nil
	}

	select {
	case w.slots <- struct{}{}:
	case <-ctx.Done():
		w.wg.Done()
		return ctx.Err()
	case <-w.ctx.Done():
		w.wg.Done()
		return w.ctx.Err()
	}

	go func() {
		defer w.wg.Done()
		defer func() { <-w.slots }()
		w.run(&job)
	}()
	return nil
}

func (w *Worker) run(job *models.ScoreJob) {
	logger := w.logger.With("job_id", job.ID)
	logger.Debug("Processing job")

	result := w.processor.ProcessJob(w.ctx, job)

	if w.pub == nil || w.config.ResultSubject == "" {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		logger.Error("Failed to encode job result", "error", err)
		return
	}
	if err := w.pub.Publish(w.ctx, w.config.ResultSubject, data); err != nil {
		logger.Error("Failed to publish job result", "subject", w.config.ResultSubject, "error", err)
		return
	}
	logger.Debug("Job result published", "status", result.Status)
}
