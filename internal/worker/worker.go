// Package worker implements the batch-claim engine: a bounded parallel
// pool that drains the task queue, runs the fetch/extract/correlate
// pipeline, and reports heartbeats and results.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

// Processor runs the fetch/extract/correlate pipeline for a single task.
// A nil result with a nil error means the task was validly skipped
// (e.g. correlator had nothing to assign, or extracted text was too
// short); only a non-nil error counts against the error counter.
type Processor interface {
	Process(ctx context.Context, task domain.Task) (*domain.Result, error)
}

// Engine is one worker process's batch-claim loop.
type Engine struct {
	Store              *store.Store
	Processor          Processor
	WorkerID           string
	BatchSize          int
	MaxThreads         int
	BlockingPopTimeout time.Duration
	HeartbeatTTL       time.Duration

	// OnResult, if set, is called for every non-skipped result, in the
	// goroutine that drains completions (never concurrently).
	OnResult func(ctx context.Context, result domain.Result)

	processed int64
	errors    int64
	start     time.Time
}

// NewEngine builds an Engine with the given dependencies. Defaults match
// the batch-engine design: BatchSize 4, MaxThreads 4, 2s blocking-pop
// timeout, 15s heartbeat TTL.
func NewEngine(s *store.Store, p Processor, workerID string) *Engine {
	return &Engine{
		Store:              s,
		Processor:          p,
		WorkerID:           workerID,
		BatchSize:          4,
		MaxThreads:         4,
		BlockingPopTimeout: 2 * time.Second,
		HeartbeatTTL:       15 * time.Second,
	}
}

// Run drives the batch-claim loop until ctx is cancelled. The active
// batch always completes before Run returns; no task is re-queued.
func (e *Engine) Run(ctx context.Context) {
	e.start = time.Now()
	e.refreshHeartbeat(context.WithoutCancel(ctx))

	for {
		if ctx.Err() != nil {
			return
		}

		batch := e.claimBatch(ctx)
		if len(batch) == 0 {
			continue
		}

		results := e.runBatch(ctx, batch)
		for _, outcome := range results {
			e.processed++
			if outcome.err != nil {
				e.errors++
				slog.Warn("worker: task failed", slog.String("worker_id", e.WorkerID), slog.Any("error", outcome.err))
			} else {
				if _, err := e.Store.Incr(ctx, store.WorkerHistoryKey(e.WorkerID), 1); err != nil {
					slog.Warn("worker: history counter update failed", slog.String("worker_id", e.WorkerID), slog.Any("error", err))
				}
			}
			e.refreshHeartbeat(context.WithoutCancel(ctx))

			if outcome.result != nil && e.OnResult != nil {
				e.OnResult(ctx, *outcome.result)
			}
		}
	}
}

// claimBatch attempts up to BatchSize non-blocking pops; if none
// succeed, it falls back to one blocking pop with a short timeout. On
// timeout (truly empty queue) it refreshes the heartbeat so the worker
// stays visible even when idle.
func (e *Engine) claimBatch(ctx context.Context) []string {
	var batch []string
	for i := 0; i < e.BatchSize; i++ {
		v, ok, err := e.Store.PopHead(ctx, store.KeyTaskQueue)
		if err != nil {
			slog.Warn("worker: pop failed", slog.Any("error", err))
			break
		}
		if !ok {
			break
		}
		batch = append(batch, v)
	}
	if len(batch) > 0 {
		return batch
	}

	v, ok, err := e.Store.PopHeadBlocking(ctx, store.KeyTaskQueue, e.BlockingPopTimeout)
	if err != nil {
		slog.Warn("worker: blocking pop failed", slog.Any("error", err))
		return nil
	}
	if !ok {
		e.refreshHeartbeat(context.WithoutCancel(ctx))
		return nil
	}
	return []string{v}
}

type taskOutcome struct {
	result *domain.Result
	err    error
}

// runBatch submits every task in the batch to a bounded parallel pool
// and returns outcomes in completion order.
func (e *Engine) runBatch(ctx context.Context, batch []string) []taskOutcome {
	maxThreads := e.MaxThreads
	if maxThreads <= 0 {
		maxThreads = 1
	}

	sem := make(chan struct{}, maxThreads)
	outcomes := make(chan taskOutcome, len(batch))
	var wg sync.WaitGroup

	for _, raw := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(raw string) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes <- e.processOne(ctx, raw)
		}(raw)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make([]taskOutcome, 0, len(batch))
	for o := range outcomes {
		results = append(results, o)
	}
	return results
}

func (e *Engine) processOne(ctx context.Context, raw string) taskOutcome {
	var task domain.Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return taskOutcome{err: err}
	}

	result, err := e.Processor.Process(ctx, task)
	if err != nil {
		return taskOutcome{err: err}
	}
	return taskOutcome{result: result}
}

// refreshHeartbeat publishes this process's throughput stats. When this
// process hasn't completed any task yet (a fresh restart, most commonly)
// it reports the worker identity's cumulative history count instead of
// flashing zero on the dashboard.
func (e *Engine) refreshHeartbeat(ctx context.Context) {
	elapsed := time.Since(e.start).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(e.processed) / elapsed * 60
	}

	reported := e.processed
	if reported <= 0 {
		if v, ok, err := e.Store.Get(ctx, store.WorkerHistoryKey(e.WorkerID)); err == nil && ok {
			if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				reported = n
			}
		}
	}

	fields := map[string]any{
		"rate":        rate,
		"errors":      e.errors,
		"processed":   reported,
		"last_active": time.Now().UTC().Format(time.RFC3339),
	}
	if err := e.Store.HashSet(ctx, store.HeartbeatKey(e.WorkerID), fields, e.HeartbeatTTL); err != nil {
		slog.Warn("worker: heartbeat refresh failed", slog.String("worker_id", e.WorkerID), slog.Any("error", err))
	}
}
