// Package telemetry publishes and reads the pipeline's shared
// observability state: heartbeats, global counters, bounded result and
// log streams, and throughput/scalability history.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

const (
	resultHistoryCap      = 2000
	logHistoryCap         = 200
	correlationHistoryCap = 1000
	throughputHistoryCap  = 400
	metricsHistoryCap     = 500

	heartbeatTTL = 15 * time.Second

	keyLastWorkerCount = "pipeline:telemetry:last_worker_count"
)

// Recorder publishes per-worker and per-task telemetry to the
// coordination store.
type Recorder struct {
	Store    *store.Store
	WorkerID string
}

// NewRecorder builds a Recorder bound to one worker identity.
func NewRecorder(s *store.Store, workerID string) *Recorder {
	return &Recorder{Store: s, WorkerID: workerID}
}

// InitGlobalCounters seeds the global counters the first time the
// pipeline starts, leaving any existing value untouched.
func InitGlobalCounters(ctx context.Context, s *store.Store) error {
	for _, key := range []string{store.KeyGlobalProcessed, store.KeyGlobalErrors, store.KeyGlobalSkipped} {
		if _, ok, err := s.Get(ctx, key); err != nil {
			return err
		} else if !ok {
			if err := s.Set(ctx, key, "0"); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordHeartbeat publishes this worker's throughput stats with a
// refreshed TTL. When processed is 0 (the batch yielded nothing this
// cycle), the reported count falls back to the worker's cumulative
// history counter instead of resetting the dashboard to zero.
func (r *Recorder) RecordHeartbeat(ctx context.Context, rate float64, errors, processed int64) error {
	reported := processed
	if reported <= 0 {
		if v, ok, err := r.Store.Get(ctx, store.WorkerHistoryKey(r.WorkerID)); err == nil && ok {
			reported, _ = strconv.ParseInt(v, 10, 64)
		}
	}

	fields := map[string]any{
		"rate":        fmt.Sprintf("%.2f", rate),
		"last_active": time.Now().UTC().Format(time.RFC3339),
		"errors":      errors,
		"processed":   reported,
	}
	return r.Store.HashSet(ctx, store.HeartbeatKey(r.WorkerID), fields, heartbeatTTL)
}

// RecordResult pushes a processed article onto the bounded result
// stream, bumps the global processed counter, and increments this
// worker's cumulative history counter.
func (r *Recorder) RecordResult(ctx context.Context, result domain.Result) error {
	result.WorkerID = r.WorkerID
	result.ProcessedAt = time.Now().UTC()

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("telemetry: marshal result: %w", err)
	}
	if err := r.Store.PushHeadBounded(ctx, store.KeyResultStream, string(payload), resultHistoryCap); err != nil {
		return err
	}
	if _, err := r.Store.Incr(ctx, store.KeyGlobalProcessed, 1); err != nil {
		return err
	}
	if _, err := r.Store.Incr(ctx, store.WorkerHistoryKey(r.WorkerID), 1); err != nil {
		return err
	}
	return nil
}

// RecordCorrelation pushes one correlation decision onto the bounded
// correlation-history FIFO, for later scalability/accuracy inspection.
func (r *Recorder) RecordCorrelation(ctx context.Context, assignedDate string, indexValue float64) error {
	entry := map[string]any{
		"worker_id": r.WorkerID,
		"date":      assignedDate,
		"value":     indexValue,
		"ts":        time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("telemetry: marshal correlation: %w", err)
	}
	return r.Store.PushHeadBounded(ctx, store.KeyCorrelationHist, string(payload), correlationHistoryCap)
}

// RecordError bumps the global error counter.
func (r *Recorder) RecordError(ctx context.Context) error {
	_, err := r.Store.Incr(ctx, store.KeyGlobalErrors, 1)
	return err
}

// RecordSkipped bumps the global skipped counter.
func (r *Recorder) RecordSkipped(ctx context.Context) error {
	_, err := r.Store.Incr(ctx, store.KeyGlobalSkipped, 1)
	return err
}

// Workers reads every live worker heartbeat hash.
func Workers(ctx context.Context, s *store.Store) ([]domain.WorkerHeartbeat, error) {
	keys, err := s.ScanPrefix(ctx, store.KeyHeartbeatPrefix)
	if err != nil {
		return nil, err
	}

	out := make([]domain.WorkerHeartbeat, 0, len(keys))
	for _, key := range keys {
		fields, err := s.HashGetAll(ctx, key)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			continue
		}
		hb := domain.WorkerHeartbeat{WorkerID: key[len(store.KeyHeartbeatPrefix):]}
		hb.Rate, _ = strconv.ParseFloat(fields["rate"], 64)
		hb.Errors, _ = strconv.ParseInt(fields["errors"], 10, 64)
		hb.Processed, _ = strconv.ParseInt(fields["processed"], 10, 64)
		if t, err := time.Parse(time.RFC3339, fields["last_active"]); err == nil {
			hb.LastActive = t
		}
		out = append(out, hb)
	}
	return out, nil
}

// GlobalMetrics reads the monotone global counters plus the current
// queue depth.
func GlobalMetrics(ctx context.Context, s *store.Store) (domain.GlobalCounters, int64, error) {
	counters := domain.GlobalCounters{}

	read := func(key string) (int64, error) {
		v, ok, err := s.Get(ctx, key)
		if err != nil || !ok {
			return 0, err
		}
		n, _ := strconv.ParseInt(v, 10, 64)
		return n, nil
	}

	var err error
	if counters.TotalProcessed, err = read(store.KeyGlobalProcessed); err != nil {
		return counters, 0, err
	}
	if counters.TotalErrors, err = read(store.KeyGlobalErrors); err != nil {
		return counters, 0, err
	}
	if counters.TotalSkipped, err = read(store.KeyGlobalSkipped); err != nil {
		return counters, 0, err
	}

	queueLen, err := s.Len(ctx, store.KeyTaskQueue)
	if err != nil {
		return counters, 0, err
	}
	return counters, queueLen, nil
}

// Results reads up to limit entries of the bounded result-stream FIFO,
// most recent first.
func Results(ctx context.Context, s *store.Store, limit int64) ([]domain.Result, error) {
	raw, err := s.Range(ctx, store.KeyResultStream, 0, limit-1)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Result, 0, len(raw))
	for _, item := range raw {
		var r domain.Result
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ProducerLogs reads the bounded producer-log FIFO, most recent first.
func ProducerLogs(ctx context.Context, s *store.Store, limit int64) ([]domain.LogEntry, error) {
	raw, err := s.Range(ctx, store.KeyProducerLog, 0, limit-1)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LogEntry, 0, len(raw))
	for _, item := range raw {
		var e domain.LogEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
