package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

// throughputWire is the JSON shape of one throughput-history entry, kept
// separate from domain.ThroughputSnapshot so the timestamp round-trips
// as a unix epoch rather than RFC3339 (smaller, sortable as a number).
type throughputWire struct {
	TS        int64   `json:"ts"`
	Workers   int     `json:"workers"`
	Rate      float64 `json:"rate"`
	Processed int64   `json:"processed"`
}

type scalabilityWire struct {
	TS      int64   `json:"ts"`
	Workers int     `json:"workers"`
	Rate    float64 `json:"rate"`
}

// Collector periodically snapshots aggregate throughput and appends to
// the scalability-change log whenever the live worker count settles on
// a new even value — the condition the dashboard uses to compare
// worker-count configurations apples-to-apples.
type Collector struct {
	Store *store.Store
}

// NewCollector builds a Collector.
func NewCollector(s *store.Store) *Collector {
	return &Collector{Store: s}
}

// Start schedules RecordSnapshot on the given cron expression (e.g.
// "@every 30s") and runs until ctx is canceled.
func (c *Collector) Start(ctx context.Context, schedule string) error {
	sched := cron.New()
	_, err := sched.AddFunc(schedule, func() {
		if err := c.RecordSnapshot(ctx); err != nil {
			slog.Warn("telemetry: snapshot failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return err
	}
	sched.Start()
	go func() {
		<-ctx.Done()
		sched.Stop()
	}()
	return nil
}

// RecordSnapshot appends one throughput-history entry and, when the
// live worker count just changed to a new even number, one
// scalability-change entry priced at the current aggregate rate (or, when
// that rate is zero, the average of recent history for that count).
func (c *Collector) RecordSnapshot(ctx context.Context) error {
	workers, err := Workers(ctx, c.Store)
	if err != nil {
		return err
	}
	counters, _, err := GlobalMetrics(ctx, c.Store)
	if err != nil {
		return err
	}

	numWorkers := len(workers)
	var totalRate float64
	for _, w := range workers {
		totalRate += w.Rate
	}

	now := time.Now().UTC()
	snapshot := throughputWire{
		TS:        now.Unix(),
		Workers:   numWorkers,
		Rate:      round2(totalRate),
		Processed: counters.TotalProcessed,
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := c.Store.PushHeadBounded(ctx, store.KeyThroughputHist, string(payload), throughputHistoryCap); err != nil {
		return err
	}

	if numWorkers == 0 || numWorkers%2 != 0 {
		return nil
	}

	lastRaw, ok, err := c.Store.Get(ctx, keyLastWorkerCount)
	if err != nil {
		return err
	}
	if ok {
		if last, err := strconv.Atoi(lastRaw); err == nil && last == numWorkers {
			return nil
		}
	}

	effectiveRate := totalRate
	if effectiveRate <= 0 {
		effectiveRate, err = c.recentAverageRate(ctx, numWorkers)
		if err != nil {
			return err
		}
	}

	change := scalabilityWire{TS: now.Unix(), Workers: numWorkers, Rate: round2(effectiveRate)}
	changePayload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	if err := c.Store.PushHeadBounded(ctx, store.KeyScalabilityLog, string(changePayload), 0); err != nil {
		return err
	}
	return c.Store.Set(ctx, keyLastWorkerCount, strconv.Itoa(numWorkers))
}

func (c *Collector) recentAverageRate(ctx context.Context, numWorkers int) (float64, error) {
	raw, err := c.Store.Range(ctx, store.KeyThroughputHist, 0, 50)
	if err != nil {
		return 0, err
	}
	var sum float64
	var n int
	for _, item := range raw {
		var snap throughputWire
		if err := json.Unmarshal([]byte(item), &snap); err != nil {
			continue
		}
		if snap.Workers == numWorkers && snap.Rate > 0 {
			sum += snap.Rate
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// ThroughputHistory returns snapshots from the last `window`.
func ThroughputHistory(ctx context.Context, s *store.Store, window time.Duration) ([]domain.ThroughputSnapshot, error) {
	raw, err := s.Range(ctx, store.KeyThroughputHist, 0, -1)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().UTC().Add(-window).Unix()

	out := make([]domain.ThroughputSnapshot, 0, len(raw))
	for _, item := range raw {
		var snap throughputWire
		if err := json.Unmarshal([]byte(item), &snap); err != nil {
			continue
		}
		if snap.TS < cutoff {
			continue
		}
		out = append(out, domain.ThroughputSnapshot{
			Timestamp:      time.Unix(snap.TS, 0).UTC(),
			ActiveWorkers:  snap.Workers,
			AggregateRate:  snap.Rate,
			ProcessedTotal: snap.Processed,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ScalabilityReport holds the recorded worker-count changes the dashboard
// renders, plus the per-worker baseline rate their speedup is measured
// against.
type ScalabilityReport struct {
	Changes      []domain.ScalabilityChange
	BaselineRate float64
}

// ScalabilityMetrics returns every recorded worker-count change with a
// positive rate, oldest first, and the baseline rate: rate/workers of the
// change with the fewest workers. It does not compute speedup or
// efficiency itself; domain.ScalabilityChange.Speedup and Efficiency
// derive them from a change and this baseline.
func ScalabilityMetrics(ctx context.Context, s *store.Store) (ScalabilityReport, error) {
	raw, err := s.Range(ctx, store.KeyScalabilityLog, 0, -1)
	if err != nil {
		return ScalabilityReport{}, err
	}

	var changes []domain.ScalabilityChange
	for _, item := range raw {
		var w scalabilityWire
		if err := json.Unmarshal([]byte(item), &w); err != nil {
			continue
		}
		if w.Rate <= 0 {
			continue
		}
		changes = append(changes, domain.ScalabilityChange{
			Timestamp:   time.Unix(w.TS, 0).UTC(),
			WorkerCount: w.Workers,
			Rate:        w.Rate,
		})
	}
	if len(changes) == 0 {
		return ScalabilityReport{}, nil
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Timestamp.Before(changes[j].Timestamp) })

	baseline := changes[0]
	for _, ch := range changes {
		if ch.WorkerCount < baseline.WorkerCount {
			baseline = ch
		}
	}
	baselineRate := 1.0
	if baseline.WorkerCount > 0 {
		baselineRate = baseline.Rate / float64(baseline.WorkerCount)
	}

	return ScalabilityReport{Changes: changes, BaselineRate: round2(baselineRate)}, nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
