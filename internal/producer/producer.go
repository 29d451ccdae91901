// Package producer implements the single-threaded driver loop that turns
// the index discoverer into a steady stream of queued tasks.
package producer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/discoverer"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

const producerLogCap = 200

// Config holds the driver loop's tunables, sourced from internal/config.
type Config struct {
	QueueLowThreshold       int64
	WaitCheckInterval       time.Duration
	DelayBetweenIndexes     time.Duration
	ErrorRetryDelay         time.Duration
	IndexRotationPause      time.Duration
	PortalRescanDelaySuccess time.Duration
	PortalRescanDelayIdle   time.Duration
}

// DefaultConfig returns the tunables the original pipeline shipped with.
func DefaultConfig() Config {
	return Config{
		QueueLowThreshold:        50,
		WaitCheckInterval:        5 * time.Second,
		DelayBetweenIndexes:      15 * time.Second,
		ErrorRetryDelay:          30 * time.Second,
		IndexRotationPause:       60 * time.Second,
		PortalRescanDelaySuccess: 30 * time.Second,
		PortalRescanDelayIdle:    60 * time.Second,
	}
}

// Driver is the producer's single-threaded loop: backpressure wait,
// position rotation across the archive-index catalog, and handoff to
// portal mode once the orchestrator latches.
type Driver struct {
	Store        *store.Store
	Orchestrator *discoverer.Orchestrator
	Indexes      []discoverer.IndexEntry
	Config       Config
}

// NewDriver builds a Driver.
func NewDriver(s *store.Store, o *discoverer.Orchestrator, indexes []discoverer.IndexEntry, cfg Config) *Driver {
	return &Driver{Store: s, Orchestrator: o, Indexes: indexes, Config: cfg}
}

// Run drives the producer loop until ctx is cancelled. Errors from a
// single scan are logged and the loop retries after ErrorRetryDelay;
// they never stop the loop.
func (d *Driver) Run(ctx context.Context) {
	position := d.loadPosition(ctx)
	d.logEvent(ctx, domain.LogInfo, "producer started")

	for {
		if ctx.Err() != nil {
			return
		}

		if err := d.waitForQueueDrain(ctx); err != nil {
			return
		}

		if d.Orchestrator.Latched() {
			found, err := d.Orchestrator.ScanIndex(ctx, "")
			if err != nil {
				d.logEvent(ctx, domain.LogError, "portal scan error: "+truncate(err.Error(), 100))
				if !d.sleep(ctx, d.Config.ErrorRetryDelay) {
					return
				}
				continue
			}
			if found > 0 {
				d.logEvent(ctx, domain.LogInfo, "portal scan enqueued tasks")
			}
			wait := d.Config.PortalRescanDelayIdle
			if found > 0 {
				wait = d.Config.PortalRescanDelaySuccess
			}
			if !d.sleep(ctx, wait) {
				return
			}
			continue
		}

		if len(d.Indexes) == 0 {
			d.logEvent(ctx, domain.LogError, "no archive indexes available")
			if !d.sleep(ctx, d.Config.ErrorRetryDelay) {
				return
			}
			continue
		}

		if position >= len(d.Indexes) {
			d.logEvent(ctx, domain.LogInfo, "all indexes processed, resetting position")
			position = 0
			d.savePosition(ctx, position)
			if !d.sleep(ctx, d.Config.IndexRotationPause) {
				return
			}
			continue
		}

		idx := d.Indexes[position]
		found, err := d.Orchestrator.ScanIndex(ctx, idx.ID)
		if err != nil {
			d.logEvent(ctx, domain.LogError, "index scan error: "+truncate(err.Error(), 100))
			if !d.sleep(ctx, d.Config.ErrorRetryDelay) {
				return
			}
			continue
		}
		d.logEvent(ctx, domain.LogInfo, "index "+idx.ID+" scanned")

		position++
		d.savePosition(ctx, position)

		if position < len(d.Indexes) {
			if !d.sleep(ctx, d.Config.DelayBetweenIndexes) {
				return
			}
		}
	}
}

func (d *Driver) waitForQueueDrain(ctx context.Context) error {
	for {
		n, err := d.Store.Len(ctx, store.KeyTaskQueue)
		if err != nil {
			slog.Warn("producer: queue length check failed", slog.Any("error", err))
			return nil
		}
		if n <= d.Config.QueueLowThreshold {
			return nil
		}
		d.logEvent(ctx, domain.LogInfo, "waiting for queue to drain")
		if !d.sleep(ctx, d.Config.WaitCheckInterval) {
			return ctx.Err()
		}
	}
}

func (d *Driver) loadPosition(ctx context.Context) int {
	v, ok, err := d.Store.Get(ctx, store.KeyProducerPosition)
	if err != nil || !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func (d *Driver) savePosition(ctx context.Context, position int) {
	if err := d.Store.Set(ctx, store.KeyProducerPosition, strconv.Itoa(position)); err != nil {
		slog.Warn("producer: failed to persist position", slog.Any("error", err))
	}
}

func (d *Driver) logEvent(ctx context.Context, level domain.LogLevel, msg string) {
	entry := domain.LogEntry{Timestamp: time.Now().UTC(), Level: level, Message: msg}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := d.Store.PushHeadBounded(ctx, store.KeyProducerLog, string(payload), producerLogCap); err != nil {
		slog.Warn("producer: failed to push log entry", slog.Any("error", err))
	}
}

// sleep blocks for d, returning false if ctx is cancelled first.
func (d *Driver) sleep(ctx context.Context, dur time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(dur):
		return true
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
