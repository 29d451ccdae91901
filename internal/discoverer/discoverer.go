package discoverer

import (
	"context"
	"log/slog"
)

// Orchestrator composes the archive-index and portal strategies behind
// the three-strikes latch described in the index-discoverer design: once
// the primary strategy reports three consecutive zero-yield index scans,
// discovery switches to portal scraping and stays there for the life of
// the process.
type Orchestrator struct {
	Primary *ArchiveIndexSource
	Fallback *PortalSource

	zeroStreak int
	latched    bool
}

// NewOrchestrator builds an Orchestrator over the given strategies.
func NewOrchestrator(primary *ArchiveIndexSource, fallback *PortalSource) *Orchestrator {
	return &Orchestrator{Primary: primary, Fallback: fallback}
}

// Latched reports whether discovery has switched to portal mode.
func (o *Orchestrator) Latched() bool { return o.latched }

// ScanIndex runs one discovery pass for the given archive index id. While
// in primary mode it issues the CDX scan and trips the latch after three
// consecutive zero-yield results; once latched it scans every configured
// portal domain instead, ignoring indexID.
func (o *Orchestrator) ScanIndex(ctx context.Context, indexID string) (int, error) {
	if o.latched {
		return o.scanPortals(ctx), nil
	}

	total, err := o.Primary.SearchIndex(ctx, indexID)
	if err != nil {
		return total, err
	}

	if total == 0 {
		o.zeroStreak++
		if o.zeroStreak >= 3 {
			o.latched = true
			slog.Info("discovery latched to portal mode", slog.String("last_index", indexID))
		}
	} else {
		o.zeroStreak = 0
	}

	return total, nil
}

func (o *Orchestrator) scanPortals(ctx context.Context) int {
	total := 0
	for _, portal := range o.Fallback.Portals {
		count, duplicates := o.Fallback.IndexPortal(ctx, portal.Domain)
		total += count
		slog.Info("portal scan done", slog.String("domain", portal.Domain), slog.Int("enqueued", count), slog.Int("duplicates", duplicates))
	}
	return total
}
