package producer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/discoverer"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.New(rdb)
}

func TestDriverPositionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	cfg := DefaultConfig()
	d := NewDriver(s, nil, nil, cfg)

	require.Equal(t, 0, d.loadPosition(context.Background()))
	d.savePosition(context.Background(), 7)
	require.Equal(t, 7, d.loadPosition(context.Background()))
}

func TestDriverWaitForQueueDrainReturnsWhenLow(t *testing.T) {
	s := newTestStore(t)
	cfg := DefaultConfig()
	cfg.WaitCheckInterval = 10 * time.Millisecond
	cfg.QueueLowThreshold = 50
	d := NewDriver(s, nil, nil, cfg)

	err := d.waitForQueueDrain(context.Background())
	require.NoError(t, err)
}

func TestDriverAdvancesPositionAcrossIndexes(t *testing.T) {
	ndjson := "" // no records -> zero-yield scan every time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(ndjson))
	}))
	defer srv.Close()

	s := newTestStore(t)
	primary := discoverer.NewArchiveIndexSource(s, srv.Client(), srv.URL, []string{"eltiempo.com"}, nil, nil, time.Millisecond)
	fallback := discoverer.NewPortalSource(s, http.DefaultClient, nil, nil)
	fallback.Portals = nil
	o := discoverer.NewOrchestrator(primary, fallback)

	indexes := []discoverer.IndexEntry{{ID: "CC-MAIN-2024-51"}, {ID: "CC-MAIN-2024-46"}}
	cfg := DefaultConfig()
	cfg.DelayBetweenIndexes = time.Millisecond
	cfg.ErrorRetryDelay = time.Millisecond
	cfg.WaitCheckInterval = time.Millisecond
	cfg.IndexRotationPause = time.Millisecond
	d := NewDriver(s, o, indexes, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	d.Run(ctx)

	// Should have scanned at least the first index and advanced position.
	pos := d.loadPosition(context.Background())
	require.GreaterOrEqual(t, pos, 1)
}
