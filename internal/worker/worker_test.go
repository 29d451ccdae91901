package worker

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

type fakeProcessor struct {
	calls int32
	skip  bool
	fail  bool
}

func (f *fakeProcessor) Process(_ context.Context, task domain.Task) (*domain.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail {
		return nil, errTest
	}
	if f.skip {
		return nil, nil
	}
	return &domain.Result{URL: task.URL, Domain: task.Domain}, nil
}

var errTest = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.New(rdb)
}

func pushTask(t *testing.T, s *store.Store, url string) {
	t.Helper()
	task := domain.Task{URL: url, Domain: "eltiempo.com"}
	payload, err := json.Marshal(task)
	require.NoError(t, err)
	require.NoError(t, s.PushHead(context.Background(), store.KeyTaskQueue, string(payload)))
}

func TestEngineProcessesBatchAndPublishesResults(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		pushTask(t, s, "https://eltiempo.com/economia/a-1")
	}

	proc := &fakeProcessor{}
	e := NewEngine(s, proc, "worker-test")
	e.BatchSize = 4
	e.BlockingPopTimeout = 20 * time.Millisecond

	var mu sync.Mutex
	var got []domain.Result
	e.OnResult = func(_ context.Context, r domain.Result) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, r)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	e.Run(ctx)

	require.EqualValues(t, 3, proc.calls)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)
}

func TestEngineHeartbeatOnIdleTimeout(t *testing.T) {
	s := newTestStore(t)
	proc := &fakeProcessor{}
	e := NewEngine(s, proc, "worker-idle")
	e.BlockingPopTimeout = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	e.Run(ctx)

	m, err := s.HashGetAll(context.Background(), store.HeartbeatKey("worker-idle"))
	require.NoError(t, err)
	require.Contains(t, m, "last_active")
}

func TestEngineCountsErrorsWithoutStoppingBatch(t *testing.T) {
	s := newTestStore(t)
	pushTask(t, s, "https://eltiempo.com/economia/a-1")
	pushTask(t, s, "https://eltiempo.com/economia/a-2")

	proc := &fakeProcessor{fail: true}
	e := NewEngine(s, proc, "worker-err")
	e.BlockingPopTimeout = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	e.Run(ctx)

	require.EqualValues(t, 2, proc.calls)
	require.EqualValues(t, 2, e.errors)
}
