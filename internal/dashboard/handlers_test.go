package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/telemetry"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.New(rdb)
}

func TestHandleHealthzOK(t *testing.T) {
	s := newTestStore(t)
	srv := NewServer(s, 100, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStatusReportsWorkers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, telemetry.InitGlobalCounters(ctx, s))
	rec1 := telemetry.NewRecorder(s, "worker-1")
	require.NoError(t, rec1.RecordHeartbeat(ctx, 12.5, 1, 40))

	srv := NewServer(s, 100, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.EqualValues(t, 1, body["active_workers"])
}

func TestHandleResultsRespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, u := range []string{"https://x/1", "https://x/2", "https://x/3"} {
		require.NoError(t, s.PushHead(ctx, store.KeyResultStream, `{"url":"`+u+`"}`))
	}
	srv := NewServer(s, 5, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/results?limit=2", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
}
