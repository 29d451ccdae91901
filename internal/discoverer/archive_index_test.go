package discoverer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

func newTestStoreFor(t *testing.T) *store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.New(rdb)
}

func TestArchiveIndexSourceSearchIndex(t *testing.T) {
	ndjson := `{"url":"https://eltiempo.com/economia/mercado-123","filename":"crawl-data/x.warc.gz","offset":"100","length":"200","timestamp":"20240101120000"}
{"url":"https://eltiempo.com/tag/economia","filename":"crawl-data/x.warc.gz","offset":"300","length":"200","timestamp":"20240101120000"}
not-json-at-all
`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(ndjson))
	}))
	defer srv.Close()

	s := newTestStoreFor(t)
	src := NewArchiveIndexSource(s, srv.Client(), srv.URL, []string{"eltiempo.com"},
		[]string{"/tag/"}, []string{"/economia/"}, time.Millisecond)

	total, err := src.SearchIndex(context.Background(), "CC-MAIN-2024-51")
	require.NoError(t, err)
	require.Equal(t, 1, total)

	n, err := s.Len(context.Background(), store.KeyTaskQueue)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestArchiveIndexSourceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestStoreFor(t)
	src := NewArchiveIndexSource(s, srv.Client(), srv.URL, []string{"eltiempo.com"}, nil, nil, time.Millisecond)

	total, err := src.SearchIndex(context.Background(), "CC-MAIN-2024-51")
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

func TestArchiveIndexSourceDedup(t *testing.T) {
	ndjson := `{"url":"https://eltiempo.com/economia/mercado-123","filename":"crawl-data/x.warc.gz","offset":"100","length":"200","timestamp":"20240101120000"}
`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(ndjson))
	}))
	defer srv.Close()

	s := newTestStoreFor(t)
	src := NewArchiveIndexSource(s, srv.Client(), srv.URL, []string{"eltiempo.com"}, nil, []string{"/economia/"}, time.Millisecond)

	total1, err := src.SearchIndex(context.Background(), "CC-MAIN-2024-51")
	require.NoError(t, err)
	require.Equal(t, 1, total1)

	total2, err := src.SearchIndex(context.Background(), "CC-MAIN-2024-51")
	require.NoError(t, err)
	require.Equal(t, 0, total2)
}
