package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientFetchRangeSendsRangeHeader(t *testing.T) {
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("segment-bytes"))
	}))
	defer srv.Close()

	c := NewClient(time.Millisecond)
	c.http = srv.Client()

	body, err := c.FetchRange(context.Background(), srv.URL, "/crawl-data/x.warc.gz", 100, 50)
	require.NoError(t, err)
	require.Equal(t, "segment-bytes", string(body))
	require.Equal(t, "bytes=100-149", gotRange)
}

func TestClientFetchDirectRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"not":"html"}`))
	}))
	defer srv.Close()

	c := NewClient(time.Millisecond)
	c.http = srv.Client()

	_, err := c.FetchDirect(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestClientFetchDirectAcceptsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><p>hola</p></body></html>"))
	}))
	defer srv.Close()

	c := NewClient(time.Millisecond)
	c.http = srv.Client()

	body, err := c.FetchDirect(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, string(body), "hola")
}

func TestClientRetriesOn5xxThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok-body"))
	}))
	defer srv.Close()

	c := NewClient(time.Millisecond)
	c.http = srv.Client()

	body, err := c.FetchRange(context.Background(), srv.URL, "/x.warc.gz", 0, 0)
	require.NoError(t, err)
	require.Equal(t, "ok-body", string(body))
	require.GreaterOrEqual(t, attempts, 2)
}
