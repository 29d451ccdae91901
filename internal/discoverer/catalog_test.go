package discoverer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexCatalogDownloadAndCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[{"id":"CC-MAIN-2024-51","name":"December 2024","cdx-api":"https://index.commoncrawl.org/CC-MAIN-2024-51-index"},
			{"id":"not-a-cc-main","name":"skip me"}]`))
	}))
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "cc_indexes.csv")
	c := NewIndexCatalog(srv.URL, cachePath, srv.Client())

	entries := c.Indexes(context.Background())
	require.Len(t, entries, 1)
	require.Equal(t, "CC-MAIN-2024-51", entries[0].ID)

	// Second catalog instance should now find the cache file.
	c2 := NewIndexCatalog("http://unreachable.invalid", cachePath, srv.Client())
	cached := c2.Indexes(context.Background())
	require.Len(t, cached, 1)
	require.Equal(t, "CC-MAIN-2024-51", cached[0].ID)
}

func TestIndexCatalogDefaultFallback(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "missing.csv")
	c := NewIndexCatalog("http://unreachable.invalid", cachePath, http.DefaultClient)

	entries := c.Indexes(context.Background())
	require.NotEmpty(t, entries)
	require.Equal(t, "CC-MAIN-2024-51", entries[0].ID)
}
