package discoverer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// IndexCatalog resolves the ordered list of Common Crawl archive indices
// to scan, most recent first: local CSV cache, else a live download of
// collinfo.json, else a built-in default list.
type IndexCatalog struct {
	CollinfoURL string
	CachePath   string
	client      *http.Client
}

// NewIndexCatalog builds a catalog against the standard collinfo.json
// endpoint and a local cache file.
func NewIndexCatalog(collinfoURL, cachePath string, client *http.Client) *IndexCatalog {
	if client == nil {
		client = http.DefaultClient
	}
	return &IndexCatalog{CollinfoURL: collinfoURL, CachePath: cachePath, client: client}
}

// Indexes returns the ordered index list, trying the local cache first,
// then a live download, then the built-in default.
func (c *IndexCatalog) Indexes(ctx context.Context) []IndexEntry {
	if entries, ok := c.loadFromCSV(); ok {
		return entries
	}
	if entries, ok := c.download(ctx); ok {
		_ = c.saveToCSV(entries)
		return entries
	}
	return defaultIndexes()
}

func (c *IndexCatalog) loadFromCSV() ([]IndexEntry, bool) {
	f, err := os.Open(c.CachePath)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil || len(rows) < 2 {
		return nil, false
	}

	var entries []IndexEntry
	for _, row := range rows[1:] {
		if len(row) < 3 {
			continue
		}
		entries = append(entries, IndexEntry{ID: row[0], Name: row[1], CDXAPI: row[2]})
	}
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

func (c *IndexCatalog) saveToCSV(entries []IndexEntry) error {
	if err := os.MkdirAll(filepath.Dir(c.CachePath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(c.CachePath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"id", "name", "cdx_api"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write([]string{e.ID, e.Name, e.CDXAPI}); err != nil {
			return err
		}
	}
	return nil
}

type collinfoItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	CDXAPI string `json:"cdx-api"`
}

func (c *IndexCatalog) download(ctx context.Context) ([]IndexEntry, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.CollinfoURL, nil)
	if err != nil {
		return nil, false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	var items []collinfoItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, false
	}

	var entries []IndexEntry
	for _, item := range items {
		if !strings.HasPrefix(item.ID, "CC-MAIN-") {
			continue
		}
		entries = append(entries, IndexEntry{ID: item.ID, Name: item.Name, CDXAPI: item.CDXAPI})
	}
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// defaultIndexes is the built-in fallback list, used when neither the
// local cache nor a live download is available.
func defaultIndexes() []IndexEntry {
	return []IndexEntry{
		{ID: "CC-MAIN-2024-51", Name: "December 2024"},
		{ID: "CC-MAIN-2024-46", Name: "November 2024"},
		{ID: "CC-MAIN-2024-42", Name: "October 2024"},
		{ID: "CC-MAIN-2024-38", Name: "September 2024"},
		{ID: "CC-MAIN-2024-33", Name: "August 2024"},
		{ID: "CC-MAIN-2024-30", Name: "July 2024"},
		{ID: "CC-MAIN-2024-26", Name: "June 2024"},
		{ID: "CC-MAIN-2024-22", Name: "May 2024"},
		{ID: "CC-MAIN-2024-18", Name: "April 2024"},
		{ID: "CC-MAIN-2024-10", Name: "March 2024"},
		{ID: "CC-MAIN-2023-50", Name: "December 2023"},
		{ID: "CC-MAIN-2023-40", Name: "October 2023"},
		{ID: "CC-MAIN-2023-23", Name: "June 2023"},
		{ID: "CC-MAIN-2023-14", Name: "April 2023"},
		{ID: "CC-MAIN-2023-06", Name: "February 2023"},
	}
}
