package discoverer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

// ArchiveIndexSource is the primary discovery strategy: it queries a
// Common Crawl CDX index for each configured domain and enqueues
// candidate tasks from the matching records.
type ArchiveIndexSource struct {
	Store              *store.Store
	Client             *http.Client
	IndexBaseURL       string
	TargetDomains      []string
	ExcludedPatterns   []string
	NewsSections       []string
	DelayBetweenDomains time.Duration
	validate           *validator.Validate
}

// NewArchiveIndexSource builds an ArchiveIndexSource over the given store
// and HTTP client.
func NewArchiveIndexSource(s *store.Store, client *http.Client, indexBaseURL string, targetDomains, excludedPatterns, newsSections []string, delayBetweenDomains time.Duration) *ArchiveIndexSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &ArchiveIndexSource{
		Store:               s,
		Client:              client,
		IndexBaseURL:        indexBaseURL,
		TargetDomains:       targetDomains,
		ExcludedPatterns:    excludedPatterns,
		NewsSections:        newsSections,
		DelayBetweenDomains: delayBetweenDomains,
		validate:            validator.New(),
	}
}

// SearchIndex scans the given archive index across every configured
// domain, pacing between domains, and returns the total number of newly
// enqueued tasks. Failure on any single (index, domain) pair is logged
// and does not abort the scan.
func (a *ArchiveIndexSource) SearchIndex(ctx context.Context, indexID string) (total int, err error) {
	for _, dom := range a.TargetDomains {
		if dom == "" {
			continue
		}
		count, duplicates, serr := a.searchDomain(ctx, dom, indexID)
		if serr != nil {
			slog.Warn("archive index domain scan failed", slog.String("index", indexID), slog.String("domain", dom), slog.Any("error", serr))
		}
		total += count
		slog.Info("archive index domain scan done", slog.String("index", indexID), slog.String("domain", dom), slog.Int("enqueued", count), slog.Int("duplicates", duplicates))

		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(a.DelayBetweenDomains):
		}
	}
	return total, nil
}

func (a *ArchiveIndexSource) searchDomain(ctx context.Context, dom, indexID string) (count, duplicates int, err error) {
	queryURL := fmt.Sprintf("%s/%s-index?url=%s&output=json", a.IndexBaseURL, indexID, url.QueryEscape(dom+"/*"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: build request: %v", domain.ErrTransport, err)
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, 0, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("%w: status %d", domain.ErrProtocol, resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec CDXRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if err := a.validate.Struct(rec); err != nil {
			continue
		}
		if rec.URL == "" || !IsValidNewsURL(rec.URL, a.ExcludedPatterns, a.NewsSections) {
			continue
		}

		added, serr := a.Store.SetAdd(ctx, store.KeySeenURLs, rec.URL)
		if serr != nil {
			return count, duplicates, serr
		}
		if !added {
			duplicates++
			continue
		}

		offset, _ := strconv.ParseInt(rec.Offset, 10, 64)
		length, _ := strconv.ParseInt(rec.Length, 10, 64)
		task := domain.Task{
			URL:         rec.URL,
			Domain:      dom,
			Timestamp:   rec.Timestamp,
			ArchiveFile: rec.Filename,
			Offset:      offset,
			Length:      length,
		}
		payload, merr := json.Marshal(task)
		if merr != nil {
			continue
		}
		if perr := a.Store.PushHead(ctx, store.KeyTaskQueue, string(payload)); perr != nil {
			return count, duplicates, perr
		}
		count++
	}

	return count, duplicates, nil
}
