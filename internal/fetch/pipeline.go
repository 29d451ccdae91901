package fetch

import (
	"context"
	"time"

	"github.com/araddon/dateparse"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

// Correlator assigns a historical date and COLCAP index value to an
// article date string. ok=false means no assignment was possible and
// the task should be skipped.
type Correlator interface {
	Correlate(ctx context.Context, dateStr string) (assignedDate string, indexValue float64, ok bool, err error)
}

// Analyzer runs NLP over cleaned article text.
type Analyzer interface {
	Analyze(text string) domain.Sentiment
	DetectKeywords(text string) domain.KeywordReport
}

// Pipeline implements the per-task fetch/extract/correlate/analyze
// sequence. It satisfies worker.Processor.
type Pipeline struct {
	Client      *Client
	DataBaseURL string
	Correlator  Correlator
	Analyzer    Analyzer
	WorkerID    string
}

// NewPipeline builds a Pipeline.
func NewPipeline(client *Client, dataBaseURL string, correlator Correlator, analyzer Analyzer, workerID string) *Pipeline {
	return &Pipeline{Client: client, DataBaseURL: dataBaseURL, Correlator: correlator, Analyzer: analyzer, WorkerID: workerID}
}

// Process runs one task through download, decompress, WARC iteration (or
// direct fetch), correlation, extraction, and NLP analysis. A nil result
// with a nil error means the task was validly skipped.
func (p *Pipeline) Process(ctx context.Context, task domain.Task) (*domain.Result, error) {
	start := time.Now()

	html, dateStr, downloadMS, err := p.fetchHTML(ctx, task)
	if err != nil {
		return nil, err
	}
	if html == nil {
		return nil, nil
	}

	assignedDate, indexValue, ok, err := p.Correlator.Correlate(ctx, dateStr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	extractStart := time.Now()
	title, text := extractArticle(html)
	extractMS := time.Since(extractStart).Milliseconds()

	if len(text) < minTextLength {
		return nil, nil
	}

	nlpStart := time.Now()
	sentiment := p.Analyzer.Analyze(text)
	keywords := p.Analyzer.DetectKeywords(text)
	nlpMS := time.Since(nlpStart).Milliseconds()

	excerpt := text
	if len(excerpt) > 500 {
		excerpt = excerpt[:500]
	}

	source := "common_crawl"
	if !task.HasArchiveRef() {
		source = "portal"
	}

	return &domain.Result{
		URL:         task.URL,
		Title:       title,
		Domain:      task.Domain,
		Date:        assignedDate,
		IndexValue:  indexValue,
		Sentiment:   sentiment,
		Keywords:    keywords,
		TextExcerpt: excerpt,
		TextLength:  len(text),
		Source:      source,
		Timings: domain.Timings{
			DownloadMS:   downloadMS,
			ExtractionMS: extractMS,
			NLPMS:        nlpMS,
			TotalMS:      time.Since(start).Milliseconds(),
		},
		WorkerID:    p.WorkerID,
		ProcessedAt: time.Now().UTC(),
	}, nil
}

// fetchHTML resolves the task's HTML body and the date to correlate
// against, via the archive byte-range path or the direct-fetch fallback.
// A nil body with a nil error means the task could not yield a "response"
// record (e.g. a non-response WARC record, or an empty archive segment)
// and should be treated as skipped, not errored.
func (p *Pipeline) fetchHTML(ctx context.Context, task domain.Task) (html []byte, dateStr string, downloadMS int64, err error) {
	downloadStart := time.Now()

	if task.HasArchiveRef() {
		raw, ferr := p.Client.FetchRange(ctx, p.DataBaseURL, task.ArchiveFile, task.Offset, task.Length)
		if ferr != nil {
			return nil, "", 0, ferr
		}
		downloadMS = time.Since(downloadStart).Milliseconds()

		decompressed := decompress(raw)
		record, rerr := firstResponseRecord(decompressed)
		if rerr != nil {
			return nil, "", downloadMS, rerr
		}
		if record == nil {
			return nil, "", downloadMS, nil
		}

		date := record.date
		if date == "" {
			date = task.Timestamp
		}
		if date == "" {
			return nil, "", downloadMS, nil
		}

		body, berr := httpBodyFromPayload(record.payload)
		if berr != nil {
			return nil, "", downloadMS, berr
		}
		return body, normalizeDate(date), downloadMS, nil
	}

	body, ferr := p.Client.FetchDirect(ctx, task.URL)
	if ferr != nil {
		return nil, "", 0, ferr
	}
	downloadMS = time.Since(downloadStart).Milliseconds()
	return body, normalizeDate(task.Timestamp), downloadMS, nil
}

// normalizeDate accepts either a WARC-Date (RFC3339) or a CDX timestamp
// (YYYYMMDDHHMMSS) and returns a value the correlator can parse; it
// falls back to the raw input if parsing fails, letting the correlator's
// own fallback path handle it.
func normalizeDate(raw string) string {
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw
	}
	return t.UTC().Format(time.RFC3339)
}
