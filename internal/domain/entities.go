// Package domain defines the core entities shared across the producer,
// worker, and telemetry components.
package domain

import "time"

// Task is a single candidate article queued for fetch/extract/correlate.
// Immutable once built; consumed exactly once from the queue.
type Task struct {
	// URL is the candidate article URL.
	URL string `json:"url"`
	// Domain is the news portal the URL belongs to.
	Domain string `json:"domain"`
	// Timestamp is the discovery-time timestamp, in the source's own
	// format (CDX uses YYYYMMDDHHMMSS; portal scraping uses the same
	// layout stamped at enqueue time).
	Timestamp string `json:"timestamp"`
	// ArchiveFile is the Common Crawl WARC filename. Empty for
	// portal-discovered tasks (sentinel: no archive fetch is possible).
	ArchiveFile string `json:"filename"`
	// Offset is the byte offset of the record inside ArchiveFile.
	Offset int64 `json:"offset"`
	// Length is the byte length of the record inside ArchiveFile.
	Length int64 `json:"length"`
}

// HasArchiveRef reports whether the task carries a usable Common Crawl
// byte-range reference.
func (t Task) HasArchiveRef() bool {
	return t.ArchiveFile != "" && t.Length > 0
}

// WorkerHeartbeat is the short-TTL liveness/throughput record a worker
// publishes for itself.
type WorkerHeartbeat struct {
	WorkerID   string    `json:"worker_id"`
	Rate       float64   `json:"rate"` // tasks per minute
	Errors     int64     `json:"errors"`
	Processed  int64     `json:"processed"`
	LastActive time.Time `json:"last_active"`
}

// GlobalCounters are the monotone process-wide counters kept in the
// coordination store.
type GlobalCounters struct {
	TotalProcessed int64
	TotalErrors    int64
	TotalSkipped   int64
}

// ThroughputSnapshot is one entry of the bounded throughput-history FIFO.
type ThroughputSnapshot struct {
	Timestamp      time.Time `json:"ts"`
	ActiveWorkers  int       `json:"workers"`
	AggregateRate  float64   `json:"rate"`
	ProcessedTotal int64     `json:"processed"`
}

// ScalabilityChange is one entry of the bounded scalability change log,
// appended only when the live worker count changes to a new even value.
type ScalabilityChange struct {
	Timestamp   time.Time `json:"ts"`
	WorkerCount int       `json:"workers"`
	Rate        float64   `json:"rate"`
}

// Speedup returns rate/baselineRate, or float64(WorkerCount) if the
// baseline rate is not positive.
func (s ScalabilityChange) Speedup(baselineRate float64) float64 {
	if baselineRate <= 0 {
		return float64(s.WorkerCount)
	}
	return s.Rate / baselineRate
}

// Efficiency returns Speedup/WorkerCount*100, or 0 if WorkerCount <= 0.
func (s ScalabilityChange) Efficiency(baselineRate float64) float64 {
	if s.WorkerCount <= 0 {
		return 0
	}
	return s.Speedup(baselineRate) / float64(s.WorkerCount) * 100
}

// Sentiment is the NLP black box's per-article classification.
type Sentiment struct {
	Polarity       float64 `json:"polarity"`
	Subjectivity   float64 `json:"subjectivity"`
	Classification string  `json:"classification"` // "positivo", "neutral", "negativo"
	Confidence     float64 `json:"confidence"`
}

// KeywordHit is one economic keyword found in the article text, with
// its occurrence count.
type KeywordHit struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// KeywordReport summarizes economic-keyword relevance for an article.
type KeywordReport struct {
	Keywords       []KeywordHit `json:"keywords"`
	TotalKeywords  int          `json:"total_keywords"`
	RelevanceScore int          `json:"relevance_score"`
}

// Timings records per-stage duration, in milliseconds, for one result.
type Timings struct {
	DownloadMS   int64 `json:"download_ms"`
	ExtractionMS int64 `json:"extraction_ms"`
	NLPMS        int64 `json:"nlp_ms"`
	TotalMS      int64 `json:"total_ms"`
}

// Result is the processed-article record pushed to the result stream.
type Result struct {
	URL         string        `json:"url"`
	Title       string        `json:"title"`
	Domain      string        `json:"domain"`
	Date        string        `json:"date"` // assigned date, YYYY-MM-DD
	IndexValue  float64       `json:"index_value"`
	Sentiment   Sentiment     `json:"sentiment"`
	Keywords    KeywordReport `json:"keywords"`
	TextExcerpt string        `json:"text_excerpt"`
	TextLength  int           `json:"text_length"`
	Source      string        `json:"source"` // "common_crawl" or "portal"
	Timings     Timings       `json:"timings"`
	WorkerID    string        `json:"worker_id"`
	ProcessedAt time.Time     `json:"processed_at"`
}

// LogLevel is the severity of a producer log entry.
type LogLevel string

// Producer log levels.
const (
	LogInfo LogLevel = "INFO"
	LogWarn LogLevel = "WARN"
	LogError LogLevel = "ERROR"
)

// LogEntry is one entry of the bounded producer-log FIFO.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}
