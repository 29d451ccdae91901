package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

type fakeCorrelator struct {
	date  string
	value float64
	ok    bool
}

func (f fakeCorrelator) Correlate(_ context.Context, _ string) (string, float64, bool, error) {
	return f.date, f.value, f.ok, nil
}

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(_ string) domain.Sentiment { return domain.Sentiment{Classification: "neutral"} }
func (fakeAnalyzer) DetectKeywords(_ string) domain.KeywordReport {
	return domain.KeywordReport{TotalKeywords: 2, RelevanceScore: 20}
}

func TestPipelineProcessArchiveTask(t *testing.T) {
	body := "<html><body><article><p>" + strings.Repeat("economia colombiana crece sostenidamente hoy. ", 5) + "</p></article></body></html>"
	warc := buildWARC(t, body)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(warc)
	}))
	defer srv.Close()

	client := NewClient(time.Millisecond)
	client.http = srv.Client()

	p := NewPipeline(client, srv.URL, fakeCorrelator{date: "2024-01-15", value: 1500.5, ok: true}, fakeAnalyzer{}, "worker-test")

	task := domain.Task{URL: "https://eltiempo.com/economia/a-1", Domain: "eltiempo.com", ArchiveFile: "/x.warc.gz", Offset: 0, Length: int64(len(warc))}
	result, err := p.Process(context.Background(), task)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, "common_crawl", result.Source)
	require.Equal(t, 1500.5, result.IndexValue)
	require.GreaterOrEqual(t, result.TextLength, minTextLength)
}

func TestPipelineProcessDirectTask(t *testing.T) {
	body := "<html><body><article><p>" + strings.Repeat("finanzas y mercado bursatil en expansion hoy. ", 5) + "</p></article></body></html>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient(time.Millisecond)
	client.http = srv.Client()

	p := NewPipeline(client, "https://data.commoncrawl.org/", fakeCorrelator{date: "2024-01-15", value: 1500.5, ok: true}, fakeAnalyzer{}, "worker-test")

	task := domain.Task{URL: srv.URL, Domain: "portafolio.co", Timestamp: "20240115120000"}
	result, err := p.Process(context.Background(), task)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, "portal", result.Source)
}

func TestPipelineSkipsWhenCorrelatorDeclines(t *testing.T) {
	warc := buildWARC(t, "<html><body><article><p>texto</p></article></body></html>")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(warc)
	}))
	defer srv.Close()

	client := NewClient(time.Millisecond)
	client.http = srv.Client()

	p := NewPipeline(client, srv.URL, fakeCorrelator{ok: false}, fakeAnalyzer{}, "worker-test")
	task := domain.Task{URL: "https://eltiempo.com/economia/a-1", ArchiveFile: "/x.warc.gz", Length: int64(len(warc))}

	result, err := p.Process(context.Background(), task)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestPipelineSkipsWhenTextTooShort(t *testing.T) {
	warc := buildWARC(t, "<html><body><p>corto</p></body></html>")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(warc)
	}))
	defer srv.Close()

	client := NewClient(time.Millisecond)
	client.http = srv.Client()

	p := NewPipeline(client, srv.URL, fakeCorrelator{date: "2024-01-15", value: 1.0, ok: true}, fakeAnalyzer{}, "worker-test")
	task := domain.Task{URL: "https://eltiempo.com/economia/a-1", ArchiveFile: "/x.warc.gz", Length: int64(len(warc))}

	result, err := p.Process(context.Background(), task)
	require.NoError(t, err)
	require.Nil(t, result)
}
