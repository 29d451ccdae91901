package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPMetricsMiddleware_Basic(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	mw := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(204) }))
	mw.ServeHTTP(rec, r)
	if rec.Result().StatusCode != 204 {
		t.Fatalf("want 204")
	}
}

func TestPipelineMetricsHelpers(t *testing.T) {
	InitMetrics()
	RecordDiscovery("archive_index", 10, 2)
	RecordTaskOutcome("ok")
	RecordStageDuration("download", 150*time.Millisecond)
	RecordSentiment("positivo", 42)
	RecordFleetStatus(4, 12.5)
	RecordCircuitBreakerStatus("archive-fetch", "fetch", 0)
}
