package store

import "fmt"

// Key namespace shared by producer, worker, and telemetry. Centralized
// here so a renamed key never diverges between packages.
const (
	KeyTaskQueue           = "pipeline:tasks"
	KeySeenURLs            = "pipeline:seen_urls"
	KeyResultStream        = "pipeline:results"
	KeyProducerLog         = "pipeline:producer_log"
	KeyThroughputHist      = "pipeline:throughput_history"
	KeyScalabilityLog      = "pipeline:scalability_log"
	KeyCorrelationHist     = "pipeline:correlation_history"
	KeyGlobalProcessed     = "pipeline:counters:processed"
	KeyGlobalErrors        = "pipeline:counters:errors"
	KeyGlobalSkipped       = "pipeline:counters:skipped"
	KeyColcapCounter       = "pipeline:counters:colcap_news"
	KeyProducerPosition    = "pipeline:producer:position"
	KeyHeartbeatPrefix     = "pipeline:worker:"
	KeyWorkerHistoryPrefix = "pipeline:worker_history:"
)

// HeartbeatKey returns the hash key a given worker publishes its
// heartbeat to.
func HeartbeatKey(workerID string) string {
	return fmt.Sprintf("%s%s", KeyHeartbeatPrefix, workerID)
}

// WorkerHistoryKey returns the counter key holding a worker's cumulative
// processed count, independent of any single heartbeat cycle.
func WorkerHistoryKey(workerID string) string {
	return fmt.Sprintf("%s%s", KeyWorkerHistoryPrefix, workerID)
}
