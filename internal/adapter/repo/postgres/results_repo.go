package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

// ResultRepo persists processed articles and reads them back by filter.
type ResultRepo struct{ Pool PgxPool }

// NewResultRepo constructs a ResultRepo with the given pool.
func NewResultRepo(p PgxPool) *ResultRepo { return &ResultRepo{Pool: p} }

// Insert stores one processed article. Results are append-only: the
// pipeline never revisits a URL once the coordination store's dedup set
// has seen it, so there is no upsert case.
func (r *ResultRepo) Insert(ctx context.Context, res domain.Result) error {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.Insert")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "articles"),
	)

	keywords, err := json.Marshal(res.Keywords)
	if err != nil {
		return fmt.Errorf("op=result.insert: marshal keywords: %w", err)
	}

	q := `INSERT INTO articles
		(url, title, domain, assigned_date, index_value, polarity, subjectivity,
		 classification, confidence, keywords, text_length, source, worker_id, processed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (url) DO NOTHING`
	_, err = r.Pool.Exec(ctx, q,
		res.URL, res.Title, res.Domain, res.Date, res.IndexValue,
		res.Sentiment.Polarity, res.Sentiment.Subjectivity, res.Sentiment.Classification, res.Sentiment.Confidence,
		string(keywords), res.TextLength, res.Source, res.WorkerID, res.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("op=result.insert: %w", err)
	}
	return nil
}

// ByDomain loads the most recent results for one news domain, newest first.
func (r *ResultRepo) ByDomain(ctx context.Context, domainName string, limit int) ([]domain.Result, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.ByDomain")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "articles"),
	)

	q := `SELECT url, title, domain, assigned_date, index_value, polarity, subjectivity,
		classification, confidence, keywords, text_length, source, worker_id, processed_at
		FROM articles WHERE domain=$1 ORDER BY processed_at DESC LIMIT $2`
	rows, err := r.Pool.Query(ctx, q, domainName, limit)
	if err != nil {
		return nil, fmt.Errorf("op=result.bydomain: %w", err)
	}
	defer rows.Close()

	var out []domain.Result
	for rows.Next() {
		var res domain.Result
		var keywords string
		if err := rows.Scan(
			&res.URL, &res.Title, &res.Domain, &res.Date, &res.IndexValue,
			&res.Sentiment.Polarity, &res.Sentiment.Subjectivity, &res.Sentiment.Classification, &res.Sentiment.Confidence,
			&keywords, &res.TextLength, &res.Source, &res.WorkerID, &res.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("op=result.bydomain: scan: %w", err)
		}
		_ = json.Unmarshal([]byte(keywords), &res.Keywords)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=result.bydomain: rows: %w", err)
	}
	return out, nil
}

// ThroughputSnapshotRepo persists throughput history beyond the
// coordination store's bounded list.
type ThroughputSnapshotRepo struct{ Pool PgxPool }

// NewThroughputSnapshotRepo constructs a ThroughputSnapshotRepo.
func NewThroughputSnapshotRepo(p PgxPool) *ThroughputSnapshotRepo {
	return &ThroughputSnapshotRepo{Pool: p}
}

// Insert appends one throughput snapshot.
func (r *ThroughputSnapshotRepo) Insert(ctx context.Context, snap domain.ThroughputSnapshot) error {
	q := `INSERT INTO throughput_snapshots (ts, active_workers, aggregate_rate, processed_total)
		VALUES ($1,$2,$3,$4)`
	_, err := r.Pool.Exec(ctx, q, snap.Timestamp, snap.ActiveWorkers, snap.AggregateRate, snap.ProcessedTotal)
	if err != nil {
		return fmt.Errorf("op=throughput.insert: %w", err)
	}
	return nil
}

// Since loads snapshots recorded after cutoff, oldest first.
func (r *ThroughputSnapshotRepo) Since(ctx context.Context, cutoff time.Time) ([]domain.ThroughputSnapshot, error) {
	q := `SELECT ts, active_workers, aggregate_rate, processed_total
		FROM throughput_snapshots WHERE ts >= $1 ORDER BY ts ASC`
	rows, err := r.Pool.Query(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("op=throughput.since: %w", err)
	}
	defer rows.Close()

	var out []domain.ThroughputSnapshot
	for rows.Next() {
		var snap domain.ThroughputSnapshot
		if err := rows.Scan(&snap.Timestamp, &snap.ActiveWorkers, &snap.AggregateRate, &snap.ProcessedTotal); err != nil {
			return nil, fmt.Errorf("op=throughput.since: scan: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
