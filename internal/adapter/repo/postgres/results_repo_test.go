package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

type rowStub struct {
	scan func(dest ...any) error
}

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

type rowsStub struct {
	rows []map[string]any
	idx  int
}

func (r *rowsStub) Next() bool { r.idx++; return r.idx <= len(r.rows) }
func (r *rowsStub) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	*(dest[0].(*string)) = row["url"].(string)
	*(dest[1].(*string)) = row["title"].(string)
	*(dest[2].(*string)) = row["domain"].(string)
	*(dest[3].(*string)) = row["assigned_date"].(string)
	*(dest[4].(*float64)) = row["index_value"].(float64)
	*(dest[5].(*float64)) = 0
	*(dest[6].(*float64)) = 0
	*(dest[7].(*string)) = "neutral"
	*(dest[8].(*float64)) = 0
	*(dest[9].(*string)) = "{}"
	*(dest[10].(*int)) = 0
	*(dest[11].(*string)) = "common_crawl"
	*(dest[12].(*string)) = "worker-1"
	*(dest[13].(*time.Time)) = time.Now().UTC()
	return nil
}
func (r *rowsStub) Err() error                                    { return nil }
func (r *rowsStub) Close()                                        {}
func (r *rowsStub) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (r *rowsStub) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *rowsStub) Values() ([]any, error)                        { return nil, nil }
func (r *rowsStub) RawValues() [][]byte                           { return nil }
func (r *rowsStub) Conn() *pgx.Conn                               { return nil }

type poolStub struct {
	execErr  error
	queryErr error
	rows     *rowsStub
}

func (p *poolStub) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return rowStub{scan: func(_ ...any) error { return errors.New("not used") }}
}

func (p *poolStub) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	return p.rows, nil
}

func TestResultRepoInsert(t *testing.T) {
	pool := &poolStub{}
	repo := NewResultRepo(pool)
	err := repo.Insert(context.Background(), domain.Result{URL: "https://x", Title: "t", Domain: "eltiempo.com"})
	require.NoError(t, err)
}

func TestResultRepoInsertPropagatesExecError(t *testing.T) {
	pool := &poolStub{execErr: errors.New("boom")}
	repo := NewResultRepo(pool)
	err := repo.Insert(context.Background(), domain.Result{URL: "https://x"})
	require.Error(t, err)
}

func TestResultRepoByDomain(t *testing.T) {
	pool := &poolStub{rows: &rowsStub{rows: []map[string]any{
		{"url": "https://a", "title": "A", "domain": "eltiempo.com", "assigned_date": "2024-01-15", "index_value": 1500.0},
	}}}
	repo := NewResultRepo(pool)
	results, err := repo.ByDomain(context.Background(), "eltiempo.com", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "https://a", results[0].URL)
}

func TestThroughputSnapshotRepoInsertAndSince(t *testing.T) {
	pool := &poolStub{rows: &rowsStub{}}
	repo := NewThroughputSnapshotRepo(pool)
	require.NoError(t, repo.Insert(context.Background(), domain.ThroughputSnapshot{Timestamp: time.Now().UTC(), ActiveWorkers: 2}))

	snaps, err := repo.Since(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Empty(t, snaps)
}
