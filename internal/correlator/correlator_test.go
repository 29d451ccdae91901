package correlator

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/historical"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.New(rdb)
}

func buildIndex(t *testing.T) *historical.Index {
	t.Helper()
	idx := &historical.Index{Values: map[string]float64{}}
	add := func(y, m, d int, v float64) {
		date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		idx.Dates = append(idx.Dates, date)
		idx.Values[date.Format("2006-01-02")] = v
	}
	add(2024, 1, 2, 1400)
	add(2024, 1, 3, 1410)
	add(2024, 2, 1, 1420)
	add(2024, 2, 5, 1430)
	return idx
}

func TestGroupByMonthOrdersDescendingAndCaps(t *testing.T) {
	idx := buildIndex(t)
	groups := groupByMonth(idx.Dates, 1)
	require.Len(t, groups, 1)
	require.Equal(t, 2, int(groups[0][0].Month()))
}

func TestCorrelateRotatesAcrossMonths(t *testing.T) {
	s := newTestStore(t)
	idx := buildIndex(t)
	c := New(s, idx)
	require.Len(t, c.monthDates, 2)

	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < NewsPerMonth*2; i++ {
		date, _, ok, err := c.Correlate(ctx, "2024-01-02")
		require.NoError(t, err)
		if ok {
			seen[date] = true
		}
	}
	require.True(t, seen["2024-01-02"] || seen["2024-01-03"])
	require.True(t, seen["2024-02-01"] || seen["2024-02-05"])
}

func TestCorrelateFallsBackWhenIndexEmpty(t *testing.T) {
	s := newTestStore(t)
	idx := &historical.Index{Values: map[string]float64{"2024-01-15": 1500.5}}
	c := New(s, idx)
	require.Empty(t, c.monthDates)

	date, value, ok, err := c.Correlate(context.Background(), "2024-01-15T00:00:00Z")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2024-01-15", date)
	require.Equal(t, 1500.5, value)
}

func TestCorrelateFallbackUnparseableDate(t *testing.T) {
	s := newTestStore(t)
	idx := &historical.Index{Values: map[string]float64{}}
	c := New(s, idx)

	_, _, ok, err := c.Correlate(context.Background(), "not-a-date-at-all-$$$")
	require.NoError(t, err)
	require.False(t, ok)
}
