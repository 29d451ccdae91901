// Package correlator implements the deterministic article-to-historical-
// date assignment described in the fetch/extract/correlate pipeline: it
// distributes an unbounded article stream uniformly over the most recent
// N months of the historical index series.
package correlator

import (
	"context"
	"sort"
	"time"

	"github.com/araddon/dateparse"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/historical"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

// NewsPerMonth is the cycle width: this many articles map to one month
// before the cycle advances to the next.
const NewsPerMonth = 100

// NumMonths is how many of the most recent historical months are kept
// in the rotation.
const NumMonths = 8

// Correlator assigns a historical date and index value to an incoming
// article date string.
type Correlator struct {
	Store      *store.Store
	monthDates [][]time.Time // descending by month, each ascending by day
	index      *historical.Index
}

// New builds a Correlator from a loaded historical index, grouping its
// dates into the NumMonths most recent (year, month) buckets.
func New(s *store.Store, idx *historical.Index) *Correlator {
	return &Correlator{
		Store:      s,
		monthDates: groupByMonth(idx.Dates, NumMonths),
		index:      idx,
	}
}

// Correlate atomically advances the shared global counter and returns
// the assigned date and its historical index value. ok=false means no
// assignment was possible (index has no data and the input date itself
// could not be parsed or found) and the caller should skip the task.
func (c *Correlator) Correlate(ctx context.Context, dateStr string) (assignedDate string, indexValue float64, ok bool, err error) {
	if len(c.monthDates) == 0 {
		return c.fallback(dateStr)
	}

	count, err := c.Store.Incr(ctx, store.KeyColcapCounter, 1)
	if err != nil {
		return "", 0, false, err
	}
	// Store.Incr returns the post-increment value; the algorithm needs
	// the pre-increment value.
	preIncrement := count - 1

	cycleLen := int64(NewsPerMonth * len(c.monthDates))
	pos := preIncrement % cycleLen
	monthIdx := pos / NewsPerMonth
	withinMonth := pos % NewsPerMonth

	month := c.monthDates[monthIdx]
	day := month[int(withinMonth)%len(month)]

	value, found := c.index.Get(day)
	if !found {
		return day.Format("2006-01-02"), 0, false, nil
	}
	return day.Format("2006-01-02"), value, true, nil
}

func (c *Correlator) fallback(dateStr string) (string, float64, bool, error) {
	t, err := dateparse.ParseAny(dateStr)
	if err != nil {
		return "", 0, false, nil
	}
	value, found := c.index.Get(t)
	if !found {
		return t.Format("2006-01-02"), 0, false, nil
	}
	return t.Format("2006-01-02"), value, true, nil
}

// groupByMonth buckets dates by (year, month), keeps the numMonths most
// recent buckets in descending order, each bucket's dates ascending.
func groupByMonth(dates []time.Time, numMonths int) [][]time.Time {
	if len(dates) == 0 {
		return nil
	}

	type monthKey struct{ year, month int }
	buckets := map[monthKey][]time.Time{}
	for _, d := range dates {
		k := monthKey{d.Year(), int(d.Month())}
		buckets[k] = append(buckets[k], d)
	}

	var keys []monthKey
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year > keys[j].year
		}
		return keys[i].month > keys[j].month
	})
	if len(keys) > numMonths {
		keys = keys[:numMonths]
	}

	result := make([][]time.Time, 0, len(keys))
	for _, k := range keys {
		days := buckets[k]
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
		result = append(result, days)
	}
	return result
}
