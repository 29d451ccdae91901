// Package historical loads the COLCAP historical index table the
// correlator distributes articles against.
package historical

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

// Index is the loaded historical index table: a lookup from calendar
// date to COLCAP closing value, plus the sorted date list used for
// month-bucketing.
type Index struct {
	Values map[string]float64 // date (YYYY-MM-DD) -> index value
	Dates  []time.Time        // ascending, deduplicated
}

// dateLayouts are the formats the "Fecha" column has been seen in.
var dateLayouts = []string{"2006-01-02", "01/02/2006", "2006-01-02T15:04:05Z07:00"}

// Load reads the historical CSV at path, expecting "Fecha" and "Ultimo"
// columns. This is a small, fixed-column format with no quoting edge
// cases worth a dependency; encoding/csv handles it directly.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrData, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", domain.ErrData, err)
	}

	fechaCol, ultimoCol := -1, -1
	for i, col := range header {
		switch col {
		case "Fecha":
			fechaCol = i
		case "Ultimo":
			ultimoCol = i
		}
	}
	if fechaCol == -1 || ultimoCol == -1 {
		return nil, fmt.Errorf("%w: missing Fecha/Ultimo column in %s", domain.ErrData, path)
	}

	idx := &Index{Values: map[string]float64{}}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read row: %v", domain.ErrData, err)
		}
		if len(row) <= fechaCol || len(row) <= ultimoCol {
			continue
		}

		t, ok := parseDate(row[fechaCol])
		if !ok {
			continue
		}
		var value float64
		if _, err := fmt.Sscanf(row[ultimoCol], "%f", &value); err != nil {
			continue
		}

		key := t.Format("2006-01-02")
		if _, exists := idx.Values[key]; !exists {
			idx.Dates = append(idx.Dates, t)
		}
		idx.Values[key] = value
	}

	sort.Slice(idx.Dates, func(i, j int) bool { return idx.Dates[i].Before(idx.Dates[j]) })
	return idx, nil
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Empty reports whether the index carries no data.
func (idx *Index) Empty() bool {
	return idx == nil || len(idx.Dates) == 0
}

// Get returns the index value for the given date, if present.
func (idx *Index) Get(d time.Time) (float64, bool) {
	if idx == nil {
		return 0, false
	}
	v, ok := idx.Values[d.Format("2006-01-02")]
	return v, ok
}

// Verify checks that path exists and parses into a non-empty index,
// mirroring the original ingestion pipeline's post-download check (the
// download step itself is out of scope here: this module only consumes
// a historical CSV already present on disk).
func Verify(path string) error {
	idx, err := Load(path)
	if err != nil {
		return err
	}
	if idx.Empty() {
		return fmt.Errorf("%w: %s has no usable rows", domain.ErrData, path)
	}
	return nil
}
