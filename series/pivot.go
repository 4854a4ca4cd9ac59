// CLAUDE:SUMMARY Pivot: shared minute-rounded time grid, one column per project, ffill+bfill.
package series

import (
	"sort"
	"time"

	"github.com/hazyhaar/scrib/samples"
)

// Matrix is a pivoted time series: one row per grid timestamp, one column
// per project display name. Produced on demand, never stored.
type Matrix struct {
	Times   []time.Time `json:"times"`
	Columns []string    `json:"columns"`
	Cells   [][]int64   `json:"cells"` // Cells[row][col]
}

// Pivot reindexes every project's samples onto one shared time grid and
// fills the gaps.
//
// Timestamps are converted to loc and rounded to the nearest minute on the
// local wall clock. Cells are forward-filled so each project holds its last
// known value until updated, then back-filled across any leading gap, which
// makes every column a non-decreasing step function fit for direct line
// charts — extraction gaps never show up as drops to zero. Samples whose
// metric side failed contribute nothing; projects without a single valued
// sample get no column.
func Pivot(history []samples.Sample, names map[string]string, metric Metric, loc *time.Location) *Matrix {
	type cellKey struct {
		t  int64 // unix nanos of the rounded grid time
		id string
	}

	values := make(map[cellKey]int64)
	gridSet := make(map[int64]time.Time)
	projectSet := make(map[string]bool)

	for _, s := range history {
		v := metric.value(s)
		if v == nil {
			continue
		}
		rt := roundMinute(s.Timestamp, loc)
		k := rt.UnixNano()
		gridSet[k] = rt
		projectSet[s.ProjectID] = true
		// Same grid cell hit twice keeps the later sample.
		values[cellKey{k, s.ProjectID}] = *v
	}
	if len(gridSet) == 0 {
		// Marshals as empty arrays, not nulls.
		return &Matrix{Times: []time.Time{}, Columns: []string{}, Cells: [][]int64{}}
	}

	times := make([]time.Time, 0, len(gridSet))
	for _, t := range gridSet {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	ids := make([]string, 0, len(projectSet))
	for id := range projectSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	columns := make([]string, len(ids))
	for i, id := range ids {
		if name, ok := names[id]; ok {
			columns[i] = name
		} else {
			columns[i] = id
		}
	}

	cells := make([][]int64, len(times))
	for r := range cells {
		cells[r] = make([]int64, len(ids))
	}

	for c, id := range ids {
		// Forward fill.
		var last int64
		seen := false
		firstRow := -1
		for r, t := range times {
			if v, ok := values[cellKey{t.UnixNano(), id}]; ok {
				last = v
				if !seen {
					seen = true
					firstRow = r
				}
			}
			if seen {
				cells[r][c] = last
			}
		}
		// Back fill the leading gap with the first known value.
		if firstRow > 0 {
			first := cells[firstRow][c]
			for r := 0; r < firstRow; r++ {
				cells[r][c] = first
			}
		}
	}

	return &Matrix{Times: times, Columns: columns, Cells: cells}
}

// roundMinute rounds an instant to the nearest minute of its local wall
// clock. Reconstructing via time.Date normalises wall times that don't
// exist in loc (DST spring-forward) onto the following valid instant and
// resolves ambiguous autumn times to a deterministic offset.
func roundMinute(t time.Time, loc *time.Location) time.Time {
	tl := t.In(loc).Add(30 * time.Second)
	return time.Date(tl.Year(), tl.Month(), tl.Day(), tl.Hour(), tl.Minute(), 0, 0, loc)
}
