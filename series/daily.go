// CLAUDE:SUMMARY DailyDeltas (per-day diff sums, zero days dropped) and shrinking-window MovingAverage.
package series

import (
	"sort"
	"time"
)

// DailyMatrix holds per-calendar-day deltas: one row per active day, one
// column per project. Days where every project's delta is exactly zero are
// dropped so charts only show days with movement.
type DailyMatrix struct {
	Days    []time.Time `json:"days"` // midnight in the viewer's location
	Columns []string    `json:"columns"`
	Cells   [][]int64   `json:"cells"`
}

// DailyDeltas differences the pivoted matrix row over row and sums the
// diffs per local calendar day. The first row has no predecessor and
// contributes nothing.
func DailyDeltas(m *Matrix) *DailyMatrix {
	if len(m.Times) == 0 {
		return &DailyMatrix{Days: []time.Time{}, Columns: m.Columns, Cells: [][]int64{}}
	}
	loc := m.Times[0].Location()

	byDay := make(map[int64][]int64)
	for r := 1; r < len(m.Times); r++ {
		d := day(m.Times[r], loc)
		k := d.UnixNano()
		row := byDay[k]
		if row == nil {
			row = make([]int64, len(m.Columns))
			byDay[k] = row
		}
		for c := range m.Columns {
			row[c] += m.Cells[r][c] - m.Cells[r-1][c]
		}
	}

	keys := make([]int64, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := &DailyMatrix{Days: []time.Time{}, Columns: m.Columns, Cells: [][]int64{}}
	for _, k := range keys {
		row := byDay[k]
		allZero := true
		for _, v := range row {
			if v != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			continue
		}
		out.Days = append(out.Days, time.Unix(0, k).In(loc))
		out.Cells = append(out.Cells, row)
	}
	return out
}

// MovingAverage computes a per-column rolling mean over the daily rows with
// a shrinking window at the start of the series, so early rows average over
// however many points exist instead of being undefined. window must be ≥ 1.
func MovingAverage(d *DailyMatrix, window int) [][]float64 {
	if window < 1 {
		window = 1
	}
	out := make([][]float64, len(d.Days))
	for r := range d.Days {
		out[r] = make([]float64, len(d.Columns))
		lo := r - window + 1
		if lo < 0 {
			lo = 0
		}
		n := float64(r - lo + 1)
		for c := range d.Columns {
			var sum int64
			for i := lo; i <= r; i++ {
				sum += d.Cells[i][c]
			}
			out[r][c] = float64(sum) / n
		}
	}
	return out
}
