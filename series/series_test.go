package series

import (
	"testing"
	"time"

	"github.com/hazyhaar/scrib/samples"
)

func sample(day, hour int, words int64) samples.Sample {
	return samples.Sample{
		ProjectID: "p1",
		Timestamp: time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC),
		WordCount: samples.Int64(words),
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil, time.UTC); s != nil {
		t.Errorf("summary of empty history = %+v, want nil", s)
	}
}

func TestSummarizeDeltaAgainstLastPriorDay(t *testing.T) {
	// WHAT: delta compares the latest sample with the last sample before the
	// latest day, not the previous row.
	// WHY: several same-day samples must not inflate the day-over-day delta.
	history := []samples.Sample{
		sample(1, 9, 100),
		sample(1, 18, 150),
		sample(2, 12, 150),
		sample(3, 12, 400),
	}

	s := Summarize(history, time.UTC)
	if s == nil {
		t.Fatal("nil summary")
	}
	if s.WordCount != 400 {
		t.Errorf("current = %d, want 400", s.WordCount)
	}
	if s.WordDelta != 250 {
		t.Errorf("delta = %d, want 250 (vs day2's last value)", s.WordDelta)
	}
	if s.Measurements != 4 {
		t.Errorf("measurements = %d, want 4", s.Measurements)
	}
}

func TestSummarizeDeltaSpansMultiDayGap(t *testing.T) {
	// WHAT: with no samples for several days, the delta compares against the
	// most recent prior day, silently spanning the gap.
	// WHY: intended behavior per the original delta logic, not a bug.
	history := []samples.Sample{
		sample(1, 12, 100),
		sample(9, 12, 180),
	}

	s := Summarize(history, time.UTC)
	if s.WordDelta != 80 {
		t.Errorf("delta = %d, want 80 (day9 vs day1 across the gap)", s.WordDelta)
	}
}

func TestSummarizeNullFields(t *testing.T) {
	// WHAT: nil counts on either side of the comparison yield a zero delta;
	// the current value falls back to the most recent non-nil sample.
	history := []samples.Sample{
		sample(1, 10, 100),
		{ProjectID: "p1", Timestamp: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}, // failed attempt
	}

	s := Summarize(history, time.UTC)
	if s.WordCount != 100 {
		t.Errorf("current = %d, want 100 (last non-nil)", s.WordCount)
	}
	if s.WordDelta != 0 {
		t.Errorf("delta = %d, want 0 when latest count is nil", s.WordDelta)
	}
}

func TestSummarizeSingleDayNoDelta(t *testing.T) {
	history := []samples.Sample{sample(1, 9, 100), sample(1, 18, 130)}
	s := Summarize(history, time.UTC)
	if s.WordDelta != 0 {
		t.Errorf("delta = %d, want 0 without a prior day", s.WordDelta)
	}
}

func TestPivotGapFillMonotonic(t *testing.T) {
	// WHAT: a project sampled on day1 and day4 holds day1's value through
	// days 2-3 in the pivoted matrix.
	// WHY: extraction gaps must not render as drops to zero.
	history := []samples.Sample{
		sample(1, 10, 100),
		{ProjectID: "p2", Timestamp: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), WordCount: samples.Int64(50)},
		{ProjectID: "p2", Timestamp: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), WordCount: samples.Int64(70)},
		sample(4, 10, 220),
	}
	names := map[string]string{"p1": "Thesis", "p2": "Paper"}

	m := Pivot(history, names, MetricWords, time.UTC)
	if len(m.Times) != 4 {
		t.Fatalf("rows = %d, want 4", len(m.Times))
	}
	if len(m.Columns) != 2 || m.Columns[0] != "Thesis" || m.Columns[1] != "Paper" {
		t.Fatalf("columns = %v", m.Columns)
	}

	// Thesis column: 100 on rows 0-2 (forward fill), 220 on row 3.
	wantThesis := []int64{100, 100, 100, 220}
	for r, want := range wantThesis {
		if m.Cells[r][0] != want {
			t.Errorf("thesis row %d = %d, want %d", r, m.Cells[r][0], want)
		}
	}
	// Paper column: back-filled 50 on row 0, then 50, 70, 70.
	wantPaper := []int64{50, 50, 70, 70}
	for r, want := range wantPaper {
		if m.Cells[r][1] != want {
			t.Errorf("paper row %d = %d, want %d", r, m.Cells[r][1], want)
		}
	}

	// Monotonicity per column.
	for c := range m.Columns {
		for r := 1; r < len(m.Times); r++ {
			if m.Cells[r][c] < m.Cells[r-1][c] {
				t.Errorf("column %d decreases at row %d", c, r)
			}
		}
	}
}

func TestPivotSkipsNilAndUnknownNames(t *testing.T) {
	history := []samples.Sample{
		sample(1, 10, 100),
		{ProjectID: "p1", Timestamp: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}, // nil count
	}

	m := Pivot(history, map[string]string{}, MetricWords, time.UTC)
	if len(m.Times) != 1 {
		t.Fatalf("rows = %d, want 1 (nil samples contribute nothing)", len(m.Times))
	}
	if m.Columns[0] != "p1" {
		t.Errorf("unknown id should keep raw id as label, got %q", m.Columns[0])
	}
}

func TestPivotRoundsToMinute(t *testing.T) {
	history := []samples.Sample{
		{ProjectID: "a", Timestamp: time.Date(2026, 3, 1, 10, 0, 10, 0, time.UTC), WordCount: samples.Int64(1)},
		{ProjectID: "b", Timestamp: time.Date(2026, 3, 1, 10, 0, 20, 0, time.UTC), WordCount: samples.Int64(2)},
	}

	m := Pivot(history, nil, MetricWords, time.UTC)
	if len(m.Times) != 1 {
		t.Fatalf("rows = %d, want 1 (both samples share the 10:00 grid slot)", len(m.Times))
	}
	if !m.Times[0].Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("grid time = %v", m.Times[0])
	}
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load Europe/Berlin: %v", err)
	}
	return loc
}

func TestPivotSpringForwardSkipsMissingHour(t *testing.T) {
	// WHAT: a sample whose rounded wall time falls into the hour skipped by
	// the Berlin spring-forward (02:00 on 2026-03-29 never happens) lands on
	// the next valid instant, 03:00 CEST, and the grid stays ordered.
	// WHY: rounding reconstructs wall times with time.Date; a regression to
	// truncating the UTC instant would label rows with clock times no Berlin
	// wall clock ever showed.
	loc := berlin(t)
	history := []samples.Sample{
		// 01:59:50 CET, so the +30s rounding targets the missing 02:00.
		{ProjectID: "p1", Timestamp: time.Date(2026, 3, 29, 0, 59, 50, 0, time.UTC), WordCount: samples.Int64(10)},
		// 03:30:00 CEST.
		{ProjectID: "p1", Timestamp: time.Date(2026, 3, 29, 1, 30, 0, 0, time.UTC), WordCount: samples.Int64(20)},
	}

	m := Pivot(history, nil, MetricWords, loc)
	if len(m.Times) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.Times))
	}
	if want := time.Date(2026, 3, 29, 1, 0, 0, 0, time.UTC); !m.Times[0].Equal(want) {
		t.Errorf("row 0 = %v, want the 03:00 CEST instant (%v)", m.Times[0], want)
	}
	if h, min := m.Times[0].Hour(), m.Times[0].Minute(); h != 3 || min != 0 {
		t.Errorf("row 0 wall time = %02d:%02d, want 03:00", h, min)
	}
	if _, off := m.Times[0].Zone(); off != 2*60*60 {
		t.Errorf("row 0 offset = %ds, want +2h (CEST)", off)
	}
	if !m.Times[0].Before(m.Times[1]) {
		t.Errorf("grid out of order: %v !< %v", m.Times[0], m.Times[1])
	}
}

func TestPivotFallBackResolvesAmbiguousHour(t *testing.T) {
	// WHAT: on the Berlin fall-back day (2026-10-25, 03:00 CEST jumps to
	// 02:00 CET) the wall time 02:30 occurs twice; rounding resolves both
	// passes to the single post-transition 02:30 CET instant, so the grid
	// gets one row, not two rows with the same label.
	loc := berlin(t)
	history := []samples.Sample{
		// 02:30:10 CEST, first pass through the repeated hour.
		{ProjectID: "p1", Timestamp: time.Date(2026, 10, 25, 0, 30, 10, 0, time.UTC), WordCount: samples.Int64(10)},
		// 02:30:05 CET, second pass, one real hour later.
		{ProjectID: "p1", Timestamp: time.Date(2026, 10, 25, 1, 30, 5, 0, time.UTC), WordCount: samples.Int64(25)},
	}

	m := Pivot(history, nil, MetricWords, loc)
	if len(m.Times) != 1 {
		t.Fatalf("rows = %d, want 1 (ambiguous 02:30 resolves to one instant)", len(m.Times))
	}
	if want := time.Date(2026, 10, 25, 1, 30, 0, 0, time.UTC); !m.Times[0].Equal(want) {
		t.Errorf("row 0 = %v, want the 02:30 CET instant (%v)", m.Times[0], want)
	}
	if _, off := m.Times[0].Zone(); off != 60*60 {
		t.Errorf("row 0 offset = %ds, want +1h (CET)", off)
	}
	if m.Cells[0][0] != 25 {
		t.Errorf("cell = %d, want 25 (later sample wins the shared slot)", m.Cells[0][0])
	}
}

func TestDailyDeltasDropsAllZeroDays(t *testing.T) {
	// Day 1: baseline. Day 2: +50. Day 3: no movement. Day 4: +30.
	history := []samples.Sample{
		sample(1, 10, 100),
		sample(2, 10, 150),
		sample(3, 10, 150),
		sample(4, 10, 180),
	}

	d := DailyDeltas(Pivot(history, nil, MetricWords, time.UTC))
	if len(d.Days) != 2 {
		t.Fatalf("days = %d, want 2 (zero day dropped)", len(d.Days))
	}
	if d.Days[0].Day() != 2 || d.Cells[0][0] != 50 {
		t.Errorf("first delta day = %v %v", d.Days[0], d.Cells[0])
	}
	if d.Days[1].Day() != 4 || d.Cells[1][0] != 30 {
		t.Errorf("second delta day = %v %v", d.Days[1], d.Cells[1])
	}
}

func TestDailyDeltasSumsIntraDay(t *testing.T) {
	history := []samples.Sample{
		sample(1, 10, 100),
		sample(2, 9, 120),
		sample(2, 12, 170),
		sample(2, 20, 200),
	}

	d := DailyDeltas(Pivot(history, nil, MetricWords, time.UTC))
	if len(d.Days) != 1 {
		t.Fatalf("days = %d, want 1", len(d.Days))
	}
	if d.Cells[0][0] != 100 {
		t.Errorf("day2 delta = %d, want 100 (20+50+30)", d.Cells[0][0])
	}
}

func TestMovingAverageShrinkingWindow(t *testing.T) {
	d := &DailyMatrix{
		Days: []time.Time{
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		Columns: []string{"p"},
		Cells:   [][]int64{{10}, {20}, {30}, {40}},
	}

	avg := MovingAverage(d, 3)
	want := []float64{10, 15, 20, 30}
	for r, w := range want {
		if avg[r][0] != w {
			t.Errorf("avg[%d] = %v, want %v", r, avg[r][0], w)
		}
	}
}

func dailyMatrix(totals ...int64) *DailyMatrix {
	d := &DailyMatrix{Columns: []string{"p"}}
	for i, v := range totals {
		if v == 0 {
			continue // the pipeline drops all-zero days
		}
		d.Days = append(d.Days, time.Date(2026, 3, 1+i, 0, 0, 0, 0, time.UTC))
		d.Cells = append(d.Cells, []int64{v})
	}
	return d
}

func TestProductivityStreaks(t *testing.T) {
	// WHAT: deltas [5,0,3,4,0,2] over days 1-6 yield longest streak 2
	// (days 3-4) and current streak 1 when day 6 is today.
	d := dailyMatrix(5, 0, 3, 4, 0, 2)
	today := time.Date(2026, 3, 6, 15, 0, 0, 0, time.UTC)

	st := Productivity(d, today)
	if st.LongestStreak != 2 {
		t.Errorf("longest streak = %d, want 2", st.LongestStreak)
	}
	if st.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1", st.CurrentStreak)
	}
	if st.BestTotal != 5 || st.BestDay.Day() != 1 {
		t.Errorf("best day = %v (%d), want day1 (5)", st.BestDay, st.BestTotal)
	}
	if !st.HasWorst || st.WorstTotal != 2 || st.WorstDay.Day() != 6 {
		t.Errorf("worst active day = %v (%d), want day6 (2)", st.WorstDay, st.WorstTotal)
	}
	if st.ActiveDays != 4 {
		t.Errorf("active days = %d, want 4", st.ActiveDays)
	}
	if want := (5.0 + 3 + 4 + 2) / 4.0; st.ActiveDayMean != want {
		t.Errorf("active mean = %v, want %v", st.ActiveDayMean, want)
	}
}

func TestProductivityCurrentStreakStaleDay(t *testing.T) {
	// WHAT: current streak is zero when the last active day is not today.
	d := dailyMatrix(5, 3)
	today := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	st := Productivity(d, today)
	if st.CurrentStreak != 0 {
		t.Errorf("current streak = %d, want 0", st.CurrentStreak)
	}
	if st.LongestStreak != 2 {
		t.Errorf("longest streak = %d, want 2", st.LongestStreak)
	}
}

func TestProductivityNoActiveDays(t *testing.T) {
	st := Productivity(&DailyMatrix{Columns: []string{"p"}}, time.Now())
	if st.HasWorst || st.ActiveDays != 0 || st.LongestStreak != 0 {
		t.Errorf("empty stats = %+v", st)
	}
}

func TestProductivityNegativeDayBreaksStreak(t *testing.T) {
	// WHAT: a day with net deletions (total < 0) is not active and breaks
	// the streak even though it survives the zero-day filter.
	d := dailyMatrix(5, 4, -3, 2)
	today := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

	st := Productivity(d, today)
	if st.LongestStreak != 2 {
		t.Errorf("longest streak = %d, want 2", st.LongestStreak)
	}
	if st.CurrentStreak != 1 {
		t.Errorf("current streak = %d, want 1", st.CurrentStreak)
	}
}
