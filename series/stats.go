// CLAUDE:SUMMARY Productivity statistics: best/worst active day, active mean, streaks.
package series

import "time"

// Stats summarises writing productivity across all projects. A day is
// "active" when the summed word delta over all projects is greater than
// zero.
type Stats struct {
	BestDay       time.Time `json:"best_day"`
	BestTotal     int64     `json:"best_total"`
	WorstDay      time.Time `json:"worst_day,omitzero"`
	WorstTotal    int64     `json:"worst_total"`
	HasWorst      bool      `json:"has_worst"`
	ActiveDays    int       `json:"active_days"`
	ActiveDayMean float64   `json:"active_day_mean"`
	LongestStreak int       `json:"longest_streak"`
	CurrentStreak int       `json:"current_streak"`
}

// Productivity computes cross-project statistics from daily deltas. today
// anchors the current-streak check: the streak ending at the most recent
// active day counts only if that day is today's calendar day.
func Productivity(d *DailyMatrix, today time.Time) Stats {
	var st Stats
	if len(d.Days) == 0 {
		return st
	}
	loc := d.Days[0].Location()
	todayDay := day(today, loc)

	var activeSum int64
	var streak int
	var prevActive time.Time

	for r, dd := range d.Days {
		var total int64
		for c := range d.Columns {
			total += d.Cells[r][c]
		}

		if r == 0 || total > st.BestTotal {
			st.BestTotal = total
			st.BestDay = dd
		}

		if total <= 0 {
			continue
		}

		if !st.HasWorst || total < st.WorstTotal {
			st.WorstTotal = total
			st.WorstDay = dd
			st.HasWorst = true
		}

		st.ActiveDays++
		activeSum += total

		// AddDate instead of 24h arithmetic: DST days are 23 or 25 hours.
		if !prevActive.IsZero() && prevActive.AddDate(0, 0, 1).Equal(dd) {
			streak++
		} else {
			streak = 1
		}
		prevActive = dd
		if streak > st.LongestStreak {
			st.LongestStreak = streak
		}
	}

	if st.ActiveDays > 0 {
		st.ActiveDayMean = float64(activeSum) / float64(st.ActiveDays)
	}
	if !prevActive.IsZero() && prevActive.Equal(todayDay) {
		st.CurrentStreak = streak
	}
	return st
}
