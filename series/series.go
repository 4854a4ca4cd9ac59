// CLAUDE:SUMMARY Aggregation types and Summarize: current counts with day-over-day deltas.
// Package series turns raw sample history into chart-ready views: current
// summaries, a pivoted multi-project matrix, daily deltas, moving averages
// and productivity statistics.
//
// Every function is pure over a slice of samples; nothing here touches the
// store. Timestamps are converted into the viewer's location before any
// calendar arithmetic, so "day" always means a local calendar day.
package series

import (
	"time"

	"github.com/hazyhaar/scrib/samples"
)

// Metric selects which sample field a view aggregates.
type Metric string

const (
	MetricWords Metric = "word_count"
	MetricPages Metric = "page_count"
)

// value returns the metric field of a sample, nil when that side of the
// extraction failed.
func (m Metric) value(s samples.Sample) *int64 {
	if m == MetricPages {
		return s.PageCount
	}
	return s.WordCount
}

// Summary is the current state of one project.
type Summary struct {
	WordCount    int64     `json:"current_word_count"`
	PageCount    int64     `json:"current_page_count"`
	WordDelta    int64     `json:"word_count_delta"`
	PageDelta    int64     `json:"page_count_delta"`
	LastUpdate   time.Time `json:"last_update"`
	Measurements int       `json:"total_measurements"`
}

// Summarize computes a project's current counts and day-over-day deltas.
// history must be ascending by timestamp (the store's History order).
// Returns nil when there is no history.
//
// The delta compares the latest sample against the last sample strictly
// before the latest sample's calendar date — not simply the previous row —
// so several samples on the same day don't inflate the delta, and a
// multi-day gap compares against the most recent prior day rather than
// yesterday literally.
func Summarize(history []samples.Sample, loc *time.Location) *Summary {
	if len(history) == 0 {
		return nil
	}
	latest := history[len(history)-1]

	sum := &Summary{
		WordCount:    lastKnown(history, MetricWords),
		PageCount:    lastKnown(history, MetricPages),
		LastUpdate:   latest.Timestamp,
		Measurements: len(history),
	}

	prior := lastBeforeDay(history, day(latest.Timestamp, loc), loc)
	if prior != nil {
		if latest.WordCount != nil && prior.WordCount != nil {
			sum.WordDelta = *latest.WordCount - *prior.WordCount
		}
		if latest.PageCount != nil && prior.PageCount != nil {
			sum.PageDelta = *latest.PageCount - *prior.PageCount
		}
	}
	return sum
}

// lastKnown returns the most recent non-nil value of the metric, 0 if none.
func lastKnown(history []samples.Sample, m Metric) int64 {
	for i := len(history) - 1; i >= 0; i-- {
		if v := m.value(history[i]); v != nil {
			return *v
		}
	}
	return 0
}

// lastBeforeDay returns the last sample whose local calendar day is strictly
// before d, or nil.
func lastBeforeDay(history []samples.Sample, d time.Time, loc *time.Location) *samples.Sample {
	for i := len(history) - 1; i >= 0; i-- {
		if day(history[i].Timestamp, loc).Before(d) {
			return &history[i]
		}
	}
	return nil
}

// day truncates an instant to midnight of its local calendar day.
func day(t time.Time, loc *time.Location) time.Time {
	tl := t.In(loc)
	return time.Date(tl.Year(), tl.Month(), tl.Day(), 0, 0, 0, 0, loc)
}
