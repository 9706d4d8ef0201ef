package query

import (
	"fmt"
	"time"
)

// DateRange bounds a stats query. A zero To means "now"; a zero From means
// the 30 days preceding To.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Normalize fills in the defaults and returns a fully bounded range.
func (r DateRange) Normalize(now time.Time) DateRange {
	if r.To.IsZero() {
		r.To = now
	}
	if r.From.IsZero() {
		r.From = r.To.AddDate(0, 0, -30)
	}
	return r
}

// Previous returns the window of equal length immediately preceding r.
// Growth comparisons re-run the same scoped count over this window.
func (r DateRange) Previous() DateRange {
	length := r.To.Sub(r.From)
	return DateRange{From: r.From.Add(-length), To: r.From}
}

// Growth is a period-over-period comparison for a dashboard dimension.
type Growth struct {
	Value      float64 `json:"value" doc:"Percent change versus the previous period"`
	IsPositive bool    `json:"is_positive" doc:"True when the metric did not decrease"`
	IsNew      bool    `json:"is_new" doc:"True when the previous period had no data"`
	Period     string  `json:"period" doc:"Human-readable comparison period"`
}

// ComputeGrowth compares a current count against the previous period's count.
// A zero previous count yields the +100% "new" sentinel rather than a
// division by zero.
func ComputeGrowth(current, previous int64, r DateRange) Growth {
	period := fmt.Sprintf("vs %s", r.Previous().From.Format("Jan 2"))

	if previous == 0 {
		if current == 0 {
			return Growth{IsPositive: true, Period: period}
		}
		return Growth{Value: 100, IsPositive: true, IsNew: true, Period: period}
	}

	delta := float64(current-previous) / float64(previous) * 100
	return Growth{Value: delta, IsPositive: delta >= 0, Period: period}
}
