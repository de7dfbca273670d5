package intake

import (
	"time"

	"github.com/nutricare/nutricare/internal/nutrition"
)

// Window is an inclusive range of calendar dates. Dates are interpreted in
// the location of Start.
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days in the window, counting both ends.
func (w Window) Days() int {
	return daysBetween(civilDate(w.Start, w.Start.Location()), civilDate(w.End, w.Start.Location())) + 1
}

// Contains reports whether t falls on a date inside the window.
func (w Window) Contains(t time.Time) bool {
	loc := w.Start.Location()
	d := civilDate(t, loc)
	return !d.Before(civilDate(w.Start, loc)) && !d.After(civilDate(w.End, loc))
}

// Aggregated is the total and per-day average intake over a window.
type Aggregated struct {
	Start         time.Time          `json:"start"`
	End           time.Time          `json:"end"`
	Days          int                `json:"days"`
	Total         map[string]float64 `json:"total"`
	AveragePerDay map[string]float64 `json:"average_per_day"`
}

// Aggregate sums the nutrients of records dated inside the window and divides
// every sum by the window length, whether or not each day has records.
func Aggregate(records []*Record, w Window) (Aggregated, error) {
	days := w.Days()
	if days < 1 {
		return Aggregated{}, nutrition.InvalidField("date_range", "end date is before start date")
	}

	total := make(map[string]float64)
	for _, r := range records {
		if r == nil || !w.Contains(r.ConsumedAt) {
			continue
		}
		for k, v := range r.Nutrients.Flatten() {
			total[k] += v
		}
	}

	avg := make(map[string]float64, len(total))
	for k, v := range total {
		avg[k] = nutrition.Round2(v / float64(days))
	}

	return Aggregated{
		Start:         w.Start,
		End:           w.End,
		Days:          days,
		Total:         total,
		AveragePerDay: avg,
	}, nil
}

func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
