// internal/forecast/frequency.go
package forecast

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TypicalIntervalDays estimates how often an item recurs in its issuance
// history: consecutive-date deltas are filtered through the usual
// [Q1-1.5*IQR, Q3+1.5*IQR] fence and the survivors averaged. An average with
// an hour component of 13 or more rounds the day count up; a zero day count
// becomes one, since a recurrence cannot be zero days.
//
// ok is false when fewer than 2 dates are available or no delta survives the
// fence. The result is a diagnostic; it does not gate forecasting.
func TypicalIntervalDays(dates []time.Time) (days int, ok bool) {
	if len(dates) < 2 {
		return 0, false
	}

	deltas := make([]float64, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		deltas = append(deltas, dates[i].Sub(dates[i-1]).Hours()/24)
	}

	sorted := append([]float64(nil), deltas...)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr

	kept := make([]float64, 0, len(deltas))
	for _, d := range deltas {
		if d >= lower && d <= upper {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return 0, false
	}

	avg := time.Duration(stat.Mean(kept, nil) * 24 * float64(time.Hour))
	days = int(avg / (24 * time.Hour))
	hours := int((avg % (24 * time.Hour)) / time.Hour)

	if hours >= 13 {
		return days + 1, true
	}
	if days == 0 {
		return 1, true
	}
	return days, true
}
