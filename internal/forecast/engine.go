// internal/forecast/engine.go
package forecast

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zeccol/marketlist/internal/domain"
)

// DefaultSafetyCushion is the multiplicative buffer applied to raw forecasts
// to guard against under-ordering.
const DefaultSafetyCushion = 1.10

const yearlySeasonalityMinObs = 25

// Engine forecasts per-item usage from the loaded issuance history. Build it
// once per run; Forecast never mutates shared state.
type Engine struct {
	index   map[string][]point
	cushion float64
}

// NewEngine indexes the issuance table by item. A cushion <= 0 falls back to
// the default.
func NewEngine(records []domain.IssuanceRecord, cushion float64) *Engine {
	if cushion <= 0 {
		cushion = DefaultSafetyCushion
	}

	index := make(map[string][]point)
	for _, rec := range records {
		index[rec.Item] = append(index[rec.Item], point{t: rec.Date, y: rec.Usage})
	}
	for item := range index {
		series := index[item]
		sort.Slice(series, func(i, j int) bool { return series[i].t.Before(series[j].t) })
		index[item] = series
	}

	return &Engine{index: index, cushion: cushion}
}

// Dates returns the item's issuance dates in ascending order, for the
// recurrence-interval diagnostic.
func (e *Engine) Dates(item string) []time.Time {
	series := e.index[item]
	dates := make([]time.Time, len(series))
	for i, p := range series {
		dates[i] = p.t
	}
	return dates
}

// SeriesFingerprint identifies the item's history content, so cached
// forecasts are never served against changed data.
func (e *Engine) SeriesFingerprint(item string) string {
	h := sha1.New()
	for _, p := range e.index[item] {
		fmt.Fprintf(h, "%s|%g;", p.t.Format("2006-01-02"), p.y)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Forecast produces the cushioned point forecast for the item over the
// horizon. Zero means insufficient history or model failure, never a
// prediction of zero demand. Model failures are logged and recovered here;
// they never abort a batch.
func (e *Engine) Forecast(item string, h Horizon) domain.ForecastResult {
	result := domain.ForecastResult{Item: item, Horizon: h.String(), Cushion: e.cushion}

	series := e.index[item]
	if len(series) == 0 {
		return result
	}

	agg := aggregate(series, h)
	if len(agg) < 3 {
		return result
	}

	seas := seasonality{
		daily:  h.Kind == Days,
		weekly: true,
		yearly: len(agg) >= yearlySeasonalityMinObs,
	}

	model, err := fitAdditive(agg, seas)
	if err != nil {
		modelErr := &domain.ForecastModelError{Item: item, Err: err}
		log.Warn().Err(modelErr).Str("item", item).Str("horizon", h.String()).
			Msg("forecast model failed, treating as zero")
		return result
	}

	last := agg[len(agg)-1].t
	var raw float64
	switch h.Kind {
	case Weekly:
		raw = model.predict(last.AddDate(0, 0, 7))
	case Monthly:
		// last is a month-end stamp; adding a calendar month overflows for
		// 31-day months, so step one day forward instead.
		raw = model.predict(endOfMonth(last.AddDate(0, 0, 1)))
	case Days:
		for i := 1; i <= h.N; i++ {
			raw += model.predict(last.AddDate(0, 0, i))
		}
	}

	result.Quantity = math.Round(math.Max(0, raw*e.cushion))
	return result
}

// aggregate rolls the raw daily series up to the horizon's native
// granularity: calendar-week sums stamped on the week-ending Sunday,
// calendar-month sums stamped on the month end, or the raw daily records for
// an N-day horizon.
func aggregate(series []point, h Horizon) []point {
	keyFor := func(t time.Time) time.Time {
		switch h.Kind {
		case Weekly:
			return t.AddDate(0, 0, (7-int(t.Weekday()))%7)
		case Monthly:
			return endOfMonth(t)
		default:
			return t
		}
	}

	sums := make(map[time.Time]float64)
	var order []time.Time
	for _, p := range series {
		key := keyFor(p.t)
		if _, seen := sums[key]; !seen {
			order = append(order, key)
		}
		sums[key] += p.y
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })
	agg := make([]point, len(order))
	for i, key := range order {
		agg[i] = point{t: key, y: sums[key]}
	}
	return agg
}

func endOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}
