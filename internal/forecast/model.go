// internal/forecast/model.go
package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// point is one observation of an aggregated usage series.
type point struct {
	t time.Time
	y float64
}

// seasonality selects which additive components the model carries.
type seasonality struct {
	daily  bool // hour-of-day; meaningful only for sub-weekly granularity
	weekly bool
	yearly bool
}

// additiveModel is a seasonal additive usage model: a least-squares linear
// trend over elapsed days plus mean-residual seasonal components per
// weekday, month and hour bucket.
type additiveModel struct {
	t0    time.Time
	alpha float64
	beta  float64

	seas    seasonality
	weekday [7]float64
	month   [13]float64 // 1-indexed by time.Month
	hour    [24]float64
}

// fitAdditive fits trend then seasonal components sequentially on the
// detrended residuals (weekly, then yearly, then daily).
func fitAdditive(points []point, seas seasonality) (*additiveModel, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("need at least 3 observations, have %d", len(points))
	}

	t0 := points[0].t
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.t.Sub(t0).Hours() / 24
		ys[i] = p.y
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return nil, fmt.Errorf("degenerate trend fit over %d observations", len(points))
	}

	m := &additiveModel{t0: t0, alpha: alpha, beta: beta, seas: seas}

	resid := make([]float64, len(points))
	for i := range points {
		resid[i] = ys[i] - (alpha + beta*xs[i])
	}

	if seas.weekly {
		var sum [7]float64
		var n [7]int
		for i, p := range points {
			wd := int(p.t.Weekday())
			sum[wd] += resid[i]
			n[wd]++
		}
		for wd := range sum {
			if n[wd] > 0 {
				m.weekday[wd] = sum[wd] / float64(n[wd])
			}
		}
		for i, p := range points {
			resid[i] -= m.weekday[int(p.t.Weekday())]
		}
	}

	if seas.yearly {
		var sum [13]float64
		var n [13]int
		for i, p := range points {
			mo := int(p.t.Month())
			sum[mo] += resid[i]
			n[mo]++
		}
		for mo := range sum {
			if n[mo] > 0 {
				m.month[mo] = sum[mo] / float64(n[mo])
			}
		}
		for i, p := range points {
			resid[i] -= m.month[int(p.t.Month())]
		}
	}

	if seas.daily {
		var sum [24]float64
		var n [24]int
		for i, p := range points {
			h := p.t.Hour()
			sum[h] += resid[i]
			n[h]++
		}
		for h := range sum {
			if n[h] > 0 {
				m.hour[h] = sum[h] / float64(n[h])
			}
		}
	}

	return m, nil
}

// predict returns the modelled usage at t.
func (m *additiveModel) predict(t time.Time) float64 {
	x := t.Sub(m.t0).Hours() / 24
	y := m.alpha + m.beta*x
	if m.seas.weekly {
		y += m.weekday[int(t.Weekday())]
	}
	if m.seas.yearly {
		y += m.month[int(t.Month())]
	}
	if m.seas.daily {
		y += m.hour[t.Hour()]
	}
	return y
}
