// internal/forecast/horizon.go
package forecast

import (
	"fmt"
	"strconv"
	"strings"
)

// HorizonKind selects the forecasting target period.
type HorizonKind int

const (
	Weekly HorizonKind = iota
	Monthly
	Days
)

// Horizon is the forecasting target: one calendar week, one calendar month,
// or an explicit N-day window (1..90).
type Horizon struct {
	Kind HorizonKind
	N    int // day count, only for Days
}

// ParseHorizon accepts "weekly", "monthly", or an integer day count,
// optionally suffixed with "d" (e.g. "14d").
func ParseHorizon(s string) (Horizon, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly":
		return Horizon{Kind: Weekly}, nil
	case "monthly", "":
		return Horizon{Kind: Monthly}, nil
	}

	raw := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "d")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Horizon{}, fmt.Errorf("invalid horizon %q: want weekly, monthly, or a day count", s)
	}
	if n < 1 || n > 90 {
		return Horizon{}, fmt.Errorf("invalid horizon %q: day count must be within 1..90", s)
	}
	return Horizon{Kind: Days, N: n}, nil
}

func (h Horizon) String() string {
	switch h.Kind {
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return fmt.Sprintf("%dd", h.N)
	}
}
