// internal/purchase/round.go
package purchase

import (
	"math"
	"strconv"
)

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// roundToNearest rounds v to the nearest multiple of base (100 for unit
// rates, 1000 for batch amounts).
func roundToNearest(v, base float64) float64 {
	if base == 0 {
		return math.Round(v)
	}
	return math.Round(v/base) * base
}

// formatQty renders a quantity the way it reads on an order sheet: no
// exponent, no trailing zeros.
func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
