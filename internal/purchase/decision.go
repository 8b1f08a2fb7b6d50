// internal/purchase/decision.go
package purchase

import (
	"fmt"
	"math"
	"strings"

	"github.com/zeccol/marketlist/internal/domain"
)

// significanceThreshold is the relative-deviation cutoff below which a
// current balance counts as "close enough" to the forecast to skip the item.
// Domain-tuned policy; do not adjust casually.
const significanceThreshold = 0.05

// Engine converts a forecasted quantity plus the item's stock row into a
// purchasable order line. It is pure: appending the line to a sheet is the
// orchestrator's job.
type Engine struct {
	procurement []domain.ProcurementRecord
}

func NewEngine(procurement []domain.ProcurementRecord) *Engine {
	return &Engine{procurement: procurement}
}

// lineContext carries one item's working values through the decision steps.
// Passed by value between helpers; nothing accumulates on the Engine.
type lineContext struct {
	item       string
	forecast   float64
	balance    float64
	caseQty    float64
	bundleQty  float64
	bundleUnit string
	ptnName    string
	rate       float64
}

// ShouldSkip applies the significance test: a balance at or above the
// forecast with a relative deviation under 5% is already close enough. When
// the forecast is zero, the ratio uses divisor 1. A shortfall never skips.
func ShouldSkip(currentBalance, forecastQty float64) bool {
	if currentBalance < forecastQty {
		return false
	}
	divisor := forecastQty
	if divisor == 0 {
		divisor = 1
	}
	deviation := math.Abs(currentBalance/divisor - 1)
	return deviation < significanceThreshold
}

// SplitShares divides a shared staff-food forecast into its staff and house
// shares using the proportion table's STAFF FOOD entry, defaulting to 30/70
// when the item has no entry.
func SplitShares(forecastQty float64, proportions map[string]float64) (staff, house float64) {
	staffShare := 0.3
	if p, ok := proportions["STAFF FOOD"]; ok {
		staffShare = p
	}
	return forecastQty * staffShare, forecastQty * (1 - staffShare)
}

// Decide computes the purchase line for one item, or (nil, nil) when the
// significance test says the stock is already close enough. Missing stock
// fields surface as a PurchaseComputationError for the caller to log and
// recover from.
func (e *Engine) Decide(item string, forecastQty float64, stock domain.StockRecord) (*domain.PurchaseLine, error) {
	lc, err := newLineContext(item, forecastQty, stock)
	if err != nil {
		return nil, err
	}

	if ShouldSkip(lc.balance, lc.forecast) {
		return nil, nil
	}

	if strings.Contains(lc.bundleUnit, "Batch") {
		lc.bundleUnit = recalibrateBatchLabel(lc.bundleUnit, item, e.procurement)
	}

	line := &domain.PurchaseLine{
		Item:         item,
		ReorderLevel: reorderDisplay(lc),
	}

	neededQty := math.Ceil(lc.forecast - lc.balance)
	if neededQty < 0 {
		neededQty = math.Ceil(math.Abs(neededQty))
	}

	var buy, buyFlag float64
	if lc.caseQty == 1 {
		buy = neededQty / lc.bundleQty
		buyFlag = buy
	} else {
		buy = neededQty / lc.caseQty
		buyFlag = neededQty / lc.bundleQty
	}

	// Rounding breakpoints encode the store's minimum purchasable fractions.
	if buyFlag < 0.5 {
		buy = 0.5
	} else if buyFlag < 1 {
		buy = 1
	}
	buy = roundTo(buy, 1)
	line.Buy = fmt.Sprintf("%s %s", formatQty(buy), lc.bundleUnit)

	if lc.caseQty == 1 {
		line.Rate = roundToNearest(lc.rate*lc.bundleQty, 100)
	} else {
		if buy < lc.bundleQty {
			// Express the purchase as whole bundles instead of a case fraction.
			line.Buy = fmt.Sprintf("%d %s", int(lc.bundleQty/buy), lc.bundleUnit)
			buy = buy / lc.bundleQty
		}
		line.Rate = roundToNearest(lc.rate*lc.caseQty*lc.bundleQty, 100)
	}

	line.Amount = math.Round(line.Rate * buy)
	return line, nil
}

func newLineContext(item string, forecastQty float64, stock domain.StockRecord) (lineContext, error) {
	required := map[string]domain.NullFloat{
		"Case Qty":        stock.CaseQty,
		"Bundle Qty":      stock.BundleQty,
		"Rate":            stock.Rate,
		"Current Balance": stock.CurrentBalance,
	}
	for field, v := range required {
		if !v.Valid {
			return lineContext{}, &domain.PurchaseComputationError{
				Item: item,
				Err:  fmt.Errorf("stock field %q is missing", field),
			}
		}
	}
	if stock.BundleQty.Value == 0 || stock.CaseQty.Value == 0 {
		return lineContext{}, &domain.PurchaseComputationError{
			Item: item,
			Err:  fmt.Errorf("zero case or bundle quantity"),
		}
	}

	balance := stock.CurrentBalance.Value
	if balance < 0 {
		balance = 0
	}

	return lineContext{
		item:       item,
		forecast:   forecastQty,
		balance:    balance,
		caseQty:    stock.CaseQty.Value,
		bundleQty:  stock.BundleQty.Value,
		bundleUnit: stock.BundleUnit,
		ptnName:    stock.PortionName,
		rate:       stock.Rate.Value,
	}, nil
}

// reorderDisplay renders the on-hand quantity in the largest sensible unit:
// portions while under one bundle, whole bundles otherwise.
func reorderDisplay(lc lineContext) string {
	if lc.balance < lc.bundleQty {
		return fmt.Sprintf("%s %s", formatQty(lc.balance), lc.ptnName)
	}
	return fmt.Sprintf("%s %s", formatQty(math.Floor(lc.balance/lc.bundleQty)), lc.bundleUnit)
}
