// internal/purchase/batch.go
package purchase

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/zeccol/marketlist/internal/domain"
)

var (
	parenExpr  = regexp.MustCompile(`\(([^)]*)\)`)
	digitsExpr = regexp.MustCompile(`\d+`)
)

// recalibrateBatchLabel refreshes a batch-priced bundle label from recent
// procurement: the mean of the last three non-trivial purchases (amount
// rounded to the nearest thousand, quantity ceiled) is embedded back into
// the "Batch(<avg>X<count>/<price>)" text. Without usable history the label
// is returned unchanged.
func recalibrateBatchLabel(label, item string, history []domain.ProcurementRecord) string {
	var recent []domain.ProcurementRecord
	for _, rec := range history {
		if rec.Item == item && rec.Amount > 1 {
			recent = append(recent, rec)
		}
	}
	if len(recent) == 0 {
		return label
	}
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	var amtSum, qtySum float64
	for _, rec := range recent {
		amtSum += rec.Amount
		qtySum += rec.Qty
	}
	meanAmt := roundToNearest(amtSum/float64(len(recent)), 1000)
	meanQty := math.Ceil(qtySum / float64(len(recent)))

	return rewriteBatchLabel(label, meanQty, meanAmt)
}

// rewriteBatchLabel splices a new per-batch count and price into the label's
// parenthesised "<avg>X<count>/<price>" body. The price is shortened to its
// thousands figure (e.g. 12000 reads as "12").
func rewriteBatchLabel(label string, qty, amount float64) string {
	body := parenExpr.FindStringSubmatch(strings.TrimSpace(strings.ReplaceAll(label, "Batch", "")))
	if body == nil {
		return label
	}

	parts := strings.SplitN(body[1], "X", 2)
	if len(parts) != 2 {
		return label
	}
	countAndPrice := strings.SplitN(parts[1], "/", 2)
	if len(countAndPrice) != 2 {
		return label
	}

	price := strconv.FormatFloat(amount, 'f', 1, 64)
	price = price[:len(price)-2] // drop ".N"
	if len(price) > 4 {
		price = price[:2]
	} else {
		price = price[:1]
	}

	qtyStr := strconv.FormatFloat(qty, 'f', -1, 64)
	newCount := digitsExpr.ReplaceAllString(countAndPrice[0], qtyStr)
	newPrice := digitsExpr.ReplaceAllString(countAndPrice[1], price)

	return "Batch(" + parts[0] + "X" + newCount + "/" + newPrice + ")"
}
