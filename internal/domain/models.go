// internal/domain/models.go
package domain

import "time"

// IssuanceRecord is a single cleaned issuance row: how much of an item one
// department drew from the store on a given day. After loading, rows are
// grouped so (Date, Item, Category) is unique with Usage summed.
type IssuanceRecord struct {
	Date       time.Time `json:"date"`
	Item       string    `json:"item"`
	Category   string    `json:"category"`
	Department string    `json:"department"`
	Usage      float64   `json:"usage"`
}

// NullFloat is a numeric spreadsheet cell that is either a valid number or
// explicitly missing. Placeholder strings ("", "null", "nan") load as missing.
type NullFloat struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Float returns the value, or the fallback when missing.
func (n NullFloat) Float(fallback float64) float64 {
	if !n.Valid {
		return fallback
	}
	return n.Value
}

// StockRecord is one row of the stock snapshot table.
type StockRecord struct {
	Item           string    `json:"item"`
	PortionName    string    `json:"portion_name"`
	BundleUnit     string    `json:"bundle_unit"`
	CaseQty        NullFloat `json:"case_qty"`
	BundleQty      NullFloat `json:"bundle_qty"`
	Rate           NullFloat `json:"rate"`
	CurrentBalance NullFloat `json:"current_balance"`
	ReorderPoint   NullFloat `json:"reorder_point"`
	SafetyStock    NullFloat `json:"safety_stock"`
	DailyAverage   NullFloat `json:"daily_average"`
	DailyStd       NullFloat `json:"daily_std"`
	SampleSize     NullFloat `json:"sample_size"`
	LastIssuedDays NullFloat `json:"last_issued_days"`
}

// ExtrasException is a manually maintained override row guaranteeing an item
// is ordered even when the statistical forecast yields no signal.
type ExtrasException struct {
	Item           string  `json:"item"`
	CurrentBalance string  `json:"current_balance"`
	Buy            float64 `json:"buy"`
	Rate           float64 `json:"rate"`
	Amount         float64 `json:"amount"`
}

// ProcurementRecord is one cleaned purchase-history row, used to recalibrate
// batch-priced bundle labels.
type ProcurementRecord struct {
	Date     time.Time `json:"date"`
	Item     string    `json:"item"`
	Category string    `json:"category"`
	Qty      float64   `json:"qty"`
	Rate     float64   `json:"rate"`
	Amount   float64   `json:"amount"`
}

// ForecastResult is the ephemeral outcome of one forecast invocation.
// A zero Quantity means insufficient history or model failure, not a
// prediction of zero demand.
type ForecastResult struct {
	Item     string  `json:"item"`
	Horizon  string  `json:"horizon"`
	Quantity float64 `json:"quantity"`
	Cushion  float64 `json:"cushion"`
}

// PurchaseLine is one computed order row, destined for exactly one output
// worksheet (or two when the item is shared between staff and house).
type PurchaseLine struct {
	Item         string  `json:"item"`
	ReorderLevel string  `json:"reorder_level"` // display string, e.g. "3 Crate"
	Buy          string  `json:"buy"`           // quantity + unit label
	Rate         float64 `json:"rate"`
	Amount       float64 `json:"amount"`
}

// RunStatus tracks the lifecycle of a market-list build.
type RunStatus string

const (
	RunPending    RunStatus = "pending"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// ItemJobStatus tracks the outcome of a single candidate item within a run.
type ItemJobStatus string

const (
	ItemQueued    ItemJobStatus = "queued"
	ItemPurchased ItemJobStatus = "purchased"
	ItemSkipped   ItemJobStatus = "skipped"
	ItemFailed    ItemJobStatus = "failed"
)

// PlanRun is the audit record of one market-list build.
type PlanRun struct {
	ID             int64      `json:"id" db:"id"`
	Horizon        string     `json:"horizon" db:"horizon"`
	Status         RunStatus  `json:"status" db:"status"`
	TotalItems     int        `json:"total_items" db:"total_items"`
	ProcessedItems int        `json:"processed_items" db:"processed_items"`
	SkippedItems   int        `json:"skipped_items" db:"skipped_items"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage   string     `json:"error_message,omitempty" db:"error_message"`
}

// ItemJob is the per-item audit record within a run. IntervalDays carries the
// frequency estimator's diagnostic when it is defined.
type ItemJob struct {
	ID           int64         `json:"id" db:"id"`
	RunID        int64         `json:"run_id" db:"run_id"`
	Item         string        `json:"item" db:"item"`
	Status       ItemJobStatus `json:"status" db:"status"`
	IntervalDays *int          `json:"interval_days,omitempty" db:"interval_days"`
	ForecastQty  float64       `json:"forecast_qty" db:"forecast_qty"`
	ErrorMessage string        `json:"error_message,omitempty" db:"error_message"`
	ProcessedAt  *time.Time    `json:"processed_at,omitempty" db:"processed_at"`
}
