// internal/marketlist/orchestrator.go
package marketlist

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zeccol/marketlist/internal/config"
	"github.com/zeccol/marketlist/internal/dataset"
	"github.com/zeccol/marketlist/internal/domain"
	"github.com/zeccol/marketlist/internal/forecast"
	"github.com/zeccol/marketlist/internal/purchase"
	"github.com/zeccol/marketlist/internal/repository"
	"github.com/zeccol/marketlist/internal/sheets"
)

// outputClearRange is wiped on each of the three order worksheets before a
// build writes new rows, so repeated runs never leave stale lines behind.
const outputClearRange = "A4:E200"

// Forecaster yields the horizon demand estimate for a single item. The
// concrete engine may sit behind a cache.
type Forecaster interface {
	Forecast(ctx context.Context, item string, h forecast.Horizon) domain.ForecastResult
	Dates(item string) []time.Time
}

// Params selects what a single build covers.
type Params struct {
	Horizon       forecast.Horizon
	Categories    []string // empty means the default category set
	ExcludedItems []string
	MaxItems      int // 0 falls back to the configured ceiling
}

// Summary reports what a completed build produced.
type Summary struct {
	RunID         int64     `json:"run_id,omitempty"`
	Horizon       string    `json:"horizon"`
	TotalItems    int       `json:"total_items"`
	Purchased     int       `json:"purchased"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	HouseRows     int       `json:"house_rows"`
	StaffRows     int       `json:"staff_rows"`
	ChemicalsRows int       `json:"chemicals_rows"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Builder orchestrates one market-list run: candidate selection, per-item
// forecasting and purchase conversion, and departmental sheet writes.
type Builder struct {
	sink    sheets.RowSink
	cfg     config.SheetsConfig
	planner config.PlannerConfig
	runs    repository.RunRepository
}

func NewBuilder(sink sheets.RowSink, cfg config.SheetsConfig, planner config.PlannerConfig, runs repository.RunRepository) *Builder {
	if runs == nil {
		runs = repository.NewNoopRunRepository()
	}
	return &Builder{sink: sink, cfg: cfg, planner: planner, runs: runs}
}

// Build produces the three departmental order sheets from the loaded dataset.
// Per-item failures are recorded and skipped; rate-limit errors and output
// write failures abort the run.
func (b *Builder) Build(ctx context.Context, ds *dataset.Dataset, fc Forecaster, params Params) (*Summary, error) {
	run := &domain.PlanRun{
		Horizon:   params.Horizon.String(),
		Status:    domain.RunProcessing,
		StartedAt: time.Now(),
	}
	if err := b.runs.CreateRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("failed to record plan run, continuing without audit")
	}
	return b.BuildForRun(ctx, ds, fc, params, run)
}

// BuildForRun runs a build against an already-created run record, finalizing
// its status and counters. Callers that track runs themselves use this
// directly.
func (b *Builder) BuildForRun(ctx context.Context, ds *dataset.Dataset, fc Forecaster, params Params, run *domain.PlanRun) (*Summary, error) {
	run.Status = domain.RunProcessing

	summary, err := b.build(ctx, ds, fc, params, run)

	now := time.Now()
	run.CompletedAt = &now
	if err != nil {
		run.Status = domain.RunFailed
		run.ErrorMessage = err.Error()
	} else {
		run.Status = domain.RunCompleted
	}
	if uerr := b.runs.UpdateRun(ctx, run); uerr != nil {
		log.Warn().Err(uerr).Int64("run_id", run.ID).Msg("failed to finalize plan run record")
	}
	if err != nil {
		return nil, err
	}
	summary.RunID = run.ID
	summary.CompletedAt = now
	return summary, nil
}

func (b *Builder) build(ctx context.Context, ds *dataset.Dataset, fc Forecaster, params Params, run *domain.PlanRun) (*Summary, error) {
	summary := &Summary{
		Horizon:   params.Horizon.String(),
		StartedAt: run.StartedAt,
	}

	if err := b.clearOutputs(ctx); err != nil {
		return nil, err
	}

	items := b.selectCandidates(ds, params)
	run.TotalItems = len(items)
	summary.TotalItems = len(items)
	log.Info().
		Int("candidates", len(items)).
		Str("horizon", params.Horizon.String()).
		Msg("building market list")

	engine := purchase.NewEngine(ds.Procurement)
	extrasByItem := make(map[string]domain.ExtrasException, len(ds.Extras))
	for _, ex := range ds.Extras {
		if _, seen := extrasByItem[ex.Item]; !seen {
			extrasByItem[ex.Item] = ex
		}
	}

	for _, item := range items {
		job := &domain.ItemJob{RunID: run.ID, Item: item, Status: domain.ItemQueued}
		if interval, ok := forecast.TypicalIntervalDays(fc.Dates(item)); ok {
			job.IntervalDays = &interval
		}
		if err := b.runs.CreateItemJob(ctx, job); err != nil {
			log.Warn().Err(err).Str("item", item).Msg("failed to record item job")
		}

		err := b.processItem(ctx, ds, fc, engine, extrasByItem, params.Horizon, job, summary)
		if err != nil {
			if domain.IsRateLimited(err) {
				b.finishItemJob(ctx, job, domain.ItemFailed, err)
				return nil, err
			}
			log.Error().Err(err).Str("item", item).Msg("item failed, continuing")
			summary.Failed++
			b.finishItemJob(ctx, job, domain.ItemFailed, err)
			continue
		}
		run.ProcessedItems++
		if job.Status == domain.ItemSkipped {
			run.SkippedItems++
			summary.Skipped++
		} else {
			summary.Purchased++
		}
		b.finishItemJob(ctx, job, job.Status, nil)
	}

	log.Info().
		Int("purchased", summary.Purchased).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("market list complete")
	return summary, nil
}

// processItem forecasts one item and routes its purchase lines. It sets
// job.Status to ItemPurchased or ItemSkipped on success.
func (b *Builder) processItem(ctx context.Context, ds *dataset.Dataset, fc Forecaster, engine *purchase.Engine, extras map[string]domain.ExtrasException, h forecast.Horizon, job *domain.ItemJob, summary *Summary) error {
	item := job.Item
	result := fc.Forecast(ctx, item, h)
	job.ForecastQty = result.Quantity

	if result.Quantity == 0 {
		ex, ok := extras[item]
		if !ok {
			log.Debug().Str("item", item).Msg("zero forecast and no manual override, skipping")
			job.Status = domain.ItemSkipped
			return nil
		}
		row := []string{ex.Item, ex.CurrentBalance, formatQty(ex.Buy), formatQty(ex.Rate), formatQty(ex.Amount)}
		if err := b.appendRow(ctx, b.cfg.HouseWorksheet, row); err != nil {
			return err
		}
		summary.HouseRows++
		job.Status = domain.ItemPurchased
		return nil
	}

	stock, ok := ds.Stock[item]
	if !ok {
		return &domain.PurchaseComputationError{
			Item: item,
			Err:  fmt.Errorf("item missing from stock snapshot"),
		}
	}

	houseQty := result.Quantity
	if staffFoodItems[item] {
		staffQty, splitHouse := purchase.SplitShares(result.Quantity, ds.Proportions[item])
		houseQty = splitHouse
		if err := b.writeLine(ctx, engine, item, staffQty, stock, b.cfg.StaffWorksheet, job, summary); err != nil {
			return err
		}
	}

	target := b.cfg.HouseWorksheet
	if chemicalItems[item] {
		target = b.cfg.ChemicalsWorksheet
	}
	return b.writeLine(ctx, engine, item, houseQty, stock, target, job, summary)
}

// writeLine converts one forecast share to a purchase line and appends it to
// the given worksheet. A nil line from the decision engine marks the job
// skipped without writing anything.
func (b *Builder) writeLine(ctx context.Context, engine *purchase.Engine, item string, qty float64, stock domain.StockRecord, worksheet string, job *domain.ItemJob, summary *Summary) error {
	line, err := engine.Decide(item, qty, stock)
	if err != nil {
		return err
	}
	if line == nil {
		if job.Status != domain.ItemPurchased {
			job.Status = domain.ItemSkipped
		}
		return nil
	}
	row := []string{line.Item, line.ReorderLevel, line.Buy, formatQty(line.Rate), formatQty(line.Amount)}
	if err := b.appendRow(ctx, worksheet, row); err != nil {
		return err
	}
	switch worksheet {
	case b.cfg.StaffWorksheet:
		summary.StaffRows++
	case b.cfg.ChemicalsWorksheet:
		summary.ChemicalsRows++
	default:
		summary.HouseRows++
	}
	job.Status = domain.ItemPurchased
	return nil
}

func (b *Builder) appendRow(ctx context.Context, worksheet string, row []string) error {
	return b.sink.AppendRow(ctx, b.cfg.OutputSpreadsheet, worksheet, row)
}

func (b *Builder) clearOutputs(ctx context.Context) error {
	for _, worksheet := range []string{b.cfg.HouseWorksheet, b.cfg.StaffWorksheet, b.cfg.ChemicalsWorksheet} {
		if err := b.sink.ClearRange(ctx, b.cfg.OutputSpreadsheet, worksheet, outputClearRange); err != nil {
			return err
		}
	}
	return nil
}

// selectCandidates picks the items a run will plan: the most frequently
// issued items within the allowed categories, capped, then unioned with the
// manual extras list and sorted by name.
func (b *Builder) selectCandidates(ds *dataset.Dataset, params Params) []string {
	allowed := make(map[string]bool)
	categories := params.Categories
	if len(categories) == 0 {
		categories = defaultCategories
	}
	for _, c := range categories {
		allowed[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	excluded := make(map[string]bool)
	for _, item := range params.ExcludedItems {
		excluded[item] = true
	}

	counts := make(map[string]int)
	for _, rec := range ds.Issuance {
		if !allowed[strings.ToUpper(rec.Category)] || excluded[rec.Item] {
			continue
		}
		counts[rec.Item]++
	}

	ranked := make([]string, 0, len(counts))
	for item := range counts {
		ranked = append(ranked, item)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	max := params.MaxItems
	if max <= 0 {
		max = b.planner.MaxItems
	}
	if max > 0 && len(ranked) > max {
		ranked = ranked[:max]
	}

	selected := make(map[string]bool, len(ranked))
	for _, item := range ranked {
		selected[item] = true
	}
	// Manual override items always plan; exclusions only narrow the
	// frequency-ranked selection.
	for _, ex := range ds.Extras {
		if ex.Item != "" {
			selected[ex.Item] = true
		}
	}

	items := make([]string, 0, len(selected))
	for item := range selected {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// formatQty renders numbers the way the sheets display them, without
// trailing zeros.
func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (b *Builder) finishItemJob(ctx context.Context, job *domain.ItemJob, status domain.ItemJobStatus, cause error) {
	job.Status = status
	if cause != nil {
		job.ErrorMessage = cause.Error()
	}
	now := time.Now()
	job.ProcessedAt = &now
	if err := b.runs.UpdateItemJob(ctx, job); err != nil {
		log.Warn().Err(err).Str("item", job.Item).Msg("failed to update item job")
	}
}
