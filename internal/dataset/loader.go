// internal/dataset/loader.go
package dataset

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeccol/marketlist/internal/config"
	"github.com/zeccol/marketlist/internal/domain"
	"github.com/zeccol/marketlist/internal/sheets"
)

const functionDepartment = "FUNCTION"

// Loader turns raw worksheet tables into typed in-memory tables. It performs
// coercion, cleanup, grouping and date parsing only; no planning logic.
type Loader struct {
	source sheets.TableSource
	cfg    config.SheetsConfig
}

func NewLoader(source sheets.TableSource, cfg config.SheetsConfig) *Loader {
	return &Loader{source: source, cfg: cfg}
}

// Dataset is the full read-side input of one planning run.
type Dataset struct {
	Issuance    []domain.IssuanceRecord
	Stock       map[string]domain.StockRecord
	Proportions map[string]map[string]float64
	Extras      []domain.ExtrasException
	Procurement []domain.ProcurementRecord
}

// LoadAll fetches every read-side table. Any single failure aborts the load:
// partial data is not usable for planning.
func (l *Loader) LoadAll(ctx context.Context) (*Dataset, error) {
	ds := &Dataset{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := l.IssuanceHistory(gctx)
		if err != nil {
			return err
		}
		ds.Issuance = records
		return nil
	})
	g.Go(func() error {
		stock, err := l.StockSnapshot(gctx)
		if err != nil {
			return err
		}
		ds.Stock = stock
		return nil
	})
	g.Go(func() error {
		props, err := l.UsageProportions(gctx)
		if err != nil {
			return err
		}
		ds.Proportions = props
		return nil
	})
	g.Go(func() error {
		extras, err := l.ExtrasExceptions(gctx)
		if err != nil {
			return err
		}
		ds.Extras = extras
		return nil
	})
	g.Go(func() error {
		purchases, err := l.ProcurementHistory(gctx)
		if err != nil {
			return err
		}
		ds.Procurement = purchases
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ds, nil
}

// IssuanceHistory loads the issues voucher: rows grouped by (date, item,
// category) with usage summed, FUNCTION-department groups and dormant items
// removed. The filtering is applied here once and is permanent for the
// lifetime of the returned table.
func (l *Loader) IssuanceHistory(ctx context.Context) ([]domain.IssuanceRecord, error) {
	dormant, err := l.DormantItems(ctx)
	if err != nil {
		return nil, err
	}

	table, err := l.source.ReadTable(ctx, l.cfg.IssuanceSpreadsheet, l.cfg.IssuanceWorksheet)
	if err != nil {
		return nil, err
	}

	idxDate := table.ColumnIndex("date")
	idxItem := table.ColumnIndex("item name", "stock name")
	idxCategory := table.ColumnIndex("category")
	idxDept := table.ColumnIndex("dept", "department")
	idxUsage := table.ColumnIndex("usage")
	if idxDate < 0 || idxItem < 0 || idxCategory < 0 || idxUsage < 0 {
		return nil, &domain.DataSourceError{
			Table: l.cfg.IssuanceWorksheet,
			Err:   fmt.Errorf("missing expected columns (Date, Item name, Category, Usage)"),
		}
	}

	type groupKey struct {
		date     time.Time
		item     string
		category string
	}
	groups := make(map[groupKey]*domain.IssuanceRecord)
	var order []groupKey

	for _, row := range table.Rows {
		// The four identity fields invalidate the row when absent.
		date, ok := parseDate(sheets.Cell(row, idxDate))
		if !ok {
			continue
		}
		item := sheets.Cell(row, idxItem)
		category := sheets.Cell(row, idxCategory)
		usage, ok := parseStrictFloat(sheets.Cell(row, idxUsage))
		if !ok || item == "" || category == "" {
			continue
		}

		key := groupKey{date: date, item: item, category: category}
		if rec, exists := groups[key]; exists {
			rec.Usage += usage
			continue
		}
		groups[key] = &domain.IssuanceRecord{
			Date:       date,
			Item:       item,
			Category:   category,
			Department: sheets.Cell(row, idxDept),
			Usage:      usage,
		}
		order = append(order, key)
	}

	records := make([]domain.IssuanceRecord, 0, len(order))
	for _, key := range order {
		rec := groups[key]
		if rec.Department == functionDepartment {
			continue
		}
		if _, isDormant := dormant[rec.Item]; isDormant {
			continue
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].Item < records[j].Item
	})

	return records, nil
}

// StockSnapshot loads the stock table keyed by item name. Numeric coercion
// failures become missing values, never errors.
func (l *Loader) StockSnapshot(ctx context.Context) (map[string]domain.StockRecord, error) {
	table, err := l.source.ReadTable(ctx, l.cfg.StockSpreadsheet, l.cfg.StockWorksheet)
	if err != nil {
		return nil, err
	}

	idxItem := table.ColumnIndex("stock name", "item name")
	if idxItem < 0 {
		return nil, &domain.DataSourceError{
			Table: l.cfg.StockWorksheet,
			Err:   fmt.Errorf("missing expected column Stock Name"),
		}
	}

	idxPtnName := table.ColumnIndex("ptn name")
	idxBundleUnit := table.ColumnIndex("bundle_qty unit", "bundle qty unit")
	idxCaseQty := table.ColumnIndex("case qty")
	idxBundleQty := table.ColumnIndex("bundle qty")
	idxRate := table.ColumnIndex("rate")
	idxBalance := table.ColumnIndex("current balance")
	idxReorder := table.ColumnIndex("reorder point")
	idxSafety := table.ColumnIndex("safety stock_80_sl")
	idxDailyAvg := table.ColumnIndex("daily average")
	idxDailyStd := table.ColumnIndex("daily std")
	idxSample := table.ColumnIndex("sample size")
	idxLastIssued := table.ColumnIndex("last issued (in days)")

	stock := make(map[string]domain.StockRecord, len(table.Rows))
	for _, row := range table.Rows {
		item := sheets.Cell(row, idxItem)
		if item == "" {
			continue
		}
		stock[item] = domain.StockRecord{
			Item:           item,
			PortionName:    sheets.Cell(row, idxPtnName),
			BundleUnit:     sheets.Cell(row, idxBundleUnit),
			CaseQty:        parseNullFloat(sheets.Cell(row, idxCaseQty)),
			BundleQty:      parseNullFloat(sheets.Cell(row, idxBundleQty)),
			Rate:           parseNullFloat(sheets.Cell(row, idxRate)),
			CurrentBalance: parseNullFloat(sheets.Cell(row, idxBalance)),
			ReorderPoint:   parseNullFloat(sheets.Cell(row, idxReorder)),
			SafetyStock:    parseNullFloat(sheets.Cell(row, idxSafety)),
			DailyAverage:   parseNullFloat(sheets.Cell(row, idxDailyAvg)),
			DailyStd:       parseNullFloat(sheets.Cell(row, idxDailyStd)),
			SampleSize:     parseNullFloat(sheets.Cell(row, idxSample)),
			LastIssuedDays: parseNullFloat(sheets.Cell(row, idxLastIssued)),
		}
	}

	return stock, nil
}

// DormantItems loads the globally excluded item names.
func (l *Loader) DormantItems(ctx context.Context) (map[string]struct{}, error) {
	table, err := l.source.ReadTable(ctx, l.cfg.DormantSpreadsheet, l.cfg.DormantWorksheet)
	if err != nil {
		return nil, err
	}

	dormant := make(map[string]struct{}, len(table.Rows))
	for _, row := range table.Rows {
		if item := sheets.Cell(row, 0); item != "" {
			dormant[item] = struct{}{}
		}
	}
	return dormant, nil
}

// UsageProportions loads item -> department -> proportion. Later rows win on
// duplicate (item, dept) pairs.
func (l *Loader) UsageProportions(ctx context.Context) (map[string]map[string]float64, error) {
	table, err := l.source.ReadTable(ctx, l.cfg.ProportionsSpreadsheet, l.cfg.ProportionsWorksheet)
	if err != nil {
		return nil, err
	}

	idxItem := table.ColumnIndex("item name")
	idxDept := table.ColumnIndex("dept")
	idxProp := table.ColumnIndex("%_proportion", "proportion")
	if idxItem < 0 || idxDept < 0 || idxProp < 0 {
		return nil, &domain.DataSourceError{
			Table: l.cfg.ProportionsWorksheet,
			Err:   fmt.Errorf("missing expected columns (Item name, Dept, %%_Proportion)"),
		}
	}

	proportions := make(map[string]map[string]float64)
	for _, row := range table.Rows {
		item := sheets.Cell(row, idxItem)
		dept := sheets.Cell(row, idxDept)
		prop, ok := parseStrictFloat(sheets.Cell(row, idxProp))
		if item == "" || dept == "" || !ok {
			continue
		}
		if proportions[item] == nil {
			proportions[item] = make(map[string]float64)
		}
		proportions[item][dept] = prop
	}
	return proportions, nil
}

// ExtrasExceptions loads the manual override list in sheet order.
func (l *Loader) ExtrasExceptions(ctx context.Context) ([]domain.ExtrasException, error) {
	table, err := l.source.ReadTable(ctx, l.cfg.ExtrasSpreadsheet, l.cfg.ExtrasWorksheet)
	if err != nil {
		return nil, err
	}

	idxItem := table.ColumnIndex("stock name", "item name")
	idxBalance := table.ColumnIndex("current bal", "current balance")
	idxBuy := table.ColumnIndex("buy")
	idxRate := table.ColumnIndex("rate")
	idxAmount := table.ColumnIndex("amount")
	if idxItem < 0 || idxBuy < 0 || idxRate < 0 || idxAmount < 0 {
		return nil, &domain.DataSourceError{
			Table: l.cfg.ExtrasWorksheet,
			Err:   fmt.Errorf("missing expected columns (Stock Name, Buy, Rate, Amount)"),
		}
	}

	var extras []domain.ExtrasException
	for _, row := range table.Rows {
		item := sheets.Cell(row, idxItem)
		if item == "" {
			continue
		}
		extras = append(extras, domain.ExtrasException{
			Item:           item,
			CurrentBalance: sheets.Cell(row, idxBalance),
			Buy:            parseNullFloat(sheets.Cell(row, idxBuy)).Float(0),
			Rate:           parseNullFloat(sheets.Cell(row, idxRate)).Float(0),
			Amount:         parseNullFloat(sheets.Cell(row, idxAmount)).Float(0),
		})
	}
	return extras, nil
}

// ProcurementHistory loads the purchases table used for batch-price
// recalibration. Rows with fewer than 4 populated fields are dropped.
func (l *Loader) ProcurementHistory(ctx context.Context) ([]domain.ProcurementRecord, error) {
	table, err := l.source.ReadTable(ctx, l.cfg.ProcurementSpreadsheet, l.cfg.ProcurementWorksheet)
	if err != nil {
		return nil, err
	}

	idxDate := table.ColumnIndex("date")
	idxItem := table.ColumnIndex("stock name", "item name")
	idxCategory := table.ColumnIndex("category")
	idxQty := table.ColumnIndex("qty_received", "qty received")
	idxRate := table.ColumnIndex("rate")
	idxAmount := table.ColumnIndex("amount")
	if idxDate < 0 || idxItem < 0 || idxQty < 0 || idxAmount < 0 {
		return nil, &domain.DataSourceError{
			Table: l.cfg.ProcurementWorksheet,
			Err:   fmt.Errorf("missing expected columns (Date, Stock Name, Qty_Received, Amount)"),
		}
	}

	var records []domain.ProcurementRecord
	for _, row := range table.Rows {
		date, dateOK := parseDate(sheets.Cell(row, idxDate))
		item := sheets.Cell(row, idxItem)
		qty, qtyOK := parseStrictFloat(sheets.Cell(row, idxQty))
		rate, rateOK := parseStrictFloat(sheets.Cell(row, idxRate))
		amount, amountOK := parseStrictFloat(sheets.Cell(row, idxAmount))

		populated := 0
		for _, ok := range []bool{dateOK, item != "", qtyOK, rateOK, amountOK, sheets.Cell(row, idxCategory) != ""} {
			if ok {
				populated++
			}
		}
		if populated < 4 || item == "" {
			continue
		}

		records = append(records, domain.ProcurementRecord{
			Date:     date,
			Item:     item,
			Category: sheets.Cell(row, idxCategory),
			Qty:      qty,
			Rate:     rate,
			Amount:   amount,
		})
	}
	return records, nil
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "01/02/2006", "2/1/2006"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseStrictFloat coerces a cell that must contain a number. Thousands
// separators are tolerated.
func parseStrictFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseNullFloat coerces a cell that may be legitimately missing. The
// upstream sheets use "", "null" and "nan" interchangeably as placeholders.
func parseNullFloat(s string) domain.NullFloat {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "nan":
		return domain.NullFloat{}
	}
	f, ok := parseStrictFloat(s)
	if !ok {
		return domain.NullFloat{}
	}
	return domain.NullFloat{Value: f, Valid: true}
}
