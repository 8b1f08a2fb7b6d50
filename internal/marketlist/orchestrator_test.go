package marketlist

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeccol/marketlist/internal/config"
	"github.com/zeccol/marketlist/internal/dataset"
	"github.com/zeccol/marketlist/internal/domain"
	"github.com/zeccol/marketlist/internal/forecast"
)

type fakeSink struct {
	cleared []string
	rows    map[string][][]string
}

func newFakeSink() *fakeSink {
	return &fakeSink{rows: make(map[string][][]string)}
}

func (f *fakeSink) AppendRow(ctx context.Context, spreadsheetID, worksheet string, row []string) error {
	f.rows[worksheet] = append(f.rows[worksheet], row)
	return nil
}

func (f *fakeSink) ClearRange(ctx context.Context, spreadsheetID, worksheet, cellRange string) error {
	f.cleared = append(f.cleared, worksheet+"!"+cellRange)
	return nil
}

type stubForecaster struct {
	quantities map[string]float64
}

func (s *stubForecaster) Forecast(ctx context.Context, item string, h forecast.Horizon) domain.ForecastResult {
	return domain.ForecastResult{Item: item, Horizon: h.String(), Quantity: s.quantities[item]}
}

func (s *stubForecaster) Dates(item string) []time.Time { return nil }

func valid(v float64) domain.NullFloat {
	return domain.NullFloat{Value: v, Valid: true}
}

func stockRow(item string) domain.StockRecord {
	return domain.StockRecord{
		Item:           item,
		PortionName:    "Kg",
		BundleUnit:     "Bag",
		CaseQty:        valid(1),
		BundleQty:      valid(10),
		Rate:           valid(100),
		CurrentBalance: valid(0),
	}
}

func issued(item, category string, day int) domain.IssuanceRecord {
	return domain.IssuanceRecord{
		Date:     time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
		Item:     item,
		Category: category,
		Usage:    1,
	}
}

func testDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Issuance: []domain.IssuanceRecord{
			issued("RICE", "FOOD ITEM", 1),
			issued("RICE", "FOOD ITEM", 2),
			issued("RICE", "FOOD ITEM", 3),
			issued("BLEACH", "CLEANING SUPPLY", 1),
			issued("BLEACH", "CLEANING SUPPLY", 2),
			issued("GARRI", "FOOD ITEM", 1),
			issued("GARRI", "FOOD ITEM", 2),
			issued("NAPKIN", "GUEST SUPPLY", 1),
			issued("WIDGET", "HARDWARE", 1), // outside the category universe
		},
		Stock: map[string]domain.StockRecord{
			"RICE":   stockRow("RICE"),
			"BLEACH": stockRow("BLEACH"),
			"GARRI":  stockRow("GARRI"),
			"NAPKIN": stockRow("NAPKIN"),
		},
		Proportions: map[string]map[string]float64{
			"GARRI": {"STAFF FOOD": 0.4},
		},
		Extras: []domain.ExtrasException{
			{Item: "SPECIAL TEA", CurrentBalance: "2 Box", Buy: 1, Rate: 4500, Amount: 4500},
		},
	}
}

func testSheetsCfg() config.SheetsConfig {
	return config.SheetsConfig{
		OutputSpreadsheet:  "out",
		HouseWorksheet:     "House",
		StaffWorksheet:     "Staff",
		ChemicalsWorksheet: "Chem",
	}
}

func TestBuild_RoutesItemsToSheets(t *testing.T) {
	sink := newFakeSink()
	builder := NewBuilder(sink, testSheetsCfg(), config.PlannerConfig{MaxItems: 150}, nil)

	fc := &stubForecaster{quantities: map[string]float64{
		"RICE":   14,
		"BLEACH": 7,
		"GARRI":  10,
	}}

	summary, err := builder.Build(context.Background(), testDataset(), fc, Params{
		Horizon: forecast.Horizon{Kind: forecast.Monthly},
	})
	require.NoError(t, err)

	// All three sheets cleared before writing.
	assert.ElementsMatch(t, []string{"House!A4:E200", "Staff!A4:E200", "Chem!A4:E200"}, sink.cleared)

	// RICE, BLEACH, GARRI, NAPKIN plus the SPECIAL TEA override.
	assert.Equal(t, 5, summary.TotalItems)
	assert.Equal(t, 4, summary.Purchased)
	assert.Equal(t, 1, summary.Skipped) // NAPKIN: zero forecast, no override
	assert.Zero(t, summary.Failed)

	// Chemicals sheet gets the chemical item.
	require.Len(t, sink.rows["Chem"], 1)
	assert.Equal(t, "BLEACH", sink.rows["Chem"][0][0])
	assert.Equal(t, "1 Bag", sink.rows["Chem"][0][2])

	// Staff sheet gets GARRI's 40% share (4 of 10 portions).
	require.Len(t, sink.rows["Staff"], 1)
	assert.Equal(t, "GARRI", sink.rows["Staff"][0][0])
	assert.Equal(t, "0.5 Bag", sink.rows["Staff"][0][2])

	// House sheet: RICE, GARRI's house share, and the SPECIAL TEA override.
	require.Len(t, sink.rows["House"], 3)
	byItem := make(map[string][]string)
	for _, row := range sink.rows["House"] {
		byItem[row[0]] = row
	}
	assert.Equal(t, "1.4 Bag", byItem["RICE"][2])
	assert.Equal(t, "1 Bag", byItem["GARRI"][2])
	assert.Equal(t, []string{"SPECIAL TEA", "2 Box", "1", "4500", "4500"}, byItem["SPECIAL TEA"])

	assert.Equal(t, 3, summary.HouseRows)
	assert.Equal(t, 1, summary.StaffRows)
	assert.Equal(t, 1, summary.ChemicalsRows)
}

func TestBuild_MaxItemsCapsByFrequency(t *testing.T) {
	sink := newFakeSink()
	builder := NewBuilder(sink, testSheetsCfg(), config.PlannerConfig{MaxItems: 150}, nil)
	fc := &stubForecaster{quantities: map[string]float64{"RICE": 14}}

	summary, err := builder.Build(context.Background(), testDataset(), fc, Params{
		Horizon:  forecast.Horizon{Kind: forecast.Monthly},
		MaxItems: 1,
	})
	require.NoError(t, err)

	// The most frequently issued item survives the cap, plus the override.
	assert.Equal(t, 2, summary.TotalItems)
	require.Len(t, sink.rows["House"], 2)
}

func TestBuild_ExclusionsAndCategoryFilter(t *testing.T) {
	sink := newFakeSink()
	builder := NewBuilder(sink, testSheetsCfg(), config.PlannerConfig{MaxItems: 150}, nil)
	fc := &stubForecaster{quantities: map[string]float64{"GARRI": 10, "RICE": 14}}

	summary, err := builder.Build(context.Background(), testDataset(), fc, Params{
		Horizon:       forecast.Horizon{Kind: forecast.Monthly},
		Categories:    []string{"FOOD ITEM"},
		ExcludedItems: []string{"RICE", "SPECIAL TEA"},
	})
	require.NoError(t, err)

	// Categories drop BLEACH and NAPKIN, the exclusion drops RICE. The
	// manual override is unioned in regardless of the exclusion list, so
	// GARRI and SPECIAL TEA remain.
	assert.Equal(t, 2, summary.TotalItems)
	assert.Equal(t, 1, summary.StaffRows)
	assert.Equal(t, 2, summary.HouseRows)

	var houseItems []string
	for _, row := range sink.rows["House"] {
		houseItems = append(houseItems, row[0])
	}
	assert.Contains(t, houseItems, "SPECIAL TEA")
}

func TestBuild_MissingStockIsRecoverable(t *testing.T) {
	sink := newFakeSink()
	builder := NewBuilder(sink, testSheetsCfg(), config.PlannerConfig{MaxItems: 150}, nil)

	ds := testDataset()
	delete(ds.Stock, "RICE")
	fc := &stubForecaster{quantities: map[string]float64{"RICE": 14, "GARRI": 10}}

	summary, err := builder.Build(context.Background(), ds, fc, Params{
		Horizon: forecast.Horizon{Kind: forecast.Monthly},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Purchased) // GARRI and the override still land
}

func TestBuild_RateLimitAborts(t *testing.T) {
	sink := newFakeSink()
	builder := NewBuilder(&rateLimitedSink{fakeSink: sink}, testSheetsCfg(), config.PlannerConfig{MaxItems: 150}, nil)
	fc := &stubForecaster{quantities: map[string]float64{"RICE": 14}}

	_, err := builder.Build(context.Background(), testDataset(), fc, Params{
		Horizon: forecast.Horizon{Kind: forecast.Monthly},
	})
	require.Error(t, err)
	assert.True(t, domain.IsRateLimited(err))
}

type rateLimitedSink struct {
	*fakeSink
}

func (r *rateLimitedSink) AppendRow(ctx context.Context, spreadsheetID, worksheet string, row []string) error {
	return &domain.RateLimitError{Err: context.DeadlineExceeded}
}

func TestBuild_RepeatedRunsProduceIdenticalSheets(t *testing.T) {
	fc := &stubForecaster{quantities: map[string]float64{
		"RICE":   14,
		"BLEACH": 7,
		"GARRI":  10,
	}}
	params := Params{Horizon: forecast.Horizon{Kind: forecast.Monthly}}

	first := newFakeSink()
	_, err := NewBuilder(first, testSheetsCfg(), config.PlannerConfig{MaxItems: 150}, nil).
		Build(context.Background(), testDataset(), fc, params)
	require.NoError(t, err)

	second := newFakeSink()
	_, err = NewBuilder(second, testSheetsCfg(), config.PlannerConfig{MaxItems: 150}, nil).
		Build(context.Background(), testDataset(), fc, params)
	require.NoError(t, err)

	assert.Equal(t, first.rows, second.rows)
}

// engineForecaster runs the real forecast engine without a cache in front.
type engineForecaster struct {
	engine *forecast.Engine
}

func (e engineForecaster) Forecast(ctx context.Context, item string, h forecast.Horizon) domain.ForecastResult {
	return e.engine.Forecast(item, h)
}

func (e engineForecaster) Dates(item string) []time.Time { return e.engine.Dates(item) }

func TestBuild_EndToEndWithRealForecast(t *testing.T) {
	// Forty weekly issues of ten units; the monthly forecast lands in the
	// mid-forties, the on-hand five is deducted, and a priced line reaches
	// the house sheet.
	var issuanceRecs []domain.IssuanceRecord
	start := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC) // Sunday
	for i := 0; i < 39; i++ {
		issuanceRecs = append(issuanceRecs, domain.IssuanceRecord{
			Date: start.AddDate(0, 0, 7*i), Item: "RICE", Category: "FOOD ITEM", Usage: 10,
		})
	}
	ds := &dataset.Dataset{
		Issuance: issuanceRecs,
		Stock: map[string]domain.StockRecord{
			"RICE": {
				Item:           "RICE",
				PortionName:    "Kg",
				BundleUnit:     "Bag",
				CaseQty:        valid(1),
				BundleQty:      valid(1),
				Rate:           valid(1000),
				CurrentBalance: valid(5),
			},
		},
	}

	engine := forecast.NewEngine(ds.Issuance, 1.10)
	result := engine.Forecast("RICE", forecast.Horizon{Kind: forecast.Monthly})
	assert.InDelta(t, 45, result.Quantity, 8)

	sink := newFakeSink()
	builder := NewBuilder(sink, testSheetsCfg(), config.PlannerConfig{MaxItems: 150}, nil)
	summary, err := builder.Build(context.Background(), ds, engineForecaster{engine: engine}, Params{
		Horizon: forecast.Horizon{Kind: forecast.Monthly},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Purchased)

	require.Len(t, sink.rows["House"], 1)
	row := sink.rows["House"][0]
	assert.Equal(t, "RICE", row[0])
	assert.Equal(t, "5 Bag", row[1]) // five portions on hand, one per bundle
	assert.Equal(t, "1000", row[3])

	amount, err := strconv.ParseFloat(row[4], 64)
	require.NoError(t, err)
	assert.Greater(t, amount, 0.0)
	// amount = rate x buy, with buy = forecast - balance.
	assert.InDelta(t, (result.Quantity-5)*1000, amount, 0.001)
}
