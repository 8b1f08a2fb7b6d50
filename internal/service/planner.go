// internal/service/planner.go
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zeccol/marketlist/internal/cache"
	"github.com/zeccol/marketlist/internal/config"
	"github.com/zeccol/marketlist/internal/dataset"
	"github.com/zeccol/marketlist/internal/domain"
	"github.com/zeccol/marketlist/internal/forecast"
	"github.com/zeccol/marketlist/internal/marketlist"
	"github.com/zeccol/marketlist/internal/repository"
	"github.com/zeccol/marketlist/internal/sheets"
)

// runTimeout bounds a background build. Sheet pacing makes large runs slow,
// but anything beyond this is stuck.
const runTimeout = 30 * time.Minute

// Planner drives market-list builds: loading the dataset, forecasting and
// writing the order sheets, synchronously for the CLI and asynchronously for
// the API.
type Planner struct {
	cfg   *config.Config
	store sheets.TableStore
	cache cache.ForecastCache
	runs  repository.RunRepository

	mu      sync.Mutex
	localID int64
	// local holds run state when no database repository is configured, and
	// the summaries of completed runs either way.
	local     map[int64]*domain.PlanRun
	summaries map[int64]*marketlist.Summary
}

func NewPlanner(cfg *config.Config, store sheets.TableStore, fcache cache.ForecastCache, runs repository.RunRepository) *Planner {
	if runs == nil {
		runs = repository.NewNoopRunRepository()
	}
	if fcache == nil {
		fcache = cache.NewNoopForecastCache()
	}
	return &Planner{
		cfg:       cfg,
		store:     store,
		cache:     fcache,
		runs:      runs,
		local:     make(map[int64]*domain.PlanRun),
		summaries: make(map[int64]*marketlist.Summary),
	}
}

// BuildMarketList runs one complete build synchronously.
func (p *Planner) BuildMarketList(ctx context.Context, params marketlist.Params) (*marketlist.Summary, error) {
	loader := dataset.NewLoader(p.store, p.cfg.Sheets)
	ds, err := loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	fc := p.newForecaster(ds)
	builder := marketlist.NewBuilder(p.store, p.cfg.Sheets, p.cfg.Planner, p.runs)
	summary, err := builder.Build(ctx, ds, fc, params)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.summaries[summary.RunID] = summary
	p.mu.Unlock()
	return summary, nil
}

// StartRun launches a build in the background and returns its run record
// immediately. Progress is visible through GetRun.
func (p *Planner) StartRun(ctx context.Context, params marketlist.Params) (*domain.PlanRun, error) {
	run := &domain.PlanRun{
		Horizon:   params.Horizon.String(),
		Status:    domain.RunPending,
		StartedAt: time.Now(),
	}
	if err := p.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}
	p.mu.Lock()
	if run.ID == 0 {
		p.localID++
		run.ID = p.localID
	}
	p.local[run.ID] = run
	p.mu.Unlock()

	go p.executeRun(run, params)
	return run, nil
}

func (p *Planner) executeRun(run *domain.PlanRun, params marketlist.Params) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	loader := dataset.NewLoader(p.store, p.cfg.Sheets)
	ds, err := loader.LoadAll(ctx)
	if err != nil {
		log.Error().Err(err).Int64("run_id", run.ID).Msg("dataset load failed")
		now := time.Now()
		p.mu.Lock()
		run.Status = domain.RunFailed
		run.ErrorMessage = err.Error()
		run.CompletedAt = &now
		p.mu.Unlock()
		if uerr := p.runs.UpdateRun(ctx, run); uerr != nil {
			log.Warn().Err(uerr).Int64("run_id", run.ID).Msg("failed to finalize run record")
		}
		return
	}

	fc := p.newForecaster(ds)
	builder := marketlist.NewBuilder(p.store, p.cfg.Sheets, p.cfg.Planner, p.runs)
	summary, err := builder.BuildForRun(ctx, ds, fc, params, run)
	if err != nil {
		log.Error().Err(err).Int64("run_id", run.ID).Msg("market list run failed")
		return
	}
	p.mu.Lock()
	p.summaries[run.ID] = summary
	p.mu.Unlock()
}

// GetRun resolves a run from the database when available, falling back to
// in-memory state for repository-less deployments.
func (p *Planner) GetRun(ctx context.Context, id int64) (*domain.PlanRun, *marketlist.Summary, error) {
	p.mu.Lock()
	localRun := p.local[id]
	summary := p.summaries[id]
	p.mu.Unlock()

	run, err := p.runs.GetRun(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		run = localRun
	}
	if run == nil {
		return nil, nil, nil
	}
	return run, summary, nil
}

// ListRuns returns recent runs, newest first.
func (p *Planner) ListRuns(ctx context.Context, limit int) ([]domain.PlanRun, error) {
	runs, err := p.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		return runs, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	runs = make([]domain.PlanRun, 0, len(p.local))
	for _, run := range p.local {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Categories lists the distinct issuance categories, for building request
// filters.
func (p *Planner) Categories(ctx context.Context) ([]string, error) {
	loader := dataset.NewLoader(p.store, p.cfg.Sheets)
	records, err := loader.IssuanceHistory(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, rec := range records {
		if rec.Category != "" {
			seen[rec.Category] = true
		}
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories, nil
}

// InvalidateForecasts drops every cached forecast.
func (p *Planner) InvalidateForecasts(ctx context.Context) error {
	return p.cache.InvalidateAll(ctx)
}

func (p *Planner) newForecaster(ds *dataset.Dataset) marketlist.Forecaster {
	engine := forecast.NewEngine(ds.Issuance, p.cfg.Planner.SafetyCushion)
	return &cachedForecaster{engine: engine, cache: p.cache}
}

// cachedForecaster consults the forecast cache before the engine. The cache
// key includes a fingerprint of the item's issuance series, so it never
// serves a forecast computed from different data.
type cachedForecaster struct {
	engine *forecast.Engine
	cache  cache.ForecastCache
}

func (c *cachedForecaster) Dates(item string) []time.Time {
	return c.engine.Dates(item)
}

func (c *cachedForecaster) Forecast(ctx context.Context, item string, h forecast.Horizon) domain.ForecastResult {
	fingerprint := c.engine.SeriesFingerprint(item)
	if cached, ok := c.cache.Get(ctx, item, h.String(), fingerprint); ok {
		return *cached
	}
	result := c.engine.Forecast(item, h)
	c.cache.Set(ctx, item, h.String(), fingerprint, result)
	return result
}
