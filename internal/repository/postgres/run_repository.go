// internal/repository/postgres/run_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zeccol/marketlist/internal/domain"
	"github.com/zeccol/marketlist/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS plan_runs (
	id              BIGSERIAL PRIMARY KEY,
	horizon         TEXT NOT NULL,
	status          TEXT NOT NULL,
	total_items     INT NOT NULL DEFAULT 0,
	processed_items INT NOT NULL DEFAULT 0,
	skipped_items   INT NOT NULL DEFAULT 0,
	started_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at    TIMESTAMPTZ,
	error_message   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS item_jobs (
	id            BIGSERIAL PRIMARY KEY,
	run_id        BIGINT NOT NULL REFERENCES plan_runs(id) ON DELETE CASCADE,
	item          TEXT NOT NULL,
	status        TEXT NOT NULL,
	interval_days INT,
	forecast_qty  DOUBLE PRECISION NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	processed_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_item_jobs_run_id ON item_jobs(run_id);
`

type runRepository struct {
	db *DB
}

// NewRunRepository creates the Postgres-backed audit repository, creating
// the schema when it does not exist yet.
func NewRunRepository(ctx context.Context, db *DB) (repository.RunRepository, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure plan run schema: %w", err)
	}
	return &runRepository{db: db}, nil
}

func (r *runRepository) CreateRun(ctx context.Context, run *domain.PlanRun) error {
	query := `
		INSERT INTO plan_runs (horizon, status, total_items, processed_items, skipped_items, started_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	return r.db.WithSemaphore(ctx, func() error {
		return r.db.QueryRowContext(ctx, query,
			run.Horizon, run.Status, run.TotalItems, run.ProcessedItems,
			run.SkippedItems, run.StartedAt, run.ErrorMessage,
		).Scan(&run.ID)
	})
}

func (r *runRepository) UpdateRun(ctx context.Context, run *domain.PlanRun) error {
	query := `
		UPDATE plan_runs
		SET status = $1, total_items = $2, processed_items = $3, skipped_items = $4,
		    completed_at = $5, error_message = $6
		WHERE id = $7`
	return r.db.WithSemaphore(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query,
			run.Status, run.TotalItems, run.ProcessedItems, run.SkippedItems,
			run.CompletedAt, run.ErrorMessage, run.ID)
		return err
	})
}

func (r *runRepository) GetRun(ctx context.Context, id int64) (*domain.PlanRun, error) {
	var run domain.PlanRun
	err := r.db.WithSemaphore(ctx, func() error {
		return r.db.GetContext(ctx, &run, `SELECT * FROM plan_runs WHERE id = $1`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]domain.PlanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []domain.PlanRun
	err := r.db.WithSemaphore(ctx, func() error {
		return r.db.SelectContext(ctx, &runs,
			`SELECT * FROM plan_runs ORDER BY started_at DESC LIMIT $1`, limit)
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *runRepository) CreateItemJob(ctx context.Context, job *domain.ItemJob) error {
	query := `
		INSERT INTO item_jobs (run_id, item, status, interval_days, forecast_qty, error_message, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	return r.db.WithSemaphore(ctx, func() error {
		return r.db.QueryRowContext(ctx, query,
			job.RunID, job.Item, job.Status, job.IntervalDays,
			job.ForecastQty, job.ErrorMessage, job.ProcessedAt,
		).Scan(&job.ID)
	})
}

func (r *runRepository) UpdateItemJob(ctx context.Context, job *domain.ItemJob) error {
	query := `
		UPDATE item_jobs
		SET status = $1, interval_days = $2, forecast_qty = $3, error_message = $4, processed_at = $5
		WHERE id = $6`
	return r.db.WithSemaphore(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query,
			job.Status, job.IntervalDays, job.ForecastQty,
			job.ErrorMessage, job.ProcessedAt, job.ID)
		return err
	})
}

func (r *runRepository) ListItemJobs(ctx context.Context, runID int64) ([]domain.ItemJob, error) {
	var jobs []domain.ItemJob
	err := r.db.WithSemaphore(ctx, func() error {
		return r.db.SelectContext(ctx, &jobs,
			`SELECT * FROM item_jobs WHERE run_id = $1 ORDER BY item`, runID)
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
