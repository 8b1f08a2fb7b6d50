// internal/repository/run_repository.go
package repository

import (
	"context"

	"github.com/zeccol/marketlist/internal/domain"
)

// RunRepository persists the audit trail of market-list builds: one PlanRun
// per invocation and one ItemJob per candidate item.
type RunRepository interface {
	CreateRun(ctx context.Context, run *domain.PlanRun) error
	UpdateRun(ctx context.Context, run *domain.PlanRun) error
	GetRun(ctx context.Context, id int64) (*domain.PlanRun, error)
	ListRuns(ctx context.Context, limit int) ([]domain.PlanRun, error)
	CreateItemJob(ctx context.Context, job *domain.ItemJob) error
	UpdateItemJob(ctx context.Context, job *domain.ItemJob) error
	ListItemJobs(ctx context.Context, runID int64) ([]domain.ItemJob, error)
}

// NewNoopRunRepository returns a repository that records nothing, for
// deployments without a database.
func NewNoopRunRepository() RunRepository {
	return &noopRunRepository{}
}

type noopRunRepository struct{}

func (n *noopRunRepository) CreateRun(ctx context.Context, run *domain.PlanRun) error  { return nil }
func (n *noopRunRepository) UpdateRun(ctx context.Context, run *domain.PlanRun) error  { return nil }
func (n *noopRunRepository) GetRun(ctx context.Context, id int64) (*domain.PlanRun, error) {
	return nil, nil
}
func (n *noopRunRepository) ListRuns(ctx context.Context, limit int) ([]domain.PlanRun, error) {
	return nil, nil
}
func (n *noopRunRepository) CreateItemJob(ctx context.Context, job *domain.ItemJob) error { return nil }
func (n *noopRunRepository) UpdateItemJob(ctx context.Context, job *domain.ItemJob) error { return nil }
func (n *noopRunRepository) ListItemJobs(ctx context.Context, runID int64) ([]domain.ItemJob, error) {
	return nil, nil
}
