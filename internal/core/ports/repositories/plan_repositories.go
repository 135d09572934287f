package repositories

import (
	"context"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
)

// PlanRepositoryFacade is the read-only plan catalog.
type PlanRepositoryFacade interface {
	// FindPlanByCode retrieves a plan by code. Returns apperrors.ErrNotFound if missing.
	FindPlanByCode(ctx context.Context, planCode string) (*domain.Plan, error)

	// ListPlans lists plans ordered by price.
	ListPlans(ctx context.Context, activeOnly bool) ([]domain.Plan, error)
}
