package pgsql

import (
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:      newPgxAccountRepository(dbPool),
		PlanRepo:         newPgxPlanRepository(dbPool),
		InventoryRepo:    newPgxInventoryRepository(dbPool),
		FinanceRepo:      newPgxFinanceRepository(dbPool),
		OrderRepo:        newPgxOrderRepository(dbPool),
		SubscriptionRepo: newPgxSubscriptionRepository(dbPool),
	}
}
