package memory

import (
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every memory repository to a single store.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	base := baseRepository{store: store}
	return portsrepo.RepositoryProvider{
		AccountRepo:      &AccountRepository{baseRepository: base},
		PlanRepo:         &PlanRepository{store: store},
		InventoryRepo:    &InventoryRepository{baseRepository: base},
		FinanceRepo:      &FinanceRepository{baseRepository: base},
		OrderRepo:        &OrderRepository{baseRepository: base},
		SubscriptionRepo: &SubscriptionRepository{baseRepository: base},
	}
}

// NewSeededStore returns a store holding the default plan catalog and system categories.
func NewSeededStore() *Store {
	store := NewStore()
	now := time.Now().UTC()
	for _, p := range domain.DefaultPlans() {
		store.st.plans[p.PlanCode] = p
	}
	for _, c := range domain.DefaultCategories() {
		c.CreatedAt = now
		store.st.categories[c.CategoryID] = c
	}
	return store
}
