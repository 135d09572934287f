package services

import (
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/platform/config"
	"github.com/prometheus/client_golang/prometheus"
)

// ContainerOptions carries optional collaborators for NewServiceContainer.
type ContainerOptions struct {
	// PostingFailures counts revenue postings that failed after an order completed.
	PostingFailures prometheus.Counter
	Service         []ServiceOption
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ContainerOptions) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo, TokenConfig{
		Secret: cfg.JWTSecret,
		Expiry: cfg.JWTExpiryDuration,
		Issuer: cfg.JWTIssuer,
	}, opts.Service...)
	container.Plan = NewPlanService(repos.PlanRepo, opts.Service...)

	// inventory and finance first, the order workflow calls into both
	container.Inventory = NewInventoryService(repos.InventoryRepo, opts.Service...)
	container.Finance = NewFinanceService(repos.FinanceRepo, opts.Service...)
	container.Category = NewCategoryService(repos.FinanceRepo, opts.Service...)

	container.Order = NewOrderService(OrderServiceDeps{
		OrderRepo:       repos.OrderRepo,
		AccountRepo:     repos.AccountRepo,
		PlanRepo:        repos.PlanRepo,
		InventoryRepo:   repos.InventoryRepo,
		Stock:           container.Inventory,
		Revenue:         container.Finance,
		PostingFailures: opts.PostingFailures,
	}, opts.Service...)

	container.Subscription = NewSubscriptionService(
		repos.SubscriptionRepo,
		repos.AccountRepo,
		repos.PlanRepo,
		cfg.SubscriptionGraceDays,
		opts.Service...,
	)

	return container
}
