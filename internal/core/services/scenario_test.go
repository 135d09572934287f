package services_test

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/core/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/platform/clock"
	"github.com/SscSPs/workshop_backend/internal/platform/config"
	"github.com/SscSPs/workshop_backend/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var scenarioStart = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// ScenarioSuite wires every service to one seeded memory store and a manual clock.
type ScenarioSuite struct {
	suite.Suite
	ctx   context.Context
	clock *clock.Manual
	repos portsrepo.RepositoryProvider
	svc   *portssvc.ServiceContainer

	accountID string
	accounts  int
}

func (s *ScenarioSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewManual(scenarioStart)
	s.repos = memory.NewRepositoryProvider(memory.NewSeededStore())
	cfg := &config.Config{
		JWTSecret:             "scenario-secret",
		JWTExpiryDuration:     time.Hour,
		JWTIssuer:             "workshop-test",
		SubscriptionGraceDays: domain.DefaultGraceDays,
	}
	s.svc = services.NewServiceContainer(cfg, s.repos, services.ContainerOptions{
		Service: []services.ServiceOption{services.WithClock(s.clock)},
	})
	s.accounts = 0
	s.accountID = s.registerAccount()
}

// registerAccount opens a fresh FREE account and returns its id.
func (s *ScenarioSuite) registerAccount() string {
	s.accounts++
	res, err := s.svc.Account.Register(s.ctx, dto.RegisterRequest{
		Name:     fmt.Sprintf("Owner %d", s.accounts),
		Email:    fmt.Sprintf("owner%d@garage.test", s.accounts),
		Password: "secret123",
		ShopName: "Garage",
	})
	s.Require().NoError(err)
	return res.Account.AccountID
}

func (s *ScenarioSuite) createItem(accountID, code string, quantity int, salePrice string) *domain.InventoryItem {
	item, err := s.svc.Inventory.CreateItem(s.ctx, accountID, dto.CreateItemRequest{
		Code:      code,
		Name:      "Item " + code,
		Quantity:  quantity,
		CostPrice: decimal.RequireFromString("1.00"),
		SalePrice: decimal.RequireFromString(salePrice),
	})
	s.Require().NoError(err)
	return item
}

func (s *ScenarioSuite) stockOf(itemID string) int {
	item, err := s.repos.InventoryRepo.FindItemByID(s.ctx, itemID)
	s.Require().NoError(err)
	return item.Quantity
}

func (s *ScenarioSuite) openOrder(accountID string, req dto.CreateOrderRequest) *domain.Order {
	if req.CustomerName == "" {
		req.CustomerName = "Maria"
	}
	if req.Plate == "" {
		req.Plate = "ABC1D23"
	}
	order, err := s.svc.Order.CreateOrder(s.ctx, accountID, req)
	s.Require().NoError(err)
	return order
}

func (s *ScenarioSuite) moveOrder(accountID, orderID string, statuses ...domain.OrderStatus) *domain.Order {
	var order *domain.Order
	for _, st := range statuses {
		status := st
		var err error
		order, err = s.svc.Order.UpdateOrder(s.ctx, accountID, orderID, dto.UpdateOrderRequest{Status: &status})
		s.Require().NoError(err)
	}
	return order
}

func (s *ScenarioSuite) orderPostings(accountID, orderID string) []dto.TransactionResponse {
	res, err := s.svc.Finance.ListTransactions(s.ctx, accountID, dto.ListTransactionsParams{Limit: 100})
	s.Require().NoError(err)
	var out []dto.TransactionResponse
	for _, t := range res.Transactions {
		if t.OriginKind == domain.OriginOrder && t.OriginID != nil && *t.OriginID == orderID {
			out = append(out, t)
		}
	}
	return out
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func newMemoryRepos() portsrepo.RepositoryProvider {
	return memory.NewRepositoryProvider(memory.NewSeededStore())
}
