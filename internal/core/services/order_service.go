package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// OrderServiceDeps lists what the order workflow needs. Every repository must
// share one storage backend so a transaction from OrderRepo spans all of them.
type OrderServiceDeps struct {
	OrderRepo     portsrepo.OrderRepositoryWithTx
	AccountRepo   portsrepo.AccountRepositoryFacade
	PlanRepo      portsrepo.PlanRepositoryFacade
	InventoryRepo portsrepo.InventoryRepositoryFacade
	Stock         portssvc.StockAdjusterSvc
	Revenue       portssvc.RevenuePosterSvc

	// PostingFailures counts revenue postings that failed after an order was completed. Optional.
	PostingFailures prometheus.Counter
}

type orderService struct {
	BaseService
	OrderServiceDeps
}

// NewOrderService creates the order workflow service.
func NewOrderService(deps OrderServiceDeps, options ...ServiceOption) portssvc.OrderSvcFacade {
	return &orderService{
		BaseService:      newBaseService(options...),
		OrderServiceDeps: deps,
	}
}

var _ portssvc.OrderSvcFacade = (*orderService)(nil)

func (s *orderService) CreateOrder(ctx context.Context, accountID string, req dto.CreateOrderRequest) (*domain.Order, error) {
	customer := strings.TrimSpace(req.CustomerName)
	if customer == "" {
		return nil, fmt.Errorf("%w: customer name is required", apperrors.ErrValidation)
	}
	if !domain.ValidPlate(req.Plate) {
		return nil, fmt.Errorf("%w: invalid plate %q", apperrors.ErrValidation, req.Plate)
	}
	value := decimal.Zero
	if req.Value != nil {
		value = *req.Value
	}
	if value.IsNegative() {
		return nil, fmt.Errorf("%w: order value cannot be negative", apperrors.ErrValidation)
	}

	now := s.now()
	order := domain.Order{
		OrderID:          uuid.NewString(),
		AccountID:        accountID,
		CustomerName:     customer,
		CustomerPhone:    strings.TrimSpace(req.CustomerPhone),
		Plate:            domain.NormalizePlate(req.Plate),
		VehicleModel:     strings.TrimSpace(req.VehicleModel),
		VehicleYear:      req.VehicleYear,
		Mileage:          req.Mileage,
		Description:      strings.TrimSpace(req.Description),
		Diagnosis:        strings.TrimSpace(req.Diagnosis),
		Value:            value,
		Status:           domain.StatusOpen,
		MessagingConsent: req.MessagingConsent,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     accountID,
			LastUpdatedAt: now,
			LastUpdatedBy: accountID,
		},
	}

	services, err := buildServiceLines(order.OrderID, req.Services)
	if err != nil {
		return nil, err
	}
	order.Services = services

	err = s.inTx(ctx, s.OrderRepo, func(tx pgx.Tx) error {
		if err := s.checkQuota(ctx, tx, accountID, now); err != nil {
			return err
		}

		parts, err := s.allocateParts(ctx, tx, accountID, order.OrderID, req.Parts)
		if err != nil {
			return err
		}
		order.Parts = parts
		if order.Description == "" {
			order.Description = describeServices(order.Services)
		}
		order.PartsSummary = summarizeParts(order.Parts)
		order.RecomputeValue()

		if err := s.OrderRepo.SaveOrder(ctx, tx, order); err != nil {
			return err
		}
		if err := s.OrderRepo.SaveServiceLines(ctx, tx, order.Services); err != nil {
			return err
		}
		return s.OrderRepo.SavePartLines(ctx, tx, order.Parts)
	})
	if err != nil {
		s.logWorkflowError(ctx, err, "Failed to create order", order.OrderID)
		return nil, err
	}

	s.LogInfo(ctx, "Order created",
		slog.String("order_id", order.OrderID),
		slog.String("plate", order.Plate),
		slog.String("value", order.Value.String()))
	return &order, nil
}

// checkQuota locks the account row and enforces the plan's monthly order limit.
func (s *orderService) checkQuota(ctx context.Context, tx pgx.Tx, accountID string, now time.Time) error {
	account, err := s.AccountRepo.FindAccountForUpdate(ctx, tx, accountID)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return fmt.Errorf("%w: renew the subscription to open orders", apperrors.ErrAccountInactive)
	}

	plan, err := s.PlanRepo.FindPlanByCode(ctx, account.PlanCode)
	if err != nil {
		return fmt.Errorf("failed to load plan %s: %w", account.PlanCode, err)
	}
	if plan.Unlimited() {
		return nil
	}

	monthStart, monthEnd := domain.MonthBounds(now)
	count, err := s.OrderRepo.CountOrdersCreatedBetween(ctx, tx, accountID, monthStart, monthEnd)
	if err != nil {
		return err
	}
	if count >= plan.MonthlyOrderQuota {
		return fmt.Errorf("%w: limit of %d orders for plan %s reached this month",
			apperrors.ErrQuotaExceeded, plan.MonthlyOrderQuota, plan.PlanCode)
	}
	return nil
}

func buildServiceLines(orderID string, reqs []dto.ServiceLineRequest) ([]domain.OrderServiceLine, error) {
	lines := make([]domain.OrderServiceLine, 0, len(reqs))
	for _, r := range reqs {
		description := strings.TrimSpace(r.Description)
		if description == "" {
			return nil, fmt.Errorf("%w: service description is required", apperrors.ErrValidation)
		}
		if r.Quantity <= 0 {
			return nil, fmt.Errorf("%w: service quantity must be greater than zero", apperrors.ErrValidation)
		}
		if r.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: service price cannot be negative", apperrors.ErrValidation)
		}
		lines = append(lines, domain.OrderServiceLine{
			LineID:      uuid.NewString(),
			OrderID:     orderID,
			Description: description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			LineTotal:   domain.LineTotal(r.Quantity, r.UnitPrice),
		})
	}
	return lines, nil
}

// allocateParts takes stock for every requested part inside tx and returns the
// priced part lines.
func (s *orderService) allocateParts(ctx context.Context, tx pgx.Tx, accountID, orderID string, reqs []dto.PartLineRequest) ([]domain.OrderPartLine, error) {
	lines := make([]domain.OrderPartLine, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, fmt.Errorf("%w: part quantity must be greater than zero", apperrors.ErrValidation)
		}
		item, err := s.InventoryRepo.FindItemForUpdate(ctx, tx, r.ItemID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: item %s", apperrors.ErrNotFound, r.ItemID)
			}
			return nil, err
		}
		if item.AccountID != accountID {
			return nil, fmt.Errorf("%w: item %s belongs to another account", apperrors.ErrForbidden, r.ItemID)
		}
		if !item.IsActive {
			return nil, fmt.Errorf("%w: item %s is inactive", apperrors.ErrValidation, item.Name)
		}

		price := item.SalePrice
		if r.UnitPrice != nil {
			price = *r.UnitPrice
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("%w: part price cannot be negative", apperrors.ErrValidation)
		}

		oid := orderID
		_, _, err = s.Stock.AdjustQuantityTx(ctx, tx, domain.StockAdjustment{
			AccountID:   accountID,
			ItemID:      item.ItemID,
			Direction:   domain.MovementOut,
			Quantity:    r.Quantity,
			Reason:      domain.ReasonOrder,
			Description: "Order #" + orderID,
			OrderID:     &oid,
			ActorID:     accountID,
		})
		if err != nil {
			return nil, err
		}

		lines = append(lines, domain.OrderPartLine{
			LineID:    uuid.NewString(),
			OrderID:   orderID,
			ItemID:    item.ItemID,
			ItemName:  item.Name,
			ItemCode:  item.Code,
			Quantity:  r.Quantity,
			UnitPrice: price,
			LineTotal: domain.LineTotal(r.Quantity, price),
		})
	}
	return lines, nil
}

// returnParts puts every allocated part of order back into stock.
func (s *orderService) returnParts(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	oid := order.OrderID
	for _, p := range order.Parts {
		_, _, err := s.Stock.AdjustQuantityTx(ctx, tx, domain.StockAdjustment{
			AccountID:   order.AccountID,
			ItemID:      p.ItemID,
			Direction:   domain.MovementIn,
			Quantity:    p.Quantity,
			Reason:      domain.ReasonReturn,
			Description: "Order #" + oid + " returned",
			OrderID:     &oid,
			ActorID:     order.AccountID,
		})
		if err != nil {
			return fmt.Errorf("failed to return %s to stock: %w", p.ItemName, err)
		}
	}
	return nil
}

func describeServices(lines []domain.OrderServiceLine) string {
	if len(lines) == 0 {
		return "Service"
	}
	names := make([]string, len(lines))
	for i, l := range lines {
		names[i] = l.Description
	}
	return strings.Join(names, "; ")
}

func summarizeParts(lines []domain.OrderPartLine) string {
	names := make([]string, len(lines))
	for i, l := range lines {
		names[i] = fmt.Sprintf("%s x%d", l.ItemName, l.Quantity)
	}
	return strings.Join(names, ", ")
}

func (s *orderService) UpdateOrder(ctx context.Context, accountID, orderID string, req dto.UpdateOrderRequest) (*domain.Order, error) {
	if req.Plate != nil && !domain.ValidPlate(*req.Plate) {
		return nil, fmt.Errorf("%w: invalid plate %q", apperrors.ErrValidation, *req.Plate)
	}
	if req.Value != nil && req.Value.IsNegative() {
		return nil, fmt.Errorf("%w: order value cannot be negative", apperrors.ErrValidation)
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %s", apperrors.ErrValidation, *req.Status)
	}

	var (
		order    *domain.Order
		previous domain.OrderStatus
	)
	err := s.inTx(ctx, s.OrderRepo, func(tx pgx.Tx) error {
		var err error
		order, err = s.OrderRepo.FindOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.AccountID != accountID {
			return fmt.Errorf("%w: order %s belongs to another account", apperrors.ErrForbidden, orderID)
		}
		previous = order.Status

		if req.Status != nil && !order.Status.CanTransitionTo(*req.Status) {
			return fmt.Errorf("%w: %s -> %s; allowed from %s: %s", apperrors.ErrInvalidTransition,
				order.Status, *req.Status, order.Status, order.Status.DescribeAllowedTransitions())
		}

		applyOrderFields(order, req)

		if req.Services != nil {
			services, err := buildServiceLines(order.OrderID, *req.Services)
			if err != nil {
				return err
			}
			if err := s.OrderRepo.DeleteServiceLines(ctx, tx, order.OrderID); err != nil {
				return err
			}
			if err := s.OrderRepo.SaveServiceLines(ctx, tx, services); err != nil {
				return err
			}
			order.Services = services
			if req.Description == nil && len(services) > 0 {
				order.Description = describeServices(services)
			}
		}

		if req.Parts != nil {
			if err := s.returnParts(ctx, tx, order); err != nil {
				return err
			}
			if err := s.OrderRepo.DeletePartLines(ctx, tx, order.OrderID); err != nil {
				return err
			}
			parts, err := s.allocateParts(ctx, tx, accountID, order.OrderID, *req.Parts)
			if err != nil {
				return err
			}
			if err := s.OrderRepo.SavePartLines(ctx, tx, parts); err != nil {
				return err
			}
			order.Parts = parts
			order.PartsSummary = summarizeParts(parts)
		}

		order.RecomputeValue()

		now := s.now()
		if req.Status != nil {
			order.Status = *req.Status
			if order.Status == domain.StatusCompleted && order.CompletedAt == nil {
				order.CompletedAt = &now
			}
		}
		order.LastUpdatedAt = now
		order.LastUpdatedBy = accountID
		return s.OrderRepo.UpdateOrder(ctx, tx, *order)
	})
	if err != nil {
		s.logWorkflowError(ctx, err, "Failed to update order", orderID)
		return nil, err
	}

	s.LogInfo(ctx, "Order updated",
		slog.String("order_id", orderID),
		slog.String("status", string(order.Status)))

	if previous != domain.StatusCompleted && order.Status == domain.StatusCompleted && order.Value.IsPositive() {
		s.postRevenue(ctx, *order)
	}
	return order, nil
}

func applyOrderFields(order *domain.Order, req dto.UpdateOrderRequest) {
	if req.CustomerName != nil {
		order.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if req.CustomerPhone != nil {
		order.CustomerPhone = strings.TrimSpace(*req.CustomerPhone)
	}
	if req.Plate != nil {
		order.Plate = domain.NormalizePlate(*req.Plate)
	}
	if req.VehicleModel != nil {
		order.VehicleModel = strings.TrimSpace(*req.VehicleModel)
	}
	if req.VehicleYear != nil {
		order.VehicleYear = req.VehicleYear
	}
	if req.Mileage != nil {
		order.Mileage = req.Mileage
	}
	if req.Description != nil {
		order.Description = strings.TrimSpace(*req.Description)
	}
	if req.Diagnosis != nil {
		order.Diagnosis = strings.TrimSpace(*req.Diagnosis)
	}
	if req.Value != nil {
		order.Value = *req.Value
	}
	if req.MessagingConsent != nil {
		order.MessagingConsent = *req.MessagingConsent
	}
}

// postRevenue runs after the order transaction committed. A failure here leaves
// the order completed and is picked up by ReconcileCompletedOrders.
func (s *orderService) postRevenue(ctx context.Context, order domain.Order) {
	if s.Revenue == nil {
		return
	}
	if _, _, err := s.Revenue.PostOrderRevenue(ctx, order); err != nil {
		s.LogError(ctx, err, "Revenue posting failed for completed order", slog.String("order_id", order.OrderID))
		if s.PostingFailures != nil {
			s.PostingFailures.Inc()
		}
	}
}

func (s *orderService) DeleteOrder(ctx context.Context, accountID, orderID string) error {
	err := s.inTx(ctx, s.OrderRepo, func(tx pgx.Tx) error {
		order, err := s.OrderRepo.FindOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.AccountID != accountID {
			return fmt.Errorf("%w: order %s belongs to another account", apperrors.ErrForbidden, orderID)
		}
		if err := s.returnParts(ctx, tx, order); err != nil {
			return err
		}
		if err := s.OrderRepo.DeleteServiceLines(ctx, tx, orderID); err != nil {
			return err
		}
		if err := s.OrderRepo.DeletePartLines(ctx, tx, orderID); err != nil {
			return err
		}
		return s.OrderRepo.DeleteOrder(ctx, tx, orderID)
	})
	if err != nil {
		s.logWorkflowError(ctx, err, "Failed to delete order", orderID)
		return err
	}
	s.LogInfo(ctx, "Order deleted", slog.String("order_id", orderID))
	return nil
}

func (s *orderService) GetOrder(ctx context.Context, accountID, orderID string) (*domain.Order, error) {
	order, err := s.OrderRepo.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AccountID != accountID {
		return nil, fmt.Errorf("%w: order %s belongs to another account", apperrors.ErrForbidden, orderID)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, accountID string, params dto.ListOrdersParams) ([]domain.Order, error) {
	var status *domain.OrderStatus
	if params.Status != "" {
		st := domain.OrderStatus(strings.ToUpper(params.Status))
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %s", apperrors.ErrValidation, params.Status)
		}
		status = &st
	}
	orders, err := s.OrderRepo.ListOrders(ctx, accountID, status)
	if err != nil {
		s.LogError(ctx, err, "Failed to list orders")
		return nil, err
	}
	return orders, nil
}

func (s *orderService) DashboardStats(ctx context.Context, accountID string) (*domain.DashboardStats, error) {
	monthStart, _ := domain.MonthBounds(s.now())
	return s.OrderRepo.GetDashboardStats(ctx, accountID, monthStart)
}

func (s *orderService) ReconcileCompletedOrders(ctx context.Context, limit int) (int, error) {
	orders, err := s.OrderRepo.ListCompletedWithoutPosting(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list unposted orders: %w", err)
	}

	posted := 0
	var errs []error
	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		_, ok, err := s.Revenue.PostOrderRevenue(ctx, order)
		if err != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", order.OrderID, err))
			continue
		}
		if ok {
			posted++
		}
	}

	if posted > 0 {
		s.LogInfo(ctx, "Reconciled completed orders", slog.Int("posted", posted), slog.Int("candidates", len(orders)))
	}
	return posted, errors.Join(errs...)
}

// logWorkflowError logs only failures that are not ordinary business rejections.
func (s *orderService) logWorkflowError(ctx context.Context, err error, msg, orderID string) {
	for _, expected := range []error{
		apperrors.ErrValidation, apperrors.ErrNotFound, apperrors.ErrForbidden, apperrors.ErrAccountInactive,
		apperrors.ErrQuotaExceeded, apperrors.ErrInsufficientStock, apperrors.ErrInvalidTransition,
	} {
		if errors.Is(err, expected) {
			s.LogDebug(ctx, msg, slog.String("order_id", orderID), slog.String("reason", err.Error()))
			return
		}
	}
	s.LogError(ctx, err, msg, slog.String("order_id", orderID))
}
