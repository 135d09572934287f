package services

import (
	"context"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/SscSPs/workshop_backend/internal/dto"
)

// OrderReaderSvc defines read operations for service orders.
type OrderReaderSvc interface {
	GetOrder(ctx context.Context, accountID, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, accountID string, params dto.ListOrdersParams) ([]domain.Order, error)
	DashboardStats(ctx context.Context, accountID string) (*domain.DashboardStats, error)
}

// OrderWriterSvc defines write operations. Each call is a single transaction.
type OrderWriterSvc interface {
	CreateOrder(ctx context.Context, accountID string, req dto.CreateOrderRequest) (*domain.Order, error)
	UpdateOrder(ctx context.Context, accountID, orderID string, req dto.UpdateOrderRequest) (*domain.Order, error)
	DeleteOrder(ctx context.Context, accountID, orderID string) error
}

// OrderReconcilerSvc repairs completed orders whose revenue posting was missed.
type OrderReconcilerSvc interface {
	// ReconcileCompletedOrders posts revenue for up to limit orders and returns how many were posted.
	ReconcileCompletedOrders(ctx context.Context, limit int) (int, error)
}

// OrderSvcFacade combines all order-related service interfaces
type OrderSvcFacade interface {
	OrderReaderSvc
	OrderWriterSvc
	OrderReconcilerSvc
}
