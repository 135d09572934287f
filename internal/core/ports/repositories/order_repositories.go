package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// OrderReader defines read operations for service orders.
type OrderReader interface {
	// FindOrderByID retrieves an order with its lines, regardless of owner.
	FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error)

	// ListOrders lists an account's orders newest first, optionally by status. Lines are not loaded.
	ListOrders(ctx context.Context, accountID string, status *domain.OrderStatus) ([]domain.Order, error)

	// GetDashboardStats counts orders by status; ThisMonth counts orders created since monthStart.
	GetDashboardStats(ctx context.Context, accountID string, monthStart time.Time) (*domain.DashboardStats, error)

	// ListCompletedWithoutPosting returns COMPLETED orders with value > 0 that lack a
	// non-reversal ORDER ledger row, oldest completion first.
	ListCompletedWithoutPosting(ctx context.Context, limit int) ([]domain.Order, error)
}

// OrderWriter defines write operations; all run inside the caller's tx.
type OrderWriter interface {
	// CountOrdersCreatedBetween counts the account's orders with from <= created_at < to.
	CountOrdersCreatedBetween(ctx context.Context, tx pgx.Tx, accountID string, from, to time.Time) (int, error)

	// FindOrderForUpdate locks the order row and loads its lines.
	FindOrderForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (*domain.Order, error)

	// SaveOrder inserts the order header.
	SaveOrder(ctx context.Context, tx pgx.Tx, order domain.Order) error

	// UpdateOrder rewrites the order header.
	UpdateOrder(ctx context.Context, tx pgx.Tx, order domain.Order) error

	// DeleteOrder removes the order header (lines must already be gone).
	DeleteOrder(ctx context.Context, tx pgx.Tx, orderID string) error

	// SaveServiceLines inserts service lines.
	SaveServiceLines(ctx context.Context, tx pgx.Tx, lines []domain.OrderServiceLine) error

	// DeleteServiceLines removes every service line of the order.
	DeleteServiceLines(ctx context.Context, tx pgx.Tx, orderID string) error

	// SavePartLines inserts part lines.
	SavePartLines(ctx context.Context, tx pgx.Tx, lines []domain.OrderPartLine) error

	// DeletePartLines removes every part line of the order.
	DeletePartLines(ctx context.Context, tx pgx.Tx, orderID string) error
}

// OrderRepositoryFacade combines all order-related repository interfaces
type OrderRepositoryFacade interface {
	OrderReader
	OrderWriter
}

// OrderRepositoryWithTx extends OrderRepositoryFacade with transaction capabilities
type OrderRepositoryWithTx interface {
	OrderRepositoryFacade
	TransactionManager
}
