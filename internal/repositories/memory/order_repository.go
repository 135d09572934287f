package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

// OrderRepository is the memory implementation of the order port.
type OrderRepository struct {
	baseRepository
}

var _ portsrepo.OrderRepositoryWithTx = (*OrderRepository)(nil)

func withLines(st *state, o domain.Order) domain.Order {
	o.Services = append([]domain.OrderServiceLine{}, st.serviceLines[o.OrderID]...)
	o.Parts = append([]domain.OrderPartLine{}, st.partLines[o.OrderID]...)
	return o
}

func (r *OrderRepository) FindOrderByID(_ context.Context, orderID string) (*domain.Order, error) {
	var found *domain.Order
	r.store.read(func(st *state) {
		if o, ok := st.orders[orderID]; ok {
			full := withLines(st, o)
			found = &full
		}
	})
	if found == nil {
		return nil, apperrors.ErrNotFound
	}
	return found, nil
}

func (r *OrderRepository) ListOrders(_ context.Context, accountID string, status *domain.OrderStatus) ([]domain.Order, error) {
	orders := []domain.Order{}
	r.store.read(func(st *state) {
		for _, o := range st.orders {
			if o.AccountID != accountID || (status != nil && o.Status != *status) {
				continue
			}
			orders = append(orders, o)
		}
	})
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (r *OrderRepository) GetDashboardStats(_ context.Context, accountID string, monthStart time.Time) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{}
	r.store.read(func(st *state) {
		for _, o := range st.orders {
			if o.AccountID != accountID {
				continue
			}
			stats.Total++
			switch o.Status {
			case domain.StatusOpen:
				stats.Open++
			case domain.StatusInProgress:
				stats.InProgress++
			case domain.StatusCompleted:
				stats.Completed++
			}
			if !o.CreatedAt.Before(monthStart) {
				stats.ThisMonth++
			}
		}
	})
	return stats, nil
}

func (r *OrderRepository) ListCompletedWithoutPosting(_ context.Context, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	r.store.read(func(st *state) {
		posted := make(map[string]bool)
		for _, t := range st.transactions {
			if t.OriginKind == domain.OriginOrder && !t.IsReversal && t.OriginID != nil {
				posted[t.AccountID+"/"+*t.OriginID] = true
			}
		}
		for _, o := range st.orders {
			if o.Status != domain.StatusCompleted || !o.Value.IsPositive() || posted[o.AccountID+"/"+o.OrderID] {
				continue
			}
			orders = append(orders, o)
		}
	})
	sort.Slice(orders, func(i, j int) bool {
		return completedAt(orders[i]).Before(completedAt(orders[j]))
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func completedAt(o domain.Order) time.Time {
	if o.CompletedAt != nil {
		return *o.CompletedAt
	}
	return o.LastUpdatedAt
}

func (r *OrderRepository) CountOrdersCreatedBetween(_ context.Context, tx pgx.Tx, accountID string, from, to time.Time) (int, error) {
	count := 0
	err := r.store.write(tx, func(st *state) error {
		for _, o := range st.orders {
			if o.AccountID == accountID && !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *OrderRepository) FindOrderForUpdate(_ context.Context, tx pgx.Tx, orderID string) (*domain.Order, error) {
	var found *domain.Order
	err := r.store.write(tx, func(st *state) error {
		o, ok := st.orders[orderID]
		if !ok {
			return apperrors.ErrNotFound
		}
		full := withLines(st, o)
		found = &full
		return nil
	})
	return found, err
}

func (r *OrderRepository) SaveOrder(_ context.Context, tx pgx.Tx, order domain.Order) error {
	return r.store.write(tx, func(st *state) error {
		if _, exists := st.orders[order.OrderID]; exists {
			return apperrors.ErrDuplicate
		}
		order.Services, order.Parts = nil, nil
		st.orders[order.OrderID] = order
		return nil
	})
}

func (r *OrderRepository) UpdateOrder(_ context.Context, tx pgx.Tx, order domain.Order) error {
	return r.store.write(tx, func(st *state) error {
		if _, ok := st.orders[order.OrderID]; !ok {
			return apperrors.ErrNotFound
		}
		order.Services, order.Parts = nil, nil
		st.orders[order.OrderID] = order
		return nil
	})
}

func (r *OrderRepository) DeleteOrder(_ context.Context, tx pgx.Tx, orderID string) error {
	return r.store.write(tx, func(st *state) error {
		if _, ok := st.orders[orderID]; !ok {
			return apperrors.ErrNotFound
		}
		delete(st.orders, orderID)
		return nil
	})
}

func (r *OrderRepository) SaveServiceLines(_ context.Context, tx pgx.Tx, lines []domain.OrderServiceLine) error {
	return r.store.write(tx, func(st *state) error {
		for _, l := range lines {
			st.serviceLines[l.OrderID] = append(st.serviceLines[l.OrderID], l)
		}
		return nil
	})
}

func (r *OrderRepository) DeleteServiceLines(_ context.Context, tx pgx.Tx, orderID string) error {
	return r.store.write(tx, func(st *state) error {
		delete(st.serviceLines, orderID)
		return nil
	})
}

func (r *OrderRepository) SavePartLines(_ context.Context, tx pgx.Tx, lines []domain.OrderPartLine) error {
	return r.store.write(tx, func(st *state) error {
		for _, l := range lines {
			st.partLines[l.OrderID] = append(st.partLines[l.OrderID], l)
		}
		return nil
	})
}

func (r *OrderRepository) DeletePartLines(_ context.Context, tx pgx.Tx, orderID string) error {
	return r.store.write(tx, func(st *state) error {
		delete(st.partLines, orderID)
		return nil
	})
}
