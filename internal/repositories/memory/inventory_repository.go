package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

// InventoryRepository is the memory implementation of the inventory port.
type InventoryRepository struct {
	baseRepository
}

var _ portsrepo.InventoryRepositoryWithTx = (*InventoryRepository)(nil)

func (r *InventoryRepository) FindItemByID(_ context.Context, itemID string) (*domain.InventoryItem, error) {
	var (
		item domain.InventoryItem
		ok   bool
	)
	r.store.read(func(st *state) { item, ok = st.items[itemID] })
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &item, nil
}

func (r *InventoryRepository) ListItems(_ context.Context, accountID string, includeInactive bool) ([]domain.InventoryItem, error) {
	items := []domain.InventoryItem{}
	r.store.read(func(st *state) {
		for _, item := range st.items {
			if item.AccountID != accountID || (!includeInactive && !item.IsActive) {
				continue
			}
			items = append(items, item)
		}
	})
	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

func (r *InventoryRepository) ItemCodeExists(_ context.Context, accountID, code, excludeItemID string) (bool, error) {
	exists := false
	r.store.read(func(st *state) {
		for _, item := range st.items {
			if item.AccountID == accountID && item.ItemID != excludeItemID && strings.EqualFold(item.Code, code) {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func (r *InventoryRepository) ListMovements(_ context.Context, accountID string, itemID *string, limit int) ([]domain.StockMovement, error) {
	movements := []domain.StockMovement{}
	r.store.read(func(st *state) {
		// newest first: movements are appended in creation order
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.AccountID != accountID || (itemID != nil && m.ItemID != *itemID) {
				continue
			}
			movements = append(movements, m)
			if limit > 0 && len(movements) == limit {
				return
			}
		}
	})
	return movements, nil
}

func (r *InventoryRepository) SaveItem(_ context.Context, tx pgx.Tx, item domain.InventoryItem) error {
	return r.store.write(tx, func(st *state) error {
		if _, exists := st.items[item.ItemID]; exists {
			return apperrors.ErrDuplicate
		}
		st.items[item.ItemID] = item
		return nil
	})
}

func (r *InventoryRepository) UpdateItemDetails(_ context.Context, tx pgx.Tx, item domain.InventoryItem) error {
	return r.store.write(tx, func(st *state) error {
		current, ok := st.items[item.ItemID]
		if !ok {
			return apperrors.ErrNotFound
		}
		item.Quantity = current.Quantity
		item.CreatedAt = current.CreatedAt
		item.CreatedBy = current.CreatedBy
		st.items[item.ItemID] = item
		return nil
	})
}

func (r *InventoryRepository) FindItemForUpdate(_ context.Context, tx pgx.Tx, itemID string) (*domain.InventoryItem, error) {
	var item *domain.InventoryItem
	err := r.store.write(tx, func(st *state) error {
		it, ok := st.items[itemID]
		if !ok {
			return apperrors.ErrNotFound
		}
		item = &it
		return nil
	})
	return item, err
}

func (r *InventoryRepository) UpdateItemQuantity(_ context.Context, tx pgx.Tx, itemID string, quantity int, updatedBy string, updatedAt time.Time) error {
	return r.store.write(tx, func(st *state) error {
		item, ok := st.items[itemID]
		if !ok {
			return apperrors.ErrNotFound
		}
		item.Quantity = quantity
		item.LastUpdatedAt = updatedAt
		item.LastUpdatedBy = updatedBy
		st.items[itemID] = item
		return nil
	})
}

func (r *InventoryRepository) SaveMovement(_ context.Context, tx pgx.Tx, movement domain.StockMovement) error {
	return r.store.write(tx, func(st *state) error {
		st.movements = append(st.movements, movement)
		return nil
	})
}
