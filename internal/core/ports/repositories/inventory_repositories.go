package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// InventoryReader defines read operations for items and movements.
type InventoryReader interface {
	// FindItemByID retrieves an item regardless of owner; callers check ownership.
	FindItemByID(ctx context.Context, itemID string) (*domain.InventoryItem, error)

	// ListItems lists an account's items ordered by name.
	ListItems(ctx context.Context, accountID string, includeInactive bool) ([]domain.InventoryItem, error)

	// ItemCodeExists reports whether the account already uses code (case-insensitive),
	// ignoring excludeItemID when non-empty.
	ItemCodeExists(ctx context.Context, accountID, code, excludeItemID string) (bool, error)

	// ListMovements lists movements newest first, optionally for a single item.
	ListMovements(ctx context.Context, accountID string, itemID *string, limit int) ([]domain.StockMovement, error)
}

// InventoryWriter defines write operations. Quantity changes must go through
// FindItemForUpdate + UpdateItemQuantity + SaveMovement in the same tx.
type InventoryWriter interface {
	// SaveItem inserts a new item within tx.
	SaveItem(ctx context.Context, tx pgx.Tx, item domain.InventoryItem) error

	// UpdateItemDetails updates every non-quantity field within tx.
	UpdateItemDetails(ctx context.Context, tx pgx.Tx, item domain.InventoryItem) error

	// FindItemForUpdate locks the item row within tx.
	FindItemForUpdate(ctx context.Context, tx pgx.Tx, itemID string) (*domain.InventoryItem, error)

	// UpdateItemQuantity writes the new on-hand quantity within tx.
	UpdateItemQuantity(ctx context.Context, tx pgx.Tx, itemID string, quantity int, updatedBy string, updatedAt time.Time) error

	// SaveMovement appends a movement record within tx.
	SaveMovement(ctx context.Context, tx pgx.Tx, movement domain.StockMovement) error
}

// InventoryRepositoryFacade combines all inventory-related repository interfaces
type InventoryRepositoryFacade interface {
	InventoryReader
	InventoryWriter
}

// InventoryRepositoryWithTx extends InventoryRepositoryFacade with transaction capabilities
type InventoryRepositoryWithTx interface {
	InventoryRepositoryFacade
	TransactionManager
}
