package services

import (
	"context"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/jackc/pgx/v5"
)

// InventoryReaderSvc defines read operations for stock.
type InventoryReaderSvc interface {
	GetItem(ctx context.Context, accountID, itemID string) (*domain.InventoryItem, error)
	ListItems(ctx context.Context, accountID string, params dto.ListItemsParams) ([]domain.InventoryItem, error)
	ListMovements(ctx context.Context, accountID string, params dto.ListMovementsParams) ([]domain.StockMovement, error)

	// ListAlerts returns active items at or below their minimum, lowest quantity first.
	ListAlerts(ctx context.Context, accountID string) ([]domain.StockAlert, error)
}

// InventoryWriterSvc defines write operations for stock.
type InventoryWriterSvc interface {
	CreateItem(ctx context.Context, accountID string, req dto.CreateItemRequest) (*domain.InventoryItem, error)
	UpdateItem(ctx context.Context, accountID, itemID string, req dto.UpdateItemRequest) (*domain.InventoryItem, error)
	DeactivateItem(ctx context.Context, accountID, itemID string) error

	// AdjustQuantity records one movement in its own transaction.
	AdjustQuantity(ctx context.Context, adj domain.StockAdjustment) (*domain.StockMovement, error)
}

// StockAdjusterSvc lets other services move stock inside their own transaction.
type StockAdjusterSvc interface {
	// AdjustQuantityTx locks the item, checks availability and appends the movement within tx.
	// It returns the item as it was before the adjustment.
	AdjustQuantityTx(ctx context.Context, tx pgx.Tx, adj domain.StockAdjustment) (*domain.InventoryItem, *domain.StockMovement, error)
}

// InventorySvcFacade combines all inventory-related service interfaces
type InventorySvcFacade interface {
	InventoryReaderSvc
	InventoryWriterSvc
	StockAdjusterSvc
}
