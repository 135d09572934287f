package dto

import (
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateItemRequest defines the data needed to register a stock item.
type CreateItemRequest struct {
	Code            string              `json:"code" binding:"required,max=50"`
	Name            string              `json:"name" binding:"required,max=150"`
	Category        domain.ItemCategory `json:"category" binding:"omitempty,item_category"`
	Quantity        int                 `json:"quantity" binding:"min=0"`
	MinimumQuantity *int                `json:"minimumQuantity" binding:"omitempty,min=0"`
	CostPrice       decimal.Decimal     `json:"costPrice"`
	SalePrice       decimal.Decimal     `json:"salePrice"`
	Location        string              `json:"location" binding:"max=100"`
}

// UpdateItemRequest defines the data allowed for updating an item.
// Pointers distinguish omitted fields from zero values. A changed quantity is
// recorded as an ADJUSTMENT movement.
type UpdateItemRequest struct {
	Code            *string              `json:"code" binding:"omitempty,max=50"`
	Name            *string              `json:"name" binding:"omitempty,max=150"`
	Category        *domain.ItemCategory `json:"category" binding:"omitempty,item_category"`
	Quantity        *int                 `json:"quantity" binding:"omitempty,min=0"`
	MinimumQuantity *int                 `json:"minimumQuantity" binding:"omitempty,min=0"`
	CostPrice       *decimal.Decimal     `json:"costPrice"`
	SalePrice       *decimal.Decimal     `json:"salePrice"`
	Location        *string              `json:"location" binding:"omitempty,max=100"`
}

// StockMovementRequest records a manual stock movement.
type StockMovementRequest struct {
	ItemID      string                   `json:"itemID" binding:"required"`
	Direction   domain.MovementDirection `json:"direction" binding:"required,oneof=IN OUT"`
	Quantity    int                      `json:"quantity" binding:"required,gt=0"`
	Reason      domain.MovementReason    `json:"reason" binding:"required,movement_reason"`
	Description string                   `json:"description" binding:"max=255"`
}

// ListItemsParams defines query parameters for listing items.
type ListItemsParams struct {
	IncludeInactive bool `form:"includeInactive"`
}

// ListMovementsParams defines query parameters for listing movements.
type ListMovementsParams struct {
	ItemID *string `form:"itemID"`
	Limit  int     `form:"limit,default=50" binding:"min=1,max=500"`
}

// ItemResponse defines the data returned for an inventory item.
type ItemResponse struct {
	ItemID          string              `json:"itemID"`
	Code            string              `json:"code"`
	Name            string              `json:"name"`
	Category        domain.ItemCategory `json:"category"`
	Quantity        int                 `json:"quantity"`
	MinimumQuantity int                 `json:"minimumQuantity"`
	CostPrice       decimal.Decimal     `json:"costPrice"`
	SalePrice       decimal.Decimal     `json:"salePrice"`
	Location        string              `json:"location"`
	IsActive        bool                `json:"isActive"`
	CreatedAt       time.Time           `json:"createdAt"`
	LastUpdatedAt   time.Time           `json:"lastUpdatedAt"`
}

// MovementResponse defines the data returned for a stock movement.
type MovementResponse struct {
	MovementID     string                   `json:"movementID"`
	ItemID         string                   `json:"itemID"`
	Direction      domain.MovementDirection `json:"direction"`
	Quantity       int                      `json:"quantity"`
	QuantityBefore int                      `json:"quantityBefore"`
	QuantityAfter  int                      `json:"quantityAfter"`
	Reason         domain.MovementReason    `json:"reason"`
	Description    string                   `json:"description"`
	OrderID        *string                  `json:"orderID,omitempty"`
	CreatedAt      time.Time                `json:"createdAt"`
	CreatedBy      string                   `json:"createdBy"`
}

// AlertResponse pairs an item with its stock alert level.
type AlertResponse struct {
	Level domain.AlertLevel `json:"level"`
	Item  ItemResponse      `json:"item"`
}

// ToItemResponse converts a domain.InventoryItem to ItemResponse DTO.
func ToItemResponse(item *domain.InventoryItem) ItemResponse {
	return ItemResponse{
		ItemID:          item.ItemID,
		Code:            item.Code,
		Name:            item.Name,
		Category:        item.Category,
		Quantity:        item.Quantity,
		MinimumQuantity: item.MinimumQuantity,
		CostPrice:       item.CostPrice,
		SalePrice:       item.SalePrice,
		Location:        item.Location,
		IsActive:        item.IsActive,
		CreatedAt:       item.CreatedAt,
		LastUpdatedAt:   item.LastUpdatedAt,
	}
}

// ToListItemResponse converts a slice of items.
func ToListItemResponse(items []domain.InventoryItem) []ItemResponse {
	res := make([]ItemResponse, len(items))
	for i := range items {
		res[i] = ToItemResponse(&items[i])
	}
	return res
}

// ToMovementResponse converts a domain.StockMovement to MovementResponse DTO.
func ToMovementResponse(m *domain.StockMovement) MovementResponse {
	return MovementResponse{
		MovementID:     m.MovementID,
		ItemID:         m.ItemID,
		Direction:      m.Direction,
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reason:         m.Reason,
		Description:    m.Description,
		OrderID:        m.OrderID,
		CreatedAt:      m.CreatedAt,
		CreatedBy:      m.CreatedBy,
	}
}

// ToListMovementResponse converts a slice of movements.
func ToListMovementResponse(movements []domain.StockMovement) []MovementResponse {
	res := make([]MovementResponse, len(movements))
	for i := range movements {
		res[i] = ToMovementResponse(&movements[i])
	}
	return res
}

// ToListAlertResponse converts a slice of alerts.
func ToListAlertResponse(alerts []domain.StockAlert) []AlertResponse {
	res := make([]AlertResponse, len(alerts))
	for i := range alerts {
		res[i] = AlertResponse{Level: alerts[i].Level, Item: ToItemResponse(&alerts[i].Item)}
	}
	return res
}
