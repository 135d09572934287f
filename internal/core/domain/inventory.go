package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemCategory groups inventory items.
type ItemCategory string

const (
	CategoryEngine       ItemCategory = "ENGINE"
	CategorySuspension   ItemCategory = "SUSPENSION"
	CategoryBrakes       ItemCategory = "BRAKES"
	CategoryElectrical   ItemCategory = "ELECTRICAL"
	CategoryTransmission ItemCategory = "TRANSMISSION"
	CategoryCooling      ItemCategory = "COOLING"
	CategoryFilters      ItemCategory = "FILTERS"
	CategoryOils         ItemCategory = "OILS"
	CategoryBodywork     ItemCategory = "BODYWORK"
	CategoryAccessories  ItemCategory = "ACCESSORIES"
	CategoryOther        ItemCategory = "OTHER"
)

var itemCategories = map[ItemCategory]bool{
	CategoryEngine: true, CategorySuspension: true, CategoryBrakes: true, CategoryElectrical: true,
	CategoryTransmission: true, CategoryCooling: true, CategoryFilters: true, CategoryOils: true,
	CategoryBodywork: true, CategoryAccessories: true, CategoryOther: true,
}

// IsValid reports whether c is a known category.
func (c ItemCategory) IsValid() bool {
	return itemCategories[c]
}

// MovementDirection is the sign of a stock movement.
type MovementDirection string

const (
	MovementIn  MovementDirection = "IN"
	MovementOut MovementDirection = "OUT"
)

// IsValid reports whether d is IN or OUT.
func (d MovementDirection) IsValid() bool {
	return d == MovementIn || d == MovementOut
}

// MovementReason explains why stock changed.
type MovementReason string

const (
	ReasonPurchase    MovementReason = "PURCHASE"
	ReasonAdjustment  MovementReason = "ADJUSTMENT"
	ReasonLoss        MovementReason = "LOSS"
	ReasonInternalUse MovementReason = "INTERNAL_USE"
	ReasonOrder       MovementReason = "ORDER"
	ReasonReturn      MovementReason = "RETURN"
)

// IsValid reports whether r is a known reason.
func (r MovementReason) IsValid() bool {
	switch r {
	case ReasonPurchase, ReasonAdjustment, ReasonLoss, ReasonInternalUse, ReasonOrder, ReasonReturn:
		return true
	}
	return false
}

const (
	DefaultMinimumQuantity = 1
)

// InventoryItem is a stock-keeping unit owned by an account.
// Quantity is only ever changed through a StockMovement.
type InventoryItem struct {
	ItemID          string          `json:"itemID"`
	AccountID       string          `json:"accountID"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Category        ItemCategory    `json:"category"`
	Quantity        int             `json:"quantity"`
	MinimumQuantity int             `json:"minimumQuantity"`
	CostPrice       decimal.Decimal `json:"costPrice"`
	SalePrice       decimal.Decimal `json:"salePrice"`
	Location        string          `json:"location,omitempty"`
	IsActive        bool            `json:"isActive"`
	AuditFields
}

// AlertLevel classifies low stock.
type AlertLevel string

const (
	AlertCritical AlertLevel = "CRITICAL"
	AlertLow      AlertLevel = "ALERT"
)

// AlertLevel returns the item's low-stock level, or false when stock is healthy.
func (i InventoryItem) AlertLevel() (AlertLevel, bool) {
	switch {
	case i.Quantity <= 0:
		return AlertCritical, true
	case i.Quantity <= i.MinimumQuantity:
		return AlertLow, true
	}
	return "", false
}

// StockAlert pairs an item with its alert level.
type StockAlert struct {
	Level AlertLevel    `json:"level"`
	Item  InventoryItem `json:"item"`
}

// StockAdjustment is a request to move stock for one item.
type StockAdjustment struct {
	AccountID   string
	ItemID      string
	Direction   MovementDirection
	Quantity    int
	Reason      MovementReason
	Description string
	OrderID     *string
	ActorID     string
}

// StockMovement is an immutable record of one quantity change.
// QuantityAfter = QuantityBefore ± Quantity.
type StockMovement struct {
	MovementID     string            `json:"movementID"`
	AccountID      string            `json:"accountID"`
	ItemID         string            `json:"itemID"`
	Direction      MovementDirection `json:"direction"`
	Quantity       int               `json:"quantity"`
	QuantityBefore int               `json:"quantityBefore"`
	QuantityAfter  int               `json:"quantityAfter"`
	Reason         MovementReason    `json:"reason"`
	Description    string            `json:"description,omitempty"`
	OrderID        *string           `json:"orderID,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	CreatedBy      string            `json:"createdBy"`
}

// SignedQuantity returns +Quantity for IN movements and -Quantity for OUT.
func (m StockMovement) SignedQuantity() int {
	if m.Direction == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}
