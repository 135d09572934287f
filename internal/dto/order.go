package dto

import (
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ServiceLineRequest is one labour line on an order.
type ServiceLineRequest struct {
	Description string          `json:"description" binding:"required,max=255"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// PartLineRequest allocates stock to an order. UnitPrice defaults to the item's sale price.
type PartLineRequest struct {
	ItemID    string           `json:"itemID" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

// CreateOrderRequest defines the data needed to open a service order.
type CreateOrderRequest struct {
	CustomerName     string               `json:"customerName" binding:"required,max=150"`
	CustomerPhone    string               `json:"customerPhone" binding:"max=30"`
	Plate            string               `json:"plate" binding:"required,plate"`
	VehicleModel     string               `json:"vehicleModel" binding:"max=100"`
	VehicleYear      *int                 `json:"vehicleYear" binding:"omitempty,min=1900,max=2100"`
	Mileage          *int                 `json:"mileage" binding:"omitempty,min=0"`
	Description      string               `json:"description" binding:"max=1000"`
	Diagnosis        string               `json:"diagnosis" binding:"max=2000"`
	Value            *decimal.Decimal     `json:"value"`
	MessagingConsent bool                 `json:"messagingConsent"`
	Services         []ServiceLineRequest `json:"services" binding:"omitempty,dive"`
	Parts            []PartLineRequest    `json:"parts" binding:"omitempty,dive"`
}

// UpdateOrderRequest defines the data allowed for updating an order.
// Only non-nil fields change. A non-nil Services or Parts replaces the whole list.
type UpdateOrderRequest struct {
	CustomerName     *string               `json:"customerName" binding:"omitempty,max=150"`
	CustomerPhone    *string               `json:"customerPhone" binding:"omitempty,max=30"`
	Plate            *string               `json:"plate" binding:"omitempty,plate"`
	VehicleModel     *string               `json:"vehicleModel" binding:"omitempty,max=100"`
	VehicleYear      *int                  `json:"vehicleYear" binding:"omitempty,min=1900,max=2100"`
	Mileage          *int                  `json:"mileage" binding:"omitempty,min=0"`
	Description      *string               `json:"description" binding:"omitempty,max=1000"`
	Diagnosis        *string               `json:"diagnosis" binding:"omitempty,max=2000"`
	Value            *decimal.Decimal      `json:"value"`
	Status           *domain.OrderStatus   `json:"status" binding:"omitempty,order_status"`
	MessagingConsent *bool                 `json:"messagingConsent"`
	Services         *[]ServiceLineRequest `json:"services" binding:"omitempty,dive"`
	Parts            *[]PartLineRequest    `json:"parts" binding:"omitempty,dive"`
}

// ListOrdersParams defines query parameters for listing orders.
type ListOrdersParams struct {
	Status string `form:"status" binding:"omitempty,order_status"`
}

// ServiceLineResponse is a persisted service line.
type ServiceLineResponse struct {
	LineID      string          `json:"lineID"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// PartLineResponse is a persisted part line.
type PartLineResponse struct {
	LineID    string          `json:"lineID"`
	ItemID    string          `json:"itemID"`
	ItemName  string          `json:"itemName"`
	ItemCode  string          `json:"itemCode"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// OrderResponse defines the data returned for an order.
type OrderResponse struct {
	OrderID          string                `json:"orderID"`
	CustomerName     string                `json:"customerName"`
	CustomerPhone    string                `json:"customerPhone"`
	Plate            string                `json:"plate"`
	VehicleModel     string                `json:"vehicleModel"`
	VehicleYear      *int                  `json:"vehicleYear,omitempty"`
	Mileage          *int                  `json:"mileage,omitempty"`
	Description      string                `json:"description"`
	Diagnosis        string                `json:"diagnosis"`
	PartsSummary     string                `json:"partsSummary"`
	Value            decimal.Decimal       `json:"value"`
	Status           domain.OrderStatus    `json:"status"`
	MessagingConsent bool                  `json:"messagingConsent"`
	CompletedAt      *time.Time            `json:"completedAt,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	LastUpdatedAt    time.Time             `json:"lastUpdatedAt"`
	Services         []ServiceLineResponse `json:"services"`
	Parts            []PartLineResponse    `json:"parts"`
}

// DashboardResponse summarises an account's orders.
type DashboardResponse struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"open"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	ThisMonth  int64 `json:"thisMonth"`
}

// ToOrderResponse converts a domain.Order to OrderResponse DTO.
func ToOrderResponse(o *domain.Order) OrderResponse {
	services := make([]ServiceLineResponse, len(o.Services))
	for i, s := range o.Services {
		services[i] = ServiceLineResponse{
			LineID:      s.LineID,
			Description: s.Description,
			Quantity:    s.Quantity,
			UnitPrice:   s.UnitPrice,
			LineTotal:   s.LineTotal,
		}
	}
	parts := make([]PartLineResponse, len(o.Parts))
	for i, p := range o.Parts {
		parts[i] = PartLineResponse{
			LineID:    p.LineID,
			ItemID:    p.ItemID,
			ItemName:  p.ItemName,
			ItemCode:  p.ItemCode,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
			LineTotal: p.LineTotal,
		}
	}
	return OrderResponse{
		OrderID:          o.OrderID,
		CustomerName:     o.CustomerName,
		CustomerPhone:    o.CustomerPhone,
		Plate:            o.Plate,
		VehicleModel:     o.VehicleModel,
		VehicleYear:      o.VehicleYear,
		Mileage:          o.Mileage,
		Description:      o.Description,
		Diagnosis:        o.Diagnosis,
		PartsSummary:     o.PartsSummary,
		Value:            o.Value,
		Status:           o.Status,
		MessagingConsent: o.MessagingConsent,
		CompletedAt:      o.CompletedAt,
		CreatedAt:        o.CreatedAt,
		LastUpdatedAt:    o.LastUpdatedAt,
		Services:         services,
		Parts:            parts,
	}
}

// ToListOrderResponse converts a slice of orders.
func ToListOrderResponse(orders []domain.Order) []OrderResponse {
	res := make([]OrderResponse, len(orders))
	for i := range orders {
		res[i] = ToOrderResponse(&orders[i])
	}
	return res
}

// ToDashboardResponse converts domain.DashboardStats.
func ToDashboardResponse(s *domain.DashboardStats) DashboardResponse {
	return DashboardResponse{
		Total:      s.Total,
		Open:       s.Open,
		InProgress: s.InProgress,
		Completed:  s.Completed,
		ThisMonth:  s.ThisMonth,
	}
}
