package dto

import (
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest defines a manual ledger posting.
// Amount is validated (> 0) by the service since decimals carry no binding tags.
type CreateTransactionRequest struct {
	Direction     domain.Direction     `json:"direction" binding:"required,oneof=IN OUT"`
	Amount        decimal.Decimal      `json:"amount"`
	CategoryID    *string              `json:"categoryID"`
	Description   string               `json:"description" binding:"required,max=255"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" binding:"omitempty,payment_method"`
	EffectiveDate *time.Time           `json:"effectiveDate"`
	Notes         string               `json:"notes" binding:"max=500"`
}

// ListTransactionsParams defines query parameters for listing transactions.
type ListTransactionsParams struct {
	From      string  `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string  `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Direction string  `form:"direction" binding:"omitempty,oneof=IN OUT"`
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// TransactionResponse defines the data returned for a ledger row.
type TransactionResponse struct {
	TransactionID         string               `json:"transactionID"`
	Direction             domain.Direction     `json:"direction"`
	CategoryID            *string              `json:"categoryID,omitempty"`
	Description           string               `json:"description"`
	Amount                decimal.Decimal      `json:"amount"`
	OriginKind            domain.OriginKind    `json:"originKind"`
	OriginID              *string              `json:"originID,omitempty"`
	PaymentMethod         domain.PaymentMethod `json:"paymentMethod"`
	EffectiveDate         time.Time            `json:"effectiveDate"`
	Notes                 string               `json:"notes,omitempty"`
	IsReversal            bool                 `json:"isReversal"`
	ReversedTransactionID *string              `json:"reversedTransactionID,omitempty"`
	CreatedAt             time.Time            `json:"createdAt"`
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// CashFlowParams bounds a cash-flow query. Dates are inclusive, formatted YYYY-MM-DD.
type CashFlowParams struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to" binding:"required,datetime=2006-01-02"`
}

// CashFlowResponse is one day of the rollup.
type CashFlowResponse struct {
	Date           string          `json:"date"`
	TotalIn        decimal.Decimal `json:"totalIn"`
	TotalOut       decimal.Decimal `json:"totalOut"`
	DailyBalance   decimal.Decimal `json:"dailyBalance"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// CreateCategoryRequest defines an account-owned category.
type CreateCategoryRequest struct {
	Name      string           `json:"name" binding:"required,max=100"`
	Direction domain.Direction `json:"direction" binding:"required,oneof=IN OUT"`
}

// CategoryResponse defines the data returned for a category.
type CategoryResponse struct {
	CategoryID string           `json:"categoryID"`
	Name       string           `json:"name"`
	Direction  domain.Direction `json:"direction"`
	System     bool             `json:"system"`
}

// ToTransactionResponse converts a domain.FinancialTransaction to TransactionResponse DTO.
func ToTransactionResponse(t *domain.FinancialTransaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:         t.TransactionID,
		Direction:             t.Direction,
		CategoryID:            t.CategoryID,
		Description:           t.Description,
		Amount:                t.Amount,
		OriginKind:            t.OriginKind,
		OriginID:              t.OriginID,
		PaymentMethod:         t.PaymentMethod,
		EffectiveDate:         t.EffectiveDate,
		Notes:                 t.Notes,
		IsReversal:            t.IsReversal,
		ReversedTransactionID: t.ReversedTransactionID,
		CreatedAt:             t.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of transactions.
func ToTransactionResponses(txns []domain.FinancialTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}

// ToCashFlowResponses converts rollup rows.
func ToCashFlowResponses(rows []domain.DailyCashFlow) []CashFlowResponse {
	res := make([]CashFlowResponse, len(rows))
	for i, r := range rows {
		res[i] = CashFlowResponse{
			Date:           r.Date.Format(time.DateOnly),
			TotalIn:        r.TotalIn,
			TotalOut:       r.TotalOut,
			DailyBalance:   r.DailyBalance,
			RunningBalance: r.RunningBalance,
		}
	}
	return res
}

// ToCategoryResponse converts a domain.FinancialCategory.
func ToCategoryResponse(c *domain.FinancialCategory) CategoryResponse {
	return CategoryResponse{
		CategoryID: c.CategoryID,
		Name:       c.Name,
		Direction:  c.Direction,
		System:     c.IsSystem(),
	}
}

// ToCategoryResponses converts a slice of categories.
func ToCategoryResponses(categories []domain.FinancialCategory) []CategoryResponse {
	res := make([]CategoryResponse, len(categories))
	for i := range categories {
		res[i] = ToCategoryResponse(&categories[i])
	}
	return res
}
