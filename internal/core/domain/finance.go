package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the sign of a financial transaction.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// IsValid reports whether d is IN or OUT.
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == DirectionIn {
		return DirectionOut
	}
	return DirectionIn
}

// OriginKind records what produced a transaction.
type OriginKind string

const (
	OriginManual   OriginKind = "MANUAL"
	OriginOrder    OriginKind = "ORDER"
	OriginReversal OriginKind = "REVERSAL"
)

// PaymentMethod is how money moved.
type PaymentMethod string

const (
	MethodCash       PaymentMethod = "CASH"
	MethodPix        PaymentMethod = "PIX"
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
	MethodDebitCard  PaymentMethod = "DEBIT_CARD"
	MethodBoleto     PaymentMethod = "BOLETO"
	MethodTransfer   PaymentMethod = "TRANSFER"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodPix, MethodCreditCard, MethodDebitCard, MethodBoleto, MethodTransfer:
		return true
	}
	return false
}

// FinancialTransaction is an immutable ledger row. Amount is always positive;
// Direction carries the sign. Corrections are new rows with IsReversal set.
type FinancialTransaction struct {
	TransactionID         string          `json:"transactionID"`
	AccountID             string          `json:"accountID"`
	Direction             Direction       `json:"direction"`
	CategoryID            *string         `json:"categoryID,omitempty"`
	Description           string          `json:"description"`
	Amount                decimal.Decimal `json:"amount"`
	OriginKind            OriginKind      `json:"originKind"`
	OriginID              *string         `json:"originID,omitempty"`
	PaymentMethod         PaymentMethod   `json:"paymentMethod"`
	EffectiveDate         time.Time       `json:"effectiveDate"`
	Notes                 string          `json:"notes,omitempty"`
	IsReversal            bool            `json:"isReversal"`
	ReversedTransactionID *string         `json:"reversedTransactionID,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	CreatedBy             string          `json:"createdBy"`
}

// SignedAmount returns the amount with the direction applied.
func (t FinancialTransaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionOut {
		return t.Amount.Neg()
	}
	return t.Amount
}

// FinancialCategory groups transactions. A nil OwnerAccountID marks a system row
// that accounts can use but never modify.
type FinancialCategory struct {
	CategoryID     string    `json:"categoryID"`
	OwnerAccountID *string   `json:"ownerAccountID,omitempty"`
	Name           string    `json:"name"`
	Direction      Direction `json:"direction"`
	CreatedAt      time.Time `json:"createdAt"`
}

// IsSystem reports whether the category is global.
func (c FinancialCategory) IsSystem() bool {
	return c.OwnerAccountID == nil
}

// VisibleTo reports whether the account may reference the category.
func (c FinancialCategory) VisibleTo(accountID string) bool {
	return c.IsSystem() || *c.OwnerAccountID == accountID
}

// DailyCashFlow is the per-day rollup for an account.
// RunningBalance is the prefix sum of DailyBalance up to and including Date.
type DailyCashFlow struct {
	AccountID      string          `json:"accountID"`
	Date           time.Time       `json:"date"`
	TotalIn        decimal.Decimal `json:"totalIn"`
	TotalOut       decimal.Decimal `json:"totalOut"`
	DailyBalance   decimal.Decimal `json:"dailyBalance"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// FinancialSummary is the dashboard aggregate.
type FinancialSummary struct {
	TotalIn                decimal.Decimal `json:"totalIn"`
	TotalOut               decimal.Decimal `json:"totalOut"`
	Profit                 decimal.Decimal `json:"profit"`
	MonthIn                decimal.Decimal `json:"monthIn"`
	MonthOut               decimal.Decimal `json:"monthOut"`
	MonthProfit            decimal.Decimal `json:"monthProfit"`
	CurrentBalance         decimal.Decimal `json:"currentBalance"`
	TxCountMonth           int64           `json:"txCountMonth"`
	TxWithoutCategoryCount int64           `json:"txWithoutCategoryCount"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	From      *time.Time
	To        *time.Time
	Direction *Direction
	Limit     int
	NextToken *string
}
