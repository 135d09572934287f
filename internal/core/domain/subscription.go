package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultGraceDays is how long a past-due subscription survives before suspension.
const DefaultGraceDays = 5

// SubscriptionStatus is the billing state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionPastDue   SubscriptionStatus = "PAST_DUE"
	SubscriptionSuspended SubscriptionStatus = "SUSPENDED"
	SubscriptionCanceled  SubscriptionStatus = "CANCELED"
)

// Subscription ties an account to a plan for monthly billing.
type Subscription struct {
	SubscriptionID  string             `json:"subscriptionID"`
	AccountID       string             `json:"accountID"`
	PlanCode        string             `json:"planCode"`
	MonthlyPrice    decimal.Decimal    `json:"monthlyPrice"`
	Status          SubscriptionStatus `json:"status"`
	StartDate       time.Time          `json:"startDate"`
	NextBillingDate time.Time          `json:"nextBillingDate"`
	CanceledAt      *time.Time         `json:"canceledAt,omitempty"`
	GraceDays       int                `json:"graceDays"`
	AuditFields
}

// IsCurrent reports whether the subscription still governs the account (ACTIVE or PAST_DUE).
func (s Subscription) IsCurrent() bool {
	return s.Status == SubscriptionActive || s.Status == SubscriptionPastDue
}

// IsOverdue reports whether billing was due before today.
func (s Subscription) IsOverdue(today time.Time) bool {
	return DateOf(s.NextBillingDate).Before(DateOf(today))
}

// GraceExpired reports whether today is past NextBillingDate + GraceDays.
func (s Subscription) GraceExpired(today time.Time) bool {
	deadline := DateOf(s.NextBillingDate).AddDate(0, 0, s.GraceDays)
	return DateOf(today).After(deadline)
}

// PaymentStatus is the lifecycle of a payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentCanceled PaymentStatus = "CANCELED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// PaymentKind says what the payment settles.
type PaymentKind string

const (
	PaymentForSubscription PaymentKind = "SUBSCRIPTION"
	PaymentForOrder        PaymentKind = "ORDER"
)

// Payment is a locally tracked charge; confirmation is a state transition only.
type Payment struct {
	PaymentID   string          `json:"paymentID"`
	AccountID   string          `json:"accountID"`
	Kind        PaymentKind     `json:"kind"`
	ReferenceID *string         `json:"referenceID,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Method      PaymentMethod   `json:"method"`
	Status      PaymentStatus   `json:"status"`
	Description string          `json:"description"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
	AuditFields
}

// SweepResult counts what one billing sweep changed.
type SweepResult struct {
	MarkedPastDue int `json:"markedPastDue"`
	Suspended     int `json:"suspended"`
}
