package dto

import (
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SubscribeRequest starts or changes the account's plan.
type SubscribeRequest struct {
	PlanCode      string               `json:"planCode" binding:"required"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" binding:"omitempty,payment_method"`
}

// SubscriptionResponse defines the data returned for a subscription.
type SubscriptionResponse struct {
	SubscriptionID  string                    `json:"subscriptionID"`
	PlanCode        string                    `json:"planCode"`
	MonthlyPrice    decimal.Decimal           `json:"monthlyPrice"`
	Status          domain.SubscriptionStatus `json:"status"`
	StartDate       string                    `json:"startDate"`
	NextBillingDate string                    `json:"nextBillingDate"`
	CanceledAt      *time.Time                `json:"canceledAt,omitempty"`
	GraceDays       int                       `json:"graceDays"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID   string               `json:"paymentID"`
	Kind        domain.PaymentKind   `json:"kind"`
	ReferenceID *string              `json:"referenceID,omitempty"`
	Amount      decimal.Decimal      `json:"amount"`
	Method      domain.PaymentMethod `json:"method"`
	Status      domain.PaymentStatus `json:"status"`
	Description string               `json:"description"`
	PaidAt      *time.Time           `json:"paidAt,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// SubscribeResponse returns the subscription together with the payment it produced.
type SubscribeResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Payment      PaymentResponse      `json:"payment"`
}

// ToSubscriptionResponse converts a domain.Subscription.
func ToSubscriptionResponse(s *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		SubscriptionID:  s.SubscriptionID,
		PlanCode:        s.PlanCode,
		MonthlyPrice:    s.MonthlyPrice,
		Status:          s.Status,
		StartDate:       s.StartDate.Format(time.DateOnly),
		NextBillingDate: s.NextBillingDate.Format(time.DateOnly),
		CanceledAt:      s.CanceledAt,
		GraceDays:       s.GraceDays,
	}
}

// ToPaymentResponse converts a domain.Payment.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:   p.PaymentID,
		Kind:        p.Kind,
		ReferenceID: p.ReferenceID,
		Amount:      p.Amount,
		Method:      p.Method,
		Status:      p.Status,
		Description: p.Description,
		PaidAt:      p.PaidAt,
		CreatedAt:   p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of payments.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	res := make([]PaymentResponse, len(payments))
	for i := range payments {
		res[i] = ToPaymentResponse(&payments[i])
	}
	return res
}
