package services

import (
	"context"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/SscSPs/workshop_backend/internal/dto"
)

// SubscriptionReaderSvc defines read operations for billing.
type SubscriptionReaderSvc interface {
	GetSubscription(ctx context.Context, accountID string) (*domain.Subscription, error)
	ListPayments(ctx context.Context, accountID string) ([]domain.Payment, error)
}

// SubscriptionWriterSvc defines account-initiated billing operations.
type SubscriptionWriterSvc interface {
	Subscribe(ctx context.Context, accountID string, req dto.SubscribeRequest) (*domain.Subscription, *domain.Payment, error)
	Cancel(ctx context.Context, accountID string) (*domain.Subscription, error)
	ConfirmPayment(ctx context.Context, accountID, paymentID string) (*domain.Payment, error)
	CancelPayment(ctx context.Context, accountID, paymentID string) (*domain.Payment, error)
}

// BillingSweeperSvc drives the periodic grace-period state machine.
type BillingSweeperSvc interface {
	// RunBillingSweep marks overdue subscriptions PAST_DUE and suspends those out of grace.
	RunBillingSweep(ctx context.Context, today time.Time, batchSize int) (*domain.SweepResult, error)
}

// SubscriptionSvcFacade combines all billing-related service interfaces
type SubscriptionSvcFacade interface {
	SubscriptionReaderSvc
	SubscriptionWriterSvc
	BillingSweeperSvc
}
