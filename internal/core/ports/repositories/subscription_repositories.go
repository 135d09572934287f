package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// SubscriptionReader defines read operations for subscriptions and payments.
type SubscriptionReader interface {
	// FindLatestSubscription returns the account's most recently created subscription.
	FindLatestSubscription(ctx context.Context, accountID string) (*domain.Subscription, error)

	// ListPayments lists the account's payments newest first.
	ListPayments(ctx context.Context, accountID string) ([]domain.Payment, error)
}

// SubscriptionWriter defines write operations; all run inside the caller's tx.
type SubscriptionWriter interface {
	// FindCurrentSubscriptionForUpdate locks the account's ACTIVE or PAST_DUE subscription.
	FindCurrentSubscriptionForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Subscription, error)

	// FindSubscriptionForUpdate locks a subscription by id.
	FindSubscriptionForUpdate(ctx context.Context, tx pgx.Tx, subscriptionID string) (*domain.Subscription, error)

	// ListOverdueActive claims ACTIVE subscriptions whose next billing date is before today
	// (FOR UPDATE SKIP LOCKED).
	ListOverdueActive(ctx context.Context, tx pgx.Tx, today time.Time, limit int) ([]domain.Subscription, error)

	// ListGraceExpired claims PAST_DUE subscriptions with next billing + grace days before today.
	ListGraceExpired(ctx context.Context, tx pgx.Tx, today time.Time, limit int) ([]domain.Subscription, error)

	// SaveSubscription inserts a subscription.
	SaveSubscription(ctx context.Context, tx pgx.Tx, sub domain.Subscription) error

	// UpdateSubscription rewrites a subscription.
	UpdateSubscription(ctx context.Context, tx pgx.Tx, sub domain.Subscription) error

	// SavePayment inserts a payment.
	SavePayment(ctx context.Context, tx pgx.Tx, payment domain.Payment) error

	// FindPaymentForUpdate locks a payment row.
	FindPaymentForUpdate(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.Payment, error)

	// UpdatePayment rewrites a payment.
	UpdatePayment(ctx context.Context, tx pgx.Tx, payment domain.Payment) error
}

// SubscriptionRepositoryFacade combines all billing-related repository interfaces
type SubscriptionRepositoryFacade interface {
	SubscriptionReader
	SubscriptionWriter
}

// SubscriptionRepositoryWithTx extends SubscriptionRepositoryFacade with transaction capabilities
type SubscriptionRepositoryWithTx interface {
	SubscriptionRepositoryFacade
	TransactionManager
}
