package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

// SubscriptionRepository is the memory implementation of the billing port.
type SubscriptionRepository struct {
	baseRepository
}

var _ portsrepo.SubscriptionRepositoryWithTx = (*SubscriptionRepository)(nil)

func (r *SubscriptionRepository) FindLatestSubscription(_ context.Context, accountID string) (*domain.Subscription, error) {
	var latest *domain.Subscription
	r.store.read(func(st *state) {
		for _, s := range st.subscriptions {
			if s.AccountID != accountID {
				continue
			}
			if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
				sub := s
				latest = &sub
			}
		}
	})
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	return latest, nil
}

func (r *SubscriptionRepository) ListPayments(_ context.Context, accountID string) ([]domain.Payment, error) {
	payments := []domain.Payment{}
	r.store.read(func(st *state) {
		for _, p := range st.payments {
			if p.AccountID == accountID {
				payments = append(payments, p)
			}
		}
	})
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}

func (r *SubscriptionRepository) FindCurrentSubscriptionForUpdate(_ context.Context, tx pgx.Tx, accountID string) (*domain.Subscription, error) {
	var current *domain.Subscription
	err := r.store.write(tx, func(st *state) error {
		for _, s := range st.subscriptions {
			if s.AccountID != accountID || !s.IsCurrent() {
				continue
			}
			if current == nil || s.CreatedAt.After(current.CreatedAt) {
				sub := s
				current = &sub
			}
		}
		if current == nil {
			return apperrors.ErrNotFound
		}
		return nil
	})
	return current, err
}

func (r *SubscriptionRepository) FindSubscriptionForUpdate(_ context.Context, tx pgx.Tx, subscriptionID string) (*domain.Subscription, error) {
	var found *domain.Subscription
	err := r.store.write(tx, func(st *state) error {
		s, ok := st.subscriptions[subscriptionID]
		if !ok {
			return apperrors.ErrNotFound
		}
		found = &s
		return nil
	})
	return found, err
}

func (r *SubscriptionRepository) claim(tx pgx.Tx, limit int, match func(domain.Subscription) bool) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	err := r.store.write(tx, func(st *state) error {
		for _, s := range st.subscriptions {
			if match(s) {
				subs = append(subs, s)
			}
		}
		return nil
	})
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].NextBillingDate.Equal(subs[j].NextBillingDate) {
			return subs[i].NextBillingDate.Before(subs[j].NextBillingDate)
		}
		return subs[i].SubscriptionID < subs[j].SubscriptionID
	})
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, err
}

func (r *SubscriptionRepository) ListOverdueActive(_ context.Context, tx pgx.Tx, today time.Time, limit int) ([]domain.Subscription, error) {
	return r.claim(tx, limit, func(s domain.Subscription) bool {
		return s.Status == domain.SubscriptionActive && s.IsOverdue(today)
	})
}

func (r *SubscriptionRepository) ListGraceExpired(_ context.Context, tx pgx.Tx, today time.Time, limit int) ([]domain.Subscription, error) {
	return r.claim(tx, limit, func(s domain.Subscription) bool {
		return s.Status == domain.SubscriptionPastDue && s.GraceExpired(today)
	})
}

func (r *SubscriptionRepository) SaveSubscription(_ context.Context, tx pgx.Tx, sub domain.Subscription) error {
	return r.store.write(tx, func(st *state) error {
		if _, exists := st.subscriptions[sub.SubscriptionID]; exists {
			return apperrors.ErrDuplicate
		}
		st.subscriptions[sub.SubscriptionID] = sub
		return nil
	})
}

func (r *SubscriptionRepository) UpdateSubscription(_ context.Context, tx pgx.Tx, sub domain.Subscription) error {
	return r.store.write(tx, func(st *state) error {
		if _, ok := st.subscriptions[sub.SubscriptionID]; !ok {
			return apperrors.ErrNotFound
		}
		st.subscriptions[sub.SubscriptionID] = sub
		return nil
	})
}

func (r *SubscriptionRepository) SavePayment(_ context.Context, tx pgx.Tx, payment domain.Payment) error {
	return r.store.write(tx, func(st *state) error {
		if _, exists := st.payments[payment.PaymentID]; exists {
			return apperrors.ErrDuplicate
		}
		st.payments[payment.PaymentID] = payment
		return nil
	})
}

func (r *SubscriptionRepository) FindPaymentForUpdate(_ context.Context, tx pgx.Tx, paymentID string) (*domain.Payment, error) {
	var found *domain.Payment
	err := r.store.write(tx, func(st *state) error {
		p, ok := st.payments[paymentID]
		if !ok {
			return apperrors.ErrNotFound
		}
		found = &p
		return nil
	})
	return found, err
}

func (r *SubscriptionRepository) UpdatePayment(_ context.Context, tx pgx.Tx, payment domain.Payment) error {
	return r.store.write(tx, func(st *state) error {
		if _, ok := st.payments[payment.PaymentID]; !ok {
			return apperrors.ErrNotFound
		}
		st.payments[payment.PaymentID] = payment
		return nil
	})
}
