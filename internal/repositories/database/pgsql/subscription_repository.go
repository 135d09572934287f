package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSubscriptionRepository struct {
	BaseRepository
}

func newPgxSubscriptionRepository(pool *pgxpool.Pool) portsrepo.SubscriptionRepositoryWithTx {
	return &PgxSubscriptionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SubscriptionRepositoryWithTx = (*PgxSubscriptionRepository)(nil)

const subscriptionColumns = `subscription_id, account_id, plan_code, monthly_price, status, start_date, next_billing_date,
	canceled_at, grace_days, created_at, created_by, last_updated_at, last_updated_by`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.SubscriptionID, &s.AccountID, &s.PlanCode, &s.MonthlyPrice, &s.Status, &s.StartDate, &s.NextBillingDate,
		&s.CanceledAt, &s.GraceDays, &s.CreatedAt, &s.CreatedBy, &s.LastUpdatedAt, &s.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const paymentColumns = `payment_id, account_id, kind, reference_id, amount, method, status, description, paid_at,
	created_at, created_by, last_updated_at, last_updated_by`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.PaymentID, &p.AccountID, &p.Kind, &p.ReferenceID, &p.Amount, &p.Method, &p.Status, &p.Description, &p.PaidAt,
		&p.CreatedAt, &p.CreatedBy, &p.LastUpdatedAt, &p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgxSubscriptionRepository) FindLatestSubscription(ctx context.Context, accountID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE account_id = $1 ORDER BY created_at DESC LIMIT 1;`
	s, err := scanSubscription(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	return s, nil
}

func (r *PgxSubscriptionRepository) ListPayments(ctx context.Context, accountID string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE account_id = $1 ORDER BY created_at DESC;`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *PgxSubscriptionRepository) FindCurrentSubscriptionForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE account_id = $1 AND status IN ('ACTIVE', 'PAST_DUE')
		ORDER BY created_at DESC LIMIT 1
		FOR UPDATE;`
	s, err := scanSubscription(r.conn(tx).QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	return s, nil
}

func (r *PgxSubscriptionRepository) FindSubscriptionForUpdate(ctx context.Context, tx pgx.Tx, subscriptionID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE subscription_id = $1 FOR UPDATE;`
	s, err := scanSubscription(r.conn(tx).QueryRow(ctx, query, subscriptionID))
	if err != nil {
		return nil, notFound(err, "subscription")
	}
	return s, nil
}

// claim locks up to limit matching rows, skipping rows another sweeper holds.
func (r *PgxSubscriptionRepository) claim(ctx context.Context, tx pgx.Tx, where string, today time.Time, limit int) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE ` + where + `
		ORDER BY next_billing_date, subscription_id
		LIMIT $2
		FOR UPDATE SKIP LOCKED;`
	rows, err := r.conn(tx).Query(ctx, query, domain.DateOf(today), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

func (r *PgxSubscriptionRepository) ListOverdueActive(ctx context.Context, tx pgx.Tx, today time.Time, limit int) ([]domain.Subscription, error) {
	return r.claim(ctx, tx, `status = 'ACTIVE' AND next_billing_date < $1::date`, today, limit)
}

func (r *PgxSubscriptionRepository) ListGraceExpired(ctx context.Context, tx pgx.Tx, today time.Time, limit int) ([]domain.Subscription, error) {
	return r.claim(ctx, tx, `status = 'PAST_DUE' AND next_billing_date + grace_days < $1::date`, today, limit)
}

func (r *PgxSubscriptionRepository) SaveSubscription(ctx context.Context, tx pgx.Tx, s domain.Subscription) error {
	query := `INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`
	_, err := r.conn(tx).Exec(ctx, query,
		s.SubscriptionID, s.AccountID, s.PlanCode, s.MonthlyPrice, s.Status, s.StartDate, s.NextBillingDate,
		s.CanceledAt, s.GraceDays, s.CreatedAt, s.CreatedBy, s.LastUpdatedAt, s.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (r *PgxSubscriptionRepository) UpdateSubscription(ctx context.Context, tx pgx.Tx, s domain.Subscription) error {
	query := `UPDATE subscriptions SET
		plan_code = $2, monthly_price = $3, status = $4, next_billing_date = $5, canceled_at = $6, grace_days = $7,
		last_updated_at = $8, last_updated_by = $9
		WHERE subscription_id = $1;`
	tag, err := r.conn(tx).Exec(ctx, query,
		s.SubscriptionID, s.PlanCode, s.MonthlyPrice, s.Status, s.NextBillingDate, s.CanceledAt, s.GraceDays,
		s.LastUpdatedAt, s.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxSubscriptionRepository) SavePayment(ctx context.Context, tx pgx.Tx, p domain.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`
	_, err := r.conn(tx).Exec(ctx, query,
		p.PaymentID, p.AccountID, p.Kind, p.ReferenceID, p.Amount, p.Method, p.Status, p.Description, p.PaidAt,
		p.CreatedAt, p.CreatedBy, p.LastUpdatedAt, p.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (r *PgxSubscriptionRepository) FindPaymentForUpdate(ctx context.Context, tx pgx.Tx, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1 FOR UPDATE;`
	p, err := scanPayment(r.conn(tx).QueryRow(ctx, query, paymentID))
	if err != nil {
		return nil, notFound(err, "payment")
	}
	return p, nil
}

func (r *PgxSubscriptionRepository) UpdatePayment(ctx context.Context, tx pgx.Tx, p domain.Payment) error {
	query := `UPDATE payments SET status = $2, paid_at = $3, method = $4, last_updated_at = $5, last_updated_by = $6
		WHERE payment_id = $1;`
	tag, err := r.conn(tx).Exec(ctx, query, p.PaymentID, p.Status, p.PaidAt, p.Method, p.LastUpdatedAt, p.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
