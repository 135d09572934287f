package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for shop accounts.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryWithTx {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryWithTx = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, name, email, password_hash, shop_name, phone, plan_code, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.AccountID, &a.Name, &a.Email, &a.PasswordHash, &a.ShopName, &a.Phone, &a.PlanCode, &a.IsActive,
		&a.CreatedAt, &a.CreatedBy, &a.LastUpdatedAt, &a.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`
	_, err := r.Pool.Exec(ctx, query,
		account.AccountID, account.Name, account.Email, account.PasswordHash, account.ShopName, account.Phone,
		account.PlanCode, account.IsActive, account.CreatedAt, account.CreatedBy, account.LastUpdatedAt, account.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s is already registered", apperrors.ErrDuplicate, account.Email)
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, notFound(err, "account")
	}
	return acc, nil
}

// FindAccountByEmail retrieves an account by email, case-insensitively.
func (r *PgxAccountRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = $1;`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, notFound(err, "account")
	}
	return acc, nil
}

// FindAccountForUpdate locks the account row for the rest of tx.
func (r *PgxAccountRepository) FindAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1 FOR UPDATE;`
	acc, err := scanAccount(r.conn(tx).QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, notFound(err, "account")
	}
	return acc, nil
}

func (r *PgxAccountRepository) UpdateAccountPlan(ctx context.Context, tx pgx.Tx, accountID string, planCode string, isActive bool, updatedAt time.Time) error {
	query := `UPDATE accounts SET plan_code = $2, is_active = $3, last_updated_at = $4, last_updated_by = $1
		WHERE account_id = $1;`
	tag, err := r.conn(tx).Exec(ctx, query, accountID, planCode, isActive, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update plan of account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxAccountRepository) SetAccountActive(ctx context.Context, tx pgx.Tx, accountID string, isActive bool, updatedAt time.Time) error {
	query := `UPDATE accounts SET is_active = $2, last_updated_at = $3 WHERE account_id = $1;`
	tag, err := r.conn(tx).Exec(ctx, query, accountID, isActive, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

type PgxPlanRepository struct {
	pool *pgxpool.Pool
}

func newPgxPlanRepository(pool *pgxpool.Pool) portsrepo.PlanRepositoryFacade {
	return &PgxPlanRepository{pool: pool}
}

var _ portsrepo.PlanRepositoryFacade = (*PgxPlanRepository)(nil)

const planColumns = `plan_code, name, price, monthly_order_quota, features, is_active`

func scanPlan(row pgx.Row) (*domain.Plan, error) {
	var p domain.Plan
	if err := row.Scan(&p.PlanCode, &p.Name, &p.Price, &p.MonthlyOrderQuota, &p.Features, &p.IsActive); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgxPlanRepository) FindPlanByCode(ctx context.Context, planCode string) (*domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE plan_code = $1;`
	p, err := scanPlan(r.pool.QueryRow(ctx, query, strings.ToUpper(planCode)))
	if err != nil {
		return nil, notFound(err, "plan")
	}
	return p, nil
}

func (r *PgxPlanRepository) ListPlans(ctx context.Context, activeOnly bool) ([]domain.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE ($1 = FALSE OR is_active) ORDER BY price, plan_code;`
	rows, err := r.pool.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}
