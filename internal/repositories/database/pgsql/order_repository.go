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

type PgxOrderRepository struct {
	BaseRepository
}

func newPgxOrderRepository(pool *pgxpool.Pool) portsrepo.OrderRepositoryWithTx {
	return &PgxOrderRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.OrderRepositoryWithTx = (*PgxOrderRepository)(nil)

const orderColumns = `order_id, account_id, customer_name, customer_phone, plate, vehicle_model, vehicle_year, mileage,
	description, diagnosis, parts_summary, value, status, messaging_consent, completed_at,
	created_at, created_by, last_updated_at, last_updated_by`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.OrderID, &o.AccountID, &o.CustomerName, &o.CustomerPhone, &o.Plate, &o.VehicleModel, &o.VehicleYear, &o.Mileage,
		&o.Description, &o.Diagnosis, &o.PartsSummary, &o.Value, &o.Status, &o.MessagingConsent, &o.CompletedAt,
		&o.CreatedAt, &o.CreatedBy, &o.LastUpdatedAt, &o.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// loadLines fills the service and part lines of o in their stored order.
func loadLines(ctx context.Context, q querier, o *domain.Order) error {
	rows, err := q.Query(ctx, `SELECT line_id, order_id, description, quantity, unit_price, line_total
		FROM order_service_lines WHERE order_id = $1 ORDER BY position;`, o.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load service lines: %w", err)
	}
	o.Services = []domain.OrderServiceLine{}
	for rows.Next() {
		var l domain.OrderServiceLine
		if err := rows.Scan(&l.LineID, &l.OrderID, &l.Description, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan service line: %w", err)
		}
		o.Services = append(o.Services, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `SELECT line_id, order_id, item_id, item_name, item_code, quantity, unit_price, line_total
		FROM order_part_lines WHERE order_id = $1 ORDER BY position;`, o.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load part lines: %w", err)
	}
	defer rows.Close()
	o.Parts = []domain.OrderPartLine{}
	for rows.Next() {
		var l domain.OrderPartLine
		if err := rows.Scan(&l.LineID, &l.OrderID, &l.ItemID, &l.ItemName, &l.ItemCode, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return fmt.Errorf("failed to scan part line: %w", err)
		}
		o.Parts = append(o.Parts, l)
	}
	return rows.Err()
}

func (r *PgxOrderRepository) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM service_orders WHERE order_id = $1;`
	o, err := scanOrder(r.Pool.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, notFound(err, "order")
	}
	if err := loadLines(ctx, r.Pool, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PgxOrderRepository) ListOrders(ctx context.Context, accountID string, status *domain.OrderStatus) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM service_orders
		WHERE account_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC;`
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}
	rows, err := r.Pool.Query(ctx, query, accountID, statusArg)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return collectOrders(rows)
}

func (r *PgxOrderRepository) GetDashboardStats(ctx context.Context, accountID string, monthStart time.Time) (*domain.DashboardStats, error) {
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'OPEN'),
		COUNT(*) FILTER (WHERE status = 'IN_PROGRESS'),
		COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		COUNT(*) FILTER (WHERE created_at >= $2)
		FROM service_orders WHERE account_id = $1;`
	s := &domain.DashboardStats{}
	if err := r.Pool.QueryRow(ctx, query, accountID, monthStart).Scan(&s.Total, &s.Open, &s.InProgress, &s.Completed, &s.ThisMonth); err != nil {
		return nil, fmt.Errorf("failed to compute dashboard stats: %w", err)
	}
	return s, nil
}

func (r *PgxOrderRepository) ListCompletedWithoutPosting(ctx context.Context, limit int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM service_orders o
		WHERE o.status = 'COMPLETED' AND o.value > 0
		  AND NOT EXISTS (
			SELECT 1 FROM financial_transactions t
			WHERE t.account_id = o.account_id AND t.origin_kind = 'ORDER'
			  AND t.origin_id = o.order_id AND t.is_reversal = FALSE
		  )
		ORDER BY COALESCE(o.completed_at, o.last_updated_at)
		LIMIT $1;`
	rows, err := r.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unposted orders: %w", err)
	}
	return collectOrders(rows)
}

func (r *PgxOrderRepository) CountOrdersCreatedBetween(ctx context.Context, tx pgx.Tx, accountID string, from, to time.Time) (int, error) {
	// Serialises concurrent creates for one account so the quota check holds.
	if _, err := r.conn(tx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, accountID); err != nil {
		return 0, fmt.Errorf("failed to lock order quota: %w", err)
	}
	var count int
	err := r.conn(tx).QueryRow(ctx,
		`SELECT COUNT(*) FROM service_orders WHERE account_id = $1 AND created_at >= $2 AND created_at < $3;`,
		accountID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func (r *PgxOrderRepository) FindOrderForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM service_orders WHERE order_id = $1 FOR UPDATE;`
	o, err := scanOrder(r.conn(tx).QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, notFound(err, "order")
	}
	if err := loadLines(ctx, r.conn(tx), o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PgxOrderRepository) SaveOrder(ctx context.Context, tx pgx.Tx, o domain.Order) error {
	query := `INSERT INTO service_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);`
	_, err := r.conn(tx).Exec(ctx, query,
		o.OrderID, o.AccountID, o.CustomerName, o.CustomerPhone, o.Plate, o.VehicleModel, o.VehicleYear, o.Mileage,
		o.Description, o.Diagnosis, o.PartsSummary, o.Value, o.Status, o.MessagingConsent, o.CompletedAt,
		o.CreatedAt, o.CreatedBy, o.LastUpdatedAt, o.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *PgxOrderRepository) UpdateOrder(ctx context.Context, tx pgx.Tx, o domain.Order) error {
	query := `UPDATE service_orders SET
		customer_name = $2, customer_phone = $3, plate = $4, vehicle_model = $5, vehicle_year = $6, mileage = $7,
		description = $8, diagnosis = $9, parts_summary = $10, value = $11, status = $12, messaging_consent = $13,
		completed_at = $14, last_updated_at = $15, last_updated_by = $16
		WHERE order_id = $1;`
	tag, err := r.conn(tx).Exec(ctx, query,
		o.OrderID, o.CustomerName, o.CustomerPhone, o.Plate, o.VehicleModel, o.VehicleYear, o.Mileage,
		o.Description, o.Diagnosis, o.PartsSummary, o.Value, o.Status, o.MessagingConsent,
		o.CompletedAt, o.LastUpdatedAt, o.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxOrderRepository) DeleteOrder(ctx context.Context, tx pgx.Tx, orderID string) error {
	tag, err := r.conn(tx).Exec(ctx, `DELETE FROM service_orders WHERE order_id = $1;`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxOrderRepository) SaveServiceLines(ctx context.Context, tx pgx.Tx, lines []domain.OrderServiceLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range lines {
		batch.Queue(`INSERT INTO order_service_lines (line_id, order_id, description, quantity, unit_price, line_total, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			l.LineID, l.OrderID, l.Description, l.Quantity, l.UnitPrice, l.LineTotal, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save service lines: %w", err)
	}
	return nil
}

func (r *PgxOrderRepository) DeleteServiceLines(ctx context.Context, tx pgx.Tx, orderID string) error {
	if _, err := r.conn(tx).Exec(ctx, `DELETE FROM order_service_lines WHERE order_id = $1;`, orderID); err != nil {
		return fmt.Errorf("failed to delete service lines: %w", err)
	}
	return nil
}

func (r *PgxOrderRepository) SavePartLines(ctx context.Context, tx pgx.Tx, lines []domain.OrderPartLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range lines {
		batch.Queue(`INSERT INTO order_part_lines (line_id, order_id, item_id, item_name, item_code, quantity, unit_price, line_total, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
			l.LineID, l.OrderID, l.ItemID, l.ItemName, l.ItemCode, l.Quantity, l.UnitPrice, l.LineTotal, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save part lines: %w", err)
	}
	return nil
}

func (r *PgxOrderRepository) DeletePartLines(ctx context.Context, tx pgx.Tx, orderID string) error {
	if _, err := r.conn(tx).Exec(ctx, `DELETE FROM order_part_lines WHERE order_id = $1;`, orderID); err != nil {
		return fmt.Errorf("failed to delete part lines: %w", err)
	}
	return nil
}
