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

type PgxInventoryRepository struct {
	BaseRepository
}

func newPgxInventoryRepository(pool *pgxpool.Pool) portsrepo.InventoryRepositoryWithTx {
	return &PgxInventoryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InventoryRepositoryWithTx = (*PgxInventoryRepository)(nil)

const itemColumns = `item_id, account_id, code, name, category, quantity, minimum_quantity, cost_price, sale_price,
	location, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanItem(row pgx.Row) (*domain.InventoryItem, error) {
	var i domain.InventoryItem
	err := row.Scan(
		&i.ItemID, &i.AccountID, &i.Code, &i.Name, &i.Category, &i.Quantity, &i.MinimumQuantity, &i.CostPrice, &i.SalePrice,
		&i.Location, &i.IsActive, &i.CreatedAt, &i.CreatedBy, &i.LastUpdatedAt, &i.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

const movementColumns = `movement_id, account_id, item_id, direction, quantity, quantity_before, quantity_after,
	reason, description, order_id, created_at, created_by`

func scanMovement(row pgx.Row) (*domain.StockMovement, error) {
	var m domain.StockMovement
	err := row.Scan(
		&m.MovementID, &m.AccountID, &m.ItemID, &m.Direction, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
		&m.Reason, &m.Description, &m.OrderID, &m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgxInventoryRepository) FindItemByID(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE item_id = $1;`
	item, err := scanItem(r.Pool.QueryRow(ctx, query, itemID))
	if err != nil {
		return nil, notFound(err, "inventory item")
	}
	return item, nil
}

func (r *PgxInventoryRepository) ListItems(ctx context.Context, accountID string, includeInactive bool) ([]domain.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items
		WHERE account_id = $1 AND ($2 OR is_active)
		ORDER BY LOWER(name);`
	rows, err := r.Pool.Query(ctx, query, accountID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	defer rows.Close()

	items := []domain.InventoryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *PgxInventoryRepository) ItemCodeExists(ctx context.Context, accountID, code, excludeItemID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM inventory_items
		WHERE account_id = $1 AND UPPER(code) = UPPER($2) AND ($3 = '' OR item_id::text <> $3)
	);`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, accountID, code, excludeItemID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check item code: %w", err)
	}
	return exists, nil
}

func (r *PgxInventoryRepository) ListMovements(ctx context.Context, accountID string, itemID *string, limit int) ([]domain.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE account_id = $1 AND ($2::uuid IS NULL OR item_id = $2::uuid)
		ORDER BY created_at DESC, movement_id DESC
		LIMIT $3;`
	rows, err := r.Pool.Query(ctx, query, accountID, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	defer rows.Close()

	movements := []domain.StockMovement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, *m)
	}
	return movements, rows.Err()
}

func (r *PgxInventoryRepository) SaveItem(ctx context.Context, tx pgx.Tx, item domain.InventoryItem) error {
	query := `INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`
	_, err := r.conn(tx).Exec(ctx, query,
		item.ItemID, item.AccountID, item.Code, item.Name, item.Category, item.Quantity, item.MinimumQuantity,
		item.CostPrice, item.SalePrice, item.Location, item.IsActive,
		item.CreatedAt, item.CreatedBy, item.LastUpdatedAt, item.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: item code %s already exists", apperrors.ErrDuplicate, item.Code)
		}
		return fmt.Errorf("failed to save inventory item: %w", err)
	}
	return nil
}

func (r *PgxInventoryRepository) UpdateItemDetails(ctx context.Context, tx pgx.Tx, item domain.InventoryItem) error {
	query := `UPDATE inventory_items SET
		code = $2, name = $3, category = $4, minimum_quantity = $5, cost_price = $6, sale_price = $7,
		location = $8, is_active = $9, last_updated_at = $10, last_updated_by = $11
		WHERE item_id = $1;`
	tag, err := r.conn(tx).Exec(ctx, query,
		item.ItemID, item.Code, item.Name, item.Category, item.MinimumQuantity, item.CostPrice, item.SalePrice,
		item.Location, item.IsActive, item.LastUpdatedAt, item.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: item code %s already exists", apperrors.ErrDuplicate, item.Code)
		}
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindItemForUpdate takes a row lock so concurrent adjustments of the same item serialise.
func (r *PgxInventoryRepository) FindItemForUpdate(ctx context.Context, tx pgx.Tx, itemID string) (*domain.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE item_id = $1 FOR UPDATE;`
	item, err := scanItem(r.conn(tx).QueryRow(ctx, query, itemID))
	if err != nil {
		return nil, notFound(err, "inventory item")
	}
	return item, nil
}

func (r *PgxInventoryRepository) UpdateItemQuantity(ctx context.Context, tx pgx.Tx, itemID string, quantity int, updatedBy string, updatedAt time.Time) error {
	query := `UPDATE inventory_items SET quantity = $2, last_updated_at = $3, last_updated_by = $4 WHERE item_id = $1;`
	tag, err := r.conn(tx).Exec(ctx, query, itemID, quantity, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update quantity of item %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxInventoryRepository) SaveMovement(ctx context.Context, tx pgx.Tx, m domain.StockMovement) error {
	query := `INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`
	_, err := r.conn(tx).Exec(ctx, query,
		m.MovementID, m.AccountID, m.ItemID, m.Direction, m.Quantity, m.QuantityBefore, m.QuantityAfter,
		m.Reason, m.Description, m.OrderID, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save stock movement: %w", err)
	}
	return nil
}
