package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shim/internal/domain"
	"shim/internal/models"

	"github.com/jmoiron/sqlx"
)

const itemColumns = `i.id, i.name, i.description, i.item_condition, i.price, i.acquired_at, i.status,
	i.grant_id, COALESCE((SELECT g.name FROM grants g WHERE g.id = i.grant_id), '') AS grant_name,
	i.created_at, i.updated_at`

type itemRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Condition   string `db:"item_condition"`
	Price       *int64 `db:"price"`
	AcquiredAt  int64  `db:"acquired_at"`
	Status      string `db:"status"`
	GrantID     *int64 `db:"grant_id"`
	GrantName   string `db:"grant_name"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r *itemRow) toModel() *models.Item {
	return &models.Item{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Condition:   r.Condition,
		Price:       r.Price,
		AcquiredAt:  fromMillis(r.AcquiredAt),
		Status:      models.ItemStatus(r.Status),
		GrantID:     r.GrantID,
		GrantName:   r.GrantName,
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	if item.Status == "" {
		item.Status = models.ItemAvailable
	}
	query := `INSERT INTO items (name, description, item_condition, price, acquired_at, status, grant_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := db.ExecContext(ctx, query,
		item.Name,
		item.Description,
		item.Condition,
		item.Price,
		toMillis(item.AcquiredAt),
		item.Status,
		item.GrantID,
		toMillis(now),
		toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (db *DB) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var item *models.Item
	err := db.readRetry(ctx, "get_item", func() error {
		var err error
		item, err = db.getItem(ctx, db.DB, id, false)
		return err
	})
	return item, err
}

// getItem loads one item; with lock set the row is held until the surrounding
// transaction ends.
func (db *DB) getItem(ctx context.Context, q sqlx.QueryerContext, id int64, lock bool) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.id = ?`
	if lock {
		query = db.forUpdate(query)
	}
	var row itemRow
	err := sqlx.GetContext(ctx, q, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("item %d not found", id).WithItem(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return row.toModel(), nil
}

// GetItems lists items by name; bookableOnly restricts the list to Available ones.
func (db *DB) GetItems(ctx context.Context, bookableOnly bool) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i`
	var args []interface{}
	if bookableOnly {
		query += ` WHERE i.status = ?`
		args = append(args, models.ItemAvailable)
	}
	query += ` ORDER BY i.name, i.id`

	var rows []itemRow
	err := db.readRetry(ctx, "get_items", func() error {
		rows = rows[:0]
		return db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	items := make([]*models.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toModel())
	}
	return items, nil
}

// UpdateItem rewrites the descriptive fields of an item. Status is owned by
// UpdateItemStatus and the booking transitions.
func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	query := `UPDATE items SET name = ?, description = ?, item_condition = ?, price = ?, acquired_at = ?,
              grant_id = ?, updated_at = ? WHERE id = ?`
	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := db.ExecContext(ctx, query,
		item.Name,
		item.Description,
		item.Condition,
		item.Price,
		toMillis(item.AcquiredAt),
		item.GrantID,
		toMillis(now),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if err := expectOne(result, domain.NotFound("item %d not found", item.ID).WithItem(item.ID)); err != nil {
		return err
	}
	item.UpdatedAt = now
	return nil
}

// UpdateItemStatus sets an admin-managed status. An item that is lent out
// keeps Booked until its booking completes.
func (db *DB) UpdateItemStatus(ctx context.Context, id int64, status models.ItemStatus) error {
	result, err := db.ExecContext(ctx, `UPDATE items SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		status, toMillis(time.Now()), id, models.ItemBooked)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := db.GetItemByID(ctx, id); err != nil {
		return err
	}
	return domain.Conflict("item %d is lent out; complete its booking first", id).WithItem(id).WithStatus(models.ItemBooked)
}

// setItemStatus updates the status and, when condition is set, the condition of an item.
func (db *DB) setItemStatus(ctx context.Context, e sqlx.ExecerContext, id int64, status models.ItemStatus, condition *string, at int64) error {
	query := `UPDATE items SET status = ?, updated_at = ? WHERE id = ?`
	args := []interface{}{status, at, id}
	if condition != nil {
		query = `UPDATE items SET status = ?, item_condition = ?, updated_at = ? WHERE id = ?`
		args = []interface{}{status, *condition, at, id}
	}
	result, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}
	return expectOne(result, domain.NotFound("item %d not found", id).WithItem(id))
}

// DeleteItem removes an item that no booking references.
func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var refs int
	if err := tx.GetContext(ctx, &refs, `SELECT COUNT(*) FROM bookings WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("failed to count item bookings: %w", err)
	}
	if refs > 0 {
		return domain.Conflict("item %d is referenced by %d booking(s)", id, refs).WithItem(id)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if err := expectOne(result, domain.NotFound("item %d not found", id).WithItem(id)); err != nil {
		return err
	}
	return tx.Commit()
}

func expectOne(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
