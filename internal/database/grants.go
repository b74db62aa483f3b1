package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shim/internal/domain"
	"shim/internal/models"
)

const grantColumns = `id, name, description, year, responsible_person, created_at, updated_at`

type grantRow struct {
	ID                int64  `db:"id"`
	Name              string `db:"name"`
	Description       string `db:"description"`
	Year              int    `db:"year"`
	ResponsiblePerson string `db:"responsible_person"`
	CreatedAt         int64  `db:"created_at"`
	UpdatedAt         int64  `db:"updated_at"`
}

func (r *grantRow) toModel() *models.Grant {
	return &models.Grant{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		Year:              r.Year,
		ResponsiblePerson: r.ResponsiblePerson,
		CreatedAt:         fromMillis(r.CreatedAt),
		UpdatedAt:         fromMillis(r.UpdatedAt),
	}
}

func (db *DB) CreateGrant(ctx context.Context, grant *models.Grant) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := db.ExecContext(ctx,
		`INSERT INTO grants (name, description, year, responsible_person, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		grant.Name, grant.Description, grant.Year, grant.ResponsiblePerson, toMillis(now), toMillis(now))
	if err != nil {
		return fmt.Errorf("failed to create grant: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	grant.ID = id
	grant.CreatedAt = now
	grant.UpdatedAt = now
	return nil
}

func (db *DB) GetGrantByID(ctx context.Context, id int64) (*models.Grant, error) {
	var row grantRow
	err := db.readRetry(ctx, "get_grant", func() error {
		return db.GetContext(ctx, &row, `SELECT `+grantColumns+` FROM grants WHERE id = ?`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("grant %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grant %d: %w", id, err)
	}
	return row.toModel(), nil
}

func (db *DB) GetGrants(ctx context.Context) ([]*models.Grant, error) {
	var rows []grantRow
	err := db.readRetry(ctx, "get_grants", func() error {
		rows = rows[:0]
		return db.SelectContext(ctx, &rows, `SELECT `+grantColumns+` FROM grants ORDER BY year DESC, name`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get grants: %w", err)
	}
	grants := make([]*models.Grant, 0, len(rows))
	for i := range rows {
		grants = append(grants, rows[i].toModel())
	}
	return grants, nil
}

func (db *DB) UpdateGrant(ctx context.Context, grant *models.Grant) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := db.ExecContext(ctx,
		`UPDATE grants SET name = ?, description = ?, year = ?, responsible_person = ?, updated_at = ? WHERE id = ?`,
		grant.Name, grant.Description, grant.Year, grant.ResponsiblePerson, toMillis(now), grant.ID)
	if err != nil {
		return fmt.Errorf("failed to update grant: %w", err)
	}
	if err := expectOne(result, domain.NotFound("grant %d not found", grant.ID)); err != nil {
		return err
	}
	grant.UpdatedAt = now
	return nil
}

// DeleteGrant unlinks every item funded by the grant, then removes it.
func (db *DB) DeleteGrant(ctx context.Context, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE items SET grant_id = NULL, updated_at = ? WHERE grant_id = ?`,
		toMillis(time.Now()), id); err != nil {
		return fmt.Errorf("failed to unlink grant items: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM grants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete grant: %w", err)
	}
	if err := expectOne(result, domain.NotFound("grant %d not found", id)); err != nil {
		return err
	}
	return tx.Commit()
}
