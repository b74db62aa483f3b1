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

type userRow struct {
	ID           int64  `db:"id"`
	Role         string `db:"role"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	Phone        string `db:"phone"`
	LastActivity int64  `db:"last_activity"`
	CreatedAt    int64  `db:"created_at"`
}

// CreateOrUpdateUser upserts the identity presented by the auth layer. Phone is
// only overwritten when the caller supplies one.
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, role, name, email, phone, last_activity, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                role = excluded.role,
                name = excluded.name,
                email = excluded.email,
                phone = CASE WHEN excluded.phone = '' THEN users.phone ELSE excluded.phone END,
                last_activity = excluded.last_activity`
	if db.dialect == DialectMySQL {
		query = `INSERT INTO users (id, role, name, email, phone, last_activity, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?)
                 ON DUPLICATE KEY UPDATE
                   role = VALUES(role),
                   name = VALUES(name),
                   email = VALUES(email),
                   phone = IF(VALUES(phone) = '', phone, VALUES(phone)),
                   last_activity = VALUES(last_activity)`
	}

	lastActivity := user.LastActivity
	if lastActivity.IsZero() {
		lastActivity = time.Now()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		user.ID,
		user.Role,
		user.Name,
		user.Email,
		user.Phone,
		toMillis(lastActivity),
		toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var row userRow
	err := db.readRetry(ctx, "get_user", func() error {
		return db.GetContext(ctx, &row,
			`SELECT id, role, name, email, phone, last_activity, created_at FROM users WHERE id = ?`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &models.User{
		ID:           row.ID,
		Role:         models.Role(row.Role),
		Name:         row.Name,
		Email:        row.Email,
		Phone:        row.Phone,
		LastActivity: fromMillis(row.LastActivity),
		CreatedAt:    fromMillis(row.CreatedAt),
	}, nil
}
