package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shim/internal/events"
	"shim/internal/models"

	"github.com/jmoiron/sqlx"
)

const notificationColumns = `id, event_type, booking_id, payload, status, retry_count, last_error,
	created_at, processed_at, next_retry_at`

type notificationRow struct {
	ID          int64   `db:"id"`
	EventType   string  `db:"event_type"`
	BookingID   int64   `db:"booking_id"`
	Payload     string  `db:"payload"`
	Status      string  `db:"status"`
	RetryCount  int     `db:"retry_count"`
	LastError   *string `db:"last_error"`
	CreatedAt   int64   `db:"created_at"`
	ProcessedAt *int64  `db:"processed_at"`
	NextRetryAt *int64  `db:"next_retry_at"`
}

func (r *notificationRow) toModel() models.Notification {
	return models.Notification{
		ID:          r.ID,
		EventType:   r.EventType,
		BookingID:   r.BookingID,
		Payload:     r.Payload,
		Status:      r.Status,
		RetryCount:  r.RetryCount,
		LastError:   r.LastError,
		CreatedAt:   fromMillis(r.CreatedAt),
		ProcessedAt: timePtr(r.ProcessedAt),
		NextRetryAt: timePtr(r.NextRetryAt),
	}
}

func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	return db.insertNotification(ctx, db.DB, n)
}

// EnableOutbox makes booking writes record their notification in the same
// transaction. Call it before the store is shared.
func (db *DB) EnableOutbox() {
	db.outbox = true
}

// enqueueBookingEvent writes the outbox row for a booking change inside tx.
func (db *DB) enqueueBookingEvent(ctx context.Context, tx sqlx.ExecerContext, booking *models.Booking, changedBy int64) error {
	if !db.outbox {
		return nil
	}
	payload, err := json.Marshal(events.NewBookingPayload(booking, changedBy))
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %w", err)
	}
	return db.insertNotification(ctx, tx, &models.Notification{
		EventType: events.EventForStatus(booking.Status),
		BookingID: booking.ID,
		Payload:   string(payload),
	})
}

func (db *DB) insertNotification(ctx context.Context, e sqlx.ExecerContext, n *models.Notification) error {
	if n.Status == "" {
		n.Status = models.NotificationPending
	}
	query := `INSERT INTO notifications (event_type, booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC().Truncate(time.Millisecond)
	result, err := e.ExecContext(ctx, query,
		n.EventType,
		n.BookingID,
		n.Payload,
		n.Status,
		n.RetryCount,
		n.LastError,
		toMillis(now),
		nullMillis(n.NextRetryAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	n.CreatedAt = now
	return nil
}

// GetPendingNotifications returns pending and due retry notifications, oldest first.
func (db *DB) GetPendingNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
              WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC, id ASC LIMIT ?`
	var rows []notificationRow
	err := db.readRetry(ctx, "pending_notifications", func() error {
		rows = rows[:0]
		return db.SelectContext(ctx, &rows, query,
			models.NotificationPending, models.NotificationRetry, toMillis(time.Now()), limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pending notifications: %w", err)
	}
	return toNotifications(rows), nil
}

func (db *DB) UpdateNotificationStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	var lastErr *string
	if errMsg != "" {
		lastErr = &errMsg
	}

	switch status {
	case models.NotificationRetry:
		query = `UPDATE notifications SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, lastErr, nullMillis(nextRetryAt), id}
	case models.NotificationCompleted, models.NotificationFailed:
		query = `UPDATE notifications SET status = ?, last_error = ?, next_retry_at = NULL, processed_at = ? WHERE id = ?`
		args = []interface{}{status, lastErr, toMillis(time.Now()), id}
	default:
		query = `UPDATE notifications SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, lastErr, nullMillis(nextRetryAt), id}
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	return nil
}

func (db *DB) GetFailedNotifications(ctx context.Context) ([]models.Notification, error) {
	var rows []notificationRow
	err := db.readRetry(ctx, "failed_notifications", func() error {
		rows = rows[:0]
		return db.SelectContext(ctx, &rows, `SELECT `+notificationColumns+` FROM notifications
              WHERE status = ? ORDER BY created_at DESC, id DESC`, models.NotificationFailed)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get failed notifications: %w", err)
	}
	return toNotifications(rows), nil
}

func toNotifications(rows []notificationRow) []models.Notification {
	out := make([]models.Notification, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out
}
