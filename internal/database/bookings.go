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

const bookingColumns = `id, requester_id, requester_name, item_id, item_name, start_at, end_at, reason,
	status, submitted_at, approved_at, approved_by, decline_reason, returned_at, returned_by,
	fine, return_condition, version`

type bookingRow struct {
	ID              int64   `db:"id"`
	RequesterID     int64   `db:"requester_id"`
	RequesterName   string  `db:"requester_name"`
	ItemID          int64   `db:"item_id"`
	ItemName        string  `db:"item_name"`
	StartAt         int64   `db:"start_at"`
	EndAt           int64   `db:"end_at"`
	Reason          string  `db:"reason"`
	Status          string  `db:"status"`
	SubmittedAt     int64   `db:"submitted_at"`
	ApprovedAt      *int64  `db:"approved_at"`
	ApprovedBy      *int64  `db:"approved_by"`
	DeclineReason   *string `db:"decline_reason"`
	ReturnedAt      *int64  `db:"returned_at"`
	ReturnedBy      *int64  `db:"returned_by"`
	Fine            *int64  `db:"fine"`
	ReturnCondition *string `db:"return_condition"`
	Version         int64   `db:"version"`
}

func (r *bookingRow) toModel() *models.Booking {
	return &models.Booking{
		ID:              r.ID,
		RequesterID:     r.RequesterID,
		RequesterName:   r.RequesterName,
		ItemID:          r.ItemID,
		ItemName:        r.ItemName,
		StartAt:         fromMillis(r.StartAt),
		EndAt:           fromMillis(r.EndAt),
		Reason:          r.Reason,
		Status:          models.BookingStatus(r.Status),
		SubmittedAt:     fromMillis(r.SubmittedAt),
		ApprovedAt:      timePtr(r.ApprovedAt),
		ApprovedBy:      r.ApprovedBy,
		DeclineReason:   r.DeclineReason,
		ReturnedAt:      timePtr(r.ReturnedAt),
		ReturnedBy:      r.ReturnedBy,
		Fine:            r.Fine,
		ReturnCondition: r.ReturnCondition,
		Version:         r.Version,
	}
}

func toBookings(rows []bookingRow) []*models.Booking {
	out := make([]*models.Booking, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out
}

// CreateBookingWithLock checks availability and inserts the booking inside one
// transaction. On success booking is filled with its id, item name, status and version.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	item, err := db.getItem(ctx, tx, booking.ItemID, true)
	if err != nil {
		return err
	}

	blocking, err := db.overlapping(ctx, tx, booking.ItemID, booking.StartAt, booking.EndAt, true)
	if err != nil {
		return err
	}
	if err := domain.CheckAvailability(item, blocking, booking.StartAt, booking.EndAt); err != nil {
		return err
	}

	if booking.SubmittedAt.IsZero() {
		booking.SubmittedAt = time.Now()
	}
	booking.ItemName = item.Name
	booking.Status = models.StatusPending
	booking.Version = 1

	query := `INSERT INTO bookings (
				requester_id, requester_name, item_id, item_name, start_at, end_at, reason,
				status, submitted_at, version, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, query,
		booking.RequesterID,
		booking.RequesterName,
		booking.ItemID,
		booking.ItemName,
		toMillis(booking.StartAt),
		toMillis(booking.EndAt),
		booking.Reason,
		booking.Status,
		toMillis(booking.SubmittedAt),
		booking.Version,
		toMillis(booking.SubmittedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id

	if err := db.enqueueBookingEvent(ctx, tx, booking, booking.RequesterID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

// ApplyTransition moves a booking from t.From to t.To with a conditional
// update and applies the item side effect in the same transaction. When the
// booking is not in t.From the current status is reported as a conflict.
func (db *DB) ApplyTransition(ctx context.Context, t models.Transition) (*models.Booking, error) {
	if !models.CanTransition(t.From, t.To) {
		return nil, fmt.Errorf("transition %s -> %s is not allowed", t.From, t.To)
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}
	at := toMillis(t.At)

	var (
		set  string
		args []interface{}
	)
	switch t.To {
	case models.StatusApproved:
		set = `approved_at = ?, approved_by = ?`
		args = []interface{}{at, t.AdminID}
	case models.StatusDeclined:
		set = `approved_at = ?, approved_by = ?, decline_reason = ?`
		args = []interface{}{at, t.AdminID, t.DeclineReason}
	case models.StatusCompleted:
		set = `returned_at = ?, returned_by = ?, fine = ?, return_condition = ?`
		args = []interface{}{at, t.AdminID, t.Fine, t.ReturnCondition}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE bookings SET status = ?, ` + set + `, version = version + 1, updated_at = ?
			  WHERE id = ? AND status = ?`
	args = append([]interface{}{t.To}, args...)
	args = append(args, at, t.BookingID, t.From)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		current, err := db.getBooking(ctx, tx, t.BookingID)
		if err != nil {
			return nil, err
		}
		return nil, domain.Conflict("booking %d cannot move to %s, current status: %s",
			t.BookingID, t.To, current.Status).
			WithBooking(t.BookingID).WithItem(current.ItemID).WithStatus(current.Status)
	}

	booking, err := db.getBooking(ctx, tx, t.BookingID)
	if err != nil {
		return nil, err
	}

	switch t.To {
	case models.StatusApproved:
		err = db.setItemStatus(ctx, tx, booking.ItemID, models.ItemBooked, nil, at)
	case models.StatusCompleted:
		err = db.setItemStatus(ctx, tx, booking.ItemID, models.ItemAvailable, &t.ReturnCondition, at)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sync item %d: %w", booking.ItemID, err)
	}
	if err := db.enqueueBookingEvent(ctx, tx, booking, t.AdminID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var booking *models.Booking
	err := db.readRetry(ctx, "get_booking", func() error {
		var err error
		booking, err = db.getBooking(ctx, db.DB, id)
		return err
	})
	return booking, err
}

func (db *DB) getBooking(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Booking, error) {
	var row bookingRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("booking %d not found", id).WithBooking(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %d: %w", id, err)
	}
	return row.toModel(), nil
}

// ListOverlappingBookings returns the Pending and Approved bookings on itemID
// sharing at least one instant with [start, end].
func (db *DB) ListOverlappingBookings(ctx context.Context, itemID int64, start, end time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := db.readRetry(ctx, "list_overlapping", func() error {
		var err error
		bookings, err = db.overlapping(ctx, db.DB, itemID, start, end, false)
		return err
	})
	return bookings, err
}

func (db *DB) overlapping(ctx context.Context, q sqlx.QueryerContext, itemID int64, start, end time.Time, lock bool) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
			  WHERE item_id = ? AND status IN (?, ?) AND start_at <= ? AND end_at >= ?
			  ORDER BY start_at, id`
	if lock {
		query = db.forUpdate(query)
	}
	var rows []bookingRow
	err := sqlx.SelectContext(ctx, q, &rows, query,
		itemID, models.StatusPending, models.StatusApproved, toMillis(end), toMillis(start))
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping bookings: %w", err)
	}
	return toBookings(rows), nil
}

func (db *DB) GetUserBookings(ctx context.Context, requesterID int64, limit int) ([]*models.Booking, error) {
	return db.listBookings(ctx, "user_bookings",
		`WHERE requester_id = ? ORDER BY submitted_at DESC, id DESC LIMIT ?`, requesterID, limit)
}

func (db *DB) GetBookingsByStatus(ctx context.Context, status models.BookingStatus, limit int) ([]*models.Booking, error) {
	return db.listBookings(ctx, "bookings_by_status",
		`WHERE status = ? ORDER BY submitted_at ASC, id ASC LIMIT ?`, status, limit)
}

func (db *DB) GetAllBookings(ctx context.Context, limit int) ([]*models.Booking, error) {
	return db.listBookings(ctx, "all_bookings",
		`ORDER BY submitted_at DESC, id DESC LIMIT ?`, limit)
}

// GetBookingsByDateRange returns every booking whose window intersects [start, end].
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return db.listBookings(ctx, "bookings_by_range",
		`WHERE start_at <= ? AND end_at >= ? ORDER BY start_at, id`, toMillis(end), toMillis(start))
}

func (db *DB) listBookings(ctx context.Context, op, where string, args ...interface{}) ([]*models.Booking, error) {
	var rows []bookingRow
	err := db.readRetry(ctx, op, func() error {
		rows = rows[:0]
		return db.SelectContext(ctx, &rows, `SELECT `+bookingColumns+` FROM bookings `+where, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings (%s): %w", op, err)
	}
	return toBookings(rows), nil
}

// GetDashboardStats counts pending requests and active bookings starting in [dayStart, dayEnd).
func (db *DB) GetDashboardStats(ctx context.Context, dayStart, dayEnd time.Time) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	err := db.readRetry(ctx, "dashboard_stats", func() error {
		if err := db.GetContext(ctx, &stats.PendingCount,
			`SELECT COUNT(*) FROM bookings WHERE status = ?`, models.StatusPending); err != nil {
			return err
		}
		return db.GetContext(ctx, &stats.TodaysBookingCount,
			`SELECT COUNT(*) FROM bookings WHERE status IN (?, ?) AND start_at >= ? AND start_at < ?`,
			models.StatusPending, models.StatusApproved, toMillis(dayStart), toMillis(dayEnd))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}
	return &stats, nil
}
