package database

import (
	"context"
	"testing"
	"time"

	"shim/internal/domain"
	"shim/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingWithLock(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, db, "Proyektor")

	b := newBooking(10, item.ID, day(10), day(12))
	require.NoError(t, db.CreateBookingWithLock(ctx, b))
	assert.NotZero(t, b.ID)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, "Proyektor", b.ItemName)
	assert.Equal(t, int64(1), b.Version)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.RequesterID, got.RequesterID)
	assert.True(t, got.StartAt.Equal(day(10)))
	assert.True(t, got.EndAt.Equal(day(12)))
	assert.Equal(t, "Praktikum", got.Reason)
	assert.Nil(t, got.ApprovedAt)

	t.Run("Overlap", func(t *testing.T) {
		err := db.CreateBookingWithLock(ctx, newBooking(11, item.ID, day(11), day(13)))
		require.ErrorIs(t, err, domain.ErrConflict)
		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, b.ID, de.BookingID)
	})

	t.Run("BoundaryTouch", func(t *testing.T) {
		err := db.CreateBookingWithLock(ctx, newBooking(11, item.ID, day(12), day(14)))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("StrictlyAfter", func(t *testing.T) {
		next := newBooking(11, item.ID, day(12).Add(time.Millisecond), day(14))
		assert.NoError(t, db.CreateBookingWithLock(ctx, next))
	})

	t.Run("UnknownItem", func(t *testing.T) {
		err := db.CreateBookingWithLock(ctx, newBooking(11, 9999, day(1), day(2)))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ItemNotBookable", func(t *testing.T) {
		other := createTestItem(t, db, "Kamera")
		require.NoError(t, db.UpdateItemStatus(ctx, other.ID, models.ItemMaintenance))
		err := db.CreateBookingWithLock(ctx, newBooking(11, other.ID, day(1), day(2)))
		require.ErrorIs(t, err, domain.ErrConflict)
		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Maintenance", de.Status)
	})
}

func TestDeclinedBookingDoesNotBlock(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, db, "Laptop")

	b := newBooking(1, item.ID, day(10), day(12))
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	declined, err := db.ApplyTransition(ctx, models.Transition{
		BookingID: b.ID, AdminID: 99, From: models.StatusPending, To: models.StatusDeclined,
		DeclineReason: "Sedang dipakai",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, declined.Status)
	require.NotNil(t, declined.DeclineReason)
	assert.Equal(t, "Sedang dipakai", *declined.DeclineReason)
	require.NotNil(t, declined.ApprovedBy)
	assert.Equal(t, int64(99), *declined.ApprovedBy)

	item2, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemAvailable, item2.Status)

	assert.NoError(t, db.CreateBookingWithLock(ctx, newBooking(2, item.ID, day(11), day(13))))
}

func TestApplyTransitionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, db, "Sound System")

	b := newBooking(1, item.ID, day(10), day(12))
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	approved, err := db.ApplyTransition(ctx, approve(b.ID, 7))
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, int64(2), approved.Version)
	require.NotNil(t, approved.ApprovedAt)

	got, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemBooked, got.Status)

	t.Run("ApproveAgain", func(t *testing.T) {
		_, err := db.ApplyTransition(ctx, approve(b.ID, 7))
		require.ErrorIs(t, err, domain.ErrConflict)
		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Approved", de.Status)
		assert.Equal(t, b.ID, de.BookingID)
		assert.Contains(t, de.Message, "current status: Approved")
	})

	fine := int64(5000)
	completed, err := db.ApplyTransition(ctx, models.Transition{
		BookingID: b.ID, AdminID: 8, From: models.StatusApproved, To: models.StatusCompleted,
		Fine: &fine, ReturnCondition: "Good",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	require.NotNil(t, completed.ReturnedAt)
	require.NotNil(t, completed.Fine)
	assert.Equal(t, int64(5000), *completed.Fine)
	require.NotNil(t, completed.ReturnedBy)
	assert.Equal(t, int64(8), *completed.ReturnedBy)
	assert.Equal(t, int64(3), completed.Version)

	got, err = db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemAvailable, got.Status)
	assert.Equal(t, "Good", got.Condition)

	t.Run("CompleteAgain", func(t *testing.T) {
		_, err := db.ApplyTransition(ctx, models.Transition{
			BookingID: b.ID, From: models.StatusApproved, To: models.StatusCompleted, ReturnCondition: "Good",
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("UnknownBooking", func(t *testing.T) {
		_, err := db.ApplyTransition(ctx, approve(4242, 7))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("IllegalTransition", func(t *testing.T) {
		_, err := db.ApplyTransition(ctx, models.Transition{
			BookingID: b.ID, From: models.StatusPending, To: models.StatusCompleted,
		})
		assert.Error(t, err)
	})
}

func TestApplyTransitionRollsBackOnItemFailure(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, db, "Tripod")

	b := newBooking(1, item.ID, day(10), day(12))
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	_, err := db.ExecContext(ctx, `CREATE TRIGGER reject_item_update BEFORE UPDATE ON items
		BEGIN SELECT RAISE(ABORT, 'item update rejected'); END`)
	require.NoError(t, err)

	_, err = db.ApplyTransition(ctx, approve(b.ID, 7))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item update rejected")

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.ApprovedAt)
	assert.Equal(t, int64(1), got.Version)

	_, err = db.ExecContext(ctx, `DROP TRIGGER reject_item_update`)
	require.NoError(t, err)
	_, err = db.ApplyTransition(ctx, approve(b.ID, 7))
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `CREATE TRIGGER reject_item_update BEFORE UPDATE ON items
		BEGIN SELECT RAISE(ABORT, 'item update rejected'); END`)
	require.NoError(t, err)

	_, err = db.ApplyTransition(ctx, models.Transition{
		BookingID: b.ID, AdminID: 7, From: models.StatusApproved, To: models.StatusCompleted, ReturnCondition: "Rusak",
	})
	require.Error(t, err)

	got, err = db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Nil(t, got.ReturnedAt)

	itemNow, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemBooked, itemNow.Status)
	assert.Equal(t, "Baik", itemNow.Condition)
}

func TestListBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := createTestItem(t, db, "A")
	b := createTestItem(t, db, "B")

	b1 := newBooking(1, a.ID, day(1), day(2))
	b1.SubmittedAt = day(1)
	b2 := newBooking(1, b.ID, day(3), day(4))
	b2.SubmittedAt = day(2)
	b3 := newBooking(2, a.ID, day(5), day(6))
	b3.SubmittedAt = day(3)
	for _, bk := range []*models.Booking{b1, b2, b3} {
		require.NoError(t, db.CreateBookingWithLock(ctx, bk))
	}
	_, err := db.ApplyTransition(ctx, approve(b3.ID, 9))
	require.NoError(t, err)

	mine, err := db.GetUserBookings(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, b2.ID, mine[0].ID)
	assert.Equal(t, b1.ID, mine[1].ID)

	pending, err := db.GetBookingsByStatus(ctx, models.StatusPending, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, b1.ID, pending[0].ID)

	all, err := db.GetAllBookings(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ranged, err := db.GetBookingsByDateRange(ctx, day(2), day(3))
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	overlapping, err := db.ListOverlappingBookings(ctx, a.ID, day(1), day(10))
	require.NoError(t, err)
	assert.Len(t, overlapping, 2)

	stats, err := db.GetDashboardStats(ctx, day(5), day(6))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PendingCount)
	assert.Equal(t, 1, stats.TodaysBookingCount)
}
