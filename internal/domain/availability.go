package domain

import (
	"time"

	"shim/internal/models"
)

// CheckAvailability decides whether [start, end] may be booked on item given
// the bookings currently recorded against it. Inactive bookings never block.
func CheckAvailability(item *models.Item, bookings []*models.Booking, start, end time.Time) error {
	if !start.Before(end) {
		return InvalidInput("start must be before end")
	}
	if item == nil {
		return ErrNotFound
	}
	if !item.Status.IsBookable() {
		return Conflict("item %d is %s", item.ID, item.Status).WithItem(item.ID).WithStatus(item.Status)
	}
	for _, b := range bookings {
		if b.ItemID != item.ID || !b.Status.IsActive() {
			continue
		}
		if models.Overlaps(b.StartAt, b.EndAt, start, end) {
			return Conflict("item %d is already requested from %s to %s by booking %d",
				item.ID, b.StartAt.Format(time.RFC3339), b.EndAt.Format(time.RFC3339), b.ID).
				WithItem(item.ID).WithBooking(b.ID).WithStatus(b.Status)
		}
	}
	return nil
}
