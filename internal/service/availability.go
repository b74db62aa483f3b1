package service

import (
	"context"
	"time"

	"shim/internal/domain"
)

// AvailabilityChecker evaluates the booking rules against the current store
// state without locking. The authoritative check runs again inside the
// create transaction.
type AvailabilityChecker struct {
	repo domain.Repository
}

func NewAvailabilityChecker(repo domain.Repository) *AvailabilityChecker {
	return &AvailabilityChecker{repo: repo}
}

func (c *AvailabilityChecker) Check(ctx context.Context, itemID int64, start, end time.Time) error {
	if !start.Before(end) {
		return domain.InvalidInput("start must be before end")
	}
	item, err := c.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	blocking, err := c.repo.ListOverlappingBookings(ctx, itemID, start, end)
	if err != nil {
		return err
	}
	return domain.CheckAvailability(item, blocking, start, end)
}
