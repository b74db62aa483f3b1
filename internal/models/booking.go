package models

import "time"

type Booking struct {
	ID              int64         `json:"id"`
	RequesterID     int64         `json:"requester_id"`
	RequesterName   string        `json:"requester_name,omitempty"`
	ItemID          int64         `json:"item_id"`
	ItemName        string        `json:"item_name,omitempty"`
	StartAt         time.Time     `json:"start_at"`
	EndAt           time.Time     `json:"end_at"`
	Reason          string        `json:"reason"`
	Status          BookingStatus `json:"status"`
	SubmittedAt     time.Time     `json:"submitted_at"`
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`
	ApprovedBy      *int64        `json:"approved_by,omitempty"`
	DeclineReason   *string       `json:"decline_reason,omitempty"`
	ReturnedAt      *time.Time    `json:"returned_at,omitempty"`
	ReturnedBy      *int64        `json:"returned_by,omitempty"`
	Fine            *int64        `json:"fine,omitempty"`
	ReturnCondition *string       `json:"return_condition,omitempty"`
	Version         int64         `json:"version"`
}

// Overlaps reports whether the closed windows [s1, e1] and [s2, e2] share an instant.
// Touching boundaries count as overlapping, so back-to-back bookings at the
// same instant are rejected.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !e1.Before(s2)
}

// Transition describes an admin action on a booking and its side effect on the item.
type Transition struct {
	BookingID int64
	AdminID   int64
	From      BookingStatus
	To        BookingStatus
	At        time.Time

	DeclineReason   string
	Fine            *int64
	ReturnCondition string
}

// DashboardStats summarises the admin queue.
type DashboardStats struct {
	PendingCount       int `json:"pending_count"`
	TodaysBookingCount int `json:"todays_booking_count"`
}
