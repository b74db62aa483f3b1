package models

import (
	"fmt"
	"strings"
)

// BookingStatus is the lifecycle state of a booking request.
type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusApproved  BookingStatus = "Approved"
	StatusDeclined  BookingStatus = "Declined"
	StatusCompleted BookingStatus = "Completed"
)

// ActiveStatuses hold a claim over the item and block overlapping requests.
var ActiveStatuses = []BookingStatus{StatusPending, StatusApproved}

var allowedTransitions = map[BookingStatus]map[BookingStatus]bool{
	StatusPending:   {StatusApproved: true, StatusDeclined: true},
	StatusApproved:  {StatusCompleted: true},
	StatusDeclined:  {},
	StatusCompleted: {},
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	for status := range allowedTransitions {
		if strings.EqualFold(strings.TrimSpace(s), string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown booking status: %q", s)
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	return allowedTransitions[from][to]
}

// IsActive reports whether the booking still blocks its item.
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

func (s BookingStatus) String() string { return string(s) }

// ItemStatus is the lifecycle state of an inventory item.
type ItemStatus string

const (
	ItemAvailable   ItemStatus = "Available"
	ItemBooked      ItemStatus = "Booked"
	ItemMaintenance ItemStatus = "Maintenance"
	ItemUnavailable ItemStatus = "Unavailable"
)

// LangID selects Indonesian labels in ItemStatus.Label.
const LangID = "id"

// itemStatusLabels maps every accepted label, canonical or localized, to its status.
var itemStatusLabels = map[string]ItemStatus{
	"available":      ItemAvailable,
	"tersedia":       ItemAvailable,
	"booked":         ItemBooked,
	"dipinjam":       ItemBooked,
	"maintenance":    ItemMaintenance,
	"perawatan":      ItemMaintenance,
	"unavailable":    ItemUnavailable,
	"tidak tersedia": ItemUnavailable,
}

var itemStatusLocalized = map[ItemStatus]string{
	ItemAvailable:   "Tersedia",
	ItemBooked:      "Dipinjam",
	ItemMaintenance: "Perawatan",
	ItemUnavailable: "Tidak Tersedia",
}

// ParseItemStatus accepts canonical names and Indonesian aliases, case-insensitively.
func ParseItemStatus(s string) (ItemStatus, error) {
	status, ok := itemStatusLabels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown item status: %q", s)
	}
	return status, nil
}

// IsBookable reports whether new booking requests may be placed on the item.
func (s ItemStatus) IsBookable() bool {
	return s == ItemAvailable
}

// Label renders the status for the given language.
func (s ItemStatus) Label(lang string) string {
	if lang == LangID {
		if l, ok := itemStatusLocalized[s]; ok {
			return l
		}
	}
	return string(s)
}

func (s ItemStatus) String() string { return string(s) }
