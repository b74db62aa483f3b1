package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"shim/internal/models"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingApproved  = "booking_approved"
	EventBookingDeclined  = "booking_declined"
	EventBookingCompleted = "booking_completed"
)

// BookingEvents lists every booking lifecycle event type.
var BookingEvents = []string{
	EventBookingCreated,
	EventBookingApproved,
	EventBookingDeclined,
	EventBookingCompleted,
}

// EventForStatus names the event emitted when a booking reaches status.
func EventForStatus(status models.BookingStatus) string {
	switch status {
	case models.StatusPending:
		return EventBookingCreated
	case models.StatusApproved:
		return EventBookingApproved
	case models.StatusDeclined:
		return EventBookingDeclined
	case models.StatusCompleted:
		return EventBookingCompleted
	}
	return ""
}

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID     int64     `json:"booking_id"`
	RequesterID   int64     `json:"requester_id"`
	RequesterName string    `json:"requester_name"`
	ItemID        int64     `json:"item_id"`
	ItemName      string    `json:"item_name"`
	Status        string    `json:"status"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	Reason        string    `json:"reason,omitempty"`
	DeclineReason string    `json:"decline_reason,omitempty"`
	ChangedByID   int64     `json:"changed_by_id,omitempty"`
}

// NewBookingPayload snapshots a booking after a committed change.
func NewBookingPayload(b *models.Booking, changedBy int64) BookingEventPayload {
	p := BookingEventPayload{
		BookingID:     b.ID,
		RequesterID:   b.RequesterID,
		RequesterName: b.RequesterName,
		ItemID:        b.ItemID,
		ItemName:      b.ItemName,
		Status:        b.Status.String(),
		StartAt:       b.StartAt,
		EndAt:         b.EndAt,
		Reason:        b.Reason,
		ChangedByID:   changedBy,
	}
	if b.DeclineReason != nil {
		p.DeclineReason = *b.DeclineReason
	}
	return p
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for the given event types.
func (b *EventBus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], handler)
	}
}

// Publish notifies subscribers of the event type. Handler errors are joined
// and returned after every handler has run.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
