package domain

import (
	"context"
	"time"

	"shim/internal/models"
)

type BookingRepository interface {
	// CreateBookingWithLock checks availability and inserts the booking in one transaction.
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	// ApplyTransition compare-and-swaps the booking status and applies the item side effect atomically.
	ApplyTransition(ctx context.Context, t models.Transition) (*models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListOverlappingBookings(ctx context.Context, itemID int64, start, end time.Time) ([]*models.Booking, error)
	GetUserBookings(ctx context.Context, requesterID int64, limit int) ([]*models.Booking, error)
	GetBookingsByStatus(ctx context.Context, status models.BookingStatus, limit int) ([]*models.Booking, error)
	GetAllBookings(ctx context.Context, limit int) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetDashboardStats(ctx context.Context, dayStart, dayEnd time.Time) (*models.DashboardStats, error)
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetItems(ctx context.Context, bookableOnly bool) ([]*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	UpdateItemStatus(ctx context.Context, id int64, status models.ItemStatus) error
	DeleteItem(ctx context.Context, id int64) error
}

type GrantRepository interface {
	CreateGrant(ctx context.Context, grant *models.Grant) error
	GetGrantByID(ctx context.Context, id int64) (*models.Grant, error)
	GetGrants(ctx context.Context) ([]*models.Grant, error)
	UpdateGrant(ctx context.Context, grant *models.Grant) error
	DeleteGrant(ctx context.Context, id int64) error
}

type UserRepository interface {
	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type NotificationRepository interface {
	GetPendingNotifications(ctx context.Context, limit int) ([]models.Notification, error)
	UpdateNotificationStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
	GetFailedNotifications(ctx context.Context) ([]models.Notification, error)
}

type Repository interface {
	BookingRepository
	ItemRepository
	GrantRepository
	UserRepository
}

type QuotaRepository interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
	ReleaseRateLimit(ctx context.Context, userID int64) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, caller models.Caller, itemID int64, start, end time.Time, reason string) (*models.Booking, error)
	ApproveBooking(ctx context.Context, caller models.Caller, bookingID int64) (*models.Booking, error)
	DeclineBooking(ctx context.Context, caller models.Caller, bookingID int64, reason string) (*models.Booking, error)
	CompleteBooking(ctx context.Context, caller models.Caller, bookingID int64, fine *int64, returnCondition string) (*models.Booking, error)
	ListOverlappingBookings(ctx context.Context, itemID int64, start, end time.Time) ([]*models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListUserBookings(ctx context.Context, requesterID int64) ([]*models.Booking, error)
	ListBookings(ctx context.Context, status *models.BookingStatus) ([]*models.Booking, error)
	DashboardStats(ctx context.Context, now time.Time) (*models.DashboardStats, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

type ItemService interface {
	GetItems(ctx context.Context, bookableOnly bool) ([]*models.Item, error)
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	SetItemStatus(ctx context.Context, id int64, status models.ItemStatus) error
	DeleteItem(ctx context.Context, id int64) error
}

type GrantService interface {
	GetGrants(ctx context.Context) ([]*models.Grant, error)
	GetGrantByID(ctx context.Context, id int64) (*models.Grant, error)
	CreateGrant(ctx context.Context, grant *models.Grant) error
	UpdateGrant(ctx context.Context, grant *models.Grant) error
	DeleteGrant(ctx context.Context, id int64) error
}
