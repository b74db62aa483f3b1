package service

import (
	"context"
	"strings"
	"time"

	"shim/internal/config"
	"shim/internal/domain"
	"shim/internal/events"
	"shim/internal/logging"
	"shim/internal/metrics"
	"shim/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	quota    domain.QuotaRepository
	eventBus domain.EventPublisher
	checker  *AvailabilityChecker
	cfg      config.BookingConfig
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.Repository, quota domain.QuotaRepository, eventBus domain.EventPublisher, cfg config.BookingConfig, logger *zerolog.Logger) *BookingService {
	if cfg.MaxBookingDays <= 0 {
		cfg.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = models.DefaultListLimit
	}
	if cfg.QuotaRequests <= 0 {
		cfg.QuotaRequests = models.DefaultQuotaRequests
	}
	if cfg.QuotaWindow <= 0 {
		cfg.QuotaWindow = models.DefaultQuotaWindow
	}
	return &BookingService{
		repo:     repo,
		quota:    quota,
		eventBus: eventBus,
		checker:  NewAvailabilityChecker(repo),
		cfg:      cfg,
		logger:   logging.Component(logger, "booking_service"),
		now:      time.Now,
	}
}

func (s *BookingService) validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return domain.InvalidInput("start and end are required")
	}
	if !start.Before(end) {
		return domain.InvalidInput("start must be before end")
	}
	if limit := s.now().AddDate(0, 0, s.cfg.MaxBookingDays); end.After(limit) {
		return domain.InvalidInput("booking may not end more than %d days ahead", s.cfg.MaxBookingDays)
	}
	return nil
}

// CreateBooking files a Pending request for itemID over [start, end].
func (s *BookingService) CreateBooking(ctx context.Context, caller models.Caller, itemID int64, start, end time.Time, reason string) (*models.Booking, error) {
	booking, err := s.createBooking(ctx, caller, itemID, start, end, reason)
	metrics.IncBooking("create", outcome(err))
	if err != nil {
		s.logger.Info().Err(err).Int64("requester_id", caller.ID).Int64("item_id", itemID).Msg("Booking request rejected")
		return nil, err
	}

	s.logger.Info().Int64("booking_id", booking.ID).Int64("requester_id", caller.ID).Int64("item_id", itemID).Msg("Booking created")
	s.publishEvent(events.EventBookingCreated, booking, caller.ID)
	return booking, nil
}

func (s *BookingService) createBooking(ctx context.Context, caller models.Caller, itemID int64, start, end time.Time, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	switch {
	case caller.ID <= 0:
		return nil, domain.InvalidInput("requester is required")
	case itemID <= 0:
		return nil, domain.InvalidInput("item is required")
	case reason == "":
		return nil, domain.InvalidInput("reason is required")
	}

	start = start.UTC().Truncate(time.Millisecond)
	end = end.UTC().Truncate(time.Millisecond)
	if err := s.validateWindow(start, end); err != nil {
		return nil, err
	}

	// fail fast before spending quota on a request that cannot succeed
	if err := s.checker.Check(ctx, itemID, start, end); err != nil {
		return nil, asDomain("check availability", err)
	}

	consumed, err := s.consumeQuota(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		RequesterID:   caller.ID,
		RequesterName: caller.Name,
		ItemID:        itemID,
		StartAt:       start,
		EndAt:         end,
		Reason:        reason,
		SubmittedAt:   s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		if consumed {
			s.releaseQuota(ctx, caller.ID)
		}
		return nil, asDomain("create booking", err)
	}
	s.recordCaller(ctx, caller)
	return booking, nil
}

// consumeQuota takes one unit of the requester's quota and reports whether a
// unit was actually taken.
func (s *BookingService) consumeQuota(ctx context.Context, userID int64) (bool, error) {
	if s.quota == nil {
		return false, nil
	}
	window := time.Duration(s.cfg.QuotaWindow) * time.Second
	allowed, err := s.quota.CheckRateLimit(ctx, userID, s.cfg.QuotaRequests, window)
	if err != nil {
		// fail open when the quota store is unreachable
		s.logger.Warn().Err(err).Int64("requester_id", userID).Msg("Quota check failed, allowing request")
		return false, nil
	}
	if !allowed {
		return false, domain.RateLimited("at most %d booking requests per %s", s.cfg.QuotaRequests, window)
	}
	return true, nil
}

// releaseQuota hands back the unit taken for a request that was not stored.
func (s *BookingService) releaseQuota(ctx context.Context, userID int64) {
	if err := s.quota.ReleaseRateLimit(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("requester_id", userID).Msg("Failed to release quota")
	}
}

func (s *BookingService) recordCaller(ctx context.Context, caller models.Caller) {
	user := &models.User{
		ID:           caller.ID,
		Role:         caller.Role,
		Name:         caller.Name,
		Email:        caller.Email,
		LastActivity: s.now(),
	}
	if err := s.repo.CreateOrUpdateUser(ctx, user); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", caller.ID).Msg("Failed to record caller")
	}
}

func (s *BookingService) ApproveBooking(ctx context.Context, caller models.Caller, bookingID int64) (*models.Booking, error) {
	return s.transition(ctx, caller, "approve", events.EventBookingApproved, models.Transition{
		BookingID: bookingID,
		From:      models.StatusPending,
		To:        models.StatusApproved,
	})
}

func (s *BookingService) DeclineBooking(ctx context.Context, caller models.Caller, bookingID int64, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		metrics.IncBooking("decline", string(domain.KindInvalidInput))
		return nil, domain.InvalidInput("decline reason is required").WithBooking(bookingID)
	}
	return s.transition(ctx, caller, "decline", events.EventBookingDeclined, models.Transition{
		BookingID:     bookingID,
		From:          models.StatusPending,
		To:            models.StatusDeclined,
		DeclineReason: reason,
	})
}

func (s *BookingService) CompleteBooking(ctx context.Context, caller models.Caller, bookingID int64, fine *int64, returnCondition string) (*models.Booking, error) {
	returnCondition = strings.TrimSpace(returnCondition)
	var err error
	switch {
	case fine != nil && *fine < 0:
		err = domain.InvalidInput("fine must not be negative").WithBooking(bookingID)
	case returnCondition == "":
		err = domain.InvalidInput("return condition is required").WithBooking(bookingID)
	}
	if err != nil {
		metrics.IncBooking("complete", string(domain.KindInvalidInput))
		return nil, err
	}
	return s.transition(ctx, caller, "complete", events.EventBookingCompleted, models.Transition{
		BookingID:       bookingID,
		From:            models.StatusApproved,
		To:              models.StatusCompleted,
		Fine:            fine,
		ReturnCondition: returnCondition,
	})
}

func (s *BookingService) transition(ctx context.Context, caller models.Caller, op, eventType string, t models.Transition) (*models.Booking, error) {
	log := s.logger.With().Str("op", op).Int64("booking_id", t.BookingID).Int64("admin_id", caller.ID).Logger()

	if !caller.IsAdmin() {
		metrics.IncBooking(op, string(domain.KindForbidden))
		return nil, domain.Forbidden("%s requires the admin role", op).WithBooking(t.BookingID)
	}

	t.AdminID = caller.ID
	t.At = s.now().UTC().Truncate(time.Millisecond)
	booking, err := s.repo.ApplyTransition(ctx, t)
	err = asDomain(op+" booking", err)
	metrics.IncBooking(op, outcome(err))
	if err != nil {
		log.Info().Err(err).Msg("Booking transition rejected")
		return nil, err
	}

	s.recordCaller(ctx, caller)
	log.Info().Str("status", booking.Status.String()).Msg("Booking transitioned")
	s.publishEvent(eventType, booking, caller.ID)
	return booking, nil
}

// ListOverlappingBookings returns the active bookings that block [start, end] on itemID.
func (s *BookingService) ListOverlappingBookings(ctx context.Context, itemID int64, start, end time.Time) ([]*models.Booking, error) {
	if !start.Before(end) {
		return nil, domain.InvalidInput("start must be before end")
	}
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return nil, asDomain("get item", err)
	}
	bookings, err := s.repo.ListOverlappingBookings(ctx, itemID, start, end)
	return bookings, asDomain("list overlapping bookings", err)
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	return booking, asDomain("get booking", err)
}

func (s *BookingService) ListUserBookings(ctx context.Context, requesterID int64) ([]*models.Booking, error) {
	bookings, err := s.repo.GetUserBookings(ctx, requesterID, s.cfg.ListLimit)
	return bookings, asDomain("list user bookings", err)
}

// ListBookings returns bookings in the given status, or every booking when status is nil.
func (s *BookingService) ListBookings(ctx context.Context, status *models.BookingStatus) ([]*models.Booking, error) {
	if status == nil {
		bookings, err := s.repo.GetAllBookings(ctx, s.cfg.ListLimit)
		return bookings, asDomain("list bookings", err)
	}
	bookings, err := s.repo.GetBookingsByStatus(ctx, *status, s.cfg.ListLimit)
	return bookings, asDomain("list bookings by status", err)
}

// DashboardStats counts pending requests and active bookings starting on now's calendar day.
func (s *BookingService) DashboardStats(ctx context.Context, now time.Time) (*models.DashboardStats, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	stats, err := s.repo.GetDashboardStats(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	return stats, asDomain("dashboard stats", err)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	if end.Before(start) {
		return nil, domain.InvalidInput("range end must not be before its start")
	}
	bookings, err := s.repo.GetBookingsByDateRange(ctx, start, end)
	return bookings, asDomain("bookings by date range", err)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedBy int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.NewBookingPayload(booking, changedBy)
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
