package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/apperr"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// BookingService owns the booking lifecycle: creation, the owner's one-time
// decision, visibility-checked reads and role/state listings.
type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      clock
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *BookingService) Create(ctx context.Context, bookerID int64, in models.BookingInput) (*models.Booking, error) {
	booker, err := loadUser(ctx, s.repo, bookerID, userMissing)
	if err != nil {
		return nil, err
	}
	item, err := loadItem(ctx, s.repo, in.ItemID, itemMissing)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, apperr.BadRequest("Item with id %d is not available for booking", item.ID)
	}
	if item.OwnerID == bookerID {
		return nil, apperr.NotFound("Item with id %d is owned by user with id %d", item.ID, bookerID)
	}
	if in.Start.After(in.End) {
		return nil, apperr.BadRequest("Start date %s is after end date %s",
			models.FormatTimestamp(in.Start), models.FormatTimestamp(in.End))
	}
	if in.Start.Equal(in.End) {
		return nil, apperr.BadRequest("Start date %s is equal to end date %s",
			models.FormatTimestamp(in.Start), models.FormatTimestamp(in.End))
	}

	booking := &models.Booking{
		Start:      in.Start,
		End:        in.End,
		ItemID:     item.ID,
		ItemName:   item.Name,
		OwnerID:    item.OwnerID,
		BookerID:   booker.ID,
		BookerName: booker.Name,
		Status:     models.StatusWaiting,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.IncBookingCreated()
	s.publishEvent(events.EventBookingCreated, booking, bookerID)
	s.logger.Info().Int64("booking_id", booking.ID).Int64("item_id", item.ID).Int64("booker_id", bookerID).Msg("booking created")
	return booking, nil
}

func (s *BookingService) Decide(ctx context.Context, bookingID int64, approve bool, userID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, bookingNotFound(bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", bookingID, err)
	}
	if booking.OwnerID != userID {
		return nil, apperr.NotFound("Booking with id %d does not belong to user with id %d", bookingID, userID)
	}
	if booking.Status != models.StatusWaiting {
		return nil, notWaiting(bookingID)
	}

	status := models.StatusRejected
	eventType := events.EventBookingRejected
	if approve {
		status = models.StatusApproved
		eventType = events.EventBookingApproved
	}

	decided, err := s.repo.DecideBooking(ctx, bookingID, booking.Version, status)
	if errors.Is(err, database.ErrConcurrentModification) {
		// another decision committed between the read and the guarded update
		return nil, notWaiting(bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("decide booking %d: %w", bookingID, err)
	}

	metrics.IncBookingDecision(string(status))
	s.publishEvent(eventType, decided, userID)
	return decided, nil
}

func (s *BookingService) GetByID(ctx context.Context, bookingID, userID int64) (*models.Booking, error) {
	return s.visibleBooking(ctx, bookingID, userID)
}

// visibleBooking is the only read path for a single booking. Callers that are
// neither the booker nor the item owner get the same NotFound as for a
// booking that does not exist.
func (s *BookingService) visibleBooking(ctx context.Context, bookingID, userID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("get booking %d: %w", bookingID, err)
	}
	if booking == nil || (booking.BookerID != userID && booking.OwnerID != userID) {
		return nil, bookingNotFound(bookingID)
	}
	return booking, nil
}

func (s *BookingService) List(
	ctx context.Context,
	userID int64,
	role models.Role,
	state string,
	page models.Page,
) ([]*models.Booking, error) {
	if err := requireUserExists(ctx, s.repo, userID, userMissing); err != nil {
		return nil, err
	}

	parsed := models.ParseState(state)
	if !parsed.Known {
		return nil, apperr.BadRequest("Unknown state: %s", parsed.Raw)
	}
	if page.From < 0 || page.Size <= 0 {
		return nil, apperr.BadRequest("Invalid page: from=%d size=%d", page.From, page.Size)
	}

	bookings, err := s.repo.ListBookings(ctx, database.BookingFilter{
		UserID: userID,
		Role:   role,
		State:  parsed.State,
		Now:    s.now(),
		Page:   page,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s bookings of user %d: %w", role, userID, err)
	}
	return bookings, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		ItemID:      booking.ItemID,
		ItemName:    booking.ItemName,
		BookerID:    booking.BookerID,
		OwnerID:     booking.OwnerID,
		Status:      string(booking.Status),
		Start:       booking.Start,
		End:         booking.End,
		ChangedByID: changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func bookingNotFound(id int64) error {
	return apperr.NotFound("Booking with id %d does not exist", id)
}

func notWaiting(id int64) error {
	return apperr.BadRequest("Booking with id %d is not in waiting status", id)
}
