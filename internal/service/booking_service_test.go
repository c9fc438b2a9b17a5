package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shareit/internal/apperr"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newBookingService() (*BookingService, *mockRepo, *mockPublisher) {
	repo := new(mockRepo)
	bus := new(mockPublisher)
	svc := NewBookingService(repo, bus, testLogger())
	svc.now = fixedClock
	return svc, repo, bus
}

func TestBookingService_Create(t *testing.T) {
	ctx := context.Background()
	booker := &models.User{ID: 2, Name: "booker"}
	item := &models.Item{ID: 7, OwnerID: 1, Name: "drill", Available: true}
	start := fixedNow.Add(time.Hour)
	end := fixedNow.Add(2 * time.Hour)

	t.Run("Success", func(t *testing.T) {
		svc, repo, bus := newBookingService()
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItem", ctx, int64(7)).Return(item, nil).Once()
		repo.On("CreateBooking", ctx, mock.MatchedBy(func(b *models.Booking) bool {
			return b.Status == models.StatusWaiting && b.OwnerID == 1 && b.BookerID == 2
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Booking).ID = 11
		}).Return(nil).Once()
		bus.On("PublishJSON", events.EventBookingCreated, mock.Anything).Return(nil).Once()

		booking, err := svc.Create(ctx, 2, models.BookingInput{ItemID: 7, Start: start, End: end})
		require.NoError(t, err)
		assert.Equal(t, int64(11), booking.ID)
		assert.Equal(t, models.StatusWaiting, booking.Status)
		assert.Equal(t, "drill", booking.ItemName)
		assert.Equal(t, "booker", booking.BookerName)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("PublishFailureIsLogged", func(t *testing.T) {
		svc, repo, bus := newBookingService()
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItem", ctx, int64(7)).Return(item, nil).Once()
		repo.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

		_, err := svc.Create(ctx, 2, models.BookingInput{ItemID: 7, Start: start, End: end})
		assert.NoError(t, err)
	})

	t.Run("UnknownBooker", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetUser", ctx, int64(99)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.Create(ctx, 99, models.BookingInput{ItemID: 7, Start: start, End: end})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.EqualError(t, err, "User with id 99 does not exist")
	})

	t.Run("UnknownItem", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItem", ctx, int64(8)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.Create(ctx, 2, models.BookingInput{ItemID: 8, Start: start, End: end})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.EqualError(t, err, "Item with id 8 does not exist")
	})

	t.Run("UnavailableItem", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		unavailable := *item
		unavailable.Available = false
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItem", ctx, int64(7)).Return(&unavailable, nil).Once()

		_, err := svc.Create(ctx, 2, models.BookingInput{ItemID: 7, Start: start, End: end})
		assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	})

	t.Run("AvailabilityCheckedBeforeOwnership", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		unavailable := *item
		unavailable.Available = false
		repo.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1}, nil).Once()
		repo.On("GetItem", ctx, int64(7)).Return(&unavailable, nil).Once()

		_, err := svc.Create(ctx, 1, models.BookingInput{ItemID: 7, Start: start, End: end})
		assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	})

	t.Run("OwnerCannotBook", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetUser", ctx, int64(1)).Return(&models.User{ID: 1}, nil).Once()
		repo.On("GetItem", ctx, int64(7)).Return(item, nil).Once()

		_, err := svc.Create(ctx, 1, models.BookingInput{ItemID: 7, Start: start, End: end})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.EqualError(t, err, "Item with id 7 is owned by user with id 1")
	})

	t.Run("StartAfterEnd", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItem", ctx, int64(7)).Return(item, nil).Once()

		_, err := svc.Create(ctx, 2, models.BookingInput{ItemID: 7, Start: end, End: start})
		assert.True(t, apperr.Is(err, apperr.KindBadRequest))
		assert.Contains(t, err.Error(), "is after end date")
	})

	t.Run("StartEqualsEnd", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItem", ctx, int64(7)).Return(item, nil).Once()

		_, err := svc.Create(ctx, 2, models.BookingInput{ItemID: 7, Start: start, End: start})
		assert.True(t, apperr.Is(err, apperr.KindBadRequest))
		assert.Contains(t, err.Error(), "is equal to end date")
	})
}

func TestBookingService_Decide(t *testing.T) {
	ctx := context.Background()
	waiting := func() *models.Booking {
		return &models.Booking{ID: 5, ItemID: 7, OwnerID: 1, BookerID: 2, Status: models.StatusWaiting, Version: 1}
	}

	t.Run("Approve", func(t *testing.T) {
		svc, repo, bus := newBookingService()
		approved := waiting()
		approved.Status = models.StatusApproved
		approved.Version = 2
		repo.On("GetBooking", ctx, int64(5)).Return(waiting(), nil).Once()
		repo.On("DecideBooking", ctx, int64(5), int64(1), models.StatusApproved).Return(approved, nil).Once()
		bus.On("PublishJSON", events.EventBookingApproved, mock.Anything).Return(nil).Once()

		booking, err := svc.Decide(ctx, 5, true, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, booking.Status)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("Reject", func(t *testing.T) {
		svc, repo, bus := newBookingService()
		rejected := waiting()
		rejected.Status = models.StatusRejected
		repo.On("GetBooking", ctx, int64(5)).Return(waiting(), nil).Once()
		repo.On("DecideBooking", ctx, int64(5), int64(1), models.StatusRejected).Return(rejected, nil).Once()
		bus.On("PublishJSON", events.EventBookingRejected, mock.Anything).Return(nil).Once()

		booking, err := svc.Decide(ctx, 5, false, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, booking.Status)
	})

	t.Run("Missing", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetBooking", ctx, int64(5)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.Decide(ctx, 5, true, 1)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("NotOwner", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetBooking", ctx, int64(5)).Return(waiting(), nil).Once()

		_, err := svc.Decide(ctx, 5, true, 2)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.EqualError(t, err, "Booking with id 5 does not belong to user with id 2")
	})

	t.Run("AlreadyDecided", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		decided := waiting()
		decided.Status = models.StatusApproved
		repo.On("GetBooking", ctx, int64(5)).Return(decided, nil).Once()

		_, err := svc.Decide(ctx, 5, false, 1)
		assert.True(t, apperr.Is(err, apperr.KindBadRequest))
		assert.EqualError(t, err, "Booking with id 5 is not in waiting status")
	})

	t.Run("LostRace", func(t *testing.T) {
		svc, repo, bus := newBookingService()
		repo.On("GetBooking", ctx, int64(5)).Return(waiting(), nil).Once()
		repo.On("DecideBooking", ctx, int64(5), int64(1), models.StatusApproved).
			Return(nil, database.ErrConcurrentModification).Once()

		_, err := svc.Decide(ctx, 5, true, 1)
		assert.True(t, apperr.Is(err, apperr.KindBadRequest))
		bus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	})

	t.Run("StorageError", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetBooking", ctx, int64(5)).Return(nil, errors.New("disk I/O error")).Once()

		_, err := svc.Decide(ctx, 5, true, 1)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	})
}

func TestBookingService_GetByID(t *testing.T) {
	ctx := context.Background()
	booking := &models.Booking{ID: 5, OwnerID: 1, BookerID: 2, Status: models.StatusWaiting}

	for _, userID := range []int64{1, 2} {
		svc, repo, _ := newBookingService()
		repo.On("GetBooking", ctx, int64(5)).Return(booking, nil).Once()

		got, err := svc.GetByID(ctx, 5, userID)
		require.NoError(t, err)
		assert.Equal(t, booking, got)
	}

	t.Run("StrangerSeesNotFound", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("GetBooking", ctx, int64(5)).Return(booking, nil).Once()
		repo.On("GetBooking", ctx, int64(6)).Return(nil, database.ErrNotFound).Once()

		_, denied := svc.GetByID(ctx, 5, 3)
		_, missing := svc.GetByID(ctx, 6, 3)
		assert.True(t, apperr.Is(denied, apperr.KindNotFound))
		assert.True(t, apperr.Is(missing, apperr.KindNotFound))
	})
}

func TestBookingService_List(t *testing.T) {
	ctx := context.Background()
	page := models.Page{From: 0, Size: 10}

	t.Run("DefaultsToAll", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		expected := []*models.Booking{{ID: 2}, {ID: 1}}
		repo.On("UserExists", ctx, int64(1)).Return(true, nil).Once()
		repo.On("ListBookings", ctx, database.BookingFilter{
			UserID: 1,
			Role:   models.RoleBooker,
			State:  models.StateAll,
			Now:    fixedNow,
			Page:   page,
		}).Return(expected, nil).Once()

		got, err := svc.List(ctx, 1, models.RoleBooker, "", page)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
		repo.AssertExpectations(t)
	})

	t.Run("OwnerCurrentLowercase", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("UserExists", ctx, int64(1)).Return(true, nil).Once()
		repo.On("ListBookings", ctx, mock.MatchedBy(func(f database.BookingFilter) bool {
			return f.Role == models.RoleOwner && f.State == models.StateCurrent
		})).Return([]*models.Booking{}, nil).Once()

		got, err := svc.List(ctx, 1, models.RoleOwner, "CURRENT", page)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("UnknownState", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("UserExists", ctx, int64(1)).Return(true, nil).Once()

		_, err := svc.List(ctx, 1, models.RoleBooker, "UNSUPPORTED_STATUS", page)
		assert.True(t, apperr.Is(err, apperr.KindBadRequest))
		assert.EqualError(t, err, "Unknown state: UNSUPPORTED_STATUS")
		repo.AssertNotCalled(t, "ListBookings", mock.Anything, mock.Anything)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("UserExists", ctx, int64(9)).Return(false, nil).Once()

		_, err := svc.List(ctx, 9, models.RoleBooker, "ALL", page)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("InvalidPage", func(t *testing.T) {
		svc, repo, _ := newBookingService()
		repo.On("UserExists", ctx, int64(1)).Return(true, nil).Once()

		_, err := svc.List(ctx, 1, models.RoleBooker, "ALL", models.Page{From: -1, Size: 10})
		assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	})
}
