package service

import (
	"context"
	"io"
	"time"

	"shareit/internal/database"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

// mockRepo is a mock of the domain.Repository interface
type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepo) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockRepo) UserExists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepo) DeleteUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepo) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockRepo) CreateItem(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockRepo) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *mockRepo) ItemOwnedBy(ctx context.Context, itemID, ownerID int64) (bool, error) {
	args := m.Called(ctx, itemID, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) UpdateItem(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockRepo) ListItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	args := m.Called(ctx, ownerID, page)
	return args.Get(0).([]*models.Item), args.Error(1)
}

func (m *mockRepo) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	args := m.Called(ctx, text, page)
	return args.Get(0).([]*models.Item), args.Error(1)
}

func (m *mockRepo) ListItemsByRequests(ctx context.Context, requestIDs []int64) (map[int64][]models.Item, error) {
	args := m.Called(ctx, requestIDs)
	return args.Get(0).(map[int64][]models.Item), args.Error(1)
}

func (m *mockRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) DecideBooking(ctx context.Context, id, fromVersion int64, status models.Status) (*models.Booking, error) {
	args := m.Called(ctx, id, fromVersion, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) ListBookings(ctx context.Context, filter database.BookingFilter) ([]*models.Booking, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockRepo) LastApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	args := m.Called(ctx, itemID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) NextApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	args := m.Called(ctx, itemID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	args := m.Called(ctx, bookerID, itemID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) CreateComment(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockRepo) ListComments(ctx context.Context, itemID int64) ([]models.Comment, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *mockRepo) CreateRequest(ctx context.Context, request *models.Request) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *mockRepo) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockRepo) ListRequestsByRequestor(ctx context.Context, userID int64) ([]*models.Request, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Request), args.Error(1)
}

func (m *mockRepo) ListRequestsExcept(ctx context.Context, userID int64, page models.Page) ([]*models.Request, error) {
	args := m.Called(ctx, userID, page)
	return args.Get(0).([]*models.Request), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockCache) SetUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockCache) DeleteUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

func fixedClock() time.Time { return fixedNow }
