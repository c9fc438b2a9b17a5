package domain

import (
	"context"
	"time"

	"shareit/internal/database"
	"shareit/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ItemOwnedBy(ctx context.Context, itemID, ownerID int64) (bool, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	ListItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
	ListItemsByRequests(ctx context.Context, requestIDs []int64) (map[int64][]models.Item, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	DecideBooking(ctx context.Context, id, fromVersion int64, status models.Status) (*models.Booking, error)
	ListBookings(ctx context.Context, filter database.BookingFilter) ([]*models.Booking, error)
	LastApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	NextApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, itemID int64) ([]models.Comment, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, request *models.Request) error
	GetRequest(ctx context.Context, id int64) (*models.Request, error)
	ListRequestsByRequestor(ctx context.Context, userID int64) ([]*models.Request, error)
	ListRequestsExcept(ctx context.Context, userID int64, page models.Page) ([]*models.Request, error)
}

// Repository is everything the services need from persistence.
// *database.DB implements it.
type Repository interface {
	UserRepository
	ItemRepository
	BookingRepository
	CommentRepository
	RequestRepository
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// UserCache holds user snapshots. A miss is (nil, nil).
type UserCache interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	SetUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// CacheStore is implemented by the Redis, memory and failover stores.
type CacheStore interface {
	UserCache
	RateLimiter
}

type UserService interface {
	Create(ctx context.Context, name, email string) (*models.User, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

type ItemService interface {
	Create(ctx context.Context, ownerID int64, in models.ItemInput) (*models.Item, error)
	Update(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error)
	Get(ctx context.Context, itemID, userID int64) (*models.ItemDetails, error)
	ListByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.ItemDetails, error)
	Search(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
	AddComment(ctx context.Context, itemID, userID int64, text string) (*models.Comment, error)
}

type BookingService interface {
	Create(ctx context.Context, bookerID int64, in models.BookingInput) (*models.Booking, error)
	Decide(ctx context.Context, bookingID int64, approve bool, userID int64) (*models.Booking, error)
	GetByID(ctx context.Context, bookingID, userID int64) (*models.Booking, error)
	List(ctx context.Context, userID int64, role models.Role, state string, page models.Page) ([]*models.Booking, error)
}

type RequestService interface {
	Create(ctx context.Context, userID int64, description string) (*models.Request, error)
	Get(ctx context.Context, requestID, userID int64) (*models.Request, error)
	ListMine(ctx context.Context, userID int64) ([]*models.Request, error)
	ListOthers(ctx context.Context, userID int64, page models.Page) ([]*models.Request, error)
}
