package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/apperr"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      clock
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ItemService) Create(ctx context.Context, ownerID int64, in models.ItemInput) (*models.Item, error) {
	if err := requireUserExists(ctx, s.repo, ownerID, userNotFound); err != nil {
		return nil, err
	}

	item := &models.Item{
		OwnerID:     ownerID,
		Name:        in.Name,
		Description: in.Description,
		Available:   in.Available,
		RequestID:   in.RequestID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	if err := requireUserExists(ctx, s.repo, ownerID, userNotFound); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperr.BadRequest("Item name, description and availability must not all be null")
	}

	owned, err := s.repo.ItemOwnedBy(ctx, itemID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check owner of item %d: %w", itemID, err)
	}
	if !owned {
		return nil, apperr.Forbidden("User with id %d is not owner of item with id %d", ownerID, itemID)
	}

	item, err := loadItem(ctx, s.repo, itemID, itemNotFound)
	if err != nil {
		return nil, err
	}

	patch.Apply(item)
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound(itemNotFound, itemID)
		}
		return nil, fmt.Errorf("update item %d: %w", itemID, err)
	}
	return item, nil
}

func (s *ItemService) Get(ctx context.Context, itemID, userID int64) (*models.ItemDetails, error) {
	item, err := loadItem(ctx, s.repo, itemID, itemNotFound)
	if err != nil {
		return nil, err
	}

	return s.details(ctx, item, userID, s.now())
}

func (s *ItemService) ListByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.ItemDetails, error) {
	if err := requireUserExists(ctx, s.repo, ownerID, userNotFound); err != nil {
		return nil, err
	}

	items, err := s.repo.ListItemsByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, fmt.Errorf("list items of user %d: %w", ownerID, err)
	}

	now := s.now()
	result := make([]*models.ItemDetails, 0, len(items))
	for _, item := range items {
		d, err := s.details(ctx, item, ownerID, now)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

func (s *ItemService) Search(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	items, err := s.repo.SearchItems(ctx, text, page)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return items, nil
}

func (s *ItemService) AddComment(ctx context.Context, itemID, userID int64, text string) (*models.Comment, error) {
	author, err := loadUser(ctx, s.repo, userID, userNotFound)
	if err != nil {
		return nil, err
	}
	if _, err := loadItem(ctx, s.repo, itemID, itemNotFound); err != nil {
		return nil, err
	}

	now := s.now()
	finished, err := s.repo.HasFinishedBooking(ctx, userID, itemID, now)
	if err != nil {
		return nil, fmt.Errorf("check bookings of user %d: %w", userID, err)
	}
	if !finished {
		return nil, apperr.BadRequest("You can't comment on this item")
	}

	comment := &models.Comment{
		Text:       text,
		ItemID:     itemID,
		AuthorID:   userID,
		AuthorName: author.Name,
		Created:    now,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if s.eventBus != nil {
		payload := events.CommentEventPayload{
			CommentID: comment.ID,
			ItemID:    itemID,
			AuthorID:  userID,
			Created:   comment.Created,
		}
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Error().Err(err).Str("event_type", events.EventCommentAdded).Int64("item_id", itemID).Msg("publish event error")
		}
	}
	return comment, nil
}

// details attaches comments for everyone and booking neighbours for the
// owner only.
func (s *ItemService) details(ctx context.Context, item *models.Item, userID int64, now time.Time) (*models.ItemDetails, error) {
	d := &models.ItemDetails{Item: *item}

	comments, err := s.repo.ListComments(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments of item %d: %w", item.ID, err)
	}
	d.Comments = comments

	if item.OwnerID != userID {
		return d, nil
	}

	if d.LastBooking, err = s.repo.LastApprovedBooking(ctx, item.ID, now); err != nil {
		return nil, fmt.Errorf("last booking of item %d: %w", item.ID, err)
	}
	if d.NextBooking, err = s.repo.NextApprovedBooking(ctx, item.ID, now); err != nil {
		return nil, fmt.Errorf("next booking of item %d: %w", item.ID, err)
	}
	return d, nil
}
