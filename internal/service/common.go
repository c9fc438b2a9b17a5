package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/apperr"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
)

// clock is swapped in tests.
type clock func() time.Time

// Messages for missing users and items. The booking flow says "does not
// exist"; item and request endpoints say "not found".
const (
	userMissing  = "User with id %d does not exist"
	itemMissing  = "Item with id %d does not exist"
	userNotFound = "User with id %d not found"
	itemNotFound = "Item with id %d not found"
)

func requireUserExists(ctx context.Context, repo domain.UserRepository, id int64, notFound string) error {
	exists, err := repo.UserExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check user %d: %w", id, err)
	}
	if !exists {
		return apperr.NotFound(notFound, id)
	}
	return nil
}

func loadUser(ctx context.Context, repo domain.UserRepository, id int64, notFound string) (*models.User, error) {
	user, err := repo.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound(notFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func loadItem(ctx context.Context, repo domain.ItemRepository, id int64, notFound string) (*models.Item, error) {
	item, err := repo.GetItem(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound(notFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}
