package service

import (
	"context"
	"errors"
	"fmt"

	"shareit/internal/apperr"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// UserService manages accounts. Reads by id go through the optional cache;
// every write drops the cached snapshot.
type UserService struct {
	repo   domain.Repository
	cache  domain.UserCache
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, cache domain.UserCache, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (s *UserService) Create(ctx context.Context, name, email string) (*models.User, error) {
	user := &models.User{Name: name, Email: email}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, apperr.Conflict("User with email %s already exists", email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("User with id %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	patch.Apply(user)
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicateEmail):
			return nil, apperr.Conflict("User with email %s already exists", user.Email)
		case errors.Is(err, database.ErrNotFound):
			return nil, apperr.NotFound("User with id %d not found", id)
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	s.evict(ctx, id)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.evict(ctx, id)
	return nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if s.cache != nil {
		cached, err := s.cache.GetUser(ctx, id)
		switch {
		case err != nil:
			metrics.IncCache("error")
			s.logger.Warn().Err(err).Int64("user_id", id).Msg("user cache read failed")
		case cached != nil:
			metrics.IncCache("hit")
			return cached, nil
		default:
			metrics.IncCache("miss")
		}
	}

	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("User with id %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.SetUser(ctx, user); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", id).Msg("user cache write failed")
		}
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) evict(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteUser(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", id).Msg("user cache invalidation failed")
	}
}
