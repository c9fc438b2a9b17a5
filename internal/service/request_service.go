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

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    clock
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, logger: logger, now: time.Now}
}

func (s *RequestService) Create(ctx context.Context, userID int64, description string) (*models.Request, error) {
	if err := requireUserExists(ctx, s.repo, userID, userNotFound); err != nil {
		return nil, err
	}

	request := &models.Request{
		Description: description,
		RequestorID: userID,
		Created:     s.now(),
		Items:       []models.Item{},
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info().Int64("request_id", request.ID).Int64("user_id", userID).Msg("request created")
	return request, nil
}

func (s *RequestService) Get(ctx context.Context, requestID, userID int64) (*models.Request, error) {
	if err := requireUserExists(ctx, s.repo, userID, userNotFound); err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequest(ctx, requestID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("Request with id %d not found", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("get request %d: %w", requestID, err)
	}

	if err := s.attachItems(ctx, []*models.Request{request}); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *RequestService) ListMine(ctx context.Context, userID int64) ([]*models.Request, error) {
	if err := requireUserExists(ctx, s.repo, userID, userNotFound); err != nil {
		return nil, err
	}

	requests, err := s.repo.ListRequestsByRequestor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests of user %d: %w", userID, err)
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *RequestService) ListOthers(ctx context.Context, userID int64, page models.Page) ([]*models.Request, error) {
	if err := requireUserExists(ctx, s.repo, userID, userNotFound); err != nil {
		return nil, err
	}

	requests, err := s.repo.ListRequestsExcept(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("list requests except user %d: %w", userID, err)
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// attachItems loads the answering items of all requests in one query.
func (s *RequestService) attachItems(ctx context.Context, requests []*models.Request) error {
	if len(requests) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ID)
	}

	byRequest, err := s.repo.ListItemsByRequests(ctx, ids)
	if err != nil {
		return fmt.Errorf("list items of requests: %w", err)
	}

	for _, r := range requests {
		r.Items = byRequest[r.ID]
		if r.Items == nil {
			r.Items = []models.Item{}
		}
	}
	return nil
}
