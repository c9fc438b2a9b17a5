package service

import (
	"context"
	"testing"

	"shareit/internal/apperr"
	"shareit/internal/database"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRequestService() (*RequestService, *mockRepo) {
	repo := new(mockRepo)
	svc := NewRequestService(repo, testLogger())
	svc.now = fixedClock
	return svc, repo
}

func TestRequestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, repo := newRequestService()

	repo.On("UserExists", ctx, int64(1)).Return(true, nil).Once()
	repo.On("CreateRequest", ctx, mock.MatchedBy(func(r *models.Request) bool {
		return r.RequestorID == 1 && r.Created.Equal(fixedNow)
	})).Return(nil).Once()

	req, err := svc.Create(ctx, 1, "need a ladder")
	require.NoError(t, err)
	assert.NotNil(t, req.Items)
	assert.Empty(t, req.Items)
	repo.AssertExpectations(t)
}

func TestRequestService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("AttachesItems", func(t *testing.T) {
		svc, repo := newRequestService()
		repo.On("UserExists", ctx, int64(2)).Return(true, nil).Once()
		repo.On("GetRequest", ctx, int64(4)).Return(&models.Request{ID: 4, RequestorID: 1}, nil).Once()
		repo.On("ListItemsByRequests", ctx, []int64{4}).Return(map[int64][]models.Item{
			4: {{ID: 9, Name: "ladder"}},
		}, nil).Once()

		req, err := svc.Get(ctx, 4, 2)
		require.NoError(t, err)
		require.Len(t, req.Items, 1)
		assert.Equal(t, "ladder", req.Items[0].Name)
	})

	t.Run("Missing", func(t *testing.T) {
		svc, repo := newRequestService()
		repo.On("UserExists", ctx, int64(2)).Return(true, nil).Once()
		repo.On("GetRequest", ctx, int64(5)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.Get(ctx, 5, 2)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.EqualError(t, err, "Request with id 5 not found")
	})
}

func TestRequestService_Lists(t *testing.T) {
	ctx := context.Background()
	page := models.Page{From: 0, Size: 10}
	svc, repo := newRequestService()

	mine := []*models.Request{{ID: 2}, {ID: 1}}
	repo.On("UserExists", ctx, int64(1)).Return(true, nil).Twice()
	repo.On("ListRequestsByRequestor", ctx, int64(1)).Return(mine, nil).Once()
	repo.On("ListItemsByRequests", ctx, []int64{2, 1}).Return(map[int64][]models.Item{}, nil).Once()

	got, err := svc.ListMine(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotNil(t, got[1].Items)

	repo.On("ListRequestsExcept", ctx, int64(1), page).Return([]*models.Request{}, nil).Once()
	others, err := svc.ListOthers(ctx, 1, page)
	require.NoError(t, err)
	assert.Empty(t, others)
	repo.AssertExpectations(t)

	repo.On("UserExists", ctx, int64(8)).Return(false, nil).Once()
	_, err = svc.ListMine(ctx, 8)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
