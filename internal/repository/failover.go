package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStore sends every call to the primary store until it fails, then
// serves from the fallback and probes the primary again once a minute.
type FailoverStore struct {
	primary   domain.CacheStore
	fallback  domain.CacheStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverStore(primary, fallback domain.CacheStore, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to the primary store.
func (r *FailoverStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

// observe records the primary's outcome and reports whether it succeeded.
func (r *FailoverStore) observe(err error) bool {
	if err == nil {
		if r.isDown.Swap(false) {
			r.logger.Info().Msg("Primary cache store recovered")
		}
		return true
	}
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary cache store failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
	return false
}

func (r *FailoverStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	if r.usePrimary() {
		user, err := r.primary.GetUser(ctx, id)
		if r.observe(err) {
			return user, nil
		}
	}
	return r.fallback.GetUser(ctx, id)
}

func (r *FailoverStore) SetUser(ctx context.Context, user *models.User) error {
	if r.usePrimary() {
		if r.observe(r.primary.SetUser(ctx, user)) {
			return nil
		}
	}
	return r.fallback.SetUser(ctx, user)
}

// DeleteUser always clears the fallback too; it may hold a snapshot from the
// last outage.
func (r *FailoverStore) DeleteUser(ctx context.Context, id int64) error {
	if r.usePrimary() {
		r.observe(r.primary.DeleteUser(ctx, id))
	}
	return r.fallback.DeleteUser(ctx, id)
}

func (r *FailoverStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if r.observe(err) {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
