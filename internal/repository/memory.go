package repository

import (
	"context"
	"sync"
	"time"

	"shareit/internal/models"
)

// MemoryStore is the in-process stand-in for RedisStore.
type MemoryStore struct {
	users sync.Map
	ttl   time.Duration

	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry

	now func() time.Time
}

type cachedUser struct {
	user      models.User
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:        ttl,
		rateLimits: make(map[string]*rateLimitEntry),
		now:        time.Now,
	}
}

func (r *MemoryStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	val, ok := r.users.Load(id)
	if !ok {
		return nil, nil
	}
	entry := val.(*cachedUser)
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		r.users.Delete(id)
		return nil, nil
	}
	user := entry.user
	return &user, nil
}

func (r *MemoryStore) SetUser(ctx context.Context, user *models.User) error {
	r.users.Store(user.ID, &cachedUser{user: *user, expiresAt: r.now().Add(r.ttl)})
	return nil
}

func (r *MemoryStore) DeleteUser(ctx context.Context, id int64) error {
	r.users.Delete(id)
	return nil
}

func (r *MemoryStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}
