package cached

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-crud-service/internal/adapter/cache"
	domain "user-crud-service/internal/domain/user"
	"user-crud-service/internal/usecase/user"
)

// UserRepository implements user.Repository with read-through caching.
// It wraps the authoritative store; writes always go to the store first and
// then evict the cached entry.
type UserRepository struct {
	store user.Repository
	cache cache.UserCache
	log   *zap.Logger
	group singleflight.Group

	// mu orders cache fills against writes. writes counts completed store
	// writes; a fill is skipped when a write landed during its store read.
	mu     sync.Mutex
	writes uint64
}

// NewUserRepository creates a caching decorator around store.
// A nil cache makes every call a pass-through.
func NewUserRepository(store user.Repository, c cache.UserCache, log *zap.Logger) *UserRepository {
	return &UserRepository{
		store: store,
		cache: c,
		log:   log,
	}
}

var _ user.Repository = (*UserRepository)(nil)

// List delegates to the store; the full listing is never cached.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.store.List(ctx)
}

// Create delegates to the store.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	return r.store.Create(ctx, u)
}

// GetByID retrieves a user by ID using Cache-Aside pattern.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if r.cache != nil {
		cachedUser, err := r.cache.Get(ctx, id)
		if err != nil {
			r.log.Warn("cache get error, falling back to store", zap.Int64("id", id), zap.Error(err))
		} else if cachedUser != nil {
			return cachedUser, nil
		}
	}

	// Cache miss - single-flight so concurrent misses hit the store once
	result, err, _ := r.group.Do(flightKey(id), func() (any, error) {
		seen := r.writeCount()

		u, err := r.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		r.fill(ctx, u, seen)
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	u := *result.(*domain.User)
	return &u, nil
}

// Update writes to the store and evicts the cached entry.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	updated, err := r.store.Update(ctx, u)
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, updated.ID)
	return updated, nil
}

// Delete removes from the store and evicts the cached entry.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}

	r.invalidate(ctx, id)
	return nil
}

func flightKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

func (r *UserRepository) writeCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// fill caches u unless a write completed after seen was taken. The check and
// the Set share mu with invalidate, so a fill either lands before the
// eviction that follows a write or does not happen at all.
func (r *UserRepository) fill(ctx context.Context, u *domain.User, seen uint64) {
	if r.cache == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writes != seen {
		r.log.Debug("skipping cache fill after concurrent write", zap.Int64("id", u.ID))
		return
	}
	if err := r.cache.Set(ctx, u); err != nil {
		r.log.Warn("failed to cache user", zap.Int64("id", u.ID), zap.Error(err))
	}
}

// invalidate records a completed store write and evicts the cached entry.
// Readers already waiting on an in-flight load keep its result, later
// readers start a fresh one.
func (r *UserRepository) invalidate(ctx context.Context, id int64) {
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()

	r.group.Forget(flightKey(id))

	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to invalidate cache", zap.Int64("id", id), zap.Error(err))
	}
}
