package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	"user-crud-service/internal/usecase/user"
	apperrors "user-crud-service/pkg/errors"
)

// UserRepository keeps users in a map for the lifetime of the process.
// All access goes through mu; records are copied in and out so callers
// never alias stored values.
type UserRepository struct {
	mu    sync.RWMutex
	users map[int64]domain.User
	maxID int64 // highest id ever stored; deletions never lower it
	log   *zap.Logger
}

// NewUserRepository creates a repository pre-seeded with the given users.
func NewUserRepository(log *zap.Logger, seed ...domain.User) *UserRepository {
	r := &UserRepository{
		users: make(map[int64]domain.User, len(seed)),
		log:   log,
	}
	for _, u := range seed {
		r.users[u.ID] = u
	}
	r.maxID = r.currentMax()

	log.Info("memory store ready", zap.Int("seeded", len(seed)))
	return r
}

var _ user.Repository = (*UserRepository)(nil)

// List returns a snapshot of all users.
func (r *UserRepository) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

// GetByID returns a copy of the user stored under id.
func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.UserNotFound(id)
	}
	return &u, nil
}

// Create stores u under the highest id seen so far + 1.
func (r *UserRepository) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, apperrors.ErrNilRecord
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	created := domain.User{
		ID:    domain.NextID(r.maxID),
		Name:  u.Name,
		Email: u.Email,
	}
	r.users[created.ID] = created
	r.maxID = created.ID

	r.log.Debug("user stored", zap.Int64("id", created.ID))
	return &created, nil
}

// Update overwrites name and email of the user stored under u.ID.
func (r *UserRepository) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, apperrors.ErrNilRecord
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return nil, apperrors.UserNotFound(u.ID)
	}
	existing.Name = u.Name
	existing.Email = u.Email
	r.users[u.ID] = existing

	return &existing, nil
}

// Delete removes the user stored under id.
func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperrors.UserNotFound(id)
	}
	delete(r.users, id)

	return nil
}

// currentMax scans for the largest key. Callers must hold mu.
func (r *UserRepository) currentMax() int64 {
	var max int64
	for id := range r.users {
		if id > max {
			max = id
		}
	}
	return max
}
