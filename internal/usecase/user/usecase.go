package user

import (
	"context"
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	apperrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

// Validation messages returned to clients.
const (
	MsgNameRequired  = "Name cannot be empty."
	MsgEmailRequired = "A valid email is required."
)

// Repository defines the interface for user data access operations.
// Implementations own id assignment and must serialize mutation.
type Repository interface {
	// List returns all users in any order.
	List(ctx context.Context) ([]domain.User, error)
	// GetByID returns the user or a *NotFoundError.
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// Create inserts u under the next never-used ID and returns the stored record.
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	// Update overwrites name and email of u.ID or returns a *NotFoundError.
	Update(ctx context.Context, u *domain.User) (*domain.User, error)
	// Delete removes the user or returns a *NotFoundError.
	Delete(ctx context.Context, id int64) error
}

// Service implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Service struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates a new Service backed by the given repository.
func New(r Repository, log *zap.Logger) *Service {
	v := validator.New()
	// notblank ships with validator but is not registered by default
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &Service{repo: r, log: log, validate: v}
}

// fieldMessages maps a rejected struct field to its client-facing message.
var fieldMessages = map[string]string{
	"Name":  MsgNameRequired,
	"Email": MsgEmailRequired,
}

// formatValidationError converts the first validator failure into a ValidationError.
// Fields are checked in declaration order, so a blank name wins over a bad email.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		field := validationErrors[0].Field()
		return apperrors.NewValidationError(field, fieldMessages[field])
	}
	return err
}

// CreateUser validates the candidate and inserts it with a store-assigned id.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, err
	}

	log.Info("user created", zap.Int64("id", created.ID))
	return toDTO(created), nil
}

// UpdateUser overwrites name and email of an existing user.
// A missing id is reported before the payload is validated.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("updating user", zap.Int64("id", in.ID), zap.String("name", in.Name), zap.String("email", in.Email))

	if _, err := s.repo.GetByID(ctx, in.ID); err != nil {
		s.logLookupError(log, "update", in.ID, err)
		return nil, err
	}

	if err := s.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Int64("id", in.ID), zap.Error(err))
		return nil, formatValidationError(err)
	}

	updated, err := s.repo.Update(ctx, &domain.User{
		ID:    in.ID,
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		s.logLookupError(log, "update", in.ID, err)
		return nil, err
	}

	return toDTO(updated), nil
}

// DeleteUser removes a user by id.
func (s *Service) DeleteUser(ctx context.Context, in DeleteUserRequest) error {
	log := logger.WithContext(ctx, s.log)
	log.Info("deleting user", zap.Int64("id", in.ID))

	if err := s.repo.Delete(ctx, in.ID); err != nil {
		s.logLookupError(log, "delete", in.ID, err)
		return err
	}

	return nil
}

// GetUser retrieves a user by id.
func (s *Service) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, in.ID)
	if err != nil {
		s.logLookupError(logger.WithContext(ctx, s.log), "get", in.ID, err)
		return nil, err
	}

	return toDTO(u), nil
}

// ListUsers returns every user ordered by id.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	domainUsers, err := s.repo.List(ctx)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("failed to list users", zap.Error(err))
		return nil, err
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = *toDTO(&domainUsers[i])
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return users, nil
}

// logLookupError logs not-found at warn level and everything else as an error.
func (s *Service) logLookupError(log *zap.Logger, op string, id int64, err error) {
	if apperrors.IsNotFound(err) {
		log.Warn("user not found", zap.String("op", op), zap.Int64("id", id))
		return
	}
	log.Error("user lookup failed", zap.String("op", op), zap.Int64("id", id), zap.Error(err))
}

func toDTO(u *domain.User) *User {
	return &User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
