package sqlite

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "user-crud-service/internal/domain/user"
	"user-crud-service/internal/usecase/user"
	apperrors "user-crud-service/pkg/errors"
)

// UserRepoSQLite implements the Repository interface using GORM over SQLite.
// The database is expected to be in-memory and pinned to a single
// connection, which serializes every statement.
type UserRepoSQLite struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoSQLite creates a new instance of UserRepoSQLite.
func NewUserRepoSQLite(db *gorm.DB, log *zap.Logger) *UserRepoSQLite {
	return &UserRepoSQLite{db: db, log: log}
}

var _ user.Repository = (*UserRepoSQLite)(nil)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int64  `gorm:"primaryKey;autoIncrement:false"` // Assigned by the repository, never by SQLite
	Name  string `gorm:"not null"`
	Email string `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (m UserSchema) toDomain() *domain.User {
	return &domain.User{ID: m.ID, Name: m.Name, Email: m.Email}
}

// usersSequence names the row of id_sequences that tracks user ids.
const usersSequence = "users"

// IDSequence records the highest id ever assigned for a table. Deleting rows
// never lowers it.
type IDSequence struct {
	Name  string `gorm:"primaryKey"`
	Value int64  `gorm:"not null"`
}

// TableName specifies the table name for the IDSequence model.
func (IDSequence) TableName() string {
	return "id_sequences"
}

// EnsureSchema migrates the users table and inserts seed when the table is empty.
// The id sequence starts at the highest seeded id.
func (r *UserRepoSQLite) EnsureSchema(ctx context.Context, seed ...domain.User) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&UserSchema{}, &IDSequence{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}

	if err := r.ensureSequence(ctx); err != nil {
		return err
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&UserSchema{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 || len(seed) == 0 {
		return nil
	}

	models := make([]UserSchema, len(seed))
	for i, u := range seed {
		models[i] = UserSchema{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models).Error; err != nil {
			return err
		}
		return advanceSequence(tx, maxSeedID(seed))
	})
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	r.log.Info("sqlite store seeded", zap.Int("seeded", len(models)))
	return nil
}

// ensureSequence creates the users sequence row, starting it at the current
// MAX(id) when the row does not exist yet.
func (r *UserRepoSQLite) ensureSequence(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxID int64
		if err := tx.Model(&UserSchema{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return fmt.Errorf("failed to read max user id: %w", err)
		}

		seq := IDSequence{Name: usersSequence}
		if err := tx.Where(&seq).Attrs(IDSequence{Value: maxID}).FirstOrCreate(&seq).Error; err != nil {
			return fmt.Errorf("failed to create id sequence: %w", err)
		}
		return nil
	})
}

// advanceSequence raises the users sequence to id if it is lower.
func advanceSequence(tx *gorm.DB, id int64) error {
	return tx.Model(&IDSequence{}).
		Where("name = ? AND value < ?", usersSequence, id).
		Update("value", id).Error
}

func maxSeedID(seed []domain.User) int64 {
	var max int64
	for _, u := range seed {
		if u.ID > max {
			max = u.ID
		}
	}
	return max
}

// List retrieves all users.
func (r *UserRepoSQLite) List(ctx context.Context) ([]domain.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, len(models))
	for i, model := range models {
		users[i] = *model.toDomain()
	}
	return users, nil
}

// GetByID retrieves a user by their unique ID.
func (r *UserRepoSQLite) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.UserNotFound(id)
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return model.toDomain(), nil
}

// Create inserts a new user with the next sequence id inside a transaction.
func (r *UserRepoSQLite) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, apperrors.ErrNilRecord
	}

	var model UserSchema
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq IDSequence
		if err := tx.First(&seq, "name = ?", usersSequence).Error; err != nil {
			return fmt.Errorf("failed to read id sequence: %w", err)
		}

		model = UserSchema{
			ID:    domain.NextID(seq.Value),
			Name:  u.Name,
			Email: u.Email,
		}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		return advanceSequence(tx, model.ID)
	})
	if err != nil {
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Debug("user created in db", zap.Int64("id", model.ID))
	return model.toDomain(), nil
}

// Update overwrites name and email of an existing user.
func (r *UserRepoSQLite) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, apperrors.ErrNilRecord
	}

	res := r.db.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{"name": u.Name, "email": u.Email})
	if res.Error != nil {
		r.log.Error("failed to update user in db", zap.Error(res.Error), zap.Int64("id", u.ID))
		return nil, fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.UserNotFound(u.ID)
	}

	r.log.Debug("user updated in db", zap.Int64("id", u.ID))
	return &domain.User{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// Delete removes a user by ID.
func (r *UserRepoSQLite) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&UserSchema{}, id)
	if res.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.UserNotFound(id)
	}

	r.log.Debug("user deleted in db", zap.Int64("id", id))
	return nil
}
