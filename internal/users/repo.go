package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByResetToken loads the user holding an unexpired reset token digest.
func (r *Repository) FindByResetToken(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Where("reset_password_token = ? AND reset_password_expire > ?", digest, now).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *enums.UserStatus) ([]models.User, error) {
	q := r.DB(ctx).Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []models.User
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdateProfile persists the named columns of user. Struct updates keep the
// json serializer on address in play.
func (r *Repository) UpdateProfile(ctx context.Context, user *models.User, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.DB(ctx).Model(user).Select(append(columns, "updated_at")).Updates(user).Error
}

// SetStatus flips a user's status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SetResetToken stores (or clears, when digest is nil) the password reset token.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, digest *string, expire *time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reset_password_token":  digest,
			"reset_password_expire": expire,
		}).Error
}

// UpdatePassword replaces the hash and burns any outstanding reset token.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":         hash,
			"reset_password_token":  nil,
			"reset_password_expire": nil,
		}).Error
}
