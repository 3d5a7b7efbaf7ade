package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service exposes profile and admin user management.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	List(ctx context.Context, status string) ([]UserDTO, error)
	Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	ToggleStatus(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, status *enums.UserStatus) ([]models.User, error)
	UpdateProfile(ctx context.Context, user *models.User, columns ...string) error
	SetStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus) error
}

type service struct {
	repo userStore
}

// NewService constructs the users service.
func NewService(repo userStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	return s.GetProfile(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var columns []string
	if input.Username != nil {
		name := strings.TrimSpace(*input.Username)
		if len(name) < 5 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "username must be at least 5 characters")
		}
		user.Username = name
		columns = append(columns, "username")
	}
	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
		}
		user.Email = email
		columns = append(columns, "email")
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			user.Phone = nil
		} else {
			user.Phone = &phone
		}
		columns = append(columns, "phone")
	}
	if input.Address != nil {
		addr := input.Address.Normalized()
		user.Address = &addr
		columns = append(columns, "address")
	}

	if err := s.repo.UpdateProfile(ctx, user, columns...); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username or email already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, status string) ([]UserDTO, error) {
	var filter *enums.UserStatus
	if strings.TrimSpace(status) != "" {
		parsed, err := enums.ParseUserStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter = &parsed
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// ToggleStatus flips Allowed/Banned. Admin accounts cannot be banned.
func (s *service) ToggleStatus(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin users cannot be banned")
	}

	next := enums.UserStatusBanned
	if user.IsBanned() {
		next = enums.UserStatusAllowed
	}
	if err := s.repo.SetStatus(ctx, user.ID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user status")
	}
	user.Status = next
	return FromModel(user), nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
