package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mvenault/eventhub/internal/model"
)

// UserStore is the persistence contract for user accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	SoftDelete(ctx context.Context, id int64) error
	SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetByResetToken(ctx context.Context, token string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID int64, hash string) error
}

// UserService manages account profiles.
type UserService struct {
	users UserStore
}

// NewUserService constructs a UserService.
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("user #%d: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// List returns all users. Admin only; the handler gates the role.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// Update patches a profile. Users may edit themselves; admins anyone.
func (s *UserService) Update(ctx context.Context, id int64, req model.UpdateUserRequest, caller model.Caller) (*model.User, error) {
	if !caller.CanMutate(id) {
		return nil, fmt.Errorf("%w: you can only update your own profile", model.ErrForbidden)
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if existing, err := s.users.GetByEmail(ctx, email); err == nil {
			if existing.ID != id {
				return nil, fmt.Errorf("%w: email already exists", model.ErrConflict)
			}
		} else if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		user.Email = email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%w: email already exists", model.ErrConflict)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete soft-deletes an account. Users may delete themselves; admins anyone.
func (s *UserService) Delete(ctx context.Context, id int64, caller model.Caller) error {
	if !caller.CanMutate(id) {
		return fmt.Errorf("%w: you can only delete your own profile", model.ErrForbidden)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.users.SoftDelete(ctx, id)
}
