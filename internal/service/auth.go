package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mvenault/eventhub/internal/auth"
	"github.com/mvenault/eventhub/internal/model"
)

// TokenStore persists refresh tokens server-side.
type TokenStore interface {
	Save(ctx context.Context, t *model.RefreshToken) error
	Get(ctx context.Context, token string) (*model.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}

const resetTokenTTL = time.Hour

// AuthResult is returned from register and login.
type AuthResult struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// AuthService handles credentials and token lifecycle. Refresh tokens
// are opaque values; possession alone is worthless once the stored row
// is revoked or expired.
type AuthService struct {
	users      UserStore
	tokens     TokenStore
	tm         *auth.TokenManager
	refreshTTL time.Duration
	log        *zap.SugaredLogger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, tokens TokenStore, tm *auth.TokenManager, refreshTTL time.Duration, log *zap.SugaredLogger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		tm:         tm,
		refreshTTL: refreshTTL,
		log:        log.With("service", "auth"),
	}
}

// Register creates an account with the default user role and returns a
// token pair.
func (s *AuthService) Register(ctx context.Context, req model.RegisterUserRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already exists", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     email,
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%w: email already exists", model.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Infow("user registered", "userId", user.ID)
	return s.issueTokens(ctx, user)
}

// Login exchanges credentials for a token pair.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, model.ErrUnauthorized
	}
	return s.issueTokens(ctx, user)
}

// Refresh mints a new access token for a valid stored refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	stored, err := s.tokens.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid refresh token", model.ErrUnauthorized)
		}
		return "", fmt.Errorf("get refresh token: %w", err)
	}
	if stored.ExpiresAt.Before(time.Now()) {
		_ = s.tokens.Delete(ctx, refreshToken)
		return "", fmt.Errorf("%w: refresh token expired", model.ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid refresh token", model.ErrUnauthorized)
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	return s.tm.Mint(user.ID, user.Email)
}

// Logout revokes a refresh token. Revoking an unknown token succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Delete(ctx, refreshToken)
}

// ForgotPassword stores a reset token for the account. The reply never
// reveals whether the email exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.users.SetResetToken(ctx, user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	// TODO: deliver the token by email once an outbound mailer exists.
	s.log.Debugw("password reset token issued", "userId", user.ID)
	return nil
}

// ResetPassword completes a reset started by ForgotPassword.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", model.ErrInvalidState)
		}
		return fmt.Errorf("get user by reset token: %w", err)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*AuthResult, error) {
	access, err := s.tm.Mint(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh := &model.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.tokens.Save(ctx, refresh); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh.Token}, nil
}
