package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/taskboard/internal/hash"
	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/models"
	"github.com/Skotchmaster/taskboard/internal/repo"
	"github.com/Skotchmaster/taskboard/internal/revocation"
	"github.com/Skotchmaster/taskboard/internal/tokens"
)

const minPasswordLen = 6

type AuthService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Revocations   revocation.Store
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type AuthResult struct {
	TokenPair
	User *models.User
}

func (s *AuthService) issue(ctx context.Context, u *models.User) (TokenPair, *models.RefreshToken, error) {
	access, accessExp, err := tokens.NewAccessToken(s.AccessSecret, u.ID.String(), u.Email, s.AccessTTL)
	if err != nil {
		return TokenPair{}, nil, err
	}
	refresh, jti, refreshExp, err := tokens.NewRefreshToken(s.RefreshSecret, u.ID.String(), s.RefreshTTL)
	if err != nil {
		return TokenPair{}, nil, err
	}
	rec := &models.RefreshToken{
		UserID:    u.ID,
		TokenHash: tokens.Sha256Hex(refresh),
		JTI:       jti,
		ExpiresAt: refreshExp,
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, AccessExp: accessExp, RefreshExp: refreshExp}, rec, nil
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, invalid("name and email are required")
	}
	if len(password) < minPasswordLen {
		return nil, invalid("password must be at least %d characters", minPasswordLen)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("signup_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	u := &models.User{Name: name, Email: email, PasswordHash: pwHash}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateKey) {
			return nil, &ConflictError{Code: CodeDuplicateEmail, Message: "User with this email already exists"}
		}
		return nil, err
	}

	pair, rec, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, rec); err != nil {
		return nil, err
	}
	l.Info("signup_success", "user_id", u.ID)
	return &AuthResult{TokenPair: pair, User: u}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	u, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("login_failed", "reason", "unknown email")
		return nil, newError(ErrUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password", "user_id", u.ID)
		return nil, newError(ErrUnauthorized, "Invalid credentials")
	}

	pair, rec, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, rec); err != nil {
		return nil, err
	}
	return &AuthResult{TokenPair: pair, User: u}, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "reason", "invalid token", "error", err)
		return nil, newError(ErrUnauthorized, "Invalid refresh token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, newError(ErrUnauthorized, "Invalid refresh token")
	}
	u, err := s.Repo.GetUserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrUnauthorized, "Invalid refresh token")
	}
	if err != nil {
		return nil, err
	}

	pair, rec, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	err = s.Repo.RotateRefreshToken(ctx, claims.ID, tokens.Sha256Hex(refreshToken), rec)
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repo.ErrTokenExpiredOrRevoked) {
		l.Warn("refresh_failed", "reason", "token expired or revoked", "user_id", userID)
		return nil, newError(ErrUnauthorized, "Refresh token expired or revoked")
	}
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout revokes every refresh token of the user and marks access tokens
// issued so far as revoked.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "user_id", userID)

	n, err := s.Repo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	if s.Revocations != nil {
		if err := s.Revocations.RevokeBefore(ctx, userID.String(), time.Now().UTC(), s.AccessTTL); err != nil {
			l.Error("revocation_marker_failed", "error", err)
		}
	}
	l.Info("logout", "revoked", n)
	return nil
}
