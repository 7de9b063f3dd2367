package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/trainboard/internal/domain"
	"github.com/oksasatya/trainboard/internal/domain/entity"
	repo "github.com/oksasatya/trainboard/internal/domain/repository"
	"github.com/oksasatya/trainboard/pkg/helpers"
	"github.com/oksasatya/trainboard/pkg/mailer"
)

// JobPublisher enqueues background jobs such as outgoing email.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AuthService handles signup, signin and access-token refresh.
// Tokens are stateless; nothing about a session is persisted.
type AuthService struct {
	Users  repo.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger

	// Mail is optional; when set a welcome email job is queued after signup.
	Mail JobPublisher
}

func NewAuthService(users repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger, mail JobPublisher) *AuthService {
	return &AuthService{Users: users, JWT: jwt, Logger: logger, Mail: mail}
}

type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshedToken struct {
	AccessToken string `json:"access_token"`
}

func identityOf(u *entity.User) helpers.Identity {
	return helpers.Identity{ID: u.ID, Email: u.Email, Name: u.Name}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a user with a hashed password and returns a fresh token pair.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (AuthTokens, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return AuthTokens{}, fmt.Errorf("%w: email, password and name are required", domain.ErrInvalidArgument)
	}

	existing, err := s.Users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return AuthTokens{}, fmt.Errorf("%w: user with email %s already registered", domain.ErrAlreadyExists, email)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return AuthTokens{}, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{Email: email, Password: hash, Name: strings.TrimSpace(in.Name)}
	// the unique index still guards against a concurrent signup with the same email
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return AuthTokens{}, fmt.Errorf("%w: user with email %s already registered", domain.ErrAlreadyExists, email)
		}
		return AuthTokens{}, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("user signed up")

	s.enqueueWelcome(ctx, u)
	return s.issue(u)
}

// SignIn verifies email and password and returns a fresh token pair.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (AuthTokens, error) {
	email = normalizeEmail(email)
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return AuthTokens{}, fmt.Errorf("%w: user with email %s not found", domain.ErrNotFound, email)
		}
		return AuthTokens{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		s.Logger.WithField("user_id", u.ID).Warn("sign in with wrong password")
		return AuthTokens{}, fmt.Errorf("%w: password incorrect", domain.ErrUnauthorized)
	}
	return s.issue(u)
}

// Refresh exchanges a valid refresh token for a new access token.
// The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (RefreshedToken, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return RefreshedToken{}, fmt.Errorf("%w: invalid or expired refresh token", domain.ErrUnauthorized)
	}
	u, err := s.Users.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return RefreshedToken{}, fmt.Errorf("%w: user not found", domain.ErrNotFound)
		}
		return RefreshedToken{}, err
	}
	access, _, err := s.JWT.GenerateAccessToken(identityOf(u))
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return RefreshedToken{}, err
	}
	return RefreshedToken{AccessToken: access}, nil
}

func (s *AuthService) issue(u *entity.User) (AuthTokens, error) {
	pair, err := s.JWT.IssuePair(identityOf(u))
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token pair failed")
		return AuthTokens{}, err
	}
	return AuthTokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// enqueueWelcome is best effort: a broker failure never fails the signup.
func (s *AuthService) enqueueWelcome(ctx context.Context, u *entity.User) {
	if s.Mail == nil {
		return
	}
	job := mailer.NewWelcomeJob(u.Email, u.Name)
	if err := s.Mail.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("failed to publish welcome email job")
	}
}
