// Package auth implements account and Google OAuth services.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"applyops_server/adapter/out/persistence"
	"applyops_server/core/domain"
	"applyops_server/core/port/in"
	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
	"applyops_server/pkg/logger"
)

const bcryptCost = 12

// errInvalidCredentials deliberately hides whether the email exists.
var errInvalidCredentials = apperr.Unauthorized("invalid email or password")

// Service implements in.AuthService.
type Service struct {
	userRepo  out.UserRepository
	appRepo   out.ApplicationRepository
	logRepo   out.EmailLogRepository
	jwtSecret []byte
	jwtExpiry time.Duration
	log       *logger.Logger
}

func NewService(
	userRepo out.UserRepository,
	appRepo out.ApplicationRepository,
	logRepo out.EmailLogRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
) in.AuthService {
	return &Service{
		userRepo:  userRepo,
		appRepo:   appRepo,
		logRepo:   logRepo,
		jwtSecret: []byte(jwtSecret),
		jwtExpiry: jwtExpiry,
		log:       logger.Default().WithField("component", "auth"),
	}
}

func (s *Service) Register(ctx context.Context, req *in.RegisterRequest) (*in.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.ValidationFailed("valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.ValidationFailed("password must be at least 8 characters")
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.AlreadyExists("email")
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	hashStr := string(hash)
	name := strings.TrimSpace(req.Name)
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: &hashStr,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if name != "" {
		user.Name = &name
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.WithField("user_id", user.ID.String()).Info("user registered")

	token, err := IssueToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &in.AuthResponse{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, req *in.LoginRequest) (*in.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.PasswordHash == nil {
		// Google-only account, no password set.
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	token, err := IssueToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &in.AuthResponse{Token: token, User: user}, nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Service) ExportData(ctx context.Context, userID uuid.UUID) (*in.ExportBundle, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	apps, err := s.appRepo.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	logs, err := s.logRepo.ListByUser(ctx, userID, 1000)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}

	return &in.ExportBundle{
		User:         user,
		Applications: apps,
		EmailLogs:    logs,
		ExportedAt:   time.Now(),
	}, nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.WithField("user_id", userID.String()).Info("account deleted")
	return nil
}

// IssueToken signs a session JWT for a user.
func IssueToken(userID uuid.UUID, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": now.Add(expiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
