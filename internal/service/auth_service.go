package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-hub/internal/auth"
	"github.com/spec-kit/automation-hub/internal/domain"
	"github.com/spec-kit/automation-hub/internal/repository"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// RegistrationInput carries a self-service enrollment application.
type RegistrationInput struct {
	Name         string
	Email        string
	Password     string
	CompanyTitle string
}

// AuthDependencies bundles auth service collaborators.
type AuthDependencies struct {
	Users         repository.UserRepository
	Registrations repository.RegistrationRepository
	Tokens        *auth.TokenManager
	Throttle      *auth.LoginThrottle
	Logger        *zap.Logger
	BcryptCost    int
}

// AuthService handles login and self-service registration.
type AuthService struct {
	users         repository.UserRepository
	registrations repository.RegistrationRepository
	tokens        *auth.TokenManager
	throttle      *auth.LoginThrottle
	logger        *zap.Logger
	bcryptCost    int
	clock         func() int64
}

// NewAuthService wires the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:         deps.Users,
		registrations: deps.Registrations,
		tokens:        deps.Tokens,
		throttle:      deps.Throttle,
		logger:        logger,
		bcryptCost:    deps.BcryptCost,
		clock:         nowMillis,
	}
}

// Login authenticates credentials and issues a bearer token. Failed
// attempts are counted per client IP; once the limit is hit the IP is
// rejected before credentials are even checked.
func (s *AuthService) Login(ctx context.Context, clientIP, email, password string) (*domain.User, string, time.Time, error) {
	if s.throttle.IsBlocked(ctx, clientIP) {
		return nil, "", time.Time{}, apperrors.NewTooManyRequests("Too many failed login attempts. Please try again later.")
	}

	normalized := auth.NormalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil || auth.ComparePassword(user.PasswordHash, password) != nil {
		attempts := s.throttle.RecordFailure(ctx, clientIP)
		s.logger.Info("login failed",
			zap.String("email", normalized),
			zap.String("ip", clientIP),
			zap.Int("attempts", attempts))
		return nil, "", time.Time{}, apperrors.NewUnauthorized("Incorrect email or password")
	}

	s.throttle.Reset(ctx, clientIP)
	user.Role = domain.NormalizeRole(string(user.Role))

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("login succeeded", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, token, expiresAt, nil
}

// Register files an enrollment application for admin review. It does not
// create an account; approval does.
func (s *AuthService) Register(ctx context.Context, input RegistrationInput) (*domain.RegistrationRequest, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("Name is required", nil)
	}
	email := auth.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("A valid email address is required", nil)
	}
	if err := auth.ValidatePasswordPolicy(input.Password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewValidationError("Email already registered", nil)
	}
	if _, err := s.registrations.FindPendingByEmail(ctx, email); err == nil {
		return nil, apperrors.NewValidationError("A registration request for this email is already pending", nil)
	}

	hashed, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	registration := &domain.RegistrationRequest{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Status:       domain.RegistrationStatusPending,
		CreatedAt:    s.clock(),
	}
	if title := strings.TrimSpace(input.CompanyTitle); title != "" {
		registration.CompanyTitle = &title
	}
	if err := s.registrations.Create(ctx, registration); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("registration request filed", zap.Int64("registration_id", registration.ID), zap.String("email", email))
	return registration, nil
}
