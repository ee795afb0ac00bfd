package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-hub/internal/auth"
	"github.com/spec-kit/automation-hub/internal/config"
	"github.com/spec-kit/automation-hub/internal/domain"
	"github.com/spec-kit/automation-hub/internal/repository"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// BootstrapService runs the startup data fixes: legacy role normalization
// and the demo developer guarantee, so a fresh or migrated database always
// has at least one account that can administer the system.
type BootstrapService struct {
	users      repository.UserRepository
	logger     *zap.Logger
	demo       config.DemoConfig
	bcryptCost int
}

// NewBootstrapService wires the service.
func NewBootstrapService(users repository.UserRepository, demo config.DemoConfig, bcryptCost int, logger *zap.Logger) *BootstrapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BootstrapService{users: users, logger: logger, demo: demo, bcryptCost: bcryptCost}
}

// Run executes the bootstrap steps. Safe to run on every startup.
func (s *BootstrapService) Run(ctx context.Context) error {
	normalized, err := s.users.NormalizeRoles(ctx,
		[]domain.Role{domain.RoleDeveloper, domain.RoleEmployee}, domain.RoleEmployee)
	if err != nil {
		return apperrors.MapError(err)
	}
	if normalized > 0 {
		s.logger.Info("legacy roles normalized", zap.Int64("accounts", normalized))
	}

	developerCount, err := s.users.CountByRole(ctx, domain.RoleDeveloper)
	if err != nil {
		return apperrors.MapError(err)
	}
	if developerCount > 0 {
		return nil
	}
	return s.ensureDemoDeveloper(ctx)
}

func (s *BootstrapService) ensureDemoDeveloper(ctx context.Context) error {
	email := auth.NormalizeEmail(s.demo.Email)
	hashed, err := auth.HashPassword(s.demo.Password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		existing.Role = domain.RoleDeveloper
		existing.PasswordHash = hashed
		existing.Name = s.demo.Name
		if s.demo.CompanyTitle != "" {
			title := s.demo.CompanyTitle
			existing.CompanyTitle = &title
		}
		if err := s.users.Update(ctx, existing); err != nil {
			return apperrors.MapError(err)
		}
		s.logger.Info("demo account restored to developer", zap.Int64("user_id", existing.ID))
		return nil
	}
	if apperrors.ToDomainError(err).Code != "NOT_FOUND" {
		return apperrors.MapError(err)
	}

	avatar := avatarURL(s.demo.Name)
	user := &domain.User{
		Name:         s.demo.Name,
		Email:        email,
		PasswordHash: hashed,
		Role:         domain.RoleDeveloper,
		Avatar:       &avatar,
	}
	if s.demo.CompanyTitle != "" {
		title := s.demo.CompanyTitle
		user.CompanyTitle = &title
	}
	if err := s.users.Create(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("demo developer created", zap.Int64("user_id", user.ID), zap.String("email", email))
	return nil
}
