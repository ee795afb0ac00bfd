package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-hub/internal/auth"
	"github.com/spec-kit/automation-hub/internal/domain"
	"github.com/spec-kit/automation-hub/internal/events"
	"github.com/spec-kit/automation-hub/internal/repository"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// UserCreateInput carries direct account creation by a developer.
type UserCreateInput struct {
	Name         string
	Email        string
	Password     string
	Role         domain.Role
	CompanyTitle string
}

// RegistrationDecision carries overrides applied on approval.
type RegistrationDecision struct {
	Role         *domain.Role
	CompanyTitle *string
}

// AdminDependencies bundles admin service collaborators.
type AdminDependencies struct {
	Users         repository.UserRepository
	Registrations repository.RegistrationRepository
	Requests      repository.RequestRepository
	ScriptNodes   repository.ScriptNodeRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	BcryptCost    int
	DemoEmail     string
}

// AdminService covers developer-only account and registration management.
// The seeded demo account and the last remaining developer are protected
// so the system can never lock itself out.
type AdminService struct {
	users         repository.UserRepository
	registrations repository.RegistrationRepository
	requests      repository.RequestRepository
	scriptNodes   repository.ScriptNodeRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	bcryptCost    int
	demoEmail     string
	clock         func() int64
}

// NewAdminService wires the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		users:         deps.Users,
		registrations: deps.Registrations,
		requests:      deps.Requests,
		scriptNodes:   deps.ScriptNodes,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		bcryptCost:    deps.BcryptCost,
		demoEmail:     auth.NormalizeEmail(deps.DemoEmail),
		clock:         nowMillis,
	}
}

func (s *AdminService) isDemo(user *domain.User) bool {
	return s.demoEmail != "" && auth.NormalizeEmail(user.Email) == s.demoEmail
}

// ListUsers returns all accounts.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// CreateUser provisions an account directly, bypassing registration review.
func (s *AdminService) CreateUser(ctx context.Context, actor *domain.User, input UserCreateInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("Name is required", nil)
	}
	email := auth.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("A valid email address is required", nil)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("Invalid system role", map[string]any{"role": string(input.Role)})
	}
	if err := auth.ValidatePasswordPolicy(input.Password); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewValidationError("Email already registered", nil)
	}

	hashed, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	avatar := avatarURL(name)
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		Avatar:       &avatar,
	}
	if title := strings.TrimSpace(input.CompanyTitle); title != "" {
		user.CompanyTitle = &title
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)), zap.Int64("actor_id", actor.ID))
	return user, nil
}

// Promote raises an employee to developer.
func (s *AdminService) Promote(ctx context.Context, actor *domain.User, userID int64) (*domain.User, error) {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleDeveloper {
		return nil, apperrors.NewValidationError("User is already a developer", nil)
	}
	user.Role = domain.RoleDeveloper
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user promoted", zap.Int64("user_id", user.ID), zap.Int64("actor_id", actor.ID))
	return user, nil
}

// Demote lowers a developer back to employee. The actor themselves, the
// demo account and the last developer are all off limits.
func (s *AdminService) Demote(ctx context.Context, actor *domain.User, userID int64) (*domain.User, error) {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleDeveloper {
		return nil, apperrors.NewValidationError("User is not a developer", nil)
	}
	if user.ID == actor.ID {
		return nil, apperrors.NewValidationError("Cannot demote your own account", nil)
	}
	if s.isDemo(user) {
		return nil, apperrors.NewValidationError("Demo account cannot be modified", nil)
	}
	developerCount, err := s.users.CountByRole(ctx, domain.RoleDeveloper)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if developerCount <= 1 {
		return nil, apperrors.NewValidationError("Cannot demote the last developer account", nil)
	}

	user.Role = domain.RoleEmployee
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user demoted", zap.Int64("user_id", user.ID), zap.Int64("actor_id", actor.ID))
	return user, nil
}

// DeleteUser removes an account together with its requests and the script
// library folders those requests produced.
func (s *AdminService) DeleteUser(ctx context.Context, actor *domain.User, userID int64) error {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ID == actor.ID {
		return apperrors.NewValidationError("Cannot delete your own account", nil)
	}
	if s.isDemo(user) {
		return apperrors.NewValidationError("Demo account cannot be deleted", nil)
	}
	if user.Role == domain.RoleDeveloper {
		developerCount, err := s.users.CountByRole(ctx, domain.RoleDeveloper)
		if err != nil {
			return apperrors.MapError(err)
		}
		if developerCount <= 1 {
			return apperrors.NewValidationError("Cannot delete the last developer account", nil)
		}
	}

	requestIDs, err := s.requests.ListIDsByRequester(ctx, user.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, requestID := range requestIDs {
		nodes, err := s.scriptNodes.ListByRequest(ctx, requestID)
		if err != nil {
			return apperrors.MapError(err)
		}
		for _, node := range nodes {
			if err := s.scriptNodes.Delete(ctx, node.ID); err != nil && apperrors.ToDomainError(err).Code != "NOT_FOUND" {
				return apperrors.MapError(err)
			}
		}
		if err := s.requests.Delete(ctx, requestID); err != nil {
			return apperrors.MapError(err)
		}
	}

	// Registration reviews keep their status but lose the reviewer link.
	if err := s.registrations.ClearReviewer(ctx, user.ID); err != nil {
		return apperrors.MapError(err)
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("user deleted",
		zap.Int64("user_id", user.ID),
		zap.Int("cascaded_requests", len(requestIDs)),
		zap.Int64("actor_id", actor.ID))
	return nil
}

// ListRegistrations returns all signup applications, newest first.
func (s *AdminService) ListRegistrations(ctx context.Context) ([]domain.RegistrationRequest, error) {
	registrations, err := s.registrations.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return registrations, nil
}

// ApproveRegistration turns a pending application into an account. The
// reviewer may override the role and company title; the password hash is
// carried over from intake.
func (s *AdminService) ApproveRegistration(ctx context.Context, actor *domain.User, registrationID int64, decision RegistrationDecision) (*domain.User, error) {
	registration, err := s.registrationByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if registration.Status != domain.RegistrationStatusPending {
		return nil, apperrors.NewValidationError("Registration request already processed", nil)
	}

	role := domain.RoleEmployee
	if decision.Role != nil {
		if !domain.ValidRole(*decision.Role) {
			return nil, apperrors.NewValidationError("Invalid system role", map[string]any{"role": string(*decision.Role)})
		}
		role = *decision.Role
	}
	if _, err := s.users.GetByEmail(ctx, registration.Email); err == nil {
		return nil, apperrors.NewValidationError("Email already registered", nil)
	}

	avatar := avatarURL(registration.Name)
	user := &domain.User{
		Name:         registration.Name,
		Email:        registration.Email,
		PasswordHash: registration.PasswordHash,
		Role:         role,
		CompanyTitle: registration.CompanyTitle,
		Avatar:       &avatar,
	}
	if decision.CompanyTitle != nil {
		if title := strings.TrimSpace(*decision.CompanyTitle); title != "" {
			user.CompanyTitle = &title
		}
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.review(ctx, actor, registration, domain.RegistrationStatusApproved); err != nil {
		return nil, err
	}
	return user, nil
}

// RejectRegistration closes a pending application without an account.
func (s *AdminService) RejectRegistration(ctx context.Context, actor *domain.User, registrationID int64) (*domain.RegistrationRequest, error) {
	registration, err := s.registrationByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if registration.Status != domain.RegistrationStatusPending {
		return nil, apperrors.NewValidationError("Registration request already processed", nil)
	}
	if err := s.review(ctx, actor, registration, domain.RegistrationStatusRejected); err != nil {
		return nil, err
	}
	return registration, nil
}

func (s *AdminService) review(ctx context.Context, actor *domain.User, registration *domain.RegistrationRequest, status domain.RegistrationStatus) error {
	reviewedBy := actor.ID
	reviewedAt := s.clock()
	registration.Status = status
	registration.ReviewedBy = &reviewedBy
	registration.ReviewedAt = &reviewedAt
	if err := s.registrations.Update(ctx, registration); err != nil {
		return apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRegistrationReviewed,
			Actor:     events.Actor{UserID: actor.ID, Role: actor.Role},
			Timestamp: time.Now(),
			Payload: events.RegistrationReviewedPayload{
				RegistrationID: registration.ID,
				Status:         status,
				Email:          registration.Email,
			},
		})
	}
	s.logger.Info("registration reviewed",
		zap.Int64("registration_id", registration.ID),
		zap.String("status", string(status)),
		zap.Int64("actor_id", actor.ID))
	return nil
}

func (s *AdminService) userByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if apperrors.ToDomainError(err).Code == "NOT_FOUND" {
			return nil, apperrors.NewNotFound("User", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	user.Role = domain.NormalizeRole(string(user.Role))
	return user, nil
}

func (s *AdminService) registrationByID(ctx context.Context, id int64) (*domain.RegistrationRequest, error) {
	registration, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		if apperrors.ToDomainError(err).Code == "NOT_FOUND" {
			return nil, apperrors.NewNotFound("Registration request", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return registration, nil
}
