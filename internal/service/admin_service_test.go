package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/automation-hub/internal/domain"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

type adminFixture struct {
	service       *AdminService
	users         *fakeUserRepo
	registrations *fakeRegistrationRepo
	requests      *fakeRequestRepo
	scriptNodes   *fakeScriptNodeRepo
	admin         *domain.User
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	fixture := &adminFixture{
		users:         newFakeUserRepo(),
		registrations: newFakeRegistrationRepo(),
		requests:      newFakeRequestRepo(),
		scriptNodes:   newFakeScriptNodeRepo(),
	}
	fixture.service = NewAdminService(AdminDependencies{
		Users:         fixture.users,
		Registrations: fixture.registrations,
		Requests:      fixture.requests,
		ScriptNodes:   fixture.scriptNodes,
		BcryptCost:    4,
		DemoEmail:     "demo@automation-hub.local",
	})

	admin := &domain.User{Name: "Ada Admin", Email: "ada@example.com", Role: domain.RoleDeveloper}
	require.NoError(t, fixture.users.Create(context.Background(), admin))
	fixture.admin = admin
	return fixture
}

func (f *adminFixture) addUser(t *testing.T, name, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, Role: role}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func TestCreateUserValidation(t *testing.T) {
	fixture := newAdminFixture(t)
	ctx := context.Background()

	_, err := fixture.service.CreateUser(ctx, fixture.admin, UserCreateInput{
		Name: "Weak", Email: "weak@example.com", Password: "short",
	})
	require.Error(t, err)

	_, err = fixture.service.CreateUser(ctx, fixture.admin, UserCreateInput{
		Name: "Bad Role", Email: "badrole@example.com", Password: "Str0ngPass", Role: "ARCHITECT",
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid system role", apperrors.ToDomainError(err).Message)

	user, err := fixture.service.CreateUser(ctx, fixture.admin, UserCreateInput{
		Name: "New Person", Email: "New.Person@Example.com", Password: "Str0ngPass",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, user.Role)
	assert.Equal(t, "new.person@example.com", user.Email)
	require.NotNil(t, user.Avatar)
	assert.Contains(t, *user.Avatar, "seed=newperson")

	_, err = fixture.service.CreateUser(ctx, fixture.admin, UserCreateInput{
		Name: "Dup", Email: "new.person@example.com", Password: "Str0ngPass",
	})
	require.Error(t, err)
	assert.Equal(t, "Email already registered", apperrors.ToDomainError(err).Message)
}

func TestPromoteAndDemote(t *testing.T) {
	fixture := newAdminFixture(t)
	ctx := context.Background()

	employee := fixture.addUser(t, "Evan Employee", "evan@example.com", domain.RoleEmployee)

	promoted, err := fixture.service.Promote(ctx, fixture.admin, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDeveloper, promoted.Role)

	_, err = fixture.service.Promote(ctx, fixture.admin, employee.ID)
	require.Error(t, err)

	demoted, err := fixture.service.Demote(ctx, fixture.admin, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, demoted.Role)

	_, err = fixture.service.Demote(ctx, fixture.admin, employee.ID)
	require.Error(t, err)
}

func TestDemoteGuards(t *testing.T) {
	fixture := newAdminFixture(t)
	ctx := context.Background()

	// Self-demotion.
	_, err := fixture.service.Demote(ctx, fixture.admin, fixture.admin.ID)
	require.Error(t, err)
	assert.Equal(t, "Cannot demote your own account", apperrors.ToDomainError(err).Message)

	// Last developer.
	second := fixture.addUser(t, "Second Dev", "second@example.com", domain.RoleDeveloper)
	_, err = fixture.service.Demote(ctx, second, fixture.admin.ID)
	require.NoError(t, err) // two developers, demoting one is fine

	_, err = fixture.service.Demote(ctx, fixture.admin, second.ID)
	require.Error(t, err)
	assert.Equal(t, "Cannot demote the last developer account", apperrors.ToDomainError(err).Message)
}

func TestDemoAccountProtected(t *testing.T) {
	fixture := newAdminFixture(t)
	ctx := context.Background()

	demo := fixture.addUser(t, "Demo Developer", "demo@automation-hub.local", domain.RoleDeveloper)

	_, err := fixture.service.Demote(ctx, fixture.admin, demo.ID)
	require.Error(t, err)
	assert.Equal(t, "Demo account cannot be modified", apperrors.ToDomainError(err).Message)

	err = fixture.service.DeleteUser(ctx, fixture.admin, demo.ID)
	require.Error(t, err)
	assert.Equal(t, "Demo account cannot be deleted", apperrors.ToDomainError(err).Message)
}

func TestDeleteUserGuardsAndCascade(t *testing.T) {
	fixture := newAdminFixture(t)
	ctx := context.Background()

	err := fixture.service.DeleteUser(ctx, fixture.admin, fixture.admin.ID)
	require.Error(t, err)
	assert.Equal(t, "Cannot delete your own account", apperrors.ToDomainError(err).Message)

	employee := fixture.addUser(t, "Evan Employee", "evan@example.com", domain.RoleEmployee)
	request := &domain.AutomationRequest{Title: "Theirs", RequesterID: employee.ID, Status: domain.RequestStatusPending}
	require.NoError(t, fixture.requests.Create(ctx, request))
	requestID := request.ID
	folder := &domain.ScriptNode{Name: "Theirs", Type: domain.NodeTypeFolder, RequestID: &requestID, CreatedBy: fixture.admin.ID}
	require.NoError(t, fixture.scriptNodes.Create(ctx, folder))

	require.NoError(t, fixture.service.DeleteUser(ctx, fixture.admin, employee.ID))

	_, err = fixture.users.GetByID(ctx, employee.ID)
	require.Error(t, err)
	_, err = fixture.requests.GetByID(ctx, request.ID)
	require.Error(t, err)
	nodes, err := fixture.scriptNodes.ListByRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestDeleteUserClearsRegistrationReviews(t *testing.T) {
	fixture := newAdminFixture(t)
	ctx := context.Background()

	reviewer := fixture.addUser(t, "Second Dev", "second@example.com", domain.RoleDeveloper)
	registration := &domain.RegistrationRequest{
		Name:         "Rita Requester",
		Email:        "rita@example.com",
		PasswordHash: "hash",
		Status:       domain.RegistrationStatusPending,
		CreatedAt:    1,
	}
	require.NoError(t, fixture.registrations.Create(ctx, registration))

	_, err := fixture.service.RejectRegistration(ctx, reviewer, registration.ID)
	require.NoError(t, err)

	require.NoError(t, fixture.service.DeleteUser(ctx, fixture.admin, reviewer.ID))

	stored, err := fixture.registrations.GetByID(ctx, registration.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusRejected, stored.Status)
	assert.Nil(t, stored.ReviewedBy)
}

func TestDeleteLastDeveloperBlocked(t *testing.T) {
	fixture := newAdminFixture(t)
	ctx := context.Background()

	second := fixture.addUser(t, "Second Dev", "second@example.com", domain.RoleDeveloper)

	// With two developers deletion works; afterwards the survivor is locked.
	require.NoError(t, fixture.service.DeleteUser(ctx, second, fixture.admin.ID))

	third := fixture.addUser(t, "Third Emp", "third@example.com", domain.RoleEmployee)
	err := fixture.service.DeleteUser(ctx, third, second.ID)
	require.Error(t, err)
	assert.Equal(t, "Cannot delete the last developer account", apperrors.ToDomainError(err).Message)
}

func TestApproveRegistrationCreatesUser(t *testing.T) {
	fixture := newAdminFixture(t)
	ctx := context.Background()

	title := "Architect"
	registration := &domain.RegistrationRequest{
		Name:         "Rita Requester",
		Email:        "rita@example.com",
		PasswordHash: "$2a$04$hashedhashedhashedhashed",
		Status:       domain.RegistrationStatusPending,
		CompanyTitle: &title,
		CreatedAt:    1,
	}
	require.NoError(t, fixture.registrations.Create(ctx, registration))

	role := domain.RoleDeveloper
	user, err := fixture.service.ApproveRegistration(ctx, fixture.admin, registration.ID, RegistrationDecision{Role: &role})
	require.NoError(t, err)

	assert.Equal(t, "rita@example.com", user.Email)
	assert.Equal(t, domain.RoleDeveloper, user.Role)
	assert.Equal(t, registration.PasswordHash, user.PasswordHash)
	require.NotNil(t, user.CompanyTitle)
	assert.Equal(t, "Architect", *user.CompanyTitle)

	stored, err := fixture.registrations.GetByID(ctx, registration.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusApproved, stored.Status)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, fixture.admin.ID, *stored.ReviewedBy)
	assert.NotNil(t, stored.ReviewedAt)

	// Terminal: approving twice fails.
	_, err = fixture.service.ApproveRegistration(ctx, fixture.admin, registration.ID, RegistrationDecision{})
	require.Error(t, err)
	assert.Equal(t, "Registration request already processed", apperrors.ToDomainError(err).Message)
}

func TestRejectRegistrationTerminal(t *testing.T) {
	fixture := newAdminFixture(t)
	ctx := context.Background()

	registration := &domain.RegistrationRequest{
		Name:         "Rita Requester",
		Email:        "rita@example.com",
		PasswordHash: "hash",
		Status:       domain.RegistrationStatusPending,
		CreatedAt:    1,
	}
	require.NoError(t, fixture.registrations.Create(ctx, registration))

	rejected, err := fixture.service.RejectRegistration(ctx, fixture.admin, registration.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStatusRejected, rejected.Status)

	_, err = fixture.service.RejectRegistration(ctx, fixture.admin, registration.ID)
	require.Error(t, err)

	// No account was created.
	_, err = fixture.users.GetByEmail(ctx, "rita@example.com")
	require.Error(t, err)
}
