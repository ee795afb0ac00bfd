package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-hub/internal/auth"
	"github.com/spec-kit/automation-hub/internal/domain"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// fakeAttemptStore is an in-memory stand-in for the redis commands the
// login throttle issues.
type fakeAttemptStore struct {
	counts map[string]int64
}

func (f *fakeAttemptStore) Get(_ context.Context, key string) *redis.StringCmd {
	count, ok := f.counts[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.FormatInt(count, 10), nil)
}

func (f *fakeAttemptStore) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeAttemptStore) Expire(_ context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (f *fakeAttemptStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.counts, key)
	}
	return redis.NewIntResult(1, nil)
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *fakeRegistrationRepo) {
	t.Helper()
	users := newFakeUserRepo()
	registrations := newFakeRegistrationRepo()
	service := NewAuthService(AuthDependencies{
		Users:         users,
		Registrations: registrations,
		Tokens:        auth.NewTokenManager("test-secret", 60),
		Throttle:      auth.NewLoginThrottle(nil, zap.NewNop(), 5, time.Minute),
		BcryptCost:    4,
	})
	return service, users, registrations
}

func seedAccount(t *testing.T, users *fakeUserRepo, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	user := &domain.User{Name: "Seeded User", Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestLoginSuccess(t *testing.T) {
	service, users, _ := newAuthFixture(t)
	seedAccount(t, users, "dana@example.com", "Str0ngPass", domain.RoleDeveloper)

	user, token, expiresAt, err := service.Login(context.Background(), "10.0.0.1", "Dana@Example.COM", "Str0ngPass")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestLoginWrongPassword(t *testing.T) {
	service, users, _ := newAuthFixture(t)
	seedAccount(t, users, "dana@example.com", "Str0ngPass", domain.RoleDeveloper)

	_, _, _, err := service.Login(context.Background(), "10.0.0.1", "dana@example.com", "wrong")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
	assert.Equal(t, "Incorrect email or password", domainErr.Message)
}

func TestLoginUnknownAccountSameError(t *testing.T) {
	service, _, _ := newAuthFixture(t)

	_, _, _, err := service.Login(context.Background(), "10.0.0.1", "nobody@example.com", "whatever")
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", apperrors.ToDomainError(err).Message)
}

func TestLoginNormalizesLegacyRole(t *testing.T) {
	service, users, _ := newAuthFixture(t)
	hash, err := auth.HashPassword("Str0ngPass", 4)
	require.NoError(t, err)
	legacy := &domain.User{Name: "Legacy", Email: "legacy@example.com", PasswordHash: hash, Role: "ARCHITECT"}
	require.NoError(t, users.Create(context.Background(), legacy))

	user, _, _, err := service.Login(context.Background(), "10.0.0.1", "legacy@example.com", "Str0ngPass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, user.Role)
}

func TestLoginThrottledAfterRepeatedFailures(t *testing.T) {
	users := newFakeUserRepo()
	service := NewAuthService(AuthDependencies{
		Users:         users,
		Registrations: newFakeRegistrationRepo(),
		Tokens:        auth.NewTokenManager("test-secret", 60),
		Throttle: auth.NewLoginThrottleWithStore(
			&fakeAttemptStore{counts: make(map[string]int64)}, zap.NewNop(), 3, time.Minute),
		BcryptCost: 4,
	})
	seedAccount(t, users, "dana@example.com", "Str0ngPass", domain.RoleDeveloper)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, _, err := service.Login(ctx, "10.0.0.9", "dana@example.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
	}

	// Limit reached: even correct credentials are rejected from this IP.
	_, _, _, err := service.Login(ctx, "10.0.0.9", "dana@example.com", "Str0ngPass")
	require.Error(t, err)
	assert.Equal(t, "TOO_MANY_REQUESTS", apperrors.ToDomainError(err).Code)

	// Other IPs are unaffected, and their success resets the counter there.
	_, _, _, err = service.Login(ctx, "10.0.0.10", "dana@example.com", "wrong")
	require.Error(t, err)
	_, token, _, err := service.Login(ctx, "10.0.0.10", "dana@example.com", "Str0ngPass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestRegisterFilesPendingRequest(t *testing.T) {
	service, _, registrations := newAuthFixture(t)

	registration, err := service.Register(context.Background(), RegistrationInput{
		Name:         "Rita Requester",
		Email:        "Rita@Example.com",
		Password:     "Str0ngPass",
		CompanyTitle: "Architect",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RegistrationStatusPending, registration.Status)
	assert.Equal(t, "rita@example.com", registration.Email)
	assert.NotEqual(t, "Str0ngPass", registration.PasswordHash)
	require.NotNil(t, registration.CompanyTitle)
	assert.Equal(t, "Architect", *registration.CompanyTitle)

	stored, err := registrations.FindPendingByEmail(context.Background(), "rita@example.com")
	require.NoError(t, err)
	assert.Equal(t, registration.ID, stored.ID)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	service, _, _ := newAuthFixture(t)

	cases := []struct {
		password string
		message  string
	}{
		{"Sh0rt", "Password must be at least 8 characters long"},
		{"alllower1", "Password must include at least one uppercase letter"},
		{"ALLUPPER1", "Password must include at least one lowercase letter"},
		{"NoDigitsHere", "Password must include at least one digit"},
	}
	for _, tc := range cases {
		_, err := service.Register(context.Background(), RegistrationInput{
			Name:     "Rita",
			Email:    "rita@example.com",
			Password: tc.password,
		})
		require.Error(t, err, tc.password)
		assert.Equal(t, tc.message, apperrors.ToDomainError(err).Message)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	service, users, _ := newAuthFixture(t)
	seedAccount(t, users, "taken@example.com", "Str0ngPass", domain.RoleEmployee)

	_, err := service.Register(context.Background(), RegistrationInput{
		Name: "Dup", Email: "taken@example.com", Password: "Str0ngPass",
	})
	require.Error(t, err)
	assert.Equal(t, "Email already registered", apperrors.ToDomainError(err).Message)

	_, err = service.Register(context.Background(), RegistrationInput{
		Name: "Pending", Email: "pending@example.com", Password: "Str0ngPass",
	})
	require.NoError(t, err)

	_, err = service.Register(context.Background(), RegistrationInput{
		Name: "Pending Again", Email: "pending@example.com", Password: "Str0ngPass",
	})
	require.Error(t, err)
	assert.Equal(t, "A registration request for this email is already pending", apperrors.ToDomainError(err).Message)
}
