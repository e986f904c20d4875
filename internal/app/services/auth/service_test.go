package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "automarket/internal/domain/auth"
	domainuser "automarket/internal/domain/user"
	"automarket/internal/infra/security"
	"automarket/internal/infra/storage/memory"
)

func newTestService() (*Service, *memory.UserRepository, *memory.SellerRequestRepository) {
	users := memory.NewUserRepository()
	requests := memory.NewSellerRequestRepository()
	return &Service{
		Users:          users,
		SellerRequests: requests,
		Sessions:       memory.NewSessionStore(),
		Passwords:      security.BcryptHasher{},
		Tokens:         security.RandomTokenGenerator{},
		SessionTTL:     time.Hour,
	}, users, requests
}

func TestRegisterIssuesSession(t *testing.T) {
	svc, _, _ := newTestService()

	result, err := svc.Register(context.Background(), RegisterParams{
		Email:    "Anna@Example.com",
		Name:     "Anna",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "anna@example.com", result.User.Email)
	assert.Equal(t, []domainuser.Role{domainuser.RoleBuyer}, result.User.Roles)

	resolved, err := svc.ResolveToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, resolved.User.ID)
}

func TestRegisterFilesSellerRequest(t *testing.T) {
	svc, _, requests := newTestService()

	result, err := svc.Register(context.Background(), RegisterParams{
		Email:       "dealer@example.com",
		Name:        "Dealer Kft",
		Password:    "correct horse",
		WantToSell:  true,
		CompanyName: "Dealer Kft",
		TaxNumber:   "12345678-2-42",
	})
	require.NoError(t, err)
	// Wanting to sell never grants the role directly.
	assert.False(t, result.User.HasRole(domainuser.RoleSeller))

	pending, err := requests.PendingByUser(context.Background(), result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domainuser.SellerRequestPending, pending.Status)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{Name: "Anna", Password: "correct horse"})
	assert.ErrorIs(t, err, domainuser.ErrEmailRequired)

	_, err = svc.Register(ctx, RegisterParams{Email: "a@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domainuser.ErrNameRequired)

	_, err = svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "Anna", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "Anna", Password: "correct horse"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterParams{Email: "A@example.com", Name: "Other", Password: "correct horse"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "Anna", Password: "correct horse"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, LoginParams{Email: "a@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Login(ctx, LoginParams{Email: "a@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginParams{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginBlockedUser(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "Anna", Password: "correct horse"})
	require.NoError(t, err)

	account, err := users.ByID(ctx, registered.User.ID)
	require.NoError(t, err)
	account.Block(time.Now())
	require.NoError(t, users.Save(ctx, account))

	_, err = svc.Login(ctx, LoginParams{Email: "a@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrUserBlocked)

	// Blocking also invalidates the session issued at registration.
	_, err = svc.ResolveToken(ctx, registered.Token)
	assert.ErrorIs(t, err, ErrUserBlocked)
	_, err = svc.ResolveToken(ctx, registered.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Name: "Anna", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, registered.Token))
	_, err = svc.ResolveToken(ctx, registered.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestResolveTokenRequiresToken(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.ResolveToken(context.Background(), "  ")
	assert.ErrorIs(t, err, domainauth.ErrTokenRequired)
}
