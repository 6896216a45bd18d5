package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"vidstream/internal/config"
	"vidstream/internal/domain/models"
	"vidstream/internal/storage"
	"vidstream/internal/transport/http/dto"

	tokensvc "vidstream/internal/services/token_service"

	"github.com/brianvoe/gofakeit"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	testCtx      = context.Background()
	testTokenCfg = config.TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    7 * 24 * time.Hour,
	}
)

// fakeUserRepo is a map-backed stand-in for the user store. It honors the
// single-slot refresh token contract, which the rotation scenarios below
// depend on.
type fakeUserRepo struct {
	mu            sync.Mutex
	users         map[uuid.UUID]models.User
	refreshWrites int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]models.User)}
}

func (f *fakeUserRepo) SaveUser(ctx context.Context, user models.User) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return uuid.Nil, storage.ErrUserExists
		}
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	f.users[user.ID] = user

	return user.ID, nil
}

func (f *fakeUserRepo) UserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}

	return models.User{}, storage.ErrUserNotFound
}

func (f *fakeUserRepo) UserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, nil
}

func (f *fakeUserRepo) UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	return f.update(userID, func(u *models.User) {
		u.RefreshToken = token
		f.refreshWrites++
	})
}

func (f *fakeUserRepo) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	return f.update(userID, func(u *models.User) { u.RefreshToken = "" })
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return f.update(userID, func(u *models.User) { u.LastLogin = at })
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash []byte) error {
	return f.update(userID, func(u *models.User) { u.Password = passwordHash })
}

func (f *fakeUserRepo) UpdateAccountDetails(ctx context.Context, userID uuid.UUID, fullName, email string) error {
	return f.update(userID, func(u *models.User) {
		u.FullName = fullName
		u.Email = email
	})
}

func (f *fakeUserRepo) UpdateAvatarURL(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	return f.update(userID, func(u *models.User) { u.AvatarURL = avatarURL })
}

func (f *fakeUserRepo) UpdateCoverImageURL(ctx context.Context, userID uuid.UUID, coverImageURL string) error {
	return f.update(userID, func(u *models.User) { u.CoverImageURL = coverImageURL })
}

func (f *fakeUserRepo) update(userID uuid.UUID, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}

	fn(&u)
	f.users[userID] = u

	return nil
}

func (f *fakeUserRepo) storedRefreshToken(userID uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.users[userID].RefreshToken
}

func newTestService(t *testing.T) (*UserService, *fakeUserRepo, *tokensvc.TokenService) {
	t.Helper()

	repo := newFakeUserRepo()
	tokens := tokensvc.NewTokenService(testTokenCfg)
	service := NewUserService(slog.Default(), repo, tokens)

	return service, repo, tokens
}

func seedUser(t *testing.T, repo *fakeUserRepo, username, password string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	id, err := repo.SaveUser(testCtx, models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: gofakeit.Name(),
		Password: hash,
	})
	require.NoError(t, err)

	user, err := repo.UserByID(testCtx, id)
	require.NoError(t, err)

	return user
}

func TestLogin_HappyPath(t *testing.T) {
	service, repo, tokens := newTestService(t)
	seeded := seedUser(t, repo, "alice", "correct-horse")

	user, pair, err := service.Login(testCtx, "alice", "correct-horse")
	require.NoError(t, err)
	require.NotNil(t, pair)

	// Returned access token must pass the gate's verification immediately.
	claims, err := tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID.String(), claims.UserID)

	// The refresh slot now holds exactly the issued token.
	assert.Equal(t, pair.RefreshToken, repo.storedRefreshToken(seeded.ID))

	// Sanitized projection only.
	assert.Nil(t, user.Password)
	assert.Empty(t, user.RefreshToken)

	// Login stamps the last-login bookkeeping.
	stored, err := repo.UserByID(testCtx, seeded.ID)
	require.NoError(t, err)
	assert.False(t, stored.LastLogin.IsZero())
}

func TestLogin_ByEmail(t *testing.T) {
	service, repo, _ := newTestService(t)
	seedUser(t, repo, "alice", "correct-horse")

	_, pair, err := service.Login(testCtx, "Alice@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	service, repo, _ := newTestService(t)
	seeded := seedUser(t, repo, "alice", "correct-horse")

	_, pair, err := service.Login(testCtx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, pair)

	// No token issued, no store mutation.
	assert.Zero(t, repo.refreshWrites)
	assert.Empty(t, repo.storedRefreshToken(seeded.ID))
}

func TestLogin_UnknownUser(t *testing.T) {
	service, _, _ := newTestService(t)

	// Same opaque failure as a wrong password.
	_, _, err := service.Login(testCtx, "nobody", "whatever-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_RotationInvariant(t *testing.T) {
	service, repo, _ := newTestService(t)
	seedUser(t, repo, "alice", "correct-horse")

	_, first, err := service.Login(testCtx, "alice", "correct-horse")
	require.NoError(t, err)

	// R1 works exactly once.
	second, err := service.Refresh(testCtx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Replaying R1 after rotation must fail.
	_, err = service.Refresh(testCtx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// R2 is the live token.
	third, err := service.Refresh(testCtx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, second.RefreshToken, third.RefreshToken)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	service, repo, tokens := newTestService(t)
	seeded := seedUser(t, repo, "alice", "correct-horse")

	_, pair, err := service.Login(testCtx, "alice", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, service.Logout(testCtx, seeded.ID))

	_, err = service.Refresh(testCtx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// The already issued access token stays valid until it expires on its
	// own; logout only kills the refresh path.
	_, err = tokens.VerifyAccess(pair.AccessToken)
	assert.NoError(t, err)
}

func TestRefresh_GarbageToken(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Refresh(testCtx, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh_UserGone(t *testing.T) {
	service, repo, _ := newTestService(t)
	seeded := seedUser(t, repo, "alice", "correct-horse")

	_, pair, err := service.Login(testCtx, "alice", "correct-horse")
	require.NoError(t, err)

	repo.mu.Lock()
	delete(repo.users, seeded.ID)
	repo.mu.Unlock()

	_, err = service.Refresh(testCtx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	service, repo, _ := newTestService(t)
	seeded := seedUser(t, repo, "alice", "correct-horse")

	t.Run("wrong old password", func(t *testing.T) {
		err := service.ChangePassword(testCtx, seeded.ID, "wrong-horse", "new-password-1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("success switches credentials", func(t *testing.T) {
		require.NoError(t, service.ChangePassword(testCtx, seeded.ID, "correct-horse", "new-password-1"))

		_, _, err := service.Login(testCtx, "alice", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, _, err = service.Login(testCtx, "alice", "new-password-1")
		assert.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := service.ChangePassword(testCtx, uuid.New(), "x", "new-password-1")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestChangePassword_KeepsRefreshSlot(t *testing.T) {
	service, repo, _ := newTestService(t)
	seedUser(t, repo, "alice", "correct-horse")

	_, pair, err := service.Login(testCtx, "alice", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, service.ChangePassword(testCtx, repoUserID(t, repo, "alice"), "correct-horse", "new-password-1"))

	// Existing session survives a password change.
	_, err = service.Refresh(testCtx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestRegisterNewUser(t *testing.T) {
	service, _, _ := newTestService(t)

	input := dto.UserRegisterInput{
		FullName: gofakeit.Name(),
		Email:    "Bob@Example.com",
		Username: "BobTheBuilder",
		Password: "strong-password",
	}

	user, err := service.RegisterNewUser(testCtx, input)
	require.NoError(t, err)

	// Identifiers are normalized to lowercase, credentials stripped.
	assert.Equal(t, "bobthebuilder", user.Username)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.Nil(t, user.Password)

	_, err = service.RegisterNewUser(testCtx, input)
	assert.ErrorIs(t, err, ErrUserExist)
}

func repoUserID(t *testing.T, repo *fakeUserRepo, username string) uuid.UUID {
	t.Helper()

	u, err := repo.UserByIdentifier(testCtx, strings.ToLower(username))
	require.NoError(t, err)

	return u.ID
}
