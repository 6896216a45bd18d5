package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vidstream/internal/domain/models"
	"vidstream/internal/lib/logger/sl"
	"vidstream/internal/repository"
	"vidstream/internal/storage"
	"vidstream/internal/transport/http/dto"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExist          = errors.New("user already exist")
	ErrUserNotFound       = errors.New("user not found")
)

type TokenProvider interface {
	GenerateTokens(userID string) (*models.TokenPair, error)
	VerifyRefresh(token string) (models.TokenClaims, error)
}

// UserService is the session manager: it orchestrates credential
// verification, token issuance and the stored refresh-token slot for login,
// logout, refresh and password change, plus the account CRUD around them.
type UserService struct {
	log    *slog.Logger
	repo   repository.UserRepository
	tokens TokenProvider
}

func NewUserService(log *slog.Logger, repo repository.UserRepository, tokens TokenProvider) *UserService {
	return &UserService{
		log:    log,
		repo:   repo,
		tokens: tokens,
	}
}

// Login authenticates by username or email. An unknown identifier and a
// wrong password both come back as ErrInvalidCredentials: the caller must
// not learn which part failed. The distinction is only logged.
func (s *UserService) Login(ctx context.Context, identifier, password string) (models.User, *models.TokenPair, error) {
	const op = "user_service.Login"

	log := s.log.With(
		slog.String("op", op),
		slog.String("identifier", identifier),
	)

	log.Info("attempting to login user")

	user, err := s.repo.UserByIdentifier(ctx, strings.ToLower(identifier))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))

			return models.User{}, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))

		return models.User{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))

		return models.User{}, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.tokens.GenerateTokens(user.ID.String())
	if err != nil {
		log.Error("failed to generate tokens", sl.Err(err))

		return models.User{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		log.Error("failed to store refresh token", sl.Err(err))

		return models.User{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	// Bookkeeping only; a failed timestamp write must not fail the login.
	if err := s.repo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		log.Warn("failed to record last login", sl.Err(err))
	}

	log.Info("user logged in successfully")

	return user.Sanitized(), pair, nil
}

// Logout clears the refresh-token slot. Any outstanding refresh token dies
// immediately; already issued access tokens live until their own expiry.
func (s *UserService) Logout(ctx context.Context, userID uuid.UUID) error {
	const op = "user_service.Logout"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID.String()),
	)

	if err := s.repo.ClearRefreshToken(ctx, userID); err != nil {
		log.Error("failed to clear refresh token", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged out")

	return nil
}

// Refresh rotates the token pair. The presented token must verify against
// the refresh secret and match the stored slot exactly; the equality check
// is what makes logout and rotation globally effective.
func (s *UserService) Refresh(ctx context.Context, presented string) (*models.TokenPair, error) {
	const op = "user_service.Refresh"

	log := s.log.With(slog.String("op", op))

	claims, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		log.Info("refresh token rejected", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		log.Warn("malformed user id in refresh claims", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user from refresh claims not found", sl.Err(err))

			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		log.Info("refresh token superseded or revoked, re-login required")

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.tokens.GenerateTokens(user.ID.String())
	if err != nil {
		log.Error("failed to generate tokens", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		log.Error("failed to rotate refresh token", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("tokens refreshed")

	return pair, nil
}

// ChangePassword re-verifies the old password before persisting a new hash.
// The refresh-token slot is left untouched.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	const op = "user_service.ChangePassword"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID.String()),
	)

	user, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		log.Error("failed to get user", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(oldPassword)); err != nil {
		log.Info("old password mismatch", sl.Err(err))

		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, passHash); err != nil {
		log.Error("failed to update password", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password changed")

	return nil
}

func (s *UserService) RegisterNewUser(ctx context.Context, input dto.UserRegisterInput) (models.User, error) {
	const op = "user_service.RegisterNewUser"

	log := s.log.With(
		slog.String("op", op),
		slog.String("username", input.Username),
	)

	log.Info("register user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user := input.ToDomain(passHash)

	id, err := s.repo.SaveUser(ctx, *user)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exist", sl.Err(err))

			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserExist)
		}
		log.Error("failed to save user", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repo.UserByID(ctx, id)
	if err != nil {
		log.Error("failed to load created user", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.String("user_id", id.String()))

	return created.Sanitized(), nil
}

func (s *UserService) UserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "user_service.UserByID"

	user, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user.Sanitized(), nil
}

func (s *UserService) UpdateAccountDetails(ctx context.Context, userID uuid.UUID, fullName, email string) (models.User, error) {
	const op = "user_service.UpdateAccountDetails"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID.String()),
	)

	if err := s.repo.UpdateAccountDetails(ctx, userID, fullName, strings.ToLower(email)); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		log.Error("failed to update account", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.UserByID(ctx, userID)
}
