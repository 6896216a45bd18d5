package services

import (
	"errors"
	"fmt"

	"vidstream/internal/config"
	"vidstream/internal/domain/models"
	"vidstream/internal/lib/jwt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// TokenService mints and verifies both token classes. Access and refresh
// tokens are signed with distinct secrets and lifetimes from TokenConfig.
// Issuance has no side effects; persisting the refresh token is the session
// manager's job.
type TokenService struct {
	cfg config.TokenConfig
}

func NewTokenService(cfg config.TokenConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

func (s *TokenService) GenerateTokens(userID string) (*models.TokenPair, error) {
	const op = "token_service.GenerateTokens"

	accessToken, err := jwt.NewToken(userID, []byte(s.cfg.AccessSecret), s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := jwt.NewToken(userID, []byte(s.cfg.RefreshSecret), s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// VerifyAccess checks signature and expiry against the access secret.
// Pure computation, no storage round trip.
func (s *TokenService) VerifyAccess(token string) (models.TokenClaims, error) {
	claims, err := jwt.ParseToken(token, []byte(s.cfg.AccessSecret))
	if err != nil {
		return models.TokenClaims{}, ErrInvalidToken
	}

	return claims, nil
}

// VerifyRefresh checks signature and expiry against the refresh secret.
// Whether the token is still the live one for its user is decided by the
// session manager against the stored slot.
func (s *TokenService) VerifyRefresh(token string) (models.TokenClaims, error) {
	claims, err := jwt.ParseToken(token, []byte(s.cfg.RefreshSecret))
	if err != nil {
		return models.TokenClaims{}, ErrInvalidToken
	}

	return claims, nil
}
