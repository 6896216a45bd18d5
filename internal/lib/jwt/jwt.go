package jwt

import (
	"errors"
	"fmt"
	"time"

	"vidstream/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenClaims = errors.New("invalid token claims")
)

// NewToken signs a claim set for the given user id. Access and refresh
// tokens differ only in the secret and duration the caller passes in.
func NewToken(userID string, secret []byte, duration time.Duration) (string, error) {
	now := time.Now()

	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["uid"] = userID
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(duration).Unix()
	// iat has second resolution; jti keeps two tokens minted back to back
	// from ever being equal, which refresh rotation depends on.
	claims["jti"] = uuid.NewString()

	return token.SignedString(secret)
}

// ParseToken verifies signature and expiry and returns the decoded claims.
// Any parse or validation failure comes back as ErrInvalidToken.
func ParseToken(tokenString string, secret []byte) (models.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return models.TokenClaims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.TokenClaims{}, ErrInvalidTokenClaims
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return models.TokenClaims{}, ErrInvalidTokenClaims
	}

	out := models.TokenClaims{UserID: uid}
	if iat, ok := claims["iat"].(float64); ok {
		out.IssuedAt = int64(iat)
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = int64(exp)
	}

	return out, nil
}
