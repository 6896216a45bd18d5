package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vidstream/internal/domain/models"
	"vidstream/internal/lib/logger/sl"
	"vidstream/internal/metrics"
	"vidstream/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	gocache "github.com/patrickmn/go-cache"
)

// ContextUserKey is where the gate stores the authenticated user.
const ContextUserKey = "authUser"

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

type AccessVerifier interface {
	VerifyAccess(token string) (models.TokenClaims, error)
}

type UserProvider interface {
	UserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// AuthGate guards protected routes: it verifies the access token's
// signature and expiry (pure computation) and then confirms the user still
// exists (store round trip). The two checks stay separate on purpose.
// Existence lookups are cached briefly; token validity never is.
type AuthGate struct {
	log    *slog.Logger
	tokens AccessVerifier
	users  UserProvider
	cache  *gocache.Cache
}

func NewAuthGate(log *slog.Logger, tokens AccessVerifier, users UserProvider) *AuthGate {
	return &AuthGate{
		log:    log,
		tokens: tokens,
		users:  users,
		cache:  gocache.New(30*time.Second, time.Minute),
	}
}

// Require rejects the request with 401 unless a valid access token resolves
// to an existing user. Side-effect free and safe to run more than once for
// the same request.
func (g *AuthGate) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractAccessToken(c)
		if token == "" {
			metrics.AuthFailuresTotal.WithLabelValues("missing_token").Inc()
			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		}

		user, err := g.resolve(c.Request().Context(), token)
		if err != nil {
			metrics.AuthFailuresTotal.WithLabelValues("rejected").Inc()
			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		}

		c.Set(ContextUserKey, user)

		return next(c)
	}
}

// Optional resolves the user when a valid token is present but never
// rejects. Used by public routes that personalize when authenticated.
func (g *AuthGate) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := extractAccessToken(c); token != "" {
			if user, err := g.resolve(c.Request().Context(), token); err == nil {
				c.Set(ContextUserKey, user)
			}
		}

		return next(c)
	}
}

var errUnknownUser = errors.New("unknown user")

func (g *AuthGate) resolve(ctx context.Context, token string) (models.User, error) {
	claims, err := g.tokens.VerifyAccess(token)
	if err != nil {
		return models.User{}, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return models.User{}, err
	}

	if cached, ok := g.cache.Get(claims.UserID); ok {
		return cached.(models.User), nil
	}

	user, err := g.users.UserByID(ctx, userID)
	if err != nil {
		g.log.Info("token gate rejected user lookup", sl.Err(err))

		return models.User{}, errUnknownUser
	}

	user = user.Sanitized()
	g.cache.SetDefault(claims.UserID, user)

	return user, nil
}

// UserFromContext returns the user the gate resolved for this request.
func UserFromContext(c echo.Context) (models.User, bool) {
	user, ok := c.Get(ContextUserKey).(models.User)
	return user, ok
}

func extractAccessToken(c echo.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	return ""
}
