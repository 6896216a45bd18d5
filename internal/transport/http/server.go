package http

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"vidstream/internal/domain/models"
	"vidstream/internal/lib/logger/sl"
	appmw "vidstream/internal/middleware"
	"vidstream/internal/storage"
	channelsvc "vidstream/internal/services/channel_service"
	usersvc "vidstream/internal/services/user_service"
	"vidstream/internal/transport/http/dto"
	"vidstream/internal/transport/http/dto/request"
	"vidstream/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type UserService interface {
	Login(ctx context.Context, identifier, password string) (models.User, *models.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	RegisterNewUser(ctx context.Context, input dto.UserRegisterInput) (models.User, error)
	UserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateAccountDetails(ctx context.Context, userID uuid.UUID, fullName, email string) (models.User, error)
}

type MediaService interface {
	UploadImage(ctx context.Context, file *multipart.FileHeader, subDir string) (string, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error)
	UpdateCoverImage(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error)
}

type ChannelService interface {
	Profile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error)
	RecordWatch(ctx context.Context, userID uuid.UUID, videoID string) error
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchHistoryEntry, error)
}

type Routers struct {
	log            *slog.Logger
	UserService    UserService
	MediaService   MediaService
	ChannelService ChannelService
}

func NewRouter(log *slog.Logger, userService UserService, mediaService MediaService, channelService ChannelService) *Routers {
	return &Routers{
		log:            log,
		UserService:    userService,
		MediaService:   mediaService,
		ChannelService: channelService,
	}
}

func (r *Routers) Register(c echo.Context) error {
	const op = "http.routers.Register"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.UserRegisterInput

	if err := c.Bind(&req); err != nil {
		log.Error("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRegisterRequest)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_register_request", err.Error()))
	}

	avatar, err := c.FormFile("avatar")
	if err != nil {
		log.Warn("avatar missing in request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_register_request", "Avatar is required"))
	}

	avatarURL, err := r.MediaService.UploadImage(c.Request().Context(), avatar, "avatars")
	if err != nil {
		if isFileRejection(err) {
			log.Warn("avatar rejected", sl.Err(err))
			return c.JSON(http.StatusBadRequest, response.ErrInvalidFile)
		}

		log.Error("avatar upload failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}
	req.AvatarURL = avatarURL

	// Cover image is optional.
	if cover, err := c.FormFile("cover_image"); err == nil {
		coverURL, err := r.MediaService.UploadImage(c.Request().Context(), cover, "covers")
		if err != nil {
			if isFileRejection(err) {
				log.Warn("cover rejected", sl.Err(err))
				return c.JSON(http.StatusBadRequest, response.ErrInvalidFile)
			}

			log.Error("cover upload failed", sl.Err(err))
			return c.JSON(http.StatusInternalServerError, response.ErrInternal)
		}
		req.CoverImageURL = coverURL
	}

	user, err := r.UserService.RegisterNewUser(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usersvc.ErrUserExist) {
			log.Warn("user already exists", slog.String("username", req.Username))
			return c.JSON(http.StatusConflict, response.ErrUserAlreadyExists)
		}

		log.Error("registration failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	log.Info("user registered successfully", slog.String("user_id", user.ID.String()))

	return c.JSON(http.StatusCreated, response.SuccessResponse(user))
}

func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid format request", slog.String("identifier", req.Identifier))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	user, pair, err := r.UserService.Login(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, usersvc.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
		}

		log.Error("login failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	setTokenCookies(c, pair)

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]interface{}{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}))
}

func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	log := r.log.With(
		slog.String("op", op),
	)

	user, ok := appmw.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	if err := r.UserService.Logout(c.Request().Context(), user.ID); err != nil {
		log.Error("logout failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	clearTokenCookies(c)

	return c.JSON(http.StatusOK, response.Response{
		Status:  "success",
		Message: "User logged out successfully",
	})
}

func (r *Routers) Refresh(c echo.Context) error {
	const op = "http.routers.Refresh"

	log := r.log.With(
		slog.String("op", op),
	)

	token := refreshTokenFromRequest(c)
	if token == "" {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	pair, err := r.UserService.Refresh(c.Request().Context(), token)
	if err != nil {
		if errors.Is(err, usersvc.ErrInvalidCredentials) {
			log.Info("refresh rejected", sl.Err(err))
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
		}

		log.Error("refresh failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	setTokenCookies(c, pair)

	return c.JSON(http.StatusOK, response.SuccessResponse(pair))
}

func (r *Routers) ChangePassword(c echo.Context) error {
	const op = "http.routers.ChangePassword"

	log := r.log.With(
		slog.String("op", op),
	)

	user, ok := appmw.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	var req request.ChangePasswordRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	err := r.UserService.ChangePassword(c.Request().Context(), user.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, usersvc.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
		case errors.Is(err, usersvc.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, response.ErrUserNotFound)
		}

		log.Error("change password failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.Response{
		Status:  "success",
		Message: "Password changed successfully",
	})
}

func (r *Routers) CurrentUser(c echo.Context) error {
	user, ok := appmw.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(user))
}

func (r *Routers) UpdateAccountDetails(c echo.Context) error {
	const op = "http.routers.UpdateAccountDetails"

	log := r.log.With(
		slog.String("op", op),
	)

	user, ok := appmw.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	var req request.UpdateAccountRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	updated, err := r.UserService.UpdateAccountDetails(c.Request().Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, usersvc.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrUserNotFound)
		}

		log.Error("account update failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(updated))
}

func (r *Routers) UpdateAvatar(c echo.Context) error {
	return r.updateImage(c, "http.routers.UpdateAvatar", "avatar", r.MediaService.UpdateAvatar)
}

func (r *Routers) UpdateCoverImage(c echo.Context) error {
	return r.updateImage(c, "http.routers.UpdateCoverImage", "cover_image", r.MediaService.UpdateCoverImage)
}

func (r *Routers) updateImage(
	c echo.Context,
	op, field string,
	update func(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error),
) error {
	log := r.log.With(
		slog.String("op", op),
	)

	user, ok := appmw.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	file, err := c.FormFile(field)
	if err != nil {
		log.Warn("file missing in request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "File is required"))
	}

	url, err := update(c.Request().Context(), user.ID, file)
	if err != nil {
		if isFileRejection(err) {
			log.Warn("file rejected", sl.Err(err))
			return c.JSON(http.StatusBadRequest, response.ErrInvalidFile)
		}

		log.Error("image update failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{"url": url}))
}

// isFileRejection separates client-side upload faults from storage failures.
func isFileRejection(err error) bool {
	return errors.Is(err, storage.ErrInvalidFileType) || errors.Is(err, storage.ErrFileTooLarge)
}

func (r *Routers) ChannelProfile(c echo.Context) error {
	const op = "http.routers.ChannelProfile"

	log := r.log.With(
		slog.String("op", op),
	)

	username := c.Param("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	viewerID := uuid.Nil
	if viewer, ok := appmw.UserFromContext(c); ok {
		viewerID = viewer.ID
	}

	profile, err := r.ChannelService.Profile(c.Request().Context(), username, viewerID)
	if err != nil {
		if errors.Is(err, channelsvc.ErrChannelNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrUserNotFound)
		}

		log.Error("channel profile failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(profile))
}

func (r *Routers) RecordWatch(c echo.Context) error {
	const op = "http.routers.RecordWatch"

	log := r.log.With(
		slog.String("op", op),
	)

	user, ok := appmw.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	var req request.WatchHistoryRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	if err := r.ChannelService.RecordWatch(c.Request().Context(), user.ID, req.VideoID); err != nil {
		log.Error("record watch failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success"})
}

func (r *Routers) WatchHistory(c echo.Context) error {
	const op = "http.routers.WatchHistory"

	log := r.log.With(
		slog.String("op", op),
	)

	user, ok := appmw.UserFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
	}

	entries, err := r.ChannelService.WatchHistory(c.Request().Context(), user.ID)
	if err != nil {
		log.Error("watch history failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	}))
}

// Session cookies mirror the response body tokens. httpOnly keeps them away
// from client-side scripting, secure keeps them off plaintext transport.
func setTokenCookies(c echo.Context, pair *models.TokenPair) {
	c.SetCookie(&http.Cookie{
		Name:     appmw.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
	c.SetCookie(&http.Cookie{
		Name:     appmw.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
}

func clearTokenCookies(c echo.Context) {
	for _, name := range []string{appmw.AccessTokenCookie, appmw.RefreshTokenCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
		})
	}
}

func refreshTokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(appmw.RefreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req request.RefreshRequest
	if err := c.Bind(&req); err == nil {
		return req.RefreshToken
	}

	return ""
}
