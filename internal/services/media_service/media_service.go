package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"strings"

	"vidstream/internal/lib/logger/sl"
	"vidstream/internal/repository"
	"vidstream/internal/storage"
	filestorage "vidstream/internal/storage/filestorage"

	"github.com/google/uuid"
)

// MediaService proxies avatar and cover uploads to the binary-object store
// and persists the resulting public URL on the user record.
type MediaService struct {
	log     *slog.Logger
	repo    repository.UserRepository
	storage filestorage.FileStorage
}

func NewMediaService(log *slog.Logger, repo repository.UserRepository, storage filestorage.FileStorage) *MediaService {
	return &MediaService{
		log:     log,
		repo:    repo,
		storage: storage,
	}
}

// UploadImage stores a file under the given subdirectory and returns its
// public URL without touching any user record. Used during registration,
// before the user row exists.
func (s *MediaService) UploadImage(ctx context.Context, file *multipart.FileHeader, subDir string) (string, error) {
	const op = "media_service.UploadImage"

	if !isImage(file.Filename) {
		return "", fmt.Errorf("%s: %q: %w", op, path.Ext(file.Filename), storage.ErrInvalidFileType)
	}

	relPath, size, err := s.storage.Save(ctx, file, subDir)
	if err != nil {
		s.log.Error("failed to save file", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("file uploaded",
		slog.String("path", relPath),
		slog.Int64("size", size),
	)

	return s.storage.PublicURL(relPath), nil
}

func (s *MediaService) UpdateAvatar(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error) {
	const op = "media_service.UpdateAvatar"

	url, err := s.UploadImage(ctx, file, "avatars")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

func (s *MediaService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error) {
	const op = "media_service.UpdateCoverImage"

	url, err := s.UploadImage(ctx, file, "covers")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpdateCoverImageURL(ctx, userID, url); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return url, nil
}

func isImage(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
