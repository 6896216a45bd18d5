package repository

import (
	"context"
	"time"

	"vidstream/internal/domain/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (uuid.UUID, error)
	UserByIdentifier(ctx context.Context, identifier string) (models.User, error)
	UserByID(ctx context.Context, userID uuid.UUID) (models.User, error)

	// Single refresh-token slot per user, last writer wins. The stored value
	// is the only refresh token honored for that user.
	UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token string) error
	ClearRefreshToken(ctx context.Context, userID uuid.UUID) error

	UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash []byte) error
	UpdateAccountDetails(ctx context.Context, userID uuid.UUID, fullName, email string) error
	UpdateAvatarURL(ctx context.Context, userID uuid.UUID, avatarURL string) error
	UpdateCoverImageURL(ctx context.Context, userID uuid.UUID, coverImageURL string) error
}

type SubscriptionRepository interface {
	SubscriberCount(ctx context.Context, channelID uuid.UUID) (int, error)
	SubscribedToCount(ctx context.Context, subscriberID uuid.UUID) (int, error)
	IsSubscribed(ctx context.Context, channelID, subscriberID uuid.UUID) (bool, error)
}

type WatchHistoryRepository interface {
	AddEntry(ctx context.Context, userID string, entry models.WatchHistoryEntry) error
	Entries(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}
