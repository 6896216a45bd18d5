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

	"github.com/google/uuid"
)

var ErrChannelNotFound = errors.New("channel not found")

// ChannelService assembles public channel profiles (user plus subscription
// aggregates) and the per-user watch history.
type ChannelService struct {
	log           *slog.Logger
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
	history       repository.WatchHistoryRepository
}

func NewChannelService(
	log *slog.Logger,
	users repository.UserRepository,
	subscriptions repository.SubscriptionRepository,
	history repository.WatchHistoryRepository,
) *ChannelService {
	return &ChannelService{
		log:           log,
		users:         users,
		subscriptions: subscriptions,
		history:       history,
	}
}

// Profile returns the channel owned by username. viewerID is uuid.Nil for
// unauthenticated viewers; IsSubscribed is then always false.
func (s *ChannelService) Profile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error) {
	const op = "channel_service.Profile"

	log := s.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)

	user, err := s.users.UserByIdentifier(ctx, strings.ToLower(username))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.ChannelProfile{}, fmt.Errorf("%s: %w", op, ErrChannelNotFound)
		}
		log.Error("failed to get channel user", sl.Err(err))

		return models.ChannelProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	subscribers, err := s.subscriptions.SubscriberCount(ctx, user.ID)
	if err != nil {
		log.Error("failed to count subscribers", sl.Err(err))

		return models.ChannelProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	subscribedTo, err := s.subscriptions.SubscribedToCount(ctx, user.ID)
	if err != nil {
		log.Error("failed to count subscriptions", sl.Err(err))

		return models.ChannelProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	isSubscribed := false
	if viewerID != uuid.Nil {
		isSubscribed, err = s.subscriptions.IsSubscribed(ctx, user.ID, viewerID)
		if err != nil {
			log.Error("failed to check subscription", sl.Err(err))

			return models.ChannelProfile{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	return models.ChannelProfile{
		User:              user.Sanitized(),
		SubscribersCount:  subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}, nil
}

func (s *ChannelService) RecordWatch(ctx context.Context, userID uuid.UUID, videoID string) error {
	const op = "channel_service.RecordWatch"

	entry := models.WatchHistoryEntry{
		VideoID:   videoID,
		WatchedAt: time.Now().UTC(),
	}

	if err := s.history.AddEntry(ctx, userID.String(), entry); err != nil {
		s.log.Error("failed to record watch entry", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *ChannelService) WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchHistoryEntry, error) {
	const op = "channel_service.WatchHistory"

	entries, err := s.history.Entries(ctx, userID.String())
	if err != nil {
		s.log.Error("failed to load watch history", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return entries, nil
}
