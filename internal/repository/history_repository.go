package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"vidstream/internal/domain/models"
	redisapp "vidstream/internal/storage/redis"
)

// maxHistoryEntries caps the per-user watch history list.
const maxHistoryEntries = 100

type RedisHistoryRepo struct {
	Client *redisapp.Client
}

func NewRedisHistoryRepo(client *redisapp.Client) *RedisHistoryRepo {
	return &RedisHistoryRepo{Client: client}
}

func (r *RedisHistoryRepo) AddEntry(ctx context.Context, userID string, entry models.WatchHistoryEntry) error {
	const op = "repository.history_repository.AddEntry"

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := historyKey(userID)

	if err := r.Client.LPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.Client.LTrim(ctx, key, 0, maxHistoryEntries-1).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisHistoryRepo) Entries(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	const op = "repository.history_repository.Entries"

	raw, err := r.Client.LRange(ctx, historyKey(userID), 0, maxHistoryEntries-1).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries := make([]models.WatchHistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.WatchHistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func historyKey(userID string) string {
	return "history:" + userID
}
