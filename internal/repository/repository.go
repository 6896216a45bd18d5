package repository

import (
	"github.com/jackc/pgx/v4/pgxpool"

	redisapp "vidstream/internal/storage/redis"
)

type Repository struct {
	Users         UserRepository
	Subscriptions SubscriptionRepository
	History       WatchHistoryRepository
}

func NewRepository(db *pgxpool.Pool, redisClient *redisapp.Client) *Repository {
	return &Repository{
		Users:         NewUserRepository(db),
		Subscriptions: NewSubscriptionRepository(db),
		History:       NewRedisHistoryRepo(redisClient),
	}
}
