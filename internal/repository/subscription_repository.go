package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

const subscriptionTable = "subscriptions"

// SubscriptionRepo answers the aggregation queries behind a channel profile:
// how many subscribe to this channel, how many channels this user follows,
// and whether the viewer is among the subscribers.
type SubscriptionRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *SubscriptionRepo) SubscriberCount(ctx context.Context, channelID uuid.UUID) (int, error) {
	const op = "repository.subscription_repository.SubscriberCount"

	return r.count(ctx, op, sq.Eq{"channel_id": channelID})
}

func (r *SubscriptionRepo) SubscribedToCount(ctx context.Context, subscriberID uuid.UUID) (int, error) {
	const op = "repository.subscription_repository.SubscribedToCount"

	return r.count(ctx, op, sq.Eq{"subscriber_id": subscriberID})
}

func (r *SubscriptionRepo) IsSubscribed(ctx context.Context, channelID, subscriberID uuid.UUID) (bool, error) {
	const op = "repository.subscription_repository.IsSubscribed"

	n, err := r.count(ctx, op, sq.Eq{"channel_id": channelID, "subscriber_id": subscriberID})
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *SubscriptionRepo) count(ctx context.Context, op string, where sq.Eq) (int, error) {
	query, args, err := r.sb.Select("count(*)").From(subscriptionTable).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
