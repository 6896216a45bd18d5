package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidstream/internal/domain/models"
	"vidstream/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const userTable = "users"

type UserRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewUserRepository(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepo) SaveUser(ctx context.Context, user models.User) (uuid.UUID, error) {
	const op = "repository.user_repository.SaveUser"

	query, args, err := r.sb.Insert(userTable).
		Columns(
			"username",
			"email",
			"full_name",
			"avatar_url",
			"cover_image_url",
			"password",
			"created_at",
		).
		Values(
			user.Username,
			user.Email,
			user.FullName,
			user.AvatarURL,
			user.CoverImageURL,
			user.Password,
			time.Now().UTC(),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UserByIdentifier looks the user up by username or email, exact match.
// Both columns are stored lowercase.
func (r *UserRepo) UserByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	const op = "repository.user_repository.UserByIdentifier"

	query, args, err := r.userSelect().
		Where(sq.Or{sq.Eq{"username": identifier}, sq.Eq{"email": identifier}}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	return r.scanUser(ctx, op, query, args)
}

func (r *UserRepo) UserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "repository.user_repository.UserByID"

	query, args, err := r.userSelect().Where(sq.Eq{"id": userID}).ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	return r.scanUser(ctx, op, query, args)
}

func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	const op = "repository.user_repository.UpdateRefreshToken"

	return r.updateUser(ctx, op, userID, sq.Eq{"refresh_token": token})
}

func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	const op = "repository.user_repository.ClearRefreshToken"

	return r.updateUser(ctx, op, userID, sq.Eq{"refresh_token": nil})
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	const op = "repository.user_repository.UpdateLastLogin"

	return r.updateUser(ctx, op, userID, sq.Eq{"last_login": at})
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash []byte) error {
	const op = "repository.user_repository.UpdatePassword"

	return r.updateUser(ctx, op, userID, sq.Eq{"password": passwordHash})
}

func (r *UserRepo) UpdateAccountDetails(ctx context.Context, userID uuid.UUID, fullName, email string) error {
	const op = "repository.user_repository.UpdateAccountDetails"

	return r.updateUser(ctx, op, userID, sq.Eq{"full_name": fullName, "email": email})
}

func (r *UserRepo) UpdateAvatarURL(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	const op = "repository.user_repository.UpdateAvatarURL"

	return r.updateUser(ctx, op, userID, sq.Eq{"avatar_url": avatarURL})
}

func (r *UserRepo) UpdateCoverImageURL(ctx context.Context, userID uuid.UUID, coverImageURL string) error {
	const op = "repository.user_repository.UpdateCoverImageURL"

	return r.updateUser(ctx, op, userID, sq.Eq{"cover_image_url": coverImageURL})
}

func (r *UserRepo) userSelect() sq.SelectBuilder {
	return r.sb.Select(
		"id",
		"username",
		"email",
		"full_name",
		"coalesce(avatar_url, '')",
		"coalesce(cover_image_url, '')",
		"password",
		"coalesce(refresh_token, '')",
		"created_at",
		"last_login",
	).From(userTable)
}

func (r *UserRepo) scanUser(ctx context.Context, op, query string, args []interface{}) (models.User, error) {
	var user models.User

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.Password,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// updateUser writes a single row. The store's atomic row update is what the
// refresh-token slot's last-writer-wins contract relies on.
func (r *UserRepo) updateUser(ctx context.Context, op string, userID uuid.UUID, set sq.Eq) error {
	query, args, err := r.sb.Update(userTable).
		SetMap(map[string]interface{}(set)).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}
