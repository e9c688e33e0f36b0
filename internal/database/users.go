package database

import (
	"context"
	"errors"
	"platforma-zasobow/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrDuplicateUser = errors.New("a user with this email is already registered")
var ErrUserNotFound = errors.New("user does not exist on this platform")

type CreateUserParams struct {
	Email         string
	PasswordHash  string
	PlatformAdmin bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, platform_admin)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, platform_admin, registered_at, quota, quota_remaining
	`
	row := q.db.QueryRow(ctx, query, arg.Email, arg.PasswordHash, arg.PlatformAdmin)

	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.PlatformAdmin,
		&user.RegisteredAt,
		&user.Quota,
		&user.QuotaRemaining,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	return &user, nil
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, platform_admin, registered_at, quota, quota_remaining
		FROM users
		WHERE email = $1
	`
	return q.scanUser(q.db.QueryRow(ctx, query, email))
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, platform_admin, registered_at, quota, quota_remaining
		FROM users
		WHERE id = $1
	`
	return q.scanUser(q.db.QueryRow(ctx, query, id))
}

// getUserForUpdate locks the user's row for the rest of the transaction.
// Every quota check-then-mutate path goes through this lock, which serializes
// concurrent creates/deletes per user.
func (q *Queries) getUserForUpdate(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, platform_admin, registered_at, quota, quota_remaining
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	return q.scanUser(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.PlatformAdmin,
		&user.RegisteredAt,
		&user.Quota,
		&user.QuotaRemaining,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (q *Queries) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, email, password_hash, platform_admin, registered_at, quota, quota_remaining
		FROM users
		ORDER BY id
	`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.PlatformAdmin,
			&user.RegisteredAt,
			&user.Quota,
			&user.QuotaRemaining,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if users == nil {
		return []models.User{}, nil
	}

	return users, nil
}

// DeleteUser removes the user; owned resources go with it via ON DELETE CASCADE.
func (q *Queries) DeleteUser(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM users WHERE id = $1`
	res, err := q.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// SetUserQuota sets both the quota and the remaining counter to newQuota,
// discarding whatever was left of the previous allowance.
func (q *Queries) SetUserQuota(ctx context.Context, id int64, newQuota int) (bool, error) {
	query := `UPDATE users SET quota = $1, quota_remaining = $1 WHERE id = $2`
	res, err := q.db.Exec(ctx, query, newQuota, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
