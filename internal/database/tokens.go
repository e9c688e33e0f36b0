package database

import (
	"context"
	"time"
)

// RevokeToken dumps a token into the revocation set. The insert is
// idempotent: revoking an already revoked token succeeds and keeps the
// original revocation time.
func (q *Queries) RevokeToken(ctx context.Context, token string) error {
	query := `
		INSERT INTO revoked_tokens (token, revoked_at)
		VALUES ($1, $2)
		ON CONFLICT (token) DO NOTHING
	`
	_, err := q.db.Exec(ctx, query, token, time.Now())
	return err
}

func (q *Queries) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	var revoked bool
	query := `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token = $1)`
	err := q.db.QueryRow(ctx, query, token).Scan(&revoked)
	if err != nil {
		return false, err
	}
	return revoked, nil
}
