package database

import (
	"context"
	"errors"
	"platforma-zasobow/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrResourceNotFound = errors.New("resource not found or user is not the owner")
var ErrQuotaExceeded = errors.New("cannot create more resources, quota limit exceeded")

// CreateResource inserts a resource for ownerID after a quota check, and
// decrements the remaining counter when a quota is set. The owner's row is
// locked for the duration, so two concurrent creates cannot both pass the
// check on the last remaining slot.
func (s *PostgresStore) CreateResource(ctx context.Context, ownerID int64, id, name string) (*models.Resource, error) {
	var resource *models.Resource

	err := s.ExecTx(ctx, func(q *Queries) error {
		owner, err := q.getUserForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if owner == nil {
			return ErrUserNotFound
		}
		if !owner.QuotaAvailable() {
			return ErrQuotaExceeded
		}

		resource, err = q.insertResource(ctx, id, name, ownerID)
		if err != nil {
			return err
		}

		if owner.QuotaSet() {
			return q.adjustQuotaRemaining(ctx, ownerID, -1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resource, nil
}

// DeleteResource removes one resource owned by ownerID and gives the slot
// back to the quota counter.
func (s *PostgresStore) DeleteResource(ctx context.Context, ownerID int64, resourceID string) error {
	return s.ExecTx(ctx, func(q *Queries) error {
		owner, err := q.getUserForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if owner == nil {
			return ErrUserNotFound
		}

		query := `DELETE FROM resources WHERE id = $1 AND owner_id = $2`
		res, err := q.db.Exec(ctx, query, resourceID, ownerID)
		if err != nil {
			return err
		}
		if res.RowsAffected() == 0 {
			return ErrResourceNotFound
		}

		if owner.QuotaSet() {
			return q.adjustQuotaRemaining(ctx, ownerID, 1)
		}
		return nil
	})
}

// DeleteAllResources removes every resource owned by ownerID and resets the
// remaining counter to the full quota. The reset (rather than an increment
// per deleted row) is deliberate platform behavior.
func (s *PostgresStore) DeleteAllResources(ctx context.Context, ownerID int64) (int64, error) {
	var deleted int64

	err := s.ExecTx(ctx, func(q *Queries) error {
		owner, err := q.getUserForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if owner == nil {
			return ErrUserNotFound
		}

		res, err := q.db.Exec(ctx, `DELETE FROM resources WHERE owner_id = $1`, ownerID)
		if err != nil {
			return err
		}
		deleted = res.RowsAffected()

		_, err = q.db.Exec(ctx, `UPDATE users SET quota_remaining = quota WHERE id = $1`, ownerID)
		return err
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

func (q *Queries) insertResource(ctx context.Context, id, name string, ownerID int64) (*models.Resource, error) {
	query := `
		INSERT INTO resources (id, name, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, owner_id
	`
	var resource models.Resource
	err := q.db.QueryRow(ctx, query, id, name, ownerID).Scan(
		&resource.ID,
		&resource.Name,
		&resource.OwnerID,
	)
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (q *Queries) adjustQuotaRemaining(ctx context.Context, ownerID int64, delta int) error {
	query := `UPDATE users SET quota_remaining = quota_remaining + $1 WHERE id = $2`
	_, err := q.db.Exec(ctx, query, delta, ownerID)
	return err
}

func (q *Queries) ResourceExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM resources WHERE id = $1)"
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListAllResources returns every resource on the platform. The caller is
// responsible for restricting this to platform admins.
func (q *Queries) ListAllResources(ctx context.Context) ([]models.Resource, error) {
	query := `SELECT id, name, owner_id FROM resources ORDER BY owner_id, id`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResources(rows)
}

// GetUserResources returns ownerID's resources, narrowed to a single one
// when resourceID is non-empty.
func (q *Queries) GetUserResources(ctx context.Context, ownerID int64, resourceID string) ([]models.Resource, error) {
	var query string
	var args []interface{}

	if resourceID != "" {
		query = `SELECT id, name, owner_id FROM resources WHERE owner_id = $1 AND id = $2`
		args = []interface{}{ownerID, resourceID}
	} else {
		query = `SELECT id, name, owner_id FROM resources WHERE owner_id = $1 ORDER BY id`
		args = []interface{}{ownerID}
	}

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResources(rows)
}

func scanResources(rows pgx.Rows) ([]models.Resource, error) {
	var resources []models.Resource
	for rows.Next() {
		var resource models.Resource
		if err := rows.Scan(&resource.ID, &resource.Name, &resource.OwnerID); err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if resources == nil {
		return []models.Resource{}, nil
	}

	return resources, nil
}
