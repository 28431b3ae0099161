package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safespace-app/safespace-api/internal/domain/entity"
	"github.com/safespace-app/safespace-api/internal/domain/repository"
)

type AlertRepository struct {
	pool *pgxpool.Pool
}

func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

func (r *AlertRepository) Create(a *entity.Alert) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO alerts (user_id, alert_type, content, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_resolved, created_at, updated_at
	`, a.UserID, a.AlertType, a.Content, a.Latitude, a.Longitude)

	return row.Scan(&a.ID, &a.IsResolved, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AlertRepository) GetByID(id string) (*entity.Alert, error) {
	ctx := context.Background()
	a := &entity.Alert{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, alert_type, content, latitude, longitude, is_resolved, created_at, updated_at
		FROM alerts
		WHERE id = $1
	`, id)

	if err := row.Scan(&a.ID, &a.UserID, &a.AlertType, &a.Content, &a.Latitude,
		&a.Longitude, &a.IsResolved, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, err
	}

	return a, nil
}

func (r *AlertRepository) ListByUser(userID string, limit int) ([]*entity.Alert, error) {
	ctx := context.Background()
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, alert_type, content, latitude, longitude, is_resolved, created_at, updated_at
		FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.Alert, 0, limit)
	for rows.Next() {
		a := &entity.Alert{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.AlertType, &a.Content, &a.Latitude,
			&a.Longitude, &a.IsResolved, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Resolve flips is_resolved; alerts are never deleted in normal flow.
func (r *AlertRepository) Resolve(id string) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `
		UPDATE alerts SET is_resolved = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

var _ repository.AlertRepository = (*AlertRepository)(nil)
