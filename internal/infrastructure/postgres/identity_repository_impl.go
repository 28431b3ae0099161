package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safespace-app/safespace-api/internal/domain/entity"
	"github.com/safespace-app/safespace-api/internal/domain/repository"
)

var errNotFound = errors.New("not found")

type IdentityRepository struct {
	pool *pgxpool.Pool
}

func NewIdentityRepository(pool *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func (r *IdentityRepository) Create(id *entity.Identity) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO identities (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, id.Email, id.PasswordHash)

	return row.Scan(&id.ID, &id.CreatedAt)
}

func (r *IdentityRepository) GetByEmail(email string) (*entity.Identity, error) {
	ctx := context.Background()
	id := &entity.Identity{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM identities
		WHERE email = $1
	`, email)

	if err := row.Scan(&id.ID, &id.Email, &id.PasswordHash, &id.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, err
	}

	return id, nil
}

func (r *IdentityRepository) UpdatePassword(id string, passwordHash string) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `
		UPDATE identities SET password_hash = $1 WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func (r *IdentityRepository) Delete(id string) error {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	return err
}

var _ repository.IdentityRepository = (*IdentityRepository)(nil)
