package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/beacon-analytics-service/internal/model"
)

func (p *Postgres) UpsertOwnerByEmail(ctx context.Context, email, name string) (*model.Owner, error) {
	var owner model.Owner
	err := p.pool.QueryRow(ctx, `
		INSERT INTO owners (email, name)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
		RETURNING id, email, name, created_at, updated_at
	`, email, name).Scan(&owner.ID, &owner.Email, &owner.Name, &owner.CreatedAt, &owner.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert owner: %w", err)
	}
	return &owner, nil
}

func (p *Postgres) GetOwnerByID(ctx context.Context, id uuid.UUID) (*model.Owner, error) {
	var owner model.Owner
	err := p.pool.QueryRow(ctx, `
		SELECT id, email, name, created_at, updated_at FROM owners WHERE id = $1
	`, id).Scan(&owner.ID, &owner.Email, &owner.Name, &owner.CreatedAt, &owner.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query owner: %w", err)
	}
	return &owner, nil
}
