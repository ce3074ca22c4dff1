package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/beacon-analytics-service/internal/model"
)

const applicationColumns = `id, name, description, website_url, api_key,
	api_key_expires_at, is_active, owner_id, created_at, updated_at`

func (p *Postgres) CreateApplication(ctx context.Context, app *model.Application) error {
	// description is nullable — pass nil when empty
	var description interface{}
	if app.Description != "" {
		description = app.Description
	}

	err := p.pool.QueryRow(ctx, `
		INSERT INTO applications (
			name, description, website_url, api_key, api_key_expires_at,
			is_active, owner_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`,
		app.Name, description, app.WebsiteURL, app.APIKey, app.APIKeyExpiresAt,
		app.IsActive, app.OwnerID,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (p *Postgres) GetActiveIdentityByKey(ctx context.Context, apiKey string) (*model.Identity, error) {
	var identity model.Identity
	err := p.pool.QueryRow(ctx, `
		SELECT a.id, a.name, o.id, o.name
		FROM applications a
		JOIN owners o ON o.id = a.owner_id
		WHERE a.api_key = $1
		  AND a.is_active
		  AND (a.api_key_expires_at IS NULL OR a.api_key_expires_at > NOW())
	`, apiKey).Scan(
		&identity.ApplicationID, &identity.ApplicationName,
		&identity.OwnerID, &identity.OwnerName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query identity by key: %w", err)
	}
	return &identity, nil
}

func (p *Postgres) GetApplicationByOwnerAndID(ctx context.Context, ownerID, appID uuid.UUID) (*model.Application, error) {
	return p.scanApplication(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE owner_id = $1 AND id = $2
	`, ownerID, appID)
}

func (p *Postgres) GetActiveApplicationByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*model.Application, error) {
	return p.scanApplication(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE owner_id = $1 AND name = $2 AND is_active
	`, ownerID, name)
}

func (p *Postgres) ListApplicationsByOwner(ctx context.Context, ownerID uuid.UUID, page, perPage int) ([]*model.Application, int, error) {
	var total int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE owner_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := p.pool.Query(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, ownerID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []*model.Application
	for rows.Next() {
		app, err := scanApplicationFromRow(rows)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, app)
	}
	return apps, total, nil
}

func (p *Postgres) RotateApplicationKey(ctx context.Context, appID uuid.UUID, newKey string, expiresAt time.Time) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE applications
		SET api_key = $1, api_key_expires_at = $2, updated_at = NOW()
		WHERE id = $3
	`, newKey, expiresAt, appID)
	if err != nil {
		return fmt.Errorf("rotate api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeactivateApplication(ctx context.Context, appID uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE applications SET is_active = FALSE, updated_at = NOW() WHERE id = $1
	`, appID)
	if err != nil {
		return fmt.Errorf("deactivate application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CountApplications(ctx context.Context) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

func (p *Postgres) scanApplication(ctx context.Context, query string, args ...interface{}) (*model.Application, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query application: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}
	return scanApplicationFromRow(rows)
}

func scanApplicationFromRow(rows pgx.Rows) (*model.Application, error) {
	var app model.Application
	var description *string

	err := rows.Scan(
		&app.ID, &app.Name, &description, &app.WebsiteURL, &app.APIKey,
		&app.APIKeyExpiresAt, &app.IsActive, &app.OwnerID,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}

	if description != nil {
		app.Description = *description
	}
	return &app, nil
}
