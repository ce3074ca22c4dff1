package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping verifies store connectivity for health reporting.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
