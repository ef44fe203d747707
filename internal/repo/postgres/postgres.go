package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/urlwatchdog/internal/domain"
	"github.com/hamed0406/urlwatchdog/internal/repo"
)

var _ repo.TargetSource = (*Store)(nil)

// Schema is the table Load reads from. New applies it.
const Schema = `
CREATE TABLE IF NOT EXISTS targets (
  name     TEXT PRIMARY KEY,
  url      TEXT NOT NULL,
  keyword  TEXT NULL,
  position INTEGER NOT NULL DEFAULT 0
);
`

// Store reads the target registry from PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctxPing, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Load(ctx context.Context) ([]domain.Descriptor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, url, COALESCE(keyword, '')
		   FROM targets
		  ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var out []domain.Descriptor
	for rows.Next() {
		var d domain.Descriptor
		if err := rows.Scan(&d.Name, &d.URL, &d.Keyword); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	s.log.Debug("targets_loaded", zap.Int("count", len(out)))
	return out, nil
}

// Put upserts a target.
func (s *Store) Put(ctx context.Context, d domain.Descriptor, position int) error {
	var kw *string
	if d.Keyword != "" {
		kw = &d.Keyword
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO targets (name, url, keyword, position)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name)
		 DO UPDATE SET url=EXCLUDED.url, keyword=EXCLUDED.keyword, position=EXCLUDED.position`,
		d.Name, d.URL, kw, position,
	)
	if err != nil {
		return fmt.Errorf("upsert target: %w", err)
	}
	return nil
}

// Delete removes a target. A missing name is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM targets WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	return nil
}
