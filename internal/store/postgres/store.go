// Package postgres stores queries in PostgreSQL through a pgx pool.
// The analysis document is kept in a JSONB column without schema checks.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Skufu/symptomcheck/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ store.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

func (p *Store) Insert(ctx context.Context, symptoms string, analysis json.RawMessage) (store.Query, error) {
	rec := store.Query{
		ID:       uuid.New().String(),
		Symptoms: symptoms,
		Analysis: analysis,
	}

	query := `
		INSERT INTO queries (id, symptoms, analysis)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	if err := p.pool.QueryRow(ctx, query, rec.ID, symptoms, []byte(analysis)).Scan(&rec.CreatedAt); err != nil {
		return store.Query{}, fmt.Errorf("insert query: %w", err)
	}

	rec.CreatedAt = rec.CreatedAt.UTC()

	return rec, nil
}

func (p *Store) Recent(ctx context.Context, limit int) ([]store.Query, error) {
	if limit < 1 {
		return nil, nil
	}

	query := `
		SELECT id::text, symptoms, analysis, created_at
		FROM queries
		ORDER BY created_at DESC, seq DESC
		LIMIT $1
	`

	rows, err := p.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent queries: %w", err)
	}
	defer rows.Close()

	records := make([]store.Query, 0, limit)

	for rows.Next() {
		var rec store.Query
		var analysis []byte

		if err := rows.Scan(&rec.ID, &rec.Symptoms, &analysis, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}

		rec.Analysis = json.RawMessage(analysis)
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queries: %w", err)
	}

	return records, nil
}

func (p *Store) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Store) Close() {
	p.pool.Close()
}

// Connect opens a pool, verifies it with a ping and applies pending migrations.
func Connect(ctx context.Context, url string, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := Migrate(url, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres store ready",
		slog.String("host", cfg.ConnConfig.Host),
		slog.String("database", cfg.ConnConfig.Database),
	)

	return &Store{pool: pool}, nil
}

func Migrate(url string, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(url))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	logVersion(logger, version, dirty, err)

	return nil
}

func logVersion(logger *slog.Logger, version uint, dirty bool, err error) {
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("no migrations applied")
	case err != nil:
		logger.Warn("could not read migration version", slog.Any("error", err))
	default:
		logger.Info("migrations applied",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	}
}

// migrateURL rewrites a libpq-style URL to the pgx5 scheme golang-migrate expects.
func migrateURL(url string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(url, prefix) {
			return "pgx5://" + strings.TrimPrefix(url, prefix)
		}
	}
	return url
}
