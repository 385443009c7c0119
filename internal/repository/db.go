package repository

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string, development bool, logger zerolog.Logger) (*pgxpool.Pool, error) {
	// Local databases run without TLS; production DSNs carry their own sslmode.
	if development && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			separator = "?"
			if strings.Contains(dsn, "?") {
				separator = "&"
			}
		}
		dsn += separator + "sslmode=disable"
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	// Transaction poolers such as pgbouncer do not support server-side prepared statements.
	if !development {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
	poolCfg.MaxConns = 25
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info().Str("host", poolCfg.ConnConfig.Host).Uint16("port", poolCfg.ConnConfig.Port).Msg("Database connection successful")
	return pool, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	// goose only speaks database/sql.
	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close migration connection")
		}
	}()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{logger: logger.With().Str("component", "migrate").Logger()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error().Msgf(strings.TrimSpace(format), v...)
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info().Msgf(strings.TrimSpace(format), v...)
}
