package infra

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/adedoyinyusuf/CSIMS-sub005/db"
)

// DSNEnv names a database to reuse instead of starting a container.
const DSNEnv = "PORTAL_TEST_PG_DSN"

// Postgres owns a migrated pool, plus the container or schema behind it.
type Postgres struct {
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	dsn       string
	dropSch   func(context.Context) error
}

// Start boots a Postgres 16 container and applies the embedded migrations.
// When overrideDSN or PORTAL_TEST_PG_DSN is set that database is reused and
// the run is isolated in a throwaway schema.
func Start(ctx context.Context, overrideDSN string) (*Postgres, error) {
	if overrideDSN == "" {
		overrideDSN = os.Getenv(DSNEnv)
	}
	p := &Postgres{dsn: overrideDSN}

	if p.dsn == "" {
		c, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("portal"),
			postgres.WithUsername("portal"),
			postgres.WithPassword("portal"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			return nil, fmt.Errorf("start postgres container: %w", err)
		}
		p.container = c
		if p.dsn, err = c.ConnectionString(ctx, "sslmode=disable"); err != nil {
			p.Close(ctx)
			return nil, fmt.Errorf("resolve connection string: %w", err)
		}
	}

	cfg, err := pgxpool.ParseConfig(p.dsn)
	if err != nil {
		p.Close(ctx)
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	cfg.MaxConns = 64
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.MaxConnLifetime = 5 * time.Minute

	if p.container == nil {
		if err := p.isolate(ctx, cfg); err != nil {
			return nil, err
		}
	}

	if p.pool, err = pgxpool.NewWithConfig(ctx, cfg); err != nil {
		p.Close(ctx)
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := db.Migrate(ctx, p.pool); err != nil {
		p.Close(ctx)
		return nil, err
	}
	return p, nil
}

// isolate points every pooled connection at a fresh schema that Close drops.
func (p *Postgres) isolate(ctx context.Context, cfg *pgxpool.Config) error {
	ident := pgx.Identifier{fmt.Sprintf("portal_run_%d", time.Now().UnixNano())}.Sanitize()

	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		return fmt.Errorf("connect for schema: %w", err)
	}
	defer conn.Close(ctx)
	if _, err := conn.Exec(ctx, "CREATE SCHEMA "+ident); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	setPath := "SET search_path TO " + ident + ", public"
	cfg.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		_, err := c.Exec(ctx, setPath)
		return err
	}
	p.dropSch = func(ctx context.Context) error {
		c, err := pgx.Connect(ctx, p.dsn)
		if err != nil {
			return err
		}
		defer c.Close(ctx)
		_, err = c.Exec(ctx, "DROP SCHEMA IF EXISTS "+ident+" CASCADE")
		return err
	}
	return nil
}

func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

func (p *Postgres) DSN() string { return p.dsn }

// Close tears down resources. Errors are ignored.
func (p *Postgres) Close(ctx context.Context) {
	if p.pool != nil {
		p.pool.Close()
	}
	if p.dropSch != nil {
		_ = p.dropSch(ctx)
	}
	if p.container != nil {
		_ = p.container.Terminate(ctx)
	}
}

// Reset truncates mutable tables between epochs.
func (p *Postgres) Reset(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `TRUNCATE TABLE outbox, signoff_requests, notifications,
		savings_transactions, savings_accounts, loans, password_resets, members CASCADE`)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
