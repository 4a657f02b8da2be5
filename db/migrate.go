package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every embedded migration in lexical order. Each file is written
// to be re-runnable, so applying the set twice is harmless.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("db: list migrations: %w", err)
	}
	sort.Strings(names)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("db: acquire conn: %w", err)
	}
	defer conn.Release()

	for _, name := range names {
		data, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("db: read %s: %w", name, err)
		}
		sql := strings.TrimSpace(string(data))
		if sql == "" {
			continue
		}
		// Simple protocol so a file may hold several statements.
		res := conn.Conn().PgConn().Exec(ctx, sql)
		if _, err := res.ReadAll(); err != nil {
			return fmt.Errorf("db: apply %s: %w", name, err)
		}
	}
	return nil
}
