package pg

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/simguard/internal/observability/logger"
)

// Migrator aplica archivos NNNN_nombre_up.sql / NNNN_nombre_down.sql desde un fs.FS
// y registra los aplicados en schema_migrations.
type Migrator struct {
	pool *pgxpool.Pool
	fsys fs.FS
	dir  string
}

func NewMigrator(pool *pgxpool.Pool, fsys fs.FS, dir string) *Migrator {
	if dir == "" {
		dir = "."
	}
	return &Migrator{pool: pool, fsys: fsys, dir: dir}
}

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Up aplica las migraciones pendientes en orden (steps <= 0 = todas). Retorna cuántas aplicó.
func (m *Migrator) Up(ctx context.Context, steps int) (int, error) {
	if _, err := m.pool.Exec(ctx, migrationsTable); err != nil {
		return 0, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}
	files, err := m.list("_up.sql")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range files {
		v := version(f, "_up.sql")
		if applied[v] {
			continue
		}
		if steps > 0 && n == steps {
			break
		}
		if err := m.exec(ctx, f, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, v)
			return err
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Down revierte las últimas steps migraciones aplicadas (steps <= 0 = una).
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	if _, err := m.pool.Exec(ctx, migrationsTable); err != nil {
		return 0, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}
	files, err := m.list("_down.sql")
	if err != nil {
		return 0, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	n := 0
	for _, f := range files {
		if n == steps {
			break
		}
		v := version(f, "_down.sql")
		if !applied[v] {
			continue
		}
		if err := m.exec(ctx, f, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, v)
			return err
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(versions))
	for _, v := range versions {
		out[v] = true
	}
	return out, nil
}

func (m *Migrator) list(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, path.Join(m.dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Migrator) exec(ctx context.Context, file string, record func(pgx.Tx) error) error {
	b, err := fs.ReadFile(m.fsys, file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	start := time.Now()
	err = pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(b)); err != nil {
			return err
		}
		return record(tx)
	})
	if err != nil {
		return fmt.Errorf("exec %s: %w", path.Base(file), err)
	}
	logger.Named("migrate").Info("migration applied",
		logger.String("file", path.Base(file)), logger.Duration(time.Since(start)))
	return nil
}

// version: "0001_challenges_up.sql" -> "0001_challenges".
func version(file, suffix string) string {
	return strings.TrimSuffix(path.Base(file), suffix)
}
