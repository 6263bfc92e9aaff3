package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/vytor/arenalobby/internal/logger"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

type DB struct {
	*sql.DB
	Dialect Dialect
	Builder squirrel.StatementBuilderType
	log     *logger.Logger
}

// Open connects to the store. Migrations are not applied; call Migrate.
func Open(driver, dsn string) (*DB, error) {
	log := logger.Default().WithPrefix("db")
	dialect := Dialect(strings.ToLower(driver))

	var (
		sqlDB   *sql.DB
		err     error
		builder = squirrel.StatementBuilder
	)
	switch dialect {
	case SQLite:
		log.Info("opening sqlite database: %s", dsn)
		sqlDB, err = sql.Open("sqlite3", sqliteDSN(dsn))
		if err != nil {
			log.Error("failed to open database: %v", err)
			return nil, err
		}
		// One writer, and the only way ":memory:" stays a single database.
		sqlDB.SetMaxOpenConns(1)
	case Postgres:
		log.Info("opening postgres database")
		sqlDB, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Error("failed to open database: %v", err)
			return nil, err
		}
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		builder = builder.PlaceholderFormat(squirrel.Dollar)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	return &DB{DB: sqlDB, Dialect: dialect, Builder: builder, log: log}, nil
}

func sqliteDSN(dsn string) string {
	params := "_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL"
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

// Migrate applies every embedded migration for the dialect that has not been applied yet.
func (db *DB) Migrate(ctx context.Context) error {
	db.log.Debug("applying migrations")

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP NOT NULL)`); err != nil {
		db.log.Error("failed to create schema_migrations: %v", err)
		return err
	}

	dir := path.Join("migrations", string(db.Dialect))
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		version := entry.Name()
		applied, err := db.isMigrationApplied(ctx, version)
		if err != nil {
			return err
		}
		if applied {
			db.log.Debug("migration %s already applied, skipping", version)
			continue
		}
		sqlBytes, err := migrationsFS.ReadFile(path.Join(dir, version))
		if err != nil {
			return err
		}

		db.log.Info("applying migration: %s", version)
		err = db.Tx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
				return err
			}
			query, args, err := db.Builder.Insert("schema_migrations").
				Columns("version", "applied_at").
				Values(version, time.Now().UTC()).
				ToSql()
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, query, args...)
			return err
		})
		if err != nil {
			db.log.Error("migration %s failed: %v", version, err)
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		db.log.Info("migration %s applied successfully", version)
	}
	return nil
}

func (db *DB) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	query, args, err := db.Builder.Select("version").
		From("schema_migrations").
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return false, err
	}

	var v string
	err = db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Tx runs fn inside a transaction, committing when it returns nil.
func (db *DB) Tx(ctx context.Context, fn func(*sql.Tx) error) error {
	log := logger.FromContext(ctx).WithPrefix("db")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		log.Debug("transaction rolled back due to error: %v", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction: %v", err)
		return err
	}
	log.Debug("transaction committed")
	return nil
}
