// Package postgres stores users and bookmarks in a self-hosted PostgreSQL
// database with the same two tables the hosted provider exposes.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/MrSnakeDoc/bookmarker/internal/connect"
	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const (
	tableUsers     = "user_profiles"
	tableBookmarks = "bookmarks"
)

// Store implements the user and bookmark repositories on database/sql.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// New wraps an open database.
func New(db *sql.DB) *Store {
	return &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects through the pgx driver and waits until the server answers.
func Open(ctx context.Context, dsn string, retry connect.Policy, log logger.Logger) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)

	if err := connect.Retry(ctx, "postgres", redactDSN(dsn), retry, db.PingContext, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("migration error setting dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify maps driver errors onto domain kinds.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrNotFound
	case pgCode(err) == pgerrcode.InvalidTextRepresentation:
		// a malformed uuid names no row
		return domain.ErrNotFound
	case pgCode(err) == pgerrcode.UniqueViolation:
		return domain.ErrDuplicateName
	case pgCode(err) == pgerrcode.ForeignKeyViolation:
		// the owner row is gone
		return domain.ErrUnauthenticated
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

// redactDSN keeps only host and database for log lines.
func redactDSN(dsn string) string {
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return "postgres"
	}
	return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
}
