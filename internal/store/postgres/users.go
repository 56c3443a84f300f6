package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

var userColumns = []string{"id", "username", "password_hash", "is_admin", "created_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	query, args, err := s.sb.Select(userColumns...).From(tableUsers).OrderBy("created_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list users", err)
	}
	return users, nil
}

func (s *Store) FindUserByName(ctx context.Context, name string) (domain.User, error) {
	return s.findUser(ctx, sq.Eq{"username": name})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (domain.User, error) {
	return s.findUser(ctx, sq.Eq{"id": id})
}

func (s *Store) findUser(ctx context.Context, where sq.Eq) (domain.User, error) {
	query, args, err := s.sb.Select(userColumns...).From(tableUsers).Where(where).Limit(1).ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to build query: %w", err)
	}

	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.User{}, classify("find user", err)
	}
	return u, nil
}

// InsertUser relies on the unique username constraint for DuplicateName.
func (s *Store) InsertUser(ctx context.Context, u domain.User) error {
	query, args, err := s.sb.Insert(tableUsers).
		Columns(userColumns...).
		Values(u.ID, u.Name, u.PasswordHash, u.IsAdmin, u.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return classify("insert user", err)
	}
	return nil
}

// DeleteUser cascades to the user's bookmarks.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	query, args, err := s.sb.Delete(tableUsers).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify("delete user", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
