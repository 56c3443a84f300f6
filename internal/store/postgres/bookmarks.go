package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
)

var bookmarkColumns = []string{"id", "user_id", "url", "note", "is_pinned", "created_at", "updated_at"}

func scanBookmark(row rowScanner) (domain.Bookmark, error) {
	var (
		b       domain.Bookmark
		updated sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.URL, &b.Note, &b.Pinned, &b.CreatedAt, &updated); err != nil {
		return domain.Bookmark{}, err
	}
	if updated.Valid {
		t := updated.Time
		b.UpdatedAt = &t
	}
	return b, nil
}

func (s *Store) ListBookmarks(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	query, args, err := s.sb.Select(bookmarkColumns...).
		From(tableBookmarks).
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list bookmarks", err)
	}
	defer rows.Close()

	list := []domain.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list bookmarks", err)
	}
	return list, nil
}

func (s *Store) InsertBookmark(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	query, args, err := s.sb.Insert(tableBookmarks).
		Columns("id", "user_id", "url", "note", "is_pinned", "created_at").
		Values(b.ID, b.OwnerID, b.URL, b.Note, b.Pinned, b.CreatedAt).
		ToSql()
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Bookmark{}, classify("insert bookmark", err)
	}
	return b, nil
}

func (s *Store) DeleteBookmark(ctx context.Context, ownerID, id string) error {
	query, args, err := s.sb.Delete(tableBookmarks).
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify("delete bookmark", err)
	}
	return expectOne(res)
}

// TogglePin flips the flag in one statement so concurrent toggles never
// read a stale value.
func (s *Store) TogglePin(ctx context.Context, ownerID, id string, at time.Time) (domain.Bookmark, error) {
	query, args, err := s.sb.Update(tableBookmarks).
		Set("is_pinned", sq.Expr("NOT is_pinned")).
		Set("updated_at", at).
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		Suffix("RETURNING " + strings.Join(bookmarkColumns, ", ")).
		ToSql()
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to build query: %w", err)
	}

	b, err := scanBookmark(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Bookmark{}, classify("toggle pin", err)
	}
	return b, nil
}
