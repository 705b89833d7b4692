package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/permpkin/admin-console/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// tagLink names the join table that attaches tags to an owner.
type tagLink struct {
	table    string
	ownerCol string
}

var (
	userTagLink  = tagLink{table: "user_tags", ownerCol: "user_id"}
	groupTagLink = tagLink{table: "group_tags", ownerCol: "group_id"}
)

// attachTags connects each name to the owner, creating tags that do not
// exist yet. Both steps ignore rows that are already present, so repeating
// a call changes nothing.
func attachTags(ctx context.Context, tx *sql.Tx, link tagLink, ownerID string, names []string) error {
	for _, name := range normalizeTags(names) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (id, name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
			uuid.NewString(), name,
		); err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}

		var tagID string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID); err != nil {
			return fmt.Errorf("query tag %q: %w", name, err)
		}

		query, args, err := squirrel.Insert(link.table).
			Options("OR IGNORE").
			Columns(link.ownerCol, "tag_id").
			Values(ownerID, tagID).
			ToSql()
		if err != nil {
			return fmt.Errorf("build tag link insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}

// detachTag removes the association only; the tag row is kept.
func detachTag(ctx context.Context, q querier, link tagLink, ownerID, name string) error {
	query, args, err := squirrel.Delete(link.table).
		Where(squirrel.Eq{link.ownerCol: ownerID}).
		Where("tag_id IN (SELECT id FROM tags WHERE name = ?)", strings.TrimSpace(name)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build tag unlink: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("unlink tag %q: %w", name, err)
	}
	return nil
}

// loadTags returns the tags of every owner in ids, keyed by owner id and
// sorted by name.
func loadTags(ctx context.Context, q querier, link tagLink, ids []string) (map[string][]domain.Tag, error) {
	out := make(map[string][]domain.Tag, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := squirrel.Select("l."+link.ownerCol, "t.id", "t.name").
		From(link.table + " l").
		Join("tags t ON t.id = l.tag_id").
		Where(squirrel.Eq{"l." + link.ownerCol: ids}).
		OrderBy("t.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tag query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner string
		var tag domain.Tag
		if err := rows.Scan(&owner, &tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out[owner] = append(out[owner], tag)
	}
	return out, rows.Err()
}

// hasAnyTag matches owners linked to at least one of names.
func hasAnyTag(link tagLink, ownerRef string, names []string) squirrel.Sqlizer {
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	return squirrel.Expr(
		"EXISTS (SELECT 1 FROM "+link.table+" l JOIN tags t ON t.id = l.tag_id"+
			" WHERE l."+link.ownerCol+" = "+ownerRef+
			" AND t.name IN ("+squirrel.Placeholders(len(names))+"))",
		args...,
	)
}

func normalizeTags(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// tagsOrEmpty keeps JSON output as [] rather than null.
func tagsOrEmpty(tags []domain.Tag) []domain.Tag {
	if tags == nil {
		return []domain.Tag{}
	}
	return tags
}
