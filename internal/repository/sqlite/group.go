package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/permpkin/admin-console/internal/domain"
)

// GroupRepository implements domain.GroupRepository using SQLite.
type GroupRepository struct {
	db *sql.DB
}

// NewGroupRepository creates a new SQLite-backed GroupRepository.
func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db.SqlDB}
}

func selectGroups() squirrel.SelectBuilder {
	return squirrel.Select("id", "title", "description", "status", "created_at", "updated_at").
		From("member_groups")
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	var g domain.Group
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Tags = []domain.Tag{}
	g.Users = []domain.GroupMember{}
	return &g, nil
}

func (r *GroupRepository) Create(ctx context.Context, group *domain.Group, tags []string) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query, args, err := squirrel.Insert("member_groups").
		Columns("id", "title", "description", "status", "created_at", "updated_at").
		Values(group.ID, group.Title, group.Description, group.Status, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build group insert: %w", err)
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueConstraintError(err) {
				return domain.ErrDuplicateTitle
			}
			return fmt.Errorf("insert group: %w", err)
		}
		return attachTags(ctx, tx, groupTagLink, group.ID, tags)
	})
	if err != nil {
		return err
	}

	stored, err := r.GetByID(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("reload group: %w", err)
	}
	*group = *stored
	return nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query, args, err := selectGroups().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build group query: %w", err)
	}

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query group: %w", err)
	}

	groups := []domain.Group{*group}
	if err := r.fillRelations(ctx, groups); err != nil {
		return nil, err
	}
	return &groups[0], nil
}

func (r *GroupRepository) Update(ctx context.Context, id string, changes domain.GroupChanges) (*domain.Group, error) {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if changes.Title != nil {
		set["title"] = *changes.Title
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Status != nil {
		set["status"] = *changes.Status
	}

	query, args, err := squirrel.Update("member_groups").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build group update: %w", err)
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueConstraintError(err) {
				return domain.ErrDuplicateTitle
			}
			return fmt.Errorf("update group: %w", err)
		}
		if err := expectOneRow(res); err != nil {
			return err
		}
		return attachTags(ctx, tx, groupTagLink, id, changes.Tags)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes the group. Members stay and lose their group.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM member_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return expectOneRow(res)
}

// ListWhere returns the groups visible within scope that match filter. A
// non-admin scope only ever yields the caller's own group.
func (r *GroupRepository) ListWhere(ctx context.Context, scope domain.Scope, filter domain.GroupFilter) ([]domain.Group, error) {
	groups := []domain.Group{}
	qb := selectGroups().OrderBy("title")

	if !scope.Admin {
		if scope.GroupID == nil {
			return groups, nil
		}
		qb = qb.Where(squirrel.Eq{"id": *scope.GroupID})
	}
	if filter.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": filter.Status})
	}
	if tags := normalizeTags(filter.Tags); len(tags) > 0 {
		qb = qb.Where(hasAnyTag(groupTagLink, "member_groups.id", tags))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build group list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	rows.Close()

	if err := r.fillRelations(ctx, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *GroupRepository) Exists(ctx context.Context, criteria domain.GroupCriteria) (bool, error) {
	qb := squirrel.Select("1").From("member_groups").Limit(1)
	if criteria.Title != "" {
		qb = qb.Where(squirrel.Eq{"title": criteria.Title})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return false, fmt.Errorf("build group exists: %w", err)
	}

	var one int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query group exists: %w", err)
	}
	return true, nil
}

func (r *GroupRepository) AddTags(ctx context.Context, id string, names []string) (*domain.Group, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := touch(ctx, tx, "member_groups", id); err != nil {
			return err
		}
		return attachTags(ctx, tx, groupTagLink, id, names)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *GroupRepository) RemoveTag(ctx context.Context, id string, name string) (*domain.Group, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := touch(ctx, tx, "member_groups", id); err != nil {
			return err
		}
		return detachTag(ctx, tx, groupTagLink, id, name)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// fillRelations loads tags and members for groups in place.
func (r *GroupRepository) fillRelations(ctx context.Context, groups []domain.Group) error {
	if len(groups) == 0 {
		return nil
	}
	ids := make([]string, len(groups))
	for i := range groups {
		ids[i] = groups[i].ID
	}

	tags, err := loadTags(ctx, r.db, groupTagLink, ids)
	if err != nil {
		return err
	}

	query, args, err := squirrel.Select("group_id", "id", "email", "display", "role", "status").
		From("users").
		Where(squirrel.Eq{"group_id": ids}).
		OrderBy("email").
		ToSql()
	if err != nil {
		return fmt.Errorf("build member query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]domain.GroupMember, len(groups))
	for rows.Next() {
		var groupID string
		var m domain.GroupMember
		if err := rows.Scan(&groupID, &m.ID, &m.Email, &m.Display, &m.Role, &m.Status); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		members[groupID] = append(members[groupID], m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate members: %w", err)
	}

	for i := range groups {
		groups[i].Tags = tagsOrEmpty(tags[groups[i].ID])
		if m := members[groups[i].ID]; m != nil {
			groups[i].Users = m
		}
	}
	return nil
}
