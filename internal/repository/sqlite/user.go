package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/permpkin/admin-console/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

var userColumns = []string{
	"u.id", "u.email", "u.display", "u.password_hash", "u.status", "u.role",
	"u.group_id", "g.title", "u.created_at", "u.updated_at",
}

func selectUsers() squirrel.SelectBuilder {
	return squirrel.Select(userColumns...).
		From("users u").
		LeftJoin("member_groups g ON g.id = u.group_id")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u          domain.User
		hash       sql.NullString
		groupID    sql.NullString
		groupTitle sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Display, &hash, &u.Status, &u.Role,
		&groupID, &groupTitle, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if hash.Valid {
		u.PasswordHash = &hash.String
	}
	if groupID.Valid {
		u.Group = &domain.GroupRef{ID: groupID.String, Title: groupTitle.String}
	}
	u.Tags = []domain.Tag{}
	return &u, nil
}

// Create inserts the user and connects its tags in one transaction. The ID
// and timestamps are assigned here; user is refreshed from the stored row.
func (r *UserRepository) Create(ctx context.Context, user *domain.User, tags []string) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query, args, err := squirrel.Insert("users").
		Columns("id", "email", "display", "password_hash", "status", "role", "group_id", "created_at", "updated_at").
		Values(user.ID, normalizeEmail(user.Email), user.Display, user.PasswordHash,
			user.Status, user.Role, user.GroupID(), now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build user insert: %w", err)
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			switch {
			case isUniqueConstraintError(err):
				return domain.ErrDuplicateEmail
			case isForeignKeyError(err):
				return domain.ErrGroupNotFound
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return attachTags(ctx, tx, userTagLink, user.ID, tags)
	})
	if err != nil {
		return err
	}

	stored, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("reload user: %w", err)
	}
	*user = *stored
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.id": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"u.email": normalizeEmail(email)})
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.User, error) {
	query, args, err := selectUsers().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	tags, err := loadTags(ctx, r.db, userTagLink, []string{user.ID})
	if err != nil {
		return nil, err
	}
	user.Tags = tagsOrEmpty(tags[user.ID])
	return user, nil
}

// Update applies the non-nil fields of changes. Tags are added, never
// replaced.
func (r *UserRepository) Update(ctx context.Context, id string, changes domain.UserChanges) (*domain.User, error) {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if changes.Email != nil {
		set["email"] = normalizeEmail(*changes.Email)
	}
	if changes.Display != nil {
		set["display"] = *changes.Display
	}
	if changes.PasswordHash != nil {
		set["password_hash"] = *changes.PasswordHash
	}
	if changes.Status != nil {
		set["status"] = *changes.Status
	}
	if changes.Role != nil {
		set["role"] = *changes.Role
	}
	switch {
	case changes.ClearGroup:
		set["group_id"] = nil
	case changes.GroupID != nil:
		set["group_id"] = *changes.GroupID
	}

	query, args, err := squirrel.Update("users").SetMap(set).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user update: %w", err)
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			switch {
			case isUniqueConstraintError(err):
				return domain.ErrDuplicateEmail
			case isForeignKeyError(err):
				return domain.ErrGroupNotFound
			}
			return fmt.Errorf("update user: %w", err)
		}
		if err := expectOneRow(res); err != nil {
			return err
		}
		return attachTags(ctx, tx, userTagLink, id, changes.Tags)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOneRow(res)
}

// ListWhere returns users visible within scope that match filter, newest
// first. A scope without a group matches nothing.
func (r *UserRepository) ListWhere(ctx context.Context, scope domain.Scope, filter domain.UserFilter) ([]domain.User, error) {
	users := []domain.User{}
	qb := selectUsers().OrderBy("u.created_at DESC", "u.email")

	if !scope.Admin {
		if scope.GroupID == nil {
			return users, nil
		}
		qb = qb.Where(squirrel.Eq{"u.group_id": *scope.GroupID})
	}
	if filter.Role != "" {
		qb = qb.Where(squirrel.Eq{"u.role": filter.Role})
	}
	if filter.Status != "" {
		qb = qb.Where(squirrel.Eq{"u.status": filter.Status})
	}
	if filter.GroupID != "" {
		qb = qb.Where(squirrel.Eq{"u.group_id": filter.GroupID})
	}
	if tags := normalizeTags(filter.Tags); len(tags) > 0 {
		qb = qb.Where(hasAnyTag(userTagLink, "u.id", tags))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	rows.Close()

	tags, err := loadTags(ctx, r.db, userTagLink, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Tags = tagsOrEmpty(tags[users[i].ID])
	}
	return users, nil
}

func (r *UserRepository) Exists(ctx context.Context, criteria domain.UserCriteria) (bool, error) {
	qb := squirrel.Select("1").From("users").Limit(1)
	if criteria.Email != "" {
		qb = qb.Where(squirrel.Eq{"email": normalizeEmail(criteria.Email)})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return false, fmt.Errorf("build user exists: %w", err)
	}

	var one int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query user exists: %w", err)
	}
	return true, nil
}

func (r *UserRepository) AddTags(ctx context.Context, id string, names []string) (*domain.User, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := touch(ctx, tx, "users", id); err != nil {
			return err
		}
		return attachTags(ctx, tx, userTagLink, id, names)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) RemoveTag(ctx context.Context, id string, name string) (*domain.User, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := touch(ctx, tx, "users", id); err != nil {
			return err
		}
		return detachTag(ctx, tx, userTagLink, id, name)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// AddToGroup moves the user into the group, replacing any previous group.
func (r *UserRepository) AddToGroup(ctx context.Context, userID, groupID string) (*domain.User, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM member_groups WHERE id = ?`, groupID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrGroupNotFound
		}
		if err != nil {
			return fmt.Errorf("query group: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE users SET group_id = ?, updated_at = ? WHERE id = ?`,
			groupID, time.Now().UTC(), userID,
		)
		if err != nil {
			return fmt.Errorf("set user group: %w", err)
		}
		return expectOneRow(res)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, userID)
}

// RemoveFromGroup detaches the user from its group. It fails with
// ErrNotInGroup when the user has none.
func (r *UserRepository) RemoveFromGroup(ctx context.Context, userID string) (*domain.User, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var groupID sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT group_id FROM users WHERE id = ?`, userID).Scan(&groupID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("query user group: %w", err)
		}
		if !groupID.Valid {
			return domain.ErrNotInGroup
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET group_id = NULL, updated_at = ? WHERE id = ?`,
			time.Now().UTC(), userID,
		); err != nil {
			return fmt.Errorf("clear user group: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, userID)
}

// touch bumps updated_at and reports ErrNotFound for a missing row.
func touch(ctx context.Context, tx *sql.Tx, table, id string) error {
	query, args, err := squirrel.Update(table).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("touch %s: %w", table, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
