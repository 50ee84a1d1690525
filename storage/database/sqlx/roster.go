package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edusuite/gradebook/core/roster"
)

type directory struct {
	db *sqlx.DB
}

var _ roster.Directory = (*directory)(nil) // interface compliance check

func NewDirectory(db *sqlx.DB) roster.Directory {
	return &directory{db: db}
}

type userRow struct {
	ID          string `db:"id"`
	EID         string `db:"eid"`
	FirstName   string `db:"first_name"`
	LastName    string `db:"last_name"`
	DisplayName string `db:"display_name"`
}

func (row userRow) user() roster.User {
	return roster.User{
		ID:          row.ID,
		EID:         row.EID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		DisplayName: row.DisplayName,
	}
}

func (dir *directory) GradeableUserIDs(ctx context.Context, siteID string) ([]string, error) {
	ids := make([]string, 0)
	err := dir.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM site_members WHERE site_id = $1`, siteID)
	if err != nil {
		return nil, errors.Wrap(err, "querying site members")
	}
	return ids, nil
}

func (dir *directory) ResolveUsers(ctx context.Context, ids []string) ([]roster.User, error) {
	if len(ids) == 0 {
		return []roster.User{}, nil
	}
	query, args, err := sqlx.In(`
		SELECT id, eid, first_name, last_name, display_name
		FROM users WHERE id IN (?) ORDER BY last_name ASC`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building users query")
	}
	var rows []userRow
	if err := dir.db.SelectContext(ctx, &rows, dir.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]roster.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

func (dir *directory) User(ctx context.Context, id string) (roster.User, error) {
	var row userRow
	err := dir.db.GetContext(ctx, &row, `
		SELECT id, eid, first_name, last_name, display_name FROM users WHERE id = $1`, id)
	if err != nil {
		return roster.User{}, roster.ErrUserNotFound
	}
	return row.user(), nil
}

func (dir *directory) CurrentUser(ctx context.Context) (roster.User, error) {
	if usr, ok := roster.CurrentUserFrom(ctx); ok {
		return usr, nil
	}
	return roster.User{}, roster.ErrUserNotFound
}
