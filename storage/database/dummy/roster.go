package dummydb

import (
	"context"

	"github.com/edusuite/gradebook/core/roster"
)

type directory struct {
	db *DB
}

var _ roster.Directory = (*directory)(nil) // interface compliance check

func NewDirectory(db *DB) roster.Directory {
	return &directory{db: db}
}

func (dir *directory) GradeableUserIDs(_ context.Context, siteID string) ([]string, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	members, ok := dir.db.siteMembers[siteID]
	if !ok {
		return nil, roster.ErrSiteNotFound
	}
	ids := make([]string, len(members))
	copy(ids, members)
	return ids, nil
}

func (dir *directory) ResolveUsers(_ context.Context, ids []string) ([]roster.User, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	users := make([]roster.User, 0, len(ids))
	for _, id := range ids {
		if usr, ok := dir.db.users[id]; ok {
			users = append(users, *usr)
		}
	}
	roster.SortByLastName(users)
	return users, nil
}

func (dir *directory) User(_ context.Context, id string) (roster.User, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	if usr, ok := dir.db.users[id]; ok {
		return *usr, nil
	}
	return roster.User{}, roster.ErrUserNotFound
}

func (dir *directory) CurrentUser(ctx context.Context) (roster.User, error) {
	if usr, ok := roster.CurrentUserFrom(ctx); ok {
		return usr, nil
	}
	return roster.User{}, roster.ErrUserNotFound
}
