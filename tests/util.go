// Package testutil provides shared fixtures over the in-memory storage
// backend for service and API tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusuite/gradebook/core"
	"github.com/edusuite/gradebook/core/gradebook"
	"github.com/edusuite/gradebook/core/notify"
	"github.com/edusuite/gradebook/core/order"
	"github.com/edusuite/gradebook/core/roster"
	memcache "github.com/edusuite/gradebook/storage/cache/memory"
	dummydb "github.com/edusuite/gradebook/storage/database/dummy"
)

// Env bundles the in-memory backend and the services wired on top of it.
type Env struct {
	DB        *dummydb.DB
	Store     gradebook.Store
	Directory roster.Directory
	NotifySvc *notify.Service
	Svc       *gradebook.Service
	OrderSvc  *order.Service
}

// NewEnv wires all services over one fresh in-memory DB.
func NewEnv() *Env {
	db := dummydb.Open()
	store := dummydb.NewGradebookStore(db)
	dir := dummydb.NewDirectory(db)
	logger := core.NopLogger{}

	notifySvc := notify.NewService(memcache.New(time.Minute, 100), logger)
	return &Env{
		DB:        db,
		Store:     store,
		Directory: dir,
		NotifySvc: notifySvc,
		Svc:       gradebook.NewService(store, dir, notifySvc, logger),
		OrderSvc:  order.NewService(store, dummydb.NewPropertyStore(db), order.XMLCodec{}, logger),
	}
}

// CreateStudent registers a user and enrolls them in the given sites.
func CreateStudent(db *dummydb.DB, id, eid, firstName, lastName string, siteIDs ...string) roster.User {
	usr := roster.User{
		ID:          id,
		EID:         eid,
		FirstName:   firstName,
		LastName:    lastName,
		DisplayName: firstName + " " + lastName,
	}
	db.AddUser(usr, siteIDs...)
	return usr
}

// CreateAssignment adds an assignment to a gradebook; category "" means
// uncategorized.
func CreateAssignment(t *testing.T, store gradebook.Store, gradebookID, id, name string, points float64, category string) gradebook.Assignment {
	t.Helper()
	a, err := store.AddAssignment(context.Background(), gradebookID, gradebook.Assignment{
		ID:       id,
		Name:     name,
		Points:   points,
		Category: null.NewString(category, category != ""),
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}

// SetGrade records a grade directly in the store, bypassing the save protocol.
func SetGrade(t *testing.T, store gradebook.Store, gradebookID, assignmentID, studentID, grade string) {
	t.Helper()
	if err := store.CommitGrade(context.Background(), gradebookID, assignmentID, studentID, grade, null.String{}, "seed"); err != nil {
		t.Fatalf("SetGrade() failed: %v", err)
	}
}

// ContextWithUser returns a context carrying usr as the current user.
func ContextWithUser(usr roster.User) context.Context {
	return roster.WithCurrentUser(context.Background(), usr)
}
