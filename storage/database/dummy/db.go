// Package dummydb is an in-memory implementation of the storage interfaces,
// used by tests and as a stand-in until a real backend is wired.
package dummydb

import (
	"sync"

	"github.com/edusuite/gradebook/core/gradebook"
	"github.com/edusuite/gradebook/core/roster"
)

type DB struct {
	sync.RWMutex

	gradebooks  map[string]gradebook.Gradebook               // siteID -> container
	assignments map[string][]*gradebook.Assignment           // gradebookID -> ordered assignments
	grades      map[string]map[string]*gradebook.GradeRecord // gradebookID -> cell key -> record
	events      []gradebook.GradeEvent
	courseGrade map[string]map[string]string // gradebookID -> student EID -> grade
	properties  map[string]map[string][]byte // siteID -> property name -> blob
	users       map[string]*roster.User      // user ID -> user
	siteMembers map[string][]string          // siteID -> gradeable user IDs

	// gradeFetchErr simulates a backend fault for one assignment's grades
	gradeFetchErr map[string]error
}

func Open() *DB {
	return &DB{
		gradebooks:    make(map[string]gradebook.Gradebook),
		assignments:   make(map[string][]*gradebook.Assignment),
		grades:        make(map[string]map[string]*gradebook.GradeRecord),
		courseGrade:   make(map[string]map[string]string),
		properties:    make(map[string]map[string][]byte),
		users:         make(map[string]*roster.User),
		siteMembers:   make(map[string][]string),
		gradeFetchErr: make(map[string]error),
	}
}

// Seeding helpers (tests & DEV fixtures)

func (db *DB) AddGradebook(gb gradebook.Gradebook) {
	db.Lock()
	defer db.Unlock()
	db.gradebooks[gb.SiteID] = gb
}

func (db *DB) AddUser(usr roster.User, siteIDs ...string) {
	db.Lock()
	defer db.Unlock()
	db.users[usr.ID] = &usr
	for _, siteID := range siteIDs {
		db.siteMembers[siteID] = append(db.siteMembers[siteID], usr.ID)
	}
}

func (db *DB) SetCourseGrade(gradebookID, studentEID, grade string) {
	db.Lock()
	defer db.Unlock()
	if db.courseGrade[gradebookID] == nil {
		db.courseGrade[gradebookID] = make(map[string]string)
	}
	db.courseGrade[gradebookID][studentEID] = grade
}

// FailGradeFetches makes GradesForStudents fail for the given assignment.
func (db *DB) FailGradeFetches(assignmentID string, err error) {
	db.Lock()
	defer db.Unlock()
	db.gradeFetchErr[assignmentID] = err
}

func cellKey(assignmentID, studentID string) string {
	return assignmentID + "|" + studentID
}
