package roster

import (
	"sort"
	"strings"
)

// User is a student or instructor identity as supplied by the directory.
// ID is the stable internal identifier, EID the human-readable enterprise id
// (eg. the login/username) that course grades are keyed on.
type User struct {
	ID          string `json:"id"`
	EID         string `json:"eid"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
}

// SortByLastName stable-sorts users by last name, case-insensitively, the
// default roster order.
func SortByLastName(users []User) {
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].LastName) < strings.ToLower(users[j].LastName)
	})
}

// SortByFirstName stable-sorts users by first name, case-insensitively.
func SortByFirstName(users []User) {
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].FirstName) < strings.ToLower(users[j].FirstName)
	})
}
