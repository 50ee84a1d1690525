package roster

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrSiteNotFound = errors.New("site not found")
	ErrUserNotFound = errors.New("user not found")
)

// Directory supplies site rosters and user identities. It is an external
// collaborator; implementations live under storage/.
type Directory interface {
	// GradeableUserIDs returns the ids of all users in the site that can
	// have grades.
	GradeableUserIDs(ctx context.Context, siteID string) ([]string, error)
	// ResolveUsers resolves ids to full identities, sorted by last name.
	ResolveUsers(ctx context.Context, ids []string) ([]User, error)
	// User resolves a single id.
	User(ctx context.Context, id string) (User, error)
	// CurrentUser returns the identity issuing the current request.
	CurrentUser(ctx context.Context) (User, error)
}
