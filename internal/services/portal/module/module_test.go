package module

import (
	"testing"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/session"
)

func TestViewerFromSnapshot(t *testing.T) {
	t.Parallel()

	if got := ViewerFromSnapshot(session.Snapshot{State: session.StateUnauthenticated}); got.SignedIn {
		t.Fatalf("viewer = %+v, want signed out", got)
	}

	snap := session.Snapshot{
		State: session.StateAuthenticated,
		Token: "tok",
		User:  &identity.Profile{ID: 1, FullName: "Admin User", Email: "admin@gmail.com", UserType: identity.RoleAdmin},
	}
	got := ViewerFromSnapshot(snap)
	if !got.SignedIn || got.DisplayName != "Admin User" || !got.IsAdmin() {
		t.Fatalf("viewer = %+v, want signed-in admin", got)
	}

	snap.User.UserType = identity.RoleHOD
	if ViewerFromSnapshot(snap).IsAdmin() {
		t.Fatal("HOD viewer must not be admin")
	}
}
