package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
	"github.com/louisbranch/smsportal/internal/testkit/portaltest"
)

type fakeGateway struct {
	departments    []apiclient.Department
	users          []apiclient.User
	departmentsErr error
	usersErr       error
	departmentCall atomic.Int32
	userCall       atomic.Int32
}

func (f *fakeGateway) Departments(context.Context) ([]apiclient.Department, error) {
	f.departmentCall.Add(1)
	return f.departments, f.departmentsErr
}

func (f *fakeGateway) Users(context.Context) ([]apiclient.User, error) {
	f.userCall.Add(1)
	return f.users, f.usersErr
}

func mountDashboard(t *testing.T, env *portaltest.Env, m Module) http.Handler {
	t.Helper()
	mount, err := m.Mount(env.Deps)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if mount.Prefix != routepath.Dashboard {
		t.Fatalf("prefix = %q, want %q", mount.Prefix, routepath.Dashboard)
	}
	if mount.RequiredRole != "" {
		t.Fatalf("required role = %q, want none", mount.RequiredRole)
	}
	return mount.Handler
}

func TestServiceLoadByRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role            identity.Role
		wantDepartments int32
		wantUsers       int32
	}{
		{role: identity.RoleAdmin, wantDepartments: 1, wantUsers: 1},
		{role: identity.RoleHOD, wantDepartments: 0, wantUsers: 1},
		{role: identity.RoleFaculty},
		{role: identity.RoleStudent},
	}
	for _, tc := range tests {
		gateway := &fakeGateway{}
		if _, err := newService(gateway).load(context.Background(), tc.role); err != nil {
			t.Fatalf("load(%s) error = %v", tc.role, err)
		}
		if got := gateway.departmentCall.Load(); got != tc.wantDepartments {
			t.Fatalf("load(%s) department calls = %d, want %d", tc.role, got, tc.wantDepartments)
		}
		if got := gateway.userCall.Load(); got != tc.wantUsers {
			t.Fatalf("load(%s) user calls = %d, want %d", tc.role, got, tc.wantUsers)
		}
	}
}

func TestServiceLoadFailureDropsPartialData(t *testing.T) {
	t.Parallel()

	gateway := &fakeGateway{
		departments: []apiclient.Department{{ID: 1, DepartmentCode: "CSE"}},
		usersErr:    errors.New("boom"),
	}
	overview, err := newService(gateway).load(context.Background(), identity.RoleAdmin)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(overview.Departments) != 0 || len(overview.Users) != 0 {
		t.Fatalf("overview = %+v, want no rows", overview)
	}
	if !overview.ShowDepartments || !overview.ShowUsers {
		t.Fatalf("sections should stay visible: %+v", overview)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	overview := Overview{
		ShowDepartments: true,
		ShowUsers:       true,
		Departments:     make([]apiclient.Department, 2),
		Users: []apiclient.User{
			{UserType: identity.RoleStudent, IsActive: true},
			{UserType: identity.RoleStudent},
			{UserType: identity.RoleFaculty, IsActive: true},
		},
	}
	got := summarize(overview)
	want := []stat{{statDepartments, 2}, {statUsers, 3}, {statActiveUsers, 2}, {statStudents, 2}}
	if len(got) != len(want) {
		t.Fatalf("stats = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stats[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if got := summarize(Overview{}); len(got) != 0 {
		t.Fatalf("stats for no sections = %v, want none", got)
	}
}

func TestDashboardAdminLoadsDepartmentsAndUsers(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "admin@gmail.com")
	rec := env.Serve(mountDashboard(t, env, New()), portaltest.Get(routepath.Dashboard))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{"Welcome, System Admin", "Role: ADMIN", "Total Departments", "Computer Science", "student2@gmail.com"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
	if got := env.Backend.CallCount("GET /departments"); got != 1 {
		t.Fatalf("GET /departments calls = %d, want 1", got)
	}
	if got := env.Backend.CallCount("GET /users"); got != 1 {
		t.Fatalf("GET /users calls = %d, want 1", got)
	}
}

func TestDashboardHODLoadsUsersOnly(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "hod.cse@gmail.com")
	rec := env.Serve(mountDashboard(t, env, New()), portaltest.Get(routepath.Dashboard))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := env.Backend.CallCount("GET /departments"); got != 0 {
		t.Fatalf("GET /departments calls = %d, want 0", got)
	}
	if got := env.Backend.CallCount("GET /users"); got != 1 {
		t.Fatalf("GET /users calls = %d, want 1", got)
	}
	if strings.Contains(rec.Body.String(), "Total Departments") {
		t.Fatal("HOD should not see department stats")
	}
}

func TestDashboardStudentMakesNoDataCalls(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "student1@gmail.com")
	rec := env.Serve(mountDashboard(t, env, New()), portaltest.Get(routepath.Dashboard))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Role: STUDENT") {
		t.Fatal("body missing role line")
	}
	if got := env.Backend.CallCount("GET /departments") + env.Backend.CallCount("GET /users"); got != 0 {
		t.Fatalf("data calls = %d, want 0", got)
	}
}

func TestDashboardShowsBackendErrorBanner(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "admin@gmail.com")
	env.Backend.Fail("GET /users", http.StatusInternalServerError, "Database error")
	rec := env.Serve(mountDashboard(t, env, New()), portaltest.Get(routepath.Dashboard))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Database error") {
		t.Fatalf("body missing banner: %s", body)
	}
	if strings.Contains(body, "Computer Science") {
		t.Fatal("partial department data should not render")
	}
	if !strings.Contains(env.Logs.String(), "dashboard load failed") {
		t.Fatalf("logs = %q, want load failure", env.Logs.String())
	}
}

func TestDashboardFallsBackToGenericBanner(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "hod.cse@gmail.com")
	gateway := &fakeGateway{usersErr: errors.New("dial tcp: refused")}
	rec := env.Serve(mountDashboard(t, env, NewWithGateway(gateway)), portaltest.Get(routepath.Dashboard))
	if !strings.Contains(rec.Body.String(), "Failed to load dashboard data") {
		t.Fatalf("body missing fallback banner")
	}
}

func TestDashboardUnauthorizedSignsOut(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "admin@gmail.com")
	env.Backend.Revoke(env.Store.Snapshot().Token)
	rec := env.Serve(mountDashboard(t, env, New()), portaltest.Get(routepath.Dashboard))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if got := rec.Header().Get("Location"); got != routepath.Login {
		t.Fatalf("location = %q, want %q", got, routepath.Login)
	}
}

func TestDashboardUnknownSubpathIsNotFound(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "admin@gmail.com")
	rec := env.Serve(mountDashboard(t, env, NewWithGateway(&fakeGateway{})), portaltest.Get(routepath.Dashboard+"/other"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUnavailableGatewayWithoutClient(t *testing.T) {
	t.Parallel()

	env := portaltest.New(t)
	env.SignIn(t, "admin@gmail.com")
	deps := env.Deps
	deps.API = nil
	mount, err := New().Mount(deps)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	rec := env.Serve(mount.Handler, portaltest.Get(routepath.Dashboard))
	if !strings.Contains(rec.Body.String(), "The SMS service is unavailable") {
		t.Fatalf("body missing unavailable banner")
	}
}
