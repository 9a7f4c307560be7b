package dashboard

import (
	"context"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	"golang.org/x/sync/errgroup"
)

// Overview is the data one dashboard render needs. It is either fully
// loaded or empty.
type Overview struct {
	Departments     []apiclient.Department
	Users           []apiclient.User
	ShowDepartments bool
	ShowUsers       bool
}

type service struct {
	gateway Gateway
}

func newService(gateway Gateway) service {
	return service{gateway: gateway}
}

// load fetches what role may see: ADMIN gets departments and users, HOD
// gets users, every other role gets nothing. Requests run concurrently and
// the first failure cancels the rest.
func (s service) load(ctx context.Context, role identity.Role) (Overview, error) {
	var out Overview
	switch role {
	case identity.RoleAdmin:
		out.ShowDepartments, out.ShowUsers = true, true
	case identity.RoleHOD:
		out.ShowUsers = true
	default:
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if out.ShowDepartments {
		g.Go(func() error {
			departments, err := s.gateway.Departments(gctx)
			out.Departments = departments
			return err
		})
	}
	if out.ShowUsers {
		g.Go(func() error {
			users, err := s.gateway.Users(gctx)
			out.Users = users
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Overview{ShowDepartments: out.ShowDepartments, ShowUsers: out.ShowUsers}, err
	}
	return out, nil
}

// stat keys match the dashboard catalog.
const (
	statDepartments = "dashboard.stats.departments"
	statUsers       = "dashboard.stats.users"
	statActiveUsers = "dashboard.stats.active_users"
	statStudents    = "dashboard.stats.students"
)

type stat struct {
	key   string
	value int
}

func summarize(overview Overview) []stat {
	var stats []stat
	if overview.ShowDepartments {
		stats = append(stats, stat{key: statDepartments, value: len(overview.Departments)})
	}
	if overview.ShowUsers {
		active, students := 0, 0
		for _, user := range overview.Users {
			if user.IsActive {
				active++
			}
			if user.UserType == identity.RoleStudent {
				students++
			}
		}
		stats = append(stats,
			stat{key: statUsers, value: len(overview.Users)},
			stat{key: statActiveUsers, value: active},
			stat{key: statStudents, value: students},
		)
	}
	return stats
}
