// Package seeder populates a server with demo users and roles through the
// regular API, so the data goes through the same validation as real traffic.
package seeder

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/dbatools/dbadm/internal/client"
)

// Options controls how much demo data gets created.
type Options struct {
	Users   int
	Roles   int
	Assign  bool          // give each new user one random new role
	Timeout time.Duration // per-request wait, default 10s
}

// Summary reports what a run created.
type Summary struct {
	UsersCreated int
	RolesCreated int
	Assignments  int
	Failures     int
}

// Seeder drives an authenticated client. Requests are issued one at a time;
// each outcome is awaited before the next request goes out.
type Seeder struct {
	api *client.Client
	log *slog.Logger

	registered chan client.RegisterResult
	created    chan client.RoleResult
	assigned   chan client.ActionResult
}

// New wires a seeder to the client's outcome channels. The client should not
// be shared with other components while a run is in progress.
func New(api *client.Client, log *slog.Logger) *Seeder {
	if log == nil {
		log = slog.Default()
	}
	s := &Seeder{
		api:        api,
		log:        log,
		registered: make(chan client.RegisterResult, 1),
		created:    make(chan client.RoleResult, 1),
		assigned:   make(chan client.ActionResult, 1),
	}
	ev := api.Events()
	ev.OnRegister(func(r client.RegisterResult) { s.registered <- r })
	ev.OnCreateRole(func(r client.RoleResult) { s.created <- r })
	ev.OnAssignRole(func(r client.ActionResult) { s.assigned <- r })
	return s
}

// Run creates the requested roles and users. It returns an error only when a
// request never completes; individual rejections are counted as failures.
func (s *Seeder) Run(opts Options) (*Summary, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	gofakeit.Seed(time.Now().UnixNano())

	sum := &Summary{}
	roleIDs := make([]int, 0, opts.Roles)

	for i := 0; i < opts.Roles; i++ {
		name := roleName()
		s.api.CreateRole(name, titleCase(name), gofakeit.JobDescriptor()+" access")
		res, err := await(s.created, opts.Timeout)
		if err != nil {
			return sum, fmt.Errorf("create role %q: %w", name, err)
		}
		if !res.OK {
			s.log.Warn("role rejected", "name", name, "reason", res.Err)
			sum.Failures++
			continue
		}
		sum.RolesCreated++
		roleIDs = append(roleIDs, res.Role.ID)
		s.log.Debug("role created", "id", res.Role.ID, "name", res.Role.Name)
	}

	for i := 0; i < opts.Users; i++ {
		username := gofakeit.Username()
		s.api.Register(username, gofakeit.Email(), gofakeit.Password(true, true, true, false, false, 12), gofakeit.Name())
		res, err := await(s.registered, opts.Timeout)
		if err != nil {
			return sum, fmt.Errorf("register %q: %w", username, err)
		}
		if !res.OK {
			s.log.Warn("registration rejected", "username", username, "reason", res.Message)
			sum.Failures++
			continue
		}
		sum.UsersCreated++
		s.log.Debug("user registered", "id", res.User.ID, "username", res.User.Username)

		if opts.Assign && len(roleIDs) > 0 {
			roleID := roleIDs[rand.Intn(len(roleIDs))]
			s.api.AssignRole(res.User.ID, roleID)
			act, err := await(s.assigned, opts.Timeout)
			if err != nil {
				return sum, fmt.Errorf("assign role to %q: %w", username, err)
			}
			if !act.OK {
				s.log.Warn("assignment rejected", "username", username, "reason", act.Err)
				sum.Failures++
				continue
			}
			sum.Assignments++
		}
	}
	return sum, nil
}

func await[T any](ch <-chan T, timeout time.Duration) (T, error) {
	select {
	case v := <-ch:
		return v, nil
	case <-time.After(timeout):
		var zero T
		return zero, fmt.Errorf("timed out after %s", timeout)
	}
}

// roleName builds names like "report-analyst" that stay unique enough for a
// demo dataset.
func roleName() string {
	return strings.ToLower(gofakeit.BuzzWord()) + "-" + strings.ToLower(gofakeit.JobLevel()) + "-" + gofakeit.DigitN(3)
}

func titleCase(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
