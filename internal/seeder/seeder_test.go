package seeder

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbatools/dbadm/internal/client"
	"github.com/dbatools/dbadm/internal/stubserver"
)

func newSeededClient(t *testing.T) (*client.Client, *stubserver.Server) {
	t.Helper()
	srv := stubserver.New(stubserver.Options{}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	api := client.New(ts.URL + "/api")
	done := make(chan client.LoginResult, 1)
	api.Events().OnLogin(func(r client.LoginResult) { done <- r })
	api.Login("admin", "admin123")
	select {
	case res := <-done:
		require.True(t, res.OK)
	case <-time.After(2 * time.Second):
		t.Fatal("login did not complete")
	}
	return api, srv
}

func TestRun_CreatesUsersRolesAndAssignments(t *testing.T) {
	api, srv := newSeededClient(t)
	s := New(api, nil)

	sum, err := s.Run(Options{Users: 3, Roles: 2, Assign: true})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.UsersCreated)
	assert.Equal(t, 2, sum.RolesCreated)
	assert.Equal(t, 3, sum.Assignments)
	assert.Zero(t, sum.Failures)

	// One seeded admin plus three new accounts.
	assert.Len(t, srv.Store().ListUsers(0, 0), 4)
	// Admin, viewer, and the two demo roles.
	assert.Len(t, srv.Store().ListRoles(0, 0), 4)
}

func TestRun_NothingRequestedIsANoOp(t *testing.T) {
	api, srv := newSeededClient(t)
	s := New(api, nil)

	sum, err := s.Run(Options{})
	require.NoError(t, err)
	assert.Zero(t, sum.UsersCreated)
	assert.Zero(t, sum.RolesCreated)
	assert.Len(t, srv.Store().ListUsers(0, 0), 1)
}

func TestRun_UnreachableServerTimesOut(t *testing.T) {
	api := client.New("http://127.0.0.1:1/api")
	s := New(api, nil)

	sum, err := s.Run(Options{Users: 1, Timeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Zero(t, sum.UsersCreated)
}
