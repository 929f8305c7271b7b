package client

import "sync"

// Outcome payloads. Every completed request is republished as exactly one of
// these through the channel matching its operation kind; callers branch on OK
// instead of handling errors out-of-band.

// LoginResult carries the outcome of a login request. Token is empty on
// failure; on success it has already been stored in the session.
type LoginResult struct {
	OK      bool
	Message string
	Token   string
}

// LogoutResult carries the outcome of a logout request.
type LogoutResult struct {
	OK      bool
	Message string
}

// RegisterResult carries the outcome of a registration request.
type RegisterResult struct {
	OK      bool
	Message string
	User    User
}

// UserResult carries a single-user outcome (current user, user info, update).
type UserResult struct {
	OK   bool
	User User
	Err  string
}

// UserListResult carries a user listing outcome.
type UserListResult struct {
	OK    bool
	Users []User
	Err   string
}

// RoleResult carries a single-role outcome (info, create, update).
type RoleResult struct {
	OK   bool
	Role Role
	Err  string
}

// RoleListResult carries a role listing outcome.
type RoleListResult struct {
	OK    bool
	Roles []Role
	Err   string
}

// ActionResult carries outcomes for operations that return no entity
// (role delete, role assignment, role removal).
type ActionResult struct {
	OK      bool
	Message string
	Err     string
}

// PermissionListResult carries a permission listing outcome.
type PermissionListResult struct {
	OK          bool
	Permissions []Permission
	Err         string
}

// FormatResult carries the outcome of a server-side format-string call.
type FormatResult struct {
	OK     bool
	Result string
	Err    string
}

// listeners is an observer list for one outcome channel. Registration and
// emission may happen on different goroutines.
type listeners[T any] struct {
	mu  sync.Mutex
	fns []func(T)
}

func (l *listeners[T]) on(fn func(T)) {
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

func (l *listeners[T]) emit(v T) {
	l.mu.Lock()
	fns := make([]func(T), len(l.fns))
	copy(fns, l.fns)
	l.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// Events is the publish/subscribe surface of the client: one named outcome
// channel per operation kind, plus the session-expired and transport-error
// channels. Subscribers cannot unregister; a component that goes away must
// tolerate late deliveries. Callbacks run on the goroutine that completed
// the transport call.
type Events struct {
	login          listeners[LoginResult]
	logout         listeners[LogoutResult]
	register       listeners[RegisterResult]
	currentUser    listeners[UserResult]
	userList       listeners[UserListResult]
	userInfo       listeners[UserResult]
	updateUser     listeners[UserResult]
	roleList       listeners[RoleListResult]
	roleInfo       listeners[RoleResult]
	createRole     listeners[RoleResult]
	updateRole     listeners[RoleResult]
	deleteRole     listeners[ActionResult]
	assignRole     listeners[ActionResult]
	removeRole     listeners[ActionResult]
	permissionList listeners[PermissionListResult]
	formatString   listeners[FormatResult]
	sessionExpired listeners[struct{}]
	transportError listeners[string]
}

func (e *Events) OnLogin(fn func(LoginResult))                   { e.login.on(fn) }
func (e *Events) OnLogout(fn func(LogoutResult))                 { e.logout.on(fn) }
func (e *Events) OnRegister(fn func(RegisterResult))             { e.register.on(fn) }
func (e *Events) OnCurrentUser(fn func(UserResult))              { e.currentUser.on(fn) }
func (e *Events) OnUserList(fn func(UserListResult))             { e.userList.on(fn) }
func (e *Events) OnUserInfo(fn func(UserResult))                 { e.userInfo.on(fn) }
func (e *Events) OnUpdateUser(fn func(UserResult))               { e.updateUser.on(fn) }
func (e *Events) OnRoleList(fn func(RoleListResult))             { e.roleList.on(fn) }
func (e *Events) OnRoleInfo(fn func(RoleResult))                 { e.roleInfo.on(fn) }
func (e *Events) OnCreateRole(fn func(RoleResult))               { e.createRole.on(fn) }
func (e *Events) OnUpdateRole(fn func(RoleResult))               { e.updateRole.on(fn) }
func (e *Events) OnDeleteRole(fn func(ActionResult))             { e.deleteRole.on(fn) }
func (e *Events) OnAssignRole(fn func(ActionResult))             { e.assignRole.on(fn) }
func (e *Events) OnRemoveRole(fn func(ActionResult))             { e.removeRole.on(fn) }
func (e *Events) OnPermissionList(fn func(PermissionListResult)) { e.permissionList.on(fn) }
func (e *Events) OnFormatString(fn func(FormatResult))           { e.formatString.on(fn) }

// OnSessionExpired fires when any request comes back 401. The session has
// already been cleared by the time listeners run.
func (e *Events) OnSessionExpired(fn func()) {
	e.sessionExpired.on(func(struct{}) { fn() })
}

// OnTransportError fires for network failures and unparseable response
// bodies. The session is left untouched.
func (e *Events) OnTransportError(fn func(msg string)) {
	e.transportError.on(fn)
}
