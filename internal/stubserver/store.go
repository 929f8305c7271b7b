package stubserver

import (
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// User is a stored account. Role membership is kept by role id; the wire
// representation flattens it to role names.
type User struct {
	ID           int
	Username     string
	Email        string
	FullName     string
	PasswordHash []byte
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    string
	LastLogin    string
	RoleIDs      []int
}

// Role groups permissions by id.
type Role struct {
	ID          int
	Name        string
	DisplayName string
	Description string
	IsActive    bool
	CreatedAt   string
	UpdatedAt   string
	PermIDs     []int
}

// Permission is a named capability.
type Permission struct {
	ID          int
	Name        string
	DisplayName string
	Description string
	Resource    string
	Action      string
}

// Store is the in-memory backing state of the development server.
type Store struct {
	mu          sync.RWMutex
	users       map[int]*User
	roles       map[int]*Role
	permissions map[int]*Permission
	nextUserID  int
	nextRoleID  int
}

func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05")
}

// NewStore builds a store seeded with the default permission catalog, the
// admin and viewer roles, and an admin/admin123 superuser.
func NewStore() *Store {
	s := &Store{
		users:       make(map[int]*User),
		roles:       make(map[int]*Role),
		permissions: make(map[int]*Permission),
		nextUserID:  1,
		nextRoleID:  1,
	}
	s.seed()
	return s
}

func (s *Store) seed() {
	catalog := []Permission{
		{Name: "user:read", DisplayName: "Read Users", Resource: "user", Action: "read"},
		{Name: "user:update", DisplayName: "Update Users", Resource: "user", Action: "update"},
		{Name: "role:read", DisplayName: "Read Roles", Resource: "role", Action: "read"},
		{Name: "role:create", DisplayName: "Create Roles", Resource: "role", Action: "create"},
		{Name: "role:update", DisplayName: "Update Roles", Resource: "role", Action: "update"},
		{Name: "role:delete", DisplayName: "Delete Roles", Resource: "role", Action: "delete"},
		{Name: "role:assign", DisplayName: "Assign Roles", Resource: "role", Action: "assign"},
		{Name: "permission:read", DisplayName: "Read Permissions", Resource: "permission", Action: "read"},
		{Name: "tool:format", DisplayName: "Format Strings", Resource: "tool", Action: "format"},
	}
	allPerms := make([]int, 0, len(catalog))
	for i := range catalog {
		p := catalog[i]
		p.ID = i + 1
		p.Description = p.DisplayName
		s.permissions[p.ID] = &p
		allPerms = append(allPerms, p.ID)
	}

	admin := &Role{
		ID: s.nextRoleID, Name: "admin", DisplayName: "Administrator",
		Description: "full access", IsActive: true,
		CreatedAt: now(), UpdatedAt: now(), PermIDs: allPerms,
	}
	s.nextRoleID++
	viewer := &Role{
		ID: s.nextRoleID, Name: "viewer", DisplayName: "Viewer",
		Description: "read-only access", IsActive: true,
		CreatedAt: now(), UpdatedAt: now(),
		PermIDs: []int{1, 3, 8},
	}
	s.nextRoleID++
	s.roles[admin.ID] = admin
	s.roles[viewer.ID] = viewer

	hash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	s.users[s.nextUserID] = &User{
		ID: s.nextUserID, Username: "admin", Email: "admin@example.com",
		FullName: "Administrator", PasswordHash: hash,
		IsActive: true, IsSuperuser: true, CreatedAt: now(),
		RoleIDs: []int{admin.ID},
	}
	s.nextUserID++
}

// Authenticate verifies username/password and stamps the last login time.
func (s *Store) Authenticate(username, password string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			if !u.IsActive {
				return nil, ErrNotFound
			}
			if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
				return nil, ErrNotFound
			}
			u.LastLogin = now()
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// CreateUser registers a new account with the viewer role.
func (s *Store) CreateUser(username, email, password, fullName string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, ErrConflict
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID: s.nextUserID, Username: username, Email: email, FullName: fullName,
		PasswordHash: hash, IsActive: true, CreatedAt: now(),
		RoleIDs: []int{2}, // viewer
	}
	s.nextUserID++
	s.users[u.ID] = u
	copied := *u
	return &copied, nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(id int) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// GetUserByUsername returns a user by name.
func (s *Store) GetUserByUsername(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateUser applies non-empty email/fullName and the active flag.
func (s *Store) UpdateUser(id int, email, fullName string, isActive *bool) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if email != "" {
		u.Email = email
	}
	if fullName != "" {
		u.FullName = fullName
	}
	if isActive != nil {
		u.IsActive = *isActive
	}
	copied := *u
	return &copied, nil
}

// ListUsers returns a page of users ordered by id.
func (s *Store) ListUsers(skip, limit int) []*User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		copied := *u
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, skip, limit)
}

// CreateRole adds a role with no permissions.
func (s *Store) CreateRole(name, displayName, description string) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == name {
			return nil, ErrConflict
		}
	}
	r := &Role{
		ID: s.nextRoleID, Name: name, DisplayName: displayName,
		Description: description, IsActive: true,
		CreatedAt: now(), UpdatedAt: now(),
	}
	s.nextRoleID++
	s.roles[r.ID] = r
	copied := *r
	return &copied, nil
}

// GetRole returns a role by id.
func (s *Store) GetRole(id int) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

// UpdateRole applies non-empty displayName/description and the active flag.
func (s *Store) UpdateRole(id int, displayName, description string, isActive *bool) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	if displayName != "" {
		r.DisplayName = displayName
	}
	if description != "" {
		r.Description = description
	}
	if isActive != nil {
		r.IsActive = *isActive
	}
	r.UpdatedAt = now()
	copied := *r
	return &copied, nil
}

// DeleteRole removes a role and strips it from all members.
func (s *Store) DeleteRole(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return ErrNotFound
	}
	delete(s.roles, id)
	for _, u := range s.users {
		u.RoleIDs = removeID(u.RoleIDs, id)
	}
	return nil
}

// ListRoles returns a page of roles ordered by id.
func (s *Store) ListRoles(skip, limit int) []*Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*Role, 0, len(s.roles))
	for _, r := range s.roles {
		copied := *r
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, skip, limit)
}

// AssignRole adds the role to the user's membership; assigning twice is a
// no-op.
func (s *Store) AssignRole(userID, roleID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := s.roles[roleID]; !ok {
		return ErrNotFound
	}
	for _, id := range u.RoleIDs {
		if id == roleID {
			return nil
		}
	}
	u.RoleIDs = append(u.RoleIDs, roleID)
	return nil
}

// RemoveRole drops the role from the user's membership.
func (s *Store) RemoveRole(userID, roleID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := s.roles[roleID]; !ok {
		return ErrNotFound
	}
	u.RoleIDs = removeID(u.RoleIDs, roleID)
	return nil
}

// ListPermissions returns a page of the permission catalog ordered by id.
func (s *Store) ListPermissions(skip, limit int) []*Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		copied := *p
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, skip, limit)
}

// RoleNames resolves a user's role ids to names, in membership order.
func (s *Store) RoleNames(u *User) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(u.RoleIDs))
	for _, id := range u.RoleIDs {
		if r, ok := s.roles[id]; ok {
			names = append(names, r.Name)
		}
	}
	return names
}

// RolePermissions resolves a role's permission ids, in catalog order as
// stored on the role.
func (s *Store) RolePermissions(r *Role) []*Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perms := make([]*Permission, 0, len(r.PermIDs))
	for _, id := range r.PermIDs {
		if p, ok := s.permissions[id]; ok {
			copied := *p
			perms = append(perms, &copied)
		}
	}
	return perms
}

func page[T any](all []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(all) {
		return []T{}
	}
	all = all[skip:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
