// Package stubserver is an in-memory implementation of the DBA Tools wire
// protocol for local development and end-to-end CLI testing. It speaks the
// same endpoints, envelopes and error bodies as the production backend but
// holds everything in process.
package stubserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options tune the server toward the different production variants.
type Options struct {
	// BareArrays makes list endpoints return raw JSON arrays instead of the
	// {"items": ..., "total": ...} envelope. Both shapes exist in the field.
	BareArrays bool
	// SuccessFlag adds the explicit "success" boolean to login and
	// format-string responses, as older backends do.
	SuccessFlag bool
	// TokenSecret signs access tokens; random when empty.
	TokenSecret string
	// TokenTTL bounds token lifetime; defaults to 30 minutes.
	TokenTTL time.Duration
}

// Server serves the stub API.
type Server struct {
	store  *Store
	tokens *TokenIssuer
	opts   Options
	log    *slog.Logger

	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// New creates a stub server with a seeded store.
func New(opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		store:    NewStore(),
		tokens:   NewTokenIssuer(opts.TokenSecret, opts.TokenTTL),
		opts:     opts,
		log:      log,
		registry: prometheus.NewRegistry(),
	}
	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dbadm_stub_requests_total",
		Help: "HTTP requests handled by the stub server.",
	}, []string{"method", "code"})
	s.registry.MustRegister(s.requests)
	return s
}

// Store exposes the backing store, mainly for tests and seeding.
func (s *Server) Store() *Store { return s.store }

// Handler builds the HTTP routing table. API routes live under /api to match
// the production base URL layout; /healthz and /metrics sit at the root.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)

	mux.HandleFunc("GET /api/users/", s.authed(s.handleUserList))
	mux.HandleFunc("GET /api/users/me", s.authed(s.handleCurrentUser))
	mux.HandleFunc("GET /api/users/{id}", s.authed(s.handleUserInfo))
	mux.HandleFunc("PUT /api/users/{id}", s.authed(s.handleUpdateUser))

	mux.HandleFunc("GET /api/roles/", s.authed(s.handleRoleList))
	mux.HandleFunc("POST /api/roles/", s.authed(s.handleCreateRole))
	mux.HandleFunc("GET /api/roles/{id}", s.authed(s.handleRoleInfo))
	mux.HandleFunc("PUT /api/roles/{id}", s.authed(s.handleUpdateRole))
	mux.HandleFunc("DELETE /api/roles/{id}", s.authed(s.handleDeleteRole))
	mux.HandleFunc("POST /api/roles/users/{uid}/assign/{rid}", s.authed(s.handleAssignRole))
	mux.HandleFunc("DELETE /api/roles/users/{uid}/remove/{rid}", s.authed(s.handleRemoveRole))

	mux.HandleFunc("GET /api/permissions/", s.authed(s.handlePermissionList))
	mux.HandleFunc("POST /api/tools/format-string", s.authed(s.handleFormatString))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return s.instrument(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.requests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		s.log.Debug("request", "id", reqID, "method", r.Method, "path", r.URL.Path, "status", rec.status)
	})
}

// authed wraps a handler with bearer-token verification. Missing or invalid
// tokens get the 401 the client maps to a session-expired outcome.
func (s *Server) authed(next func(http.ResponseWriter, *http.Request, *User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeDetail(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		claims, err := s.tokens.Verify(header[len(prefix):])
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		user, err := s.store.GetUser(claims.UserID)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}
		next(w, r, user)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		body := map[string]any{"detail": "incorrect username or password"}
		if s.opts.SuccessFlag {
			body["success"] = false
			body["message"] = "incorrect username or password"
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	s.log.Info("login", "username", user.Username)
	body := map[string]any{
		"access_token": token,
		"token_type":   "bearer",
	}
	if s.opts.SuccessFlag {
		body["success"] = true
		body["message"] = "login successful"
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; logout is acknowledged, not recorded.
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.store.CreateUser(req.Username, req.Email, req.Password, req.FullName)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "username already registered")
		return
	}

	s.log.Info("user registered", "username", user.Username, "id", user.ID)
	body := s.userJSON(user)
	body["message"] = "registration successful"
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request, caller *User) {
	writeJSON(w, http.StatusOK, s.userJSON(caller))
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request, _ *User) {
	skip, limit := pageParams(r)
	users := s.store.ListUsers(skip, limit)
	items := make([]map[string]any, len(users))
	for i, u := range users {
		items[i] = s.userJSON(u)
	}
	s.writeList(w, items)
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request, _ *User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	user, err := s.store.GetUser(id)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, s.userJSON(user))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, _ *User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		IsActive *bool  `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.store.UpdateUser(id, req.Email, req.FullName, req.IsActive)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, s.userJSON(user))
}

func (s *Server) handleRoleList(w http.ResponseWriter, r *http.Request, _ *User) {
	skip, limit := pageParams(r)
	roles := s.store.ListRoles(skip, limit)
	items := make([]map[string]any, len(roles))
	for i, role := range roles {
		items[i] = s.roleJSON(role)
	}
	s.writeList(w, items)
}

func (s *Server) handleRoleInfo(w http.ResponseWriter, r *http.Request, _ *User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	role, err := s.store.GetRole(id)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "role not found")
		return
	}
	writeJSON(w, http.StatusOK, s.roleJSON(role))
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request, _ *User) {
	var req struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeDetail(w, http.StatusBadRequest, "role name is required")
		return
	}
	role, err := s.store.CreateRole(req.Name, req.DisplayName, req.Description)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "role already exists")
		return
	}
	s.log.Info("role created", "name", role.Name, "id", role.ID)
	writeJSON(w, http.StatusCreated, s.roleJSON(role))
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request, _ *User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
		IsActive    *bool  `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := s.store.UpdateRole(id, req.DisplayName, req.Description, req.IsActive)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "role not found")
		return
	}
	writeJSON(w, http.StatusOK, s.roleJSON(role))
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request, _ *User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteRole(id); err != nil {
		writeDetail(w, http.StatusNotFound, "role not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "role deleted"})
}

func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request, _ *User) {
	uid, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	rid, ok := pathID(w, r, "rid")
	if !ok {
		return
	}
	if err := s.store.AssignRole(uid, rid); err != nil {
		writeDetail(w, http.StatusNotFound, "user or role not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "role assigned"})
}

func (s *Server) handleRemoveRole(w http.ResponseWriter, r *http.Request, _ *User) {
	uid, ok := pathID(w, r, "uid")
	if !ok {
		return
	}
	rid, ok := pathID(w, r, "rid")
	if !ok {
		return
	}
	if err := s.store.RemoveRole(uid, rid); err != nil {
		writeDetail(w, http.StatusNotFound, "user or role not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "role removed"})
}

func (s *Server) handlePermissionList(w http.ResponseWriter, r *http.Request, _ *User) {
	skip, limit := pageParams(r)
	perms := s.store.ListPermissions(skip, limit)
	items := make([]map[string]any, len(perms))
	for i, p := range perms {
		items[i] = permissionJSON(p)
	}
	s.writeList(w, items)
}

func (s *Server) handleFormatString(w http.ResponseWriter, r *http.Request, _ *User) {
	var req struct {
		Input string `json:"input"`
		Type  string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := FormatString(req.Input, req.Type)
	if err != nil {
		body := map[string]any{"error": err.Error()}
		if s.opts.SuccessFlag {
			body["success"] = false
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}
	body := map[string]any{"result": result}
	if s.opts.SuccessFlag {
		body["success"] = true
	}
	writeJSON(w, http.StatusOK, body)
}

// userJSON serializes a user with role names only; full role objects never
// appear on user payloads.
func (s *Server) userJSON(u *User) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"username":     u.Username,
		"email":        u.Email,
		"full_name":    u.FullName,
		"is_active":    u.IsActive,
		"is_superuser": u.IsSuperuser,
		"created_at":   u.CreatedAt,
		"last_login":   u.LastLogin,
		"roles":        s.store.RoleNames(u),
	}
}

// roleJSON serializes a role with its full permission objects.
func (s *Server) roleJSON(r *Role) map[string]any {
	perms := s.store.RolePermissions(r)
	items := make([]map[string]any, len(perms))
	for i, p := range perms {
		items[i] = permissionJSON(p)
	}
	return map[string]any{
		"id":           r.ID,
		"name":         r.Name,
		"display_name": r.DisplayName,
		"description":  r.Description,
		"is_active":    r.IsActive,
		"created_at":   r.CreatedAt,
		"updated_at":   r.UpdatedAt,
		"permissions":  items,
	}
}

func permissionJSON(p *Permission) map[string]any {
	return map[string]any{
		"id":           p.ID,
		"name":         p.Name,
		"display_name": p.DisplayName,
		"description":  p.Description,
		"resource":     p.Resource,
		"action":       p.Action,
	}
}

func (s *Server) writeList(w http.ResponseWriter, items []map[string]any) {
	if s.opts.BareArrays {
		writeJSON(w, http.StatusOK, items)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func pageParams(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	return skip, limit
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}
