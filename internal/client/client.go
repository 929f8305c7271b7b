// Package client implements the asynchronous API client for the DBA Tools
// backend. Calls never block: each operation dispatches one HTTP request on
// its own goroutine and publishes the decoded outcome through the typed
// event channels on Events. Callers subscribe before dispatching and branch
// on the OK flag of the payload they receive.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// SuccessConvention selects how the router decides whether a login or
// format-string response succeeded. Both conventions appear across deployed
// server versions, so the choice is configuration, not detection.
type SuccessConvention int

const (
	// ConventionStatusOnly treats any 2xx status as success.
	ConventionStatusOnly SuccessConvention = iota
	// ConventionBodyFlag additionally requires a true "success" boolean in
	// the response body (older servers return it on login and format).
	ConventionBodyFlag
)

// Client issues requests against a configurable base URL, tags each with its
// operation kind, and routes completions to the outcome channels.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	conv    SuccessConvention

	http    *http.Client
	session *Session
	events  *Events
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. Tests use this to shorten timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSuccessConvention selects the response-success convention.
func WithSuccessConvention(conv SuccessConvention) Option {
	return func(c *Client) { c.conv = conv }
}

// WithLogger attaches a structured logger. Defaulted decode fields and
// dispatch traces are logged at debug level.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client targeting baseURL (scheme://host[/prefix], no trailing
// slash). The URL is not validated beyond being concatenated with endpoint
// paths; malformed values surface as transport errors.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		session: &Session{},
		events:  &Events{},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the subscription surface.
func (c *Client) Events() *Events { return c.events }

// SetBaseURL swaps the server base URL at runtime.
func (c *Client) SetBaseURL(url string) {
	c.mu.Lock()
	c.baseURL = url
	c.mu.Unlock()
}

// BaseURL returns the current server base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetAuthToken restores an externally persisted session token.
func (c *Client) SetAuthToken(token string) { c.session.SetToken(token) }

// AuthToken returns the current session token, empty when logged out.
func (c *Client) AuthToken() string { return c.session.Token() }

// IsAuthenticated reports whether a session token is held.
func (c *Client) IsAuthenticated() bool { return c.session.IsAuthenticated() }

// Login authenticates with username and password. On success the returned
// access token is stored before the login outcome is published.
func (c *Client) Login(username, password string) {
	c.post("/auth/login", map[string]any{
		"username": username,
		"password": password,
	}, KindLogin)
}

// Logout ends the session server-side. The local token is dropped
// immediately; the outcome still reports what the server said.
func (c *Client) Logout() {
	c.post("/auth/logout", nil, KindLogout)
	c.session.Clear()
}

// Register creates a new account. fullName is optional.
func (c *Client) Register(username, email, password, fullName string) {
	body := map[string]any{
		"username": username,
		"email":    email,
		"password": password,
	}
	if fullName != "" {
		body["full_name"] = fullName
	}
	c.post("/auth/register", body, KindRegister)
}

// CurrentUser fetches the authenticated user's own record.
func (c *Client) CurrentUser() {
	c.get("/users/me", KindCurrentUser)
}

// UserList fetches a page of users.
func (c *Client) UserList(skip, limit int) {
	c.get(fmt.Sprintf("/users/?skip=%d&limit=%d", skip, limit), KindUserList)
}

// UserInfo fetches one user by id.
func (c *Client) UserInfo(userID int) {
	c.get(fmt.Sprintf("/users/%d", userID), KindUserInfo)
}

// UpdateUser updates a user's email, full name and active flag. Empty email
// and fullName are omitted from the request body; isActive is always sent.
func (c *Client) UpdateUser(userID int, email, fullName string, isActive bool) {
	body := map[string]any{"is_active": isActive}
	if email != "" {
		body["email"] = email
	}
	if fullName != "" {
		body["full_name"] = fullName
	}
	c.put(fmt.Sprintf("/users/%d", userID), body, KindUpdateUser)
}

// RoleList fetches a page of roles.
func (c *Client) RoleList(skip, limit int) {
	c.get(fmt.Sprintf("/roles/?skip=%d&limit=%d", skip, limit), KindRoleList)
}

// RoleInfo fetches one role by id, permissions included.
func (c *Client) RoleInfo(roleID int) {
	c.get(fmt.Sprintf("/roles/%d", roleID), KindRoleInfo)
}

// CreateRole creates a role. description is optional.
func (c *Client) CreateRole(name, displayName, description string) {
	body := map[string]any{
		"name":         name,
		"display_name": displayName,
	}
	if description != "" {
		body["description"] = description
	}
	c.post("/roles/", body, KindCreateRole)
}

// UpdateRole updates a role's display name, description and active flag.
// Empty strings are omitted; isActive is always sent.
func (c *Client) UpdateRole(roleID int, displayName, description string, isActive bool) {
	body := map[string]any{"is_active": isActive}
	if displayName != "" {
		body["display_name"] = displayName
	}
	if description != "" {
		body["description"] = description
	}
	c.put(fmt.Sprintf("/roles/%d", roleID), body, KindUpdateRole)
}

// DeleteRole removes a role.
func (c *Client) DeleteRole(roleID int) {
	c.del(fmt.Sprintf("/roles/%d", roleID), KindDeleteRole)
}

// AssignRole grants a role to a user.
func (c *Client) AssignRole(userID, roleID int) {
	c.post(fmt.Sprintf("/roles/users/%d/assign/%d", userID, roleID), nil, KindAssignRole)
}

// RemoveRole revokes a role from a user.
func (c *Client) RemoveRole(userID, roleID int) {
	c.del(fmt.Sprintf("/roles/users/%d/remove/%d", userID, roleID), KindRemoveRole)
}

// PermissionList fetches a page of permissions.
func (c *Client) PermissionList(skip, limit int) {
	c.get(fmt.Sprintf("/permissions/?skip=%d&limit=%d", skip, limit), KindPermissionList)
}

// FormatString runs a server-side text conversion of input using the named
// format type (base64_encode, where_in, values_insert, ...).
func (c *Client) FormatString(input, formatType string) {
	c.post("/tools/format-string", map[string]any{
		"input": input,
		"type":  formatType,
	}, KindFormatString)
}

func (c *Client) get(endpoint string, kind Kind) {
	c.send(http.MethodGet, endpoint, nil, kind)
}

func (c *Client) post(endpoint string, body map[string]any, kind Kind) {
	c.send(http.MethodPost, endpoint, body, kind)
}

func (c *Client) put(endpoint string, body map[string]any, kind Kind) {
	c.send(http.MethodPut, endpoint, body, kind)
}

func (c *Client) del(endpoint string, kind Kind) {
	c.send(http.MethodDelete, endpoint, nil, kind)
}

// send builds the request and fires it on its own goroutine. There is no
// deduplication, cancellation or retry: one call, one transport attempt, one
// published outcome.
func (c *Client) send(method, endpoint string, body map[string]any, kind Kind) {
	url := c.BaseURL() + endpoint

	var reader io.Reader
	if method == http.MethodPost || method == http.MethodPut {
		payload := []byte("{}")
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				c.events.transportError.emit("encode request: " + err.Error())
				return
			}
			payload = encoded
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		c.events.transportError.emit("build request: " + err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug("dispatching request",
		"kind", kind.String(), "method", method, "url", url)

	go func() {
		resp, err := c.http.Do(req)
		if err != nil {
			c.events.transportError.emit(err.Error())
			return
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			c.events.transportError.emit("read response: " + err.Error())
			return
		}
		c.route(kind, resp.StatusCode, data)
	}()
}
