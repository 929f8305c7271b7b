package stubserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(opts, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func loginAdmin(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, ts, "/api/auth/login", "", map[string]any{
		"username": "admin",
		"password": "admin123",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func postJSON(t *testing.T, ts *httptest.Server, path, token string, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, ts *httptest.Server, path, token string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func TestLogin_GoodAndBadCredentials(t *testing.T) {
	ts := newTestServer(t, Options{})

	token := loginAdmin(t, ts)
	assert.NotEmpty(t, token)

	resp := postJSON(t, ts, "/api/auth/login", "", map[string]any{
		"username": "admin",
		"password": "wrong",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "incorrect username or password", body["detail"])
}

func TestLogin_SuccessFlagVariant(t *testing.T) {
	ts := newTestServer(t, Options{SuccessFlag: true})

	resp := postJSON(t, ts, "/api/auth/login", "", map[string]any{
		"username": "admin",
		"password": "admin123",
	})
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["access_token"])
}

func TestProtectedEndpoints_RequireToken(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, data := getJSON(t, ts, "/api/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(data), "not authenticated")

	resp, _ = getJSON(t, ts, "/api/users/me", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCurrentUser_ReturnsRoleNames(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := loginAdmin(t, ts)

	resp, data := getJSON(t, ts, "/api/users/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "admin", body["username"])
	assert.Equal(t, true, body["is_superuser"])
	assert.Equal(t, []any{"admin"}, body["roles"])
}

func TestRegisterAndUserLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := loginAdmin(t, ts)

	resp := postJSON(t, ts, "/api/auth/register", "", map[string]any{
		"username":  "carol",
		"email":     "carol@example.com",
		"password":  "pw12345",
		"full_name": "Carol Jones",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, "registration successful", created["message"])
	assert.Equal(t, []any{"viewer"}, created["roles"])
	id := int(created["id"].(float64))

	// Duplicate registration rejected.
	resp = postJSON(t, ts, "/api/auth/register", "", map[string]any{
		"username": "carol", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Fetch by id.
	getResp, data := getJSON(t, ts, fmt.Sprintf("/api/users/%d", id), token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var fetched map[string]any
	require.NoError(t, json.Unmarshal(data, &fetched))
	assert.Equal(t, "carol", fetched["username"])

	// Update deactivates.
	payload, _ := json.Marshal(map[string]any{"is_active": false})
	req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/api/users/%d", ts.URL, id), bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	putResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var updated map[string]any
	require.NoError(t, json.NewDecoder(putResp.Body).Decode(&updated))
	putResp.Body.Close()
	assert.Equal(t, false, updated["is_active"])

	// Unknown user 404s with detail.
	notFound, data := getJSON(t, ts, "/api/users/9999", token)
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
	assert.Contains(t, string(data), "user not found")
}

func TestUserList_EnvelopeAndBareArray(t *testing.T) {
	envelope := newTestServer(t, Options{})
	token := loginAdmin(t, envelope)
	resp, data := getJSON(t, envelope, "/api/users/?skip=0&limit=10", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var wrapped map[string]any
	require.NoError(t, json.Unmarshal(data, &wrapped))
	assert.Contains(t, wrapped, "items")
	assert.Contains(t, wrapped, "total")

	bare := newTestServer(t, Options{BareArrays: true})
	token = loginAdmin(t, bare)
	resp, data = getJSON(t, bare, "/api/users/?skip=0&limit=10", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []any
	require.NoError(t, json.Unmarshal(data, &list))
	assert.NotEmpty(t, list)
}

func TestRoleLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := loginAdmin(t, ts)

	resp := postJSON(t, ts, "/api/roles/", token, map[string]any{
		"name": "auditor", "display_name": "Auditor", "description": "read everything",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var role map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&role))
	resp.Body.Close()
	roleID := int(role["id"].(float64))
	assert.Equal(t, []any{}, role["permissions"])

	// Assign to admin user (id 1), then verify the name shows up.
	resp = postJSON(t, ts, fmt.Sprintf("/api/roles/users/1/assign/%d", roleID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	meResp, data := getJSON(t, ts, "/api/users/me", token)
	require.Equal(t, http.StatusOK, meResp.StatusCode)
	var me map[string]any
	require.NoError(t, json.Unmarshal(data, &me))
	assert.Equal(t, []any{"admin", "auditor"}, me["roles"])

	// Remove again.
	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/roles/users/1/remove/%d", ts.URL, roleID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rmResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rmResp.StatusCode)
	rmResp.Body.Close()

	// Delete the role.
	req, _ = http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/roles/%d", ts.URL, roleID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, delResp.StatusCode)
	delResp.Body.Close()

	notFound, _ := getJSON(t, ts, fmt.Sprintf("/api/roles/%d", roleID), token)
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
}

func TestRoleInfo_CarriesFullPermissionObjects(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := loginAdmin(t, ts)

	resp, data := getJSON(t, ts, "/api/roles/1", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var role map[string]any
	require.NoError(t, json.Unmarshal(data, &role))
	perms, ok := role["permissions"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, perms)
	first, ok := perms[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, first, "resource")
	assert.Contains(t, first, "action")
}

func TestPermissionList_Pagination(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := loginAdmin(t, ts)

	resp, data := getJSON(t, ts, "/api/permissions/?skip=2&limit=3", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	items := body["items"].([]any)
	assert.Len(t, items, 3)
	first := items[0].(map[string]any)
	assert.Equal(t, float64(3), first["id"])
}

func TestFormatString_Endpoint(t *testing.T) {
	ts := newTestServer(t, Options{})
	token := loginAdmin(t, ts)

	resp := postJSON(t, ts, "/api/tools/format-string", token, map[string]any{
		"input": "abc", "type": "base64_encode",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "YWJj", body["result"])

	resp = postJSON(t, ts, "/api/tools/format-string", token, map[string]any{
		"input": "abc", "type": "no_such_type",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var failed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&failed))
	resp.Body.Close()
	assert.Contains(t, failed["error"], "unknown format type")
}

func TestHealthzAndMetrics(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, data := getJSON(t, ts, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "healthy")

	resp, data = getJSON(t, ts, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "dbadm_stub_requests_total")
}
