package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmarshalObject(t *testing.T, raw string) map[string]any {
	t.Helper()
	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &obj))
	return obj
}

func TestDecodeUser_Full(t *testing.T) {
	obj := unmarshalObject(t, `{
		"id": 7,
		"username": "alice",
		"email": "alice@example.com",
		"full_name": "Alice Liddell",
		"is_active": true,
		"is_superuser": false,
		"created_at": "2024-01-02T03:04:05",
		"last_login": "2024-02-03T04:05:06",
		"roles": ["admin", "viewer"]
	}`)

	user, defaulted := DecodeUser(obj)

	assert.Empty(t, defaulted)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice Liddell", user.FullName)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSuperuser)
	assert.Equal(t, []string{"admin", "viewer"}, user.Roles)
}

func TestDecodeUser_RoleObjectsNormalizeToNames(t *testing.T) {
	obj := unmarshalObject(t, `{"id": 1, "roles": [{"name": "admin"}, "viewer"]}`)

	user, _ := DecodeUser(obj)

	assert.Equal(t, []string{"admin", "viewer"}, user.Roles)
}

func TestDecodeUser_MissingFieldsDefaultAndReport(t *testing.T) {
	obj := unmarshalObject(t, `{"username": "bob"}`)

	user, defaulted := DecodeUser(obj)

	assert.Equal(t, "bob", user.Username)
	assert.Zero(t, user.ID)
	assert.Empty(t, user.Email)
	assert.False(t, user.IsActive)
	assert.Nil(t, user.Roles)
	assert.Contains(t, defaulted, "id")
	assert.Contains(t, defaulted, "email")
	assert.Contains(t, defaulted, "roles")
	assert.NotContains(t, defaulted, "username")
}

func TestDecodeUser_TypeMismatchDefaults(t *testing.T) {
	obj := unmarshalObject(t, `{"id": "seven", "username": 42, "is_active": "yes"}`)

	user, defaulted := DecodeUser(obj)

	assert.Zero(t, user.ID)
	assert.Empty(t, user.Username)
	assert.False(t, user.IsActive)
	assert.Contains(t, defaulted, "id")
	assert.Contains(t, defaulted, "username")
	assert.Contains(t, defaulted, "is_active")
}

func TestDecodeRole_PermissionsPreserveOrder(t *testing.T) {
	obj := unmarshalObject(t, `{
		"id": 3,
		"name": "dba",
		"display_name": "Database Admin",
		"is_active": true,
		"permissions": [
			{"id": 10, "name": "db:read", "resource": "db", "action": "read"},
			{"id": 11, "name": "db:write", "resource": "db", "action": "write"},
			{"id": 12, "name": "db:drop", "resource": "db", "action": "drop"}
		]
	}`)

	role, _ := DecodeRole(obj)

	require.Len(t, role.Permissions, 3)
	assert.Equal(t, "db:read", role.Permissions[0].Name)
	assert.Equal(t, "db:write", role.Permissions[1].Name)
	assert.Equal(t, "db:drop", role.Permissions[2].Name)
	assert.Equal(t, 12, role.Permissions[2].ID)
}

func TestDecodeRole_BarePermissionNamesStayFullObjects(t *testing.T) {
	obj := unmarshalObject(t, `{"id": 1, "name": "ops", "permissions": ["db:read", "db:write"]}`)

	role, _ := DecodeRole(obj)

	require.Len(t, role.Permissions, 2)
	assert.Equal(t, Permission{Name: "db:read"}, role.Permissions[0])
	assert.Equal(t, Permission{Name: "db:write"}, role.Permissions[1])
}

func TestDecodeRole_DuplicatePermissionsKept(t *testing.T) {
	obj := unmarshalObject(t, `{"id": 1, "permissions": [{"id": 5, "name": "x"}, {"id": 5, "name": "x"}]}`)

	role, _ := DecodeRole(obj)

	assert.Len(t, role.Permissions, 2)
}

func TestDecodePermission(t *testing.T) {
	obj := unmarshalObject(t, `{
		"id": 9,
		"name": "user:update",
		"display_name": "Update Users",
		"description": "edit user records",
		"resource": "user",
		"action": "update"
	}`)

	perm, defaulted := DecodePermission(obj)

	assert.Empty(t, defaulted)
	assert.Equal(t, 9, perm.ID)
	assert.Equal(t, "user:update", perm.Name)
	assert.Equal(t, "user", perm.Resource)
	assert.Equal(t, "update", perm.Action)
}

func TestListItems_BareArrayAndEnvelopeAgree(t *testing.T) {
	var bare any
	require.NoError(t, json.Unmarshal([]byte(`[{"id": 1, "username": "a"}, {"id": 2, "username": "b"}]`), &bare))
	var envelope any
	require.NoError(t, json.Unmarshal([]byte(`{"items": [{"id": 1, "username": "a"}, {"id": 2, "username": "b"}], "total": 2}`), &envelope))

	fromBare := decodeUserList(listItems(bare))
	fromEnvelope := decodeUserList(listItems(envelope))

	assert.Equal(t, fromBare, fromEnvelope)
	require.Len(t, fromBare, 2)
	assert.Equal(t, "a", fromBare[0].Username)
}

func TestListItems_UnrecognizedShape(t *testing.T) {
	var raw any
	require.NoError(t, json.Unmarshal([]byte(`{"data": []}`), &raw))

	assert.Nil(t, listItems(raw))
}
