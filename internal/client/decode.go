package client

// Tolerant decoders for the loosely-typed JSON the server returns. A missing
// or wrongly-typed field never fails the decode; it degrades to the zero
// value for that field and the field name is recorded so callers can surface
// which parts of the payload were substituted.

// fieldLog records the dotted names of fields that were defaulted during a
// decode. A nil *fieldLog disables recording.
type fieldLog struct {
	defaulted []string
}

func (l *fieldLog) miss(name string) {
	if l != nil {
		l.defaulted = append(l.defaulted, name)
	}
}

func strField(obj map[string]any, key string, log *fieldLog) string {
	if s, ok := obj[key].(string); ok {
		return s
	}
	log.miss(key)
	return ""
}

func intField(obj map[string]any, key string, log *fieldLog) int {
	// encoding/json decodes all JSON numbers into float64.
	if f, ok := obj[key].(float64); ok {
		return int(f)
	}
	log.miss(key)
	return 0
}

func boolField(obj map[string]any, key string, log *fieldLog) bool {
	if b, ok := obj[key].(bool); ok {
		return b
	}
	log.miss(key)
	return false
}

// DecodeUser converts a raw JSON object into a User. The second return value
// lists the fields that were defaulted. The roles array accepts both bare
// name strings and role objects carrying a "name" field; both normalize to
// the name-only convention.
func DecodeUser(obj map[string]any) (User, []string) {
	log := &fieldLog{}
	u := User{
		ID:          intField(obj, "id", log),
		Username:    strField(obj, "username", log),
		Email:       strField(obj, "email", log),
		FullName:    strField(obj, "full_name", log),
		IsActive:    boolField(obj, "is_active", log),
		IsSuperuser: boolField(obj, "is_superuser", log),
		CreatedAt:   strField(obj, "created_at", log),
		LastLogin:   strField(obj, "last_login", log),
	}

	if raw, ok := obj["roles"].([]any); ok {
		for _, entry := range raw {
			switch v := entry.(type) {
			case string:
				u.Roles = append(u.Roles, v)
			case map[string]any:
				u.Roles = append(u.Roles, strField(v, "name", nil))
			}
		}
	} else {
		log.miss("roles")
	}

	return u, log.defaulted
}

// DecodePermission converts a raw JSON object into a Permission.
func DecodePermission(obj map[string]any) (Permission, []string) {
	log := &fieldLog{}
	p := Permission{
		ID:          intField(obj, "id", log),
		Name:        strField(obj, "name", log),
		DisplayName: strField(obj, "display_name", log),
		Description: strField(obj, "description", log),
		Resource:    strField(obj, "resource", log),
		Action:      strField(obj, "action", log),
	}
	return p, log.defaulted
}

// DecodeRole converts a raw JSON object into a Role, recursively decoding its
// permission list. Unlike user roles, permissions stay full objects; a bare
// permission-name string becomes a Permission with only Name set.
func DecodeRole(obj map[string]any) (Role, []string) {
	log := &fieldLog{}
	r := Role{
		ID:          intField(obj, "id", log),
		Name:        strField(obj, "name", log),
		DisplayName: strField(obj, "display_name", log),
		Description: strField(obj, "description", log),
		IsActive:    boolField(obj, "is_active", log),
		CreatedAt:   strField(obj, "created_at", log),
		UpdatedAt:   strField(obj, "updated_at", log),
	}

	if raw, ok := obj["permissions"].([]any); ok {
		for _, entry := range raw {
			switch v := entry.(type) {
			case map[string]any:
				p, _ := DecodePermission(v)
				r.Permissions = append(r.Permissions, p)
			case string:
				r.Permissions = append(r.Permissions, Permission{Name: v})
			}
		}
	} else {
		log.miss("permissions")
	}

	return r, log.defaulted
}

func decodeUserList(items []any) []User {
	users := make([]User, 0, len(items))
	for _, entry := range items {
		if obj, ok := entry.(map[string]any); ok {
			u, _ := DecodeUser(obj)
			users = append(users, u)
		}
	}
	return users
}

func decodeRoleList(items []any) []Role {
	roles := make([]Role, 0, len(items))
	for _, entry := range items {
		if obj, ok := entry.(map[string]any); ok {
			r, _ := DecodeRole(obj)
			roles = append(roles, r)
		}
	}
	return roles
}

func decodePermissionList(items []any) []Permission {
	perms := make([]Permission, 0, len(items))
	for _, entry := range items {
		if obj, ok := entry.(map[string]any); ok {
			p, _ := DecodePermission(obj)
			perms = append(perms, p)
		}
	}
	return perms
}

// listItems normalizes the two list envelopes the server is known to emit:
// a bare JSON array, or an object wrapping the array in an "items" field.
func listItems(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			return items
		}
	}
	return nil
}
