package client

// Permission is a single named capability, classified by resource and action.
type Permission struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
}

// Role groups permissions. The permission list is owned by value and keeps
// the server's order; duplicates are not collapsed.
type Role struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Description string       `json:"description"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
	Permissions []Permission `json:"permissions"`
}

// User is an operator account. Roles is a list of role names only, not full
// Role objects; that mirrors the server's user payloads, which embed names
// where role payloads embed full permission objects.
type User struct {
	ID          int      `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	IsActive    bool     `json:"is_active"`
	IsSuperuser bool     `json:"is_superuser"`
	CreatedAt   string   `json:"created_at"`
	LastLogin   string   `json:"last_login"`
	Roles       []string `json:"roles"`
}
