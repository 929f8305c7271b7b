package client

// Kind identifies which logical API call an in-flight request represents.
// It is stamped on the request at dispatch time and is the sole correlation
// key used by the response router to pick the decode-and-emit branch.
type Kind int

const (
	KindLogin Kind = iota
	KindLogout
	KindRegister
	KindCurrentUser
	KindUserList
	KindUserInfo
	KindUpdateUser
	KindRoleList
	KindRoleInfo
	KindCreateRole
	KindUpdateRole
	KindDeleteRole
	KindAssignRole
	KindRemoveRole
	KindPermissionList
	KindFormatString
)

var kindNames = map[Kind]string{
	KindLogin:          "login",
	KindLogout:         "logout",
	KindRegister:       "register",
	KindCurrentUser:    "current_user",
	KindUserList:       "user_list",
	KindUserInfo:       "user_info",
	KindUpdateUser:     "update_user",
	KindRoleList:       "role_list",
	KindRoleInfo:       "role_info",
	KindCreateRole:     "create_role",
	KindUpdateRole:     "update_role",
	KindDeleteRole:     "delete_role",
	KindAssignRole:     "assign_role",
	KindRemoveRole:     "remove_role",
	KindPermissionList: "permission_list",
	KindFormatString:   "format_string",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}
