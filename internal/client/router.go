package client

import (
	"encoding/json"
	"net/http"
)

const genericFailure = "request failed"

// route classifies a completed response and publishes exactly one outcome on
// the channel matching the request's operation kind. Order matters: the 401
// check runs before any JSON parsing so an expired session with a non-JSON
// error page still lands on the session-expired channel.
func (c *Client) route(kind Kind, status int, body []byte) {
	if status == http.StatusUnauthorized {
		c.session.Clear()
		c.log.Debug("session expired", "kind", kind.String())
		c.events.sessionExpired.emit(struct{}{})
		return
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		c.events.transportError.emit("parse response: " + err.Error())
		return
	}

	// Object-shaped responses expose message/detail fields; array-shaped
	// list responses leave obj nil and are handled via listItems.
	obj, _ := raw.(map[string]any)
	success := status >= 200 && status < 300

	switch kind {
	case KindLogin:
		if c.conv == ConventionBodyFlag {
			success = status == http.StatusOK && boolField(obj, "success", nil)
		}
		message := strField(obj, "message", nil)
		if message == "" {
			if success {
				message = "login successful"
			} else {
				message = c.failureMessage(obj)
			}
		}
		token := strField(obj, "access_token", nil)
		if success && token != "" {
			c.session.SetToken(token)
		}
		if !success {
			token = ""
		}
		c.events.login.emit(LoginResult{OK: success, Message: message, Token: token})

	case KindLogout:
		message := "logout successful"
		if !success {
			message = c.failureMessage(obj)
		} else {
			c.session.Clear()
		}
		c.events.logout.emit(LogoutResult{OK: success, Message: message})

	case KindRegister:
		message := strField(obj, "message", nil)
		if !success && message == "" {
			message = c.failureMessage(obj)
		}
		if success {
			user := c.decodeUser(kind, obj)
			c.events.register.emit(RegisterResult{OK: true, Message: message, User: user})
		} else {
			c.events.register.emit(RegisterResult{OK: false, Message: message})
		}

	case KindCurrentUser:
		c.events.currentUser.emit(c.userOutcome(kind, success, obj))

	case KindUserInfo:
		c.events.userInfo.emit(c.userOutcome(kind, success, obj))

	case KindUpdateUser:
		c.events.updateUser.emit(c.userOutcome(kind, success, obj))

	case KindUserList:
		if success {
			users := decodeUserList(listItems(raw))
			c.events.userList.emit(UserListResult{OK: true, Users: users})
		} else {
			c.events.userList.emit(UserListResult{Err: c.failureMessage(obj)})
		}

	case KindRoleList:
		if success {
			roles := decodeRoleList(listItems(raw))
			c.events.roleList.emit(RoleListResult{OK: true, Roles: roles})
		} else {
			c.events.roleList.emit(RoleListResult{Err: c.failureMessage(obj)})
		}

	case KindRoleInfo:
		c.events.roleInfo.emit(c.roleOutcome(kind, success, obj))

	case KindCreateRole:
		c.events.createRole.emit(c.roleOutcome(kind, success, obj))

	case KindUpdateRole:
		c.events.updateRole.emit(c.roleOutcome(kind, success, obj))

	case KindDeleteRole:
		c.events.deleteRole.emit(c.actionOutcome(success, obj, "role deleted"))

	case KindAssignRole:
		c.events.assignRole.emit(c.actionOutcome(success, obj, "role assigned"))

	case KindRemoveRole:
		c.events.removeRole.emit(c.actionOutcome(success, obj, "role removed"))

	case KindPermissionList:
		if success {
			perms := decodePermissionList(listItems(raw))
			c.events.permissionList.emit(PermissionListResult{OK: true, Permissions: perms})
		} else {
			c.events.permissionList.emit(PermissionListResult{Err: c.failureMessage(obj)})
		}

	case KindFormatString:
		if c.conv == ConventionBodyFlag {
			success = status == http.StatusOK && boolField(obj, "success", nil)
		}
		result := strField(obj, "result", nil)
		errText := strField(obj, "error", nil)
		if !success && errText == "" {
			errText = c.failureMessage(obj)
		}
		if !success {
			result = ""
		}
		c.events.formatString.emit(FormatResult{OK: success, Result: result, Err: errText})

	default:
		// The kind enum is closed; hitting this means a dispatch-site bug,
		// not a server problem. Surface it instead of dropping the response.
		c.events.transportError.emit("unrecognized operation kind: " + kind.String())
	}
}

func (c *Client) userOutcome(kind Kind, success bool, obj map[string]any) UserResult {
	if !success {
		return UserResult{Err: c.failureMessage(obj)}
	}
	return UserResult{OK: true, User: c.decodeUser(kind, obj)}
}

func (c *Client) roleOutcome(kind Kind, success bool, obj map[string]any) RoleResult {
	if !success {
		return RoleResult{Err: c.failureMessage(obj)}
	}
	role, defaulted := DecodeRole(obj)
	if len(defaulted) > 0 {
		c.log.Debug("role fields defaulted", "kind", kind.String(), "fields", defaulted)
	}
	return RoleResult{OK: true, Role: role}
}

func (c *Client) actionOutcome(success bool, obj map[string]any, message string) ActionResult {
	if !success {
		return ActionResult{Err: c.failureMessage(obj)}
	}
	return ActionResult{OK: true, Message: message}
}

func (c *Client) decodeUser(kind Kind, obj map[string]any) User {
	user, defaulted := DecodeUser(obj)
	if len(defaulted) > 0 {
		c.log.Debug("user fields defaulted", "kind", kind.String(), "fields", defaulted)
	}
	return user
}

// failureMessage extracts a human-readable error from the conventional
// response fields, preferring FastAPI-style "detail" over "message".
func (c *Client) failureMessage(obj map[string]any) string {
	if detail := strField(obj, "detail", nil); detail != "" {
		return detail
	}
	if message := strField(obj, "message", nil); message != "" {
		return message
	}
	return genericFailure
}
