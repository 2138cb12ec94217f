package security

import "errors"

var (
	// ErrUserNotFound is returned when a referenced user id does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrRoleNotFound is returned when a referenced role id does not exist.
	ErrRoleNotFound = errors.New("role not found")

	// ErrGroupNotFound is returned when a referenced group id does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrPermissionNotFound is returned when a referenced permission does not exist.
	ErrPermissionNotFound = errors.New("permission not found")

	// ErrViewMenuNotFound is returned when a referenced view menu does not exist.
	ErrViewMenuNotFound = errors.New("view menu not found")

	// ErrPermissionViewMenuNotFound is returned when a referenced
	// permission-view-menu pair does not exist.
	ErrPermissionViewMenuNotFound = errors.New("permission view menu not found")

	// ErrPermissionViewMenuInUse is returned when deleting a pair that is
	// still attached to a role without requesting a cascade.
	ErrPermissionViewMenuInUse = errors.New("permission view menu still assigned to a role")

	// ErrPasswordComplexity is returned when a password fails the active
	// complexity policy.
	ErrPasswordComplexity = errors.New("password does not meet the complexity policy")

	// ErrNameExists is returned when a unique name is already taken.
	ErrNameExists = errors.New("name already exists")
)
