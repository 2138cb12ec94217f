package auth

// Permission names used across the API surface.
const (
	// PermCanRead allows reading a resource's records.
	PermCanRead = "can_read"
	// PermCanWrite allows creating, updating and deleting a resource's records.
	PermCanWrite = "can_write"
)

// Resource names protected by the security API.
const (
	// ResourceUsers covers the user accounts surface.
	ResourceUsers = "Users"
	// ResourceRoles covers the roles surface.
	ResourceRoles = "Roles"
	// ResourcePermissions covers the read-only permissions surface.
	ResourcePermissions = "Permissions"
	// ResourceResources covers the protected-resource (view menu) surface.
	ResourceResources = "Resources"
	// ResourcePermissionResources covers the permission-resource pair surface.
	ResourcePermissionResources = "PermissionResources"
	// ResourceGroups covers the groups surface.
	ResourceGroups = "Groups"
)
