package models

import "time"

// Role represents a role in the role-based access control (RBAC) system.
// Roles hold sets of permission-view-menu pairs and are assigned to users
// directly or indirectly through groups.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role (e.g., "Admin", "Public").
	Name string `gorm:"unique;size:100;not null"`
	// Permissions are the permission-view-menu pairs granted to this role.
	Permissions []PermissionViewMenu `gorm:"many2many:permission_view_menu_roles;constraint:OnDelete:CASCADE"`
	// Users are the users directly assigned to this role.
	Users []User `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE"`
	// Groups are the groups this role is attached to.
	Groups []Group `gorm:"many2many:group_roles;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
