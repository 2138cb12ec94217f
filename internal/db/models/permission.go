package models

import "time"

// Permission represents a named action in the authorization system, such as
// "can_read" or "can_write". Permissions are granted on view menus through
// PermissionViewMenu pairs.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey"`
	// Name is the unique permission name.
	Name string `gorm:"unique;size:100;not null"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
