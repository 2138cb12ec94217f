package models

import "time"

// ViewMenu represents a protected resource or endpoint identifier.
// Permissions are granted on view menus, never on raw routes.
type ViewMenu struct {
	// ID is the unique identifier for the view menu.
	ID uint `gorm:"primaryKey"`
	// Name is the unique resource name.
	Name string `gorm:"unique;size:255;not null"`
	// CreatedAt is the timestamp when the view menu was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the view menu was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the ViewMenu model.
func (ViewMenu) TableName() string {
	return "view_menus"
}
