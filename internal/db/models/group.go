package models

import "time"

// Group represents a named collection of users and roles, offering indirect
// role assignment: a user in a group receives the group's roles.
type Group struct {
	// ID is the unique identifier for the group.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the group.
	Name string `gorm:"unique;size:100;not null"`
	// Label is the display label of the group.
	Label string `gorm:"size:150"`
	// Description provides a human-readable explanation of the group's purpose.
	Description string `gorm:"size:255"`
	// Users are the members of this group.
	Users []User `gorm:"many2many:user_groups;constraint:OnDelete:CASCADE"`
	// Roles are the roles granted to members of this group.
	Roles []Role `gorm:"many2many:group_roles;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Group model.
func (Group) TableName() string {
	return "groups"
}
