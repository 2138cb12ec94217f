package models

// PermissionViewMenu is the join record granting a named permission on a
// named resource. Roles hold sets of these pairs; the pair itself is unique.
type PermissionViewMenu struct {
	// ID is the unique identifier for the pair.
	ID uint `gorm:"primaryKey"`
	// PermissionID is the ID of the granted permission.
	PermissionID uint `gorm:"uniqueIndex:idx_permission_view_menu;not null"`
	// ViewMenuID is the ID of the resource the permission applies to.
	ViewMenuID uint `gorm:"uniqueIndex:idx_permission_view_menu;not null"`
	// Permission is the associated permission (loaded via foreign key).
	Permission Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
	// ViewMenu is the associated view menu (loaded via foreign key).
	ViewMenu ViewMenu `gorm:"foreignKey:ViewMenuID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the PermissionViewMenu model.
func (PermissionViewMenu) TableName() string {
	return "permission_view_menus"
}
