// Package security implements the security manager owning RBAC resolution,
// entity bookkeeping and the password policy.
package security

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
)

// Manager provides the security model operations used by the REST handlers
// and the authentication layer.
type Manager struct {
	db                *gorm.DB
	complexityEnabled bool
	passwordValidator PasswordValidator
}

// NewManager creates a security manager. The password complexity policy is
// taken from the configuration; the default validator applies unless a
// custom one is installed with SetPasswordValidator.
func NewManager(db *gorm.DB, cfg *config.Config) *Manager {
	m := &Manager{
		db:                db,
		passwordValidator: DefaultPasswordValidator,
	}

	if cfg != nil {
		m.complexityEnabled = cfg.Security.PasswordComplexity.Enabled
	}

	return m
}

// DB exposes the underlying gorm handle for query composition in handlers.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// SetPasswordValidator installs a custom password complexity validator.
func (m *Manager) SetPasswordValidator(v PasswordValidator) {
	if v != nil {
		m.passwordValidator = v
	}
}

// ValidatePassword applies the active complexity policy. It is a no-op when
// the policy is disabled.
func (m *Manager) ValidatePassword(password string) error {
	if !m.complexityEnabled {
		return nil
	}

	return m.passwordValidator(password)
}

// FindRole returns a role by name, or nil if it does not exist.
func (m *Manager) FindRole(name string) (*models.Role, error) {
	var role models.Role

	err := m.db.Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find role: %w", err)
	}

	return &role, nil
}

// AddRole creates a role with the given name and optional permission pairs.
func (m *Manager) AddRole(name string, pvms ...models.PermissionViewMenu) (*models.Role, error) {
	role := models.Role{Name: name, Permissions: pvms}

	if err := m.db.Create(&role).Error; err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	return &role, nil
}

// DeleteRole removes a role by id, detaching members and permissions.
func (m *Manager) DeleteRole(id uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}

			return fmt.Errorf("failed to load role: %w", err)
		}

		for _, assoc := range []string{"Permissions", "Users", "Groups"} {
			if err := tx.Model(&role).Association(assoc).Clear(); err != nil {
				return fmt.Errorf("failed to clear role %s: %w", assoc, err)
			}
		}

		if err := tx.Delete(&role).Error; err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}

		return nil
	})
}

// AddPermission returns the permission with the given name, creating it if
// it does not exist yet.
func (m *Manager) AddPermission(name string) (*models.Permission, error) {
	var permission models.Permission

	err := m.db.Where("name = ?", name).
		FirstOrCreate(&permission, models.Permission{Name: name}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create permission: %w", err)
	}

	return &permission, nil
}

// FindPermission returns a permission by name, or nil if it does not exist.
func (m *Manager) FindPermission(name string) (*models.Permission, error) {
	var permission models.Permission

	err := m.db.Where("name = ?", name).First(&permission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find permission: %w", err)
	}

	return &permission, nil
}

// DeletePermission removes a permission by name. Pairs referencing it are
// left to the caller; a permission still used by a pair is not deleted.
func (m *Manager) DeletePermission(name string) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var permission models.Permission
		if err := tx.Where("name = ?", name).First(&permission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPermissionNotFound
			}

			return fmt.Errorf("failed to load permission: %w", err)
		}

		var used int64
		if err := tx.Model(&models.PermissionViewMenu{}).
			Where("permission_id = ?", permission.ID).
			Count(&used).Error; err != nil {
			return fmt.Errorf("failed to check permission usage: %w", err)
		}

		if used > 0 {
			return ErrPermissionViewMenuInUse
		}

		if err := tx.Delete(&permission).Error; err != nil {
			return fmt.Errorf("failed to delete permission: %w", err)
		}

		return nil
	})
}

// AddViewMenu returns the view menu with the given name, creating it if it
// does not exist yet.
func (m *Manager) AddViewMenu(name string) (*models.ViewMenu, error) {
	var viewMenu models.ViewMenu

	err := m.db.Where("name = ?", name).
		FirstOrCreate(&viewMenu, models.ViewMenu{Name: name}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create view menu: %w", err)
	}

	return &viewMenu, nil
}

// FindViewMenu returns a view menu by name, or nil if it does not exist.
func (m *Manager) FindViewMenu(name string) (*models.ViewMenu, error) {
	var viewMenu models.ViewMenu

	err := m.db.Where("name = ?", name).First(&viewMenu).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find view menu: %w", err)
	}

	return &viewMenu, nil
}

// DeleteViewMenu removes a view menu by name together with its pairs and
// their role attachments.
func (m *Manager) DeleteViewMenu(name string) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var viewMenu models.ViewMenu
		if err := tx.Where("name = ?", name).First(&viewMenu).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrViewMenuNotFound
			}

			return fmt.Errorf("failed to load view menu: %w", err)
		}

		var pairs []models.PermissionViewMenu
		if err := tx.Where("view_menu_id = ?", viewMenu.ID).Find(&pairs).Error; err != nil {
			return fmt.Errorf("failed to load pairs: %w", err)
		}

		for i := range pairs {
			if err := detachAndDeletePair(tx, &pairs[i]); err != nil {
				return err
			}
		}

		if err := tx.Delete(&viewMenu).Error; err != nil {
			return fmt.Errorf("failed to delete view menu: %w", err)
		}

		return nil
	})
}

// AddPermissionViewMenu grants a named permission on a named resource,
// creating the permission, the view menu and the pair as needed.
func (m *Manager) AddPermissionViewMenu(permissionName, viewMenuName string) (*models.PermissionViewMenu, error) {
	permission, err := m.AddPermission(permissionName)
	if err != nil {
		return nil, err
	}

	viewMenu, err := m.AddViewMenu(viewMenuName)
	if err != nil {
		return nil, err
	}

	var pair models.PermissionViewMenu

	err = m.db.Where("permission_id = ? AND view_menu_id = ?", permission.ID, viewMenu.ID).
		FirstOrCreate(&pair, models.PermissionViewMenu{
			PermissionID: permission.ID,
			ViewMenuID:   viewMenu.ID,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create permission view menu: %w", err)
	}

	return &pair, nil
}

// FindPermissionViewMenu returns the pair for the given permission and view
// menu names, or nil if any part of it does not exist.
func (m *Manager) FindPermissionViewMenu(permissionName, viewMenuName string) (*models.PermissionViewMenu, error) {
	var pair models.PermissionViewMenu

	err := m.db.
		Joins("JOIN permissions ON permissions.id = permission_view_menus.permission_id").
		Joins("JOIN view_menus ON view_menus.id = permission_view_menus.view_menu_id").
		Where("permissions.name = ? AND view_menus.name = ?", permissionName, viewMenuName).
		First(&pair).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find permission view menu: %w", err)
	}

	return &pair, nil
}

// DeletePermissionViewMenu removes the pair for the given names. Without
// cascade the pair must not be attached to any role; with cascade it is
// detached from all roles first. The orphaned permission is removed when the
// pair was its last use.
func (m *Manager) DeletePermissionViewMenu(permissionName, viewMenuName string, cascade bool) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var pair models.PermissionViewMenu

		err := tx.
			Joins("JOIN permissions ON permissions.id = permission_view_menus.permission_id").
			Joins("JOIN view_menus ON view_menus.id = permission_view_menus.view_menu_id").
			Where("permissions.name = ? AND view_menus.name = ?", permissionName, viewMenuName).
			First(&pair).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPermissionViewMenuNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to load permission view menu: %w", err)
		}

		var attached int64
		if err := tx.Table("permission_view_menu_roles").
			Where("permission_view_menu_id = ?", pair.ID).
			Count(&attached).Error; err != nil {
			return fmt.Errorf("failed to check role attachments: %w", err)
		}

		if attached > 0 && !cascade {
			return ErrPermissionViewMenuInUse
		}

		if err := detachAndDeletePair(tx, &pair); err != nil {
			return err
		}

		// drop the permission too when this was its last pair
		var remaining int64
		if err := tx.Model(&models.PermissionViewMenu{}).
			Where("permission_id = ?", pair.PermissionID).
			Count(&remaining).Error; err != nil {
			return fmt.Errorf("failed to count remaining pairs: %w", err)
		}

		if remaining == 0 {
			if err := tx.Delete(&models.Permission{}, pair.PermissionID).Error; err != nil {
				return fmt.Errorf("failed to delete orphaned permission: %w", err)
			}
		}

		return nil
	})
}

func detachAndDeletePair(tx *gorm.DB, pair *models.PermissionViewMenu) error {
	if err := tx.Exec(
		"DELETE FROM permission_view_menu_roles WHERE permission_view_menu_id = ?", pair.ID,
	).Error; err != nil {
		return fmt.Errorf("failed to detach pair from roles: %w", err)
	}

	if err := tx.Delete(pair).Error; err != nil {
		return fmt.Errorf("failed to delete pair: %w", err)
	}

	return nil
}

// AddUser creates a user with the given role and group ids. The password is
// validated against the complexity policy and stored hashed. Any unknown
// referenced id aborts the transaction.
func (m *Manager) AddUser(
	username, firstName, lastName, email, password string,
	roleIDs, groupIDs []uint,
) (*models.User, error) {
	if err := m.ValidatePassword(password); err != nil {
		return nil, err
	}

	user := models.User{
		Active:    true,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  models.HashPassword(password),
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		roles, err := rolesByIDs(tx, roleIDs)
		if err != nil {
			return err
		}

		groups, err := groupsByIDs(tx, groupIDs)
		if err != nil {
			return err
		}

		user.Roles = roles
		user.Groups = groups

		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// AddExternalUser creates a user record for an externally authenticated
// account. The row carries no local password so it can never pass a local
// password check.
func (m *Manager) AddExternalUser(username, firstName, lastName, email string) (*models.User, error) {
	user := models.User{
		Active:    true,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
	}

	if err := m.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create external user: %w", err)
	}

	return &user, nil
}

// UpdateUserProfile refreshes the name and email fields of a user.
func (m *Manager) UpdateUserProfile(id uint, firstName, lastName, email string) error {
	result := m.db.Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"email":      email,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update user profile: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// FindUser returns a user by username with roles and groups preloaded, or
// nil if it does not exist.
func (m *Manager) FindUser(username string) (*models.User, error) {
	var user models.User

	err := m.db.Preload("Roles").Preload("Groups").
		Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}

// UserByID returns a user by id with roles and groups preloaded.
func (m *Manager) UserByID(id uint) (*models.User, error) {
	var user models.User

	err := m.db.Preload("Roles").Preload("Groups").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &user, nil
}

// DeleteUser removes a user by id, detaching roles and groups first.
func (m *Manager) DeleteUser(id uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}

			return fmt.Errorf("failed to load user: %w", err)
		}

		for _, assoc := range []string{"Roles", "Groups"} {
			if err := tx.Model(&user).Association(assoc).Clear(); err != nil {
				return fmt.Errorf("failed to clear user %s: %w", assoc, err)
			}
		}

		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		return nil
	})
}

// AddGroup creates a group with the given role and user ids. Any unknown
// referenced id aborts the transaction.
func (m *Manager) AddGroup(name, label, description string, roleIDs, userIDs []uint) (*models.Group, error) {
	group := models.Group{
		Name:        name,
		Label:       label,
		Description: description,
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		roles, err := rolesByIDs(tx, roleIDs)
		if err != nil {
			return err
		}

		users, err := usersByIDs(tx, userIDs)
		if err != nil {
			return err
		}

		group.Roles = roles
		group.Users = users

		if err := tx.Create(&group).Error; err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &group, nil
}

// FindGroup returns a group by name with users and roles preloaded, or nil
// if it does not exist.
func (m *Manager) FindGroup(name string) (*models.Group, error) {
	var group models.Group

	err := m.db.Preload("Users").Preload("Roles").
		Where("name = ?", name).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	return &group, nil
}

// DeleteGroup removes a group by id, detaching users and roles first.
func (m *Manager) DeleteGroup(id uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}

			return fmt.Errorf("failed to load group: %w", err)
		}

		for _, assoc := range []string{"Users", "Roles"} {
			if err := tx.Model(&group).Association(assoc).Clear(); err != nil {
				return fmt.Errorf("failed to clear group %s: %w", assoc, err)
			}
		}

		if err := tx.Delete(&group).Error; err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}

		return nil
	})
}

// HasPermission checks if a user holds the named permission on the named
// resource, either through a directly assigned role or through one of the
// user's groups.
func (m *Manager) HasPermission(userID uint, permissionName, viewMenuName string) (bool, error) {
	var count int64

	// pairs reachable through directly assigned roles
	err := m.db.Table("permission_view_menus").
		Joins("JOIN permissions ON permissions.id = permission_view_menus.permission_id").
		Joins("JOIN view_menus ON view_menus.id = permission_view_menus.view_menu_id").
		Joins("JOIN permission_view_menu_roles ON permission_view_menu_roles.permission_view_menu_id = permission_view_menus.id").
		Joins("JOIN user_roles ON user_roles.role_id = permission_view_menu_roles.role_id").
		Where("user_roles.user_id = ? AND permissions.name = ? AND view_menus.name = ?",
			userID, permissionName, viewMenuName).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check direct role permission: %w", err)
	}

	if count > 0 {
		return true, nil
	}

	// pairs reachable through group roles
	err = m.db.Table("permission_view_menus").
		Joins("JOIN permissions ON permissions.id = permission_view_menus.permission_id").
		Joins("JOIN view_menus ON view_menus.id = permission_view_menus.view_menu_id").
		Joins("JOIN permission_view_menu_roles ON permission_view_menu_roles.permission_view_menu_id = permission_view_menus.id").
		Joins("JOIN group_roles ON group_roles.role_id = permission_view_menu_roles.role_id").
		Joins("JOIN user_groups ON user_groups.group_id = group_roles.group_id").
		Where("user_groups.user_id = ? AND permissions.name = ? AND view_menus.name = ?",
			userID, permissionName, viewMenuName).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check group permission: %w", err)
	}

	return count > 0, nil
}

// RegisterLogin records a successful login on the user's counters.
func (m *Manager) RegisterLogin(userID uint) error {
	now := time.Now()

	return m.db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_login":       now,
			"login_count":      gorm.Expr("login_count + 1"),
			"fail_login_count": 0,
		}).Error
}

// RegisterFailedLogin records a failed login attempt.
func (m *Manager) RegisterFailedLogin(userID uint) error {
	return m.db.Model(&models.User{}).Where("id = ?", userID).
		Update("fail_login_count", gorm.Expr("fail_login_count + 1")).Error
}
