package security

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
)

// rolesByIDs loads all roles for the given ids, returning ErrRoleNotFound
// when any id is unknown.
func rolesByIDs(tx *gorm.DB, ids []uint) ([]models.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var roles []models.Role
	if err := tx.Where("id IN ?", ids).Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	if len(roles) != len(uniqueIDs(ids)) {
		return nil, ErrRoleNotFound
	}

	return roles, nil
}

// groupsByIDs loads all groups for the given ids, returning ErrGroupNotFound
// when any id is unknown.
func groupsByIDs(tx *gorm.DB, ids []uint) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var groups []models.Group
	if err := tx.Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	if len(groups) != len(uniqueIDs(ids)) {
		return nil, ErrGroupNotFound
	}

	return groups, nil
}

// usersByIDs loads all users for the given ids, returning ErrUserNotFound
// when any id is unknown.
func usersByIDs(tx *gorm.DB, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []models.User
	if err := tx.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	if len(users) != len(uniqueIDs(ids)) {
		return nil, ErrUserNotFound
	}

	return users, nil
}

// pairsByIDs loads all permission-view-menu pairs for the given ids,
// returning ErrPermissionViewMenuNotFound when any id is unknown.
func pairsByIDs(tx *gorm.DB, ids []uint) ([]models.PermissionViewMenu, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var pairs []models.PermissionViewMenu
	if err := tx.Where("id IN ?", ids).Find(&pairs).Error; err != nil {
		return nil, fmt.Errorf("failed to load permission view menus: %w", err)
	}

	if len(pairs) != len(uniqueIDs(ids)) {
		return nil, ErrPermissionViewMenuNotFound
	}

	return pairs, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

// ReplaceRolePermissions replaces the full permission set of a role. Unknown
// pair ids abort the transaction and nothing is changed.
func (m *Manager) ReplaceRolePermissions(roleID uint, pairIDs []uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, roleID).Error; err != nil {
			return roleLoadErr(err)
		}

		pairs, err := pairsByIDs(tx, pairIDs)
		if err != nil {
			return err
		}

		if err := tx.Model(&role).Association("Permissions").Replace(pairs); err != nil {
			return fmt.Errorf("failed to replace role permissions: %w", err)
		}

		return nil
	})
}

// AddRolePermissions attaches additional permission pairs to a role without
// detaching the existing ones.
func (m *Manager) AddRolePermissions(roleID uint, pairIDs []uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, roleID).Error; err != nil {
			return roleLoadErr(err)
		}

		pairs, err := pairsByIDs(tx, pairIDs)
		if err != nil {
			return err
		}

		if err := tx.Model(&role).Association("Permissions").Append(pairs); err != nil {
			return fmt.Errorf("failed to append role permissions: %w", err)
		}

		return nil
	})
}

// ReplaceRoleUsers replaces the full member set of a role. Unknown user ids
// abort the transaction and nothing is changed.
func (m *Manager) ReplaceRoleUsers(roleID uint, userIDs []uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, roleID).Error; err != nil {
			return roleLoadErr(err)
		}

		users, err := usersByIDs(tx, userIDs)
		if err != nil {
			return err
		}

		if err := tx.Model(&role).Association("Users").Replace(users); err != nil {
			return fmt.Errorf("failed to replace role users: %w", err)
		}

		return nil
	})
}

// ReplaceRoleGroups replaces the groups holding a role. Unknown group ids
// abort the transaction and nothing is changed.
func (m *Manager) ReplaceRoleGroups(roleID uint, groupIDs []uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, roleID).Error; err != nil {
			return roleLoadErr(err)
		}

		groups, err := groupsByIDs(tx, groupIDs)
		if err != nil {
			return err
		}

		if err := tx.Model(&role).Association("Groups").Replace(groups); err != nil {
			return fmt.Errorf("failed to replace role groups: %w", err)
		}

		return nil
	})
}

// ReplaceUserRoles replaces the direct role set of a user. Unknown role ids
// abort the transaction and nothing is changed.
func (m *Manager) ReplaceUserRoles(userID uint, roleIDs []uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return userLoadErr(err)
		}

		roles, err := rolesByIDs(tx, roleIDs)
		if err != nil {
			return err
		}

		if err := tx.Model(&user).Association("Roles").Replace(roles); err != nil {
			return fmt.Errorf("failed to replace user roles: %w", err)
		}

		return nil
	})
}

// UpdateUser saves the user's profile fields and, for each id list that is
// non-nil, replaces that membership in the same transaction. A failed save
// is reported as ErrNameExists (unique username or email); unknown
// referenced ids abort the transaction and nothing is changed.
func (m *Manager) UpdateUser(user *models.User, roleIDs, groupIDs *[]uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(user).Error; err != nil {
			return fmt.Errorf("%w: %s", ErrNameExists, err)
		}

		if roleIDs != nil {
			roles, err := rolesByIDs(tx, *roleIDs)
			if err != nil {
				return err
			}

			if err := tx.Model(user).Association("Roles").Replace(roles); err != nil {
				return fmt.Errorf("failed to replace user roles: %w", err)
			}
		}

		if groupIDs != nil {
			groups, err := groupsByIDs(tx, *groupIDs)
			if err != nil {
				return err
			}

			if err := tx.Model(user).Association("Groups").Replace(groups); err != nil {
				return fmt.Errorf("failed to replace user groups: %w", err)
			}
		}

		return nil
	})
}

// UpdateGroup saves the group's fields and, for each id list that is
// non-nil, replaces that membership in the same transaction. A failed save
// is reported as ErrNameExists; unknown referenced ids abort the
// transaction and nothing is changed.
func (m *Manager) UpdateGroup(group *models.Group, userIDs, roleIDs *[]uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(group).Error; err != nil {
			return fmt.Errorf("%w: %s", ErrNameExists, err)
		}

		if userIDs != nil {
			users, err := usersByIDs(tx, *userIDs)
			if err != nil {
				return err
			}

			if err := tx.Model(group).Association("Users").Replace(users); err != nil {
				return fmt.Errorf("failed to replace group users: %w", err)
			}
		}

		if roleIDs != nil {
			roles, err := rolesByIDs(tx, *roleIDs)
			if err != nil {
				return err
			}

			if err := tx.Model(group).Association("Roles").Replace(roles); err != nil {
				return fmt.Errorf("failed to replace group roles: %w", err)
			}
		}

		return nil
	})
}

func roleLoadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoleNotFound
	}

	return fmt.Errorf("failed to load role: %w", err)
}

func userLoadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}

	return fmt.Errorf("failed to load user: %w", err)
}
