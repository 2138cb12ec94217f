package daemon

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/auth"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/uniuri"
)

// Builtin role names.
const (
	// RoleAdmin holds every permission on every resource.
	RoleAdmin = "Admin"
	// RolePublic is the empty default role for unauthenticated access.
	RolePublic = "Public"
)

// seed ensures the builtin permissions, resources, roles and the initial
// admin account exist. It is idempotent and safe to run on every start.
func seed(manager *security.Manager) error {
	resources := []string{
		auth.ResourceUsers,
		auth.ResourceRoles,
		auth.ResourcePermissions,
		auth.ResourceResources,
		auth.ResourcePermissionResources,
		auth.ResourceGroups,
	}

	var pairs []models.PermissionViewMenu

	for _, resource := range resources {
		for _, permission := range []string{auth.PermCanRead, auth.PermCanWrite} {
			pair, err := manager.AddPermissionViewMenu(permission, resource)
			if err != nil {
				return fmt.Errorf("failed to seed %s on %s: %w", permission, resource, err)
			}

			pairs = append(pairs, *pair)
		}
	}

	adminRole, err := ensureRole(manager, RoleAdmin, pairs)
	if err != nil {
		return err
	}

	if _, err := ensureRole(manager, RolePublic, nil); err != nil {
		return err
	}

	return ensureAdminUser(manager, adminRole)
}

// ensureRole creates the role if missing; an existing Admin role gets the
// full pair set re-attached so new resources are picked up on upgrade.
func ensureRole(manager *security.Manager, name string, pairs []models.PermissionViewMenu) (*models.Role, error) {
	role, err := manager.FindRole(name)
	if err != nil {
		return nil, err
	}

	if role == nil {
		role, err = manager.AddRole(name, pairs...)
		if err != nil {
			return nil, fmt.Errorf("failed to seed role %s: %w", name, err)
		}

		log.Info().Str("role", name).Msg("created builtin role")

		return role, nil
	}

	if len(pairs) > 0 {
		ids := make([]uint, len(pairs))
		for i := range pairs {
			ids[i] = pairs[i].ID
		}

		if err := manager.AddRolePermissions(role.ID, ids); err != nil {
			return nil, fmt.Errorf("failed to refresh role %s permissions: %w", name, err)
		}
	}

	return role, nil
}

// ensureAdminUser creates the initial admin account when no users exist.
func ensureAdminUser(manager *security.Manager, adminRole *models.Role) error {
	var count int64
	if err := manager.DB().Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if count > 0 {
		return nil
	}

	// The prefix keeps the generated password inside the complexity policy
	// whatever the random part turns out to be.
	password := "Aa1!" + uniuri.NewLen(12)

	_, err := manager.AddUser("admin", "Admin", "User", "admin@localhost",
		password, []uint{adminRole.ID}, nil)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Warn().Str("username", "admin").Str("password", password).
		Msg("created initial admin account, change its password")

	return nil
}
