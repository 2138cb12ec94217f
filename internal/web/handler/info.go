package handler

import (
	"errors"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/auth"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
)

// ErrInvalidID is returned for a non-numeric or non-positive id path param.
var ErrInvalidID = errors.New("invalid id")

// ParseID reads the :id path parameter.
func ParseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}

	return uint(id), nil
}

// FilterInfo describes one operator offered on a filterable column.
type FilterInfo struct {
	Name     string `json:"name"`
	Operator string `json:"operator"`
}

// SurfaceInfo builds the _info payload of a surface: the actions the
// current user may perform on it and the filterable columns.
func SurfaceInfo(c *fiber.Ctx, manager *security.Manager, resource string, filterColumns map[string]bool) fiber.Map {
	permissions := make([]string, 0, 2)

	if userID, ok := auth.UserIDFromContext(c); ok {
		for _, permission := range []string{auth.PermCanRead, auth.PermCanWrite} {
			has, err := manager.HasPermission(userID, permission, resource)
			if err != nil {
				log.Error().Err(err).Str("resource", resource).
					Msg("failed to resolve surface permissions")

				continue
			}

			if has {
				permissions = append(permissions, permission)
			}
		}
	}

	columns := make([]string, 0, len(filterColumns))
	for col := range filterColumns {
		columns = append(columns, col)
	}

	sort.Strings(columns)

	filters := make(map[string][]FilterInfo, len(columns))
	for _, col := range columns {
		filters[col] = []FilterInfo{{Name: "Equal to", Operator: OprEqual}}
	}

	return fiber.Map{
		"permissions": permissions,
		"filters":     filters,
	}
}
