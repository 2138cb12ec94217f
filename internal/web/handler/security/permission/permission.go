// Package permission provides the read-only /permissions surface of the
// security API. Permissions are created implicitly through the
// permission-resource surface; direct writes answer 405.
package permission

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/auth"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler"
)

const (
	// Path is the base path of the permissions surface.
	Path = handler.BasePath + "/permissions"

	// RouteInfo exposes the surface metadata.
	RouteInfo = Path + "/_info"
	// RouteItem addresses a single permission.
	RouteItem = Path + "/:id"
)

var orderColumns = map[string]bool{"id": true, "name": true}

var filterColumns = map[string]bool{"name": true}

type response struct {
	Name string `json:"name"`
}

// Service provides read operations for permissions.
type Service struct {
	cfg     *config.Config
	manager *security.Manager
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. Write verbs are registered to answer 405 so the
// surface is explicitly read-only rather than a 404.
func (s *Service) Init(app *fiber.App, cfg *config.Config, manager *security.Manager, authService *auth.Service) {
	if app == nil || cfg == nil || manager == nil {
		log.Fatal().Msg(handler.ErrNilACMFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.manager = manager

	token := auth.RequireToken(authService)
	read := auth.RequirePermission(authService, auth.PermCanRead, auth.ResourcePermissions)

	app.Get(RouteInfo, token, read, s.Info)
	app.Get(Path, token, read, s.List)
	app.Get(RouteItem, token, read, s.Get)

	app.Post(Path, token, handler.MethodNotAllowed)
	app.Put(RouteItem, token, handler.MethodNotAllowed)
	app.Delete(RouteItem, token, handler.MethodNotAllowed)
}

// Info returns the surface metadata.
func (s *Service) Info(c *fiber.Ctx) error {
	return c.JSON(handler.SurfaceInfo(c, s.manager, auth.ResourcePermissions, filterColumns))
}

// List returns permissions matching the q query parameter.
func (s *Service) List(c *fiber.Ctx) error {
	q, err := handler.ParseListQuery(c)
	if err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid query format")
	}

	tx := s.manager.DB().Model(&models.Permission{})
	tx = q.EqualFilters(tx, filterColumns)

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		log.Error().Err(err).Msg("failed to count permissions")

		return fiber.ErrInternalServerError
	}

	var permissions []models.Permission

	tx = q.Order(tx, orderColumns, "id")
	if err := q.Paginate(tx).Find(&permissions).Error; err != nil {
		log.Error().Err(err).Msg("failed to list permissions")

		return fiber.ErrInternalServerError
	}

	result := make([]response, len(permissions))
	for i := range permissions {
		result[i] = response{Name: permissions[i].Name}
	}

	return c.JSON(handler.ListEnvelope{Count: count, Result: result})
}

// Get returns a single permission by id.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ParseID(c)
	if err != nil {
		return handler.NotFound(c)
	}

	var permission models.Permission
	if err := s.manager.DB().First(&permission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound(c)
		}

		log.Error().Err(err).Msg("failed to load permission")

		return fiber.ErrInternalServerError
	}

	return c.JSON(handler.ItemEnvelope{ID: permission.ID, Result: response{Name: permission.Name}})
}
