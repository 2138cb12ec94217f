// Package permissionresource provides the /permissions-resources surface of
// the security API: CRUD over the pairs granting a named permission on a
// named resource.
package permissionresource

import (
	"errors"

	"github.com/go-playground/validator/v10"
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
	// Path is the base path of the permission-resource surface.
	Path = handler.BasePath + "/permissions-resources"

	// RouteInfo exposes the surface metadata.
	RouteInfo = Path + "/_info"
	// RouteItem addresses a single pair.
	RouteItem = Path + "/:id"
)

var orderColumns = map[string]bool{"id": true, "permission_id": true, "view_menu_id": true}

var filterColumns = map[string]bool{"permission_id": true, "view_menu_id": true}

type writeRequest struct {
	PermissionName string `json:"permission_name" validate:"required,max=100"`
	ViewMenuName   string `json:"view_menu_name" validate:"required,max=250"`
}

type response struct {
	PermissionName string `json:"permission_name"`
	ViewMenuName   string `json:"view_menu_name"`
}

// Service provides CRUD operations for permission-resource pairs.
type Service struct {
	cfg       *config.Config
	manager   *security.Manager
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, manager *security.Manager, authService *auth.Service) {
	if app == nil || cfg == nil || manager == nil {
		log.Fatal().Msg(handler.ErrNilACMFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.manager = manager
	s.validator = handler.NewValidator()

	token := auth.RequireToken(authService)
	read := auth.RequirePermission(authService, auth.PermCanRead, auth.ResourcePermissionResources)
	write := auth.RequirePermission(authService, auth.PermCanWrite, auth.ResourcePermissionResources)

	app.Get(RouteInfo, token, read, s.Info)
	app.Get(Path, token, read, s.List)
	app.Get(RouteItem, token, read, s.Get)
	app.Post(Path, token, write, s.Create)
	app.Put(RouteItem, token, write, s.Update)
	app.Delete(RouteItem, token, write, s.Delete)
}

// Info returns the surface metadata.
func (s *Service) Info(c *fiber.Ctx) error {
	return c.JSON(handler.SurfaceInfo(c, s.manager, auth.ResourcePermissionResources, filterColumns))
}

// List returns pairs matching the q query parameter.
func (s *Service) List(c *fiber.Ctx) error {
	q, err := handler.ParseListQuery(c)
	if err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid query format")
	}

	tx := s.manager.DB().Model(&models.PermissionViewMenu{})
	tx = q.EqualFilters(tx, filterColumns)

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		log.Error().Err(err).Msg("failed to count permission-resource pairs")

		return fiber.ErrInternalServerError
	}

	var pairs []models.PermissionViewMenu

	tx = q.Order(tx, orderColumns, "id")
	if err := q.Paginate(tx).Preload("Permission").Preload("ViewMenu").Find(&pairs).Error; err != nil {
		log.Error().Err(err).Msg("failed to list permission-resource pairs")

		return fiber.ErrInternalServerError
	}

	result := make([]response, len(pairs))
	for i := range pairs {
		result[i] = toResponse(&pairs[i])
	}

	return c.JSON(handler.ListEnvelope{Count: count, Result: result})
}

// Get returns a single pair by id.
func (s *Service) Get(c *fiber.Ctx) error {
	pair, err := s.loadPair(c)
	if err != nil {
		return s.loadError(c, err)
	}

	return c.JSON(handler.ItemEnvelope{ID: pair.ID, Result: toResponse(pair)})
}

// Create grants a permission on a resource, creating both names as needed.
func (s *Service) Create(c *fiber.Ctx) error {
	var req writeRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	pair, err := s.manager.AddPermissionViewMenu(req.PermissionName, req.ViewMenuName)
	if err != nil {
		log.Error().Err(err).Msg("failed to create permission-resource pair")

		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).
		JSON(handler.ItemEnvelope{ID: pair.ID, Result: response(req)})
}

// Update repoints an existing pair at a different permission and resource.
func (s *Service) Update(c *fiber.Ctx) error {
	pair, err := s.loadPair(c)
	if err != nil {
		return s.loadError(c, err)
	}

	var req writeRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	permission, err := s.manager.AddPermission(req.PermissionName)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve permission")

		return fiber.ErrInternalServerError
	}

	viewMenu, err := s.manager.AddViewMenu(req.ViewMenuName)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve resource")

		return fiber.ErrInternalServerError
	}

	pair.PermissionID = permission.ID
	pair.ViewMenuID = viewMenu.ID

	if err := s.manager.DB().Save(pair).Error; err != nil {
		return handler.SchemaError(c, fiber.StatusUnprocessableEntity, "Pair already exists.")
	}

	return c.JSON(handler.ItemEnvelope{ID: pair.ID, Result: response(req)})
}

// Delete removes a pair. A pair still attached to a role is not deleted.
func (s *Service) Delete(c *fiber.Ctx) error {
	pair, err := s.loadPair(c)
	if err != nil {
		return s.loadError(c, err)
	}

	err = s.manager.DeletePermissionViewMenu(pair.Permission.Name, pair.ViewMenu.Name, false)

	switch {
	case err == nil:
		return c.JSON(fiber.Map{"message": "OK"})
	case errors.Is(err, security.ErrPermissionViewMenuNotFound):
		return handler.NotFound(c)
	case errors.Is(err, security.ErrPermissionViewMenuInUse):
		return handler.SchemaError(c, fiber.StatusUnprocessableEntity,
			"Pair is still assigned to a role.")
	default:
		log.Error().Err(err).Msg("failed to delete permission-resource pair")

		return fiber.ErrInternalServerError
	}
}

// loadError maps a loadPair failure: an unknown or malformed id answers
// 404, anything else is a server error.
func (s *Service) loadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, security.ErrPermissionViewMenuNotFound) || errors.Is(err, handler.ErrInvalidID) {
		return handler.NotFound(c)
	}

	log.Error().Err(err).Msg("failed to load permission-resource pair")

	return fiber.ErrInternalServerError
}

func (s *Service) loadPair(c *fiber.Ctx) (*models.PermissionViewMenu, error) {
	id, err := handler.ParseID(c)
	if err != nil {
		return nil, err
	}

	var pair models.PermissionViewMenu
	if err := s.manager.DB().Preload("Permission").Preload("ViewMenu").
		First(&pair, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, security.ErrPermissionViewMenuNotFound
		}

		return nil, err
	}

	return &pair, nil
}

func toResponse(pair *models.PermissionViewMenu) response {
	return response{
		PermissionName: pair.Permission.Name,
		ViewMenuName:   pair.ViewMenu.Name,
	}
}
