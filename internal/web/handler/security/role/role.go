// Package role provides the /roles surface of the security API, including
// the nested permission and membership routes.
package role

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
	// Path is the base path of the roles surface.
	Path = handler.BasePath + "/roles"

	// RouteInfo exposes the surface metadata.
	RouteInfo = Path + "/_info"
	// RouteItem addresses a single role.
	RouteItem = Path + "/:id"
	// RoutePermissions lists and replaces a role's permission pairs.
	RoutePermissions = RouteItem + "/permissions"
	// RouteUsers replaces a role's member set.
	RouteUsers = RouteItem + "/users"
	// RouteGroups replaces the groups holding a role.
	RouteGroups = RouteItem + "/groups"
)

var orderColumns = map[string]bool{"id": true, "name": true}

var filterColumns = map[string]bool{"name": true}

// Service provides CRUD operations for roles.
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
	read := auth.RequirePermission(authService, auth.PermCanRead, auth.ResourceRoles)
	write := auth.RequirePermission(authService, auth.PermCanWrite, auth.ResourceRoles)

	app.Get(RouteInfo, token, read, s.Info)
	app.Get(Path, token, read, s.List)
	app.Get(RouteItem, token, read, s.Get)
	app.Post(Path, token, write, s.Create)
	app.Put(RouteItem, token, write, s.Update)
	app.Delete(RouteItem, token, write, s.Delete)

	app.Get(RoutePermissions, token, read, s.ListPermissions)
	app.Post(RoutePermissions, token, write, s.ReplacePermissions)
	app.Put(RouteUsers, token, write, s.ReplaceUsers)
	app.Put(RouteGroups, token, write, s.ReplaceGroups)
}

// Info returns the surface metadata.
func (s *Service) Info(c *fiber.Ctx) error {
	return c.JSON(handler.SurfaceInfo(c, s.manager, auth.ResourceRoles, filterColumns))
}

// List returns roles matching the q query parameter.
func (s *Service) List(c *fiber.Ctx) error {
	q, err := handler.ParseListQuery(c)
	if err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid query format")
	}

	tx := s.manager.DB().Model(&models.Role{})
	tx = q.EqualFilters(tx, filterColumns)

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		log.Error().Err(err).Msg("failed to count roles")

		return fiber.ErrInternalServerError
	}

	var roles []models.Role

	tx = q.Order(tx, orderColumns, "id")
	if err := q.Paginate(tx).Find(&roles).Error; err != nil {
		log.Error().Err(err).Msg("failed to list roles")

		return fiber.ErrInternalServerError
	}

	result := make([]response, len(roles))
	for i := range roles {
		result[i] = response{Name: roles[i].Name}
	}

	return c.JSON(handler.ListEnvelope{Count: count, Result: result})
}

// Get returns a single role by id.
func (s *Service) Get(c *fiber.Ctx) error {
	role, err := s.loadRole(c)
	if err != nil {
		return s.loadError(c, err)
	}

	return c.JSON(handler.ItemEnvelope{ID: role.ID, Result: response{Name: role.Name}})
}

// Create adds a role.
func (s *Service) Create(c *fiber.Ctx) error {
	var req writeRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	role, err := s.manager.AddRole(req.Name)
	if err != nil {
		return handler.FieldErrors(c, fiber.StatusUnprocessableEntity,
			map[string][]string{"name": {"Already exists."}})
	}

	return c.Status(fiber.StatusCreated).
		JSON(handler.ItemEnvelope{ID: role.ID, Result: response{Name: role.Name}})
}

// Update renames a role.
func (s *Service) Update(c *fiber.Ctx) error {
	role, err := s.loadRole(c)
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

	role.Name = req.Name
	if err := s.manager.DB().Save(role).Error; err != nil {
		return handler.FieldErrors(c, fiber.StatusUnprocessableEntity,
			map[string][]string{"name": {"Already exists."}})
	}

	return c.JSON(handler.ItemEnvelope{ID: role.ID, Result: response{Name: role.Name}})
}

// Delete removes a role by id.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParseID(c)
	if err != nil {
		return handler.NotFound(c)
	}

	if err := s.manager.DeleteRole(id); err != nil {
		if errors.Is(err, security.ErrRoleNotFound) {
			return handler.NotFound(c)
		}

		log.Error().Err(err).Msg("failed to delete role")

		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"message": "OK"})
}

// ListPermissions returns the role's permission pairs with their names.
func (s *Service) ListPermissions(c *fiber.Ctx) error {
	role, err := s.loadRole(c)
	if err != nil {
		return s.loadError(c, err)
	}

	var pairs []models.PermissionViewMenu

	err = s.manager.DB().
		Joins("JOIN permission_view_menu_roles pvr ON pvr.permission_view_menu_id = permission_view_menus.id").
		Where("pvr.role_id = ?", role.ID).
		Preload("Permission").Preload("ViewMenu").
		Order("permission_view_menus.id asc").
		Find(&pairs).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to list role permissions")

		return fiber.ErrInternalServerError
	}

	result := make([]pairItem, len(pairs))
	for i := range pairs {
		result[i] = pairItem{
			ID:             pairs[i].ID,
			PermissionName: pairs[i].Permission.Name,
			ViewMenuName:   pairs[i].ViewMenu.Name,
		}
	}

	return c.JSON(fiber.Map{"result": result})
}

// ReplacePermissions replaces the role's full permission pair set.
func (s *Service) ReplacePermissions(c *fiber.Ctx) error {
	role, err := s.loadRole(c)
	if err != nil {
		return s.loadError(c, err)
	}

	var req permissionsRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	if err := s.manager.ReplaceRolePermissions(role.ID, req.PermissionViewMenuIDs); err != nil {
		return s.replaceError(c, err)
	}

	return c.JSON(fiber.Map{"result": req})
}

// ReplaceUsers replaces the role's member set.
func (s *Service) ReplaceUsers(c *fiber.Ctx) error {
	role, err := s.loadRole(c)
	if err != nil {
		return s.loadError(c, err)
	}

	var req usersRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	if err := s.manager.ReplaceRoleUsers(role.ID, req.UserIDs); err != nil {
		return s.replaceError(c, err)
	}

	return c.JSON(fiber.Map{"result": req})
}

// ReplaceGroups replaces the groups holding the role.
func (s *Service) ReplaceGroups(c *fiber.Ctx) error {
	role, err := s.loadRole(c)
	if err != nil {
		return s.loadError(c, err)
	}

	var req groupsRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	if err := s.manager.ReplaceRoleGroups(role.ID, req.GroupIDs); err != nil {
		return s.replaceError(c, err)
	}

	return c.JSON(fiber.Map{"result": req})
}

// replaceError maps unknown referenced ids to 404 per the membership routes.
func (s *Service) replaceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, security.ErrRoleNotFound),
		errors.Is(err, security.ErrUserNotFound),
		errors.Is(err, security.ErrGroupNotFound),
		errors.Is(err, security.ErrPermissionViewMenuNotFound):
		return handler.NotFound(c)
	default:
		log.Error().Err(err).Msg("failed to replace role membership")

		return fiber.ErrInternalServerError
	}
}

// loadError maps a loadRole failure: an unknown or malformed id answers
// 404, anything else is a server error.
func (s *Service) loadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, security.ErrRoleNotFound) || errors.Is(err, handler.ErrInvalidID) {
		return handler.NotFound(c)
	}

	log.Error().Err(err).Msg("failed to load role")

	return fiber.ErrInternalServerError
}

func (s *Service) loadRole(c *fiber.Ctx) (*models.Role, error) {
	id, err := handler.ParseID(c)
	if err != nil {
		return nil, err
	}

	var role models.Role
	if err := s.manager.DB().First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, security.ErrRoleNotFound
		}

		return nil, err
	}

	return &role, nil
}
