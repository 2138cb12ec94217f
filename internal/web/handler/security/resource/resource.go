// Package resource provides the /resources surface of the security API:
// CRUD over the protected resources (view menus) permissions attach to.
package resource

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
	// Path is the base path of the resources surface.
	Path = handler.BasePath + "/resources"

	// RouteInfo exposes the surface metadata.
	RouteInfo = Path + "/_info"
	// RouteItem addresses a single resource.
	RouteItem = Path + "/:id"
)

var orderColumns = map[string]bool{"id": true, "name": true}

var filterColumns = map[string]bool{"name": true}

type writeRequest struct {
	Name string `json:"name" validate:"required,max=250"`
}

type response struct {
	Name string `json:"name"`
}

// Service provides CRUD operations for protected resources.
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
	read := auth.RequirePermission(authService, auth.PermCanRead, auth.ResourceResources)
	write := auth.RequirePermission(authService, auth.PermCanWrite, auth.ResourceResources)

	app.Get(RouteInfo, token, read, s.Info)
	app.Get(Path, token, read, s.List)
	app.Get(RouteItem, token, read, s.Get)
	app.Post(Path, token, write, s.Create)
	app.Put(RouteItem, token, write, s.Update)
	app.Delete(RouteItem, token, write, s.Delete)
}

// Info returns the surface metadata.
func (s *Service) Info(c *fiber.Ctx) error {
	return c.JSON(handler.SurfaceInfo(c, s.manager, auth.ResourceResources, filterColumns))
}

// List returns resources matching the q query parameter.
func (s *Service) List(c *fiber.Ctx) error {
	q, err := handler.ParseListQuery(c)
	if err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid query format")
	}

	tx := s.manager.DB().Model(&models.ViewMenu{})
	tx = q.EqualFilters(tx, filterColumns)

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		log.Error().Err(err).Msg("failed to count resources")

		return fiber.ErrInternalServerError
	}

	var viewMenus []models.ViewMenu

	tx = q.Order(tx, orderColumns, "id")
	if err := q.Paginate(tx).Find(&viewMenus).Error; err != nil {
		log.Error().Err(err).Msg("failed to list resources")

		return fiber.ErrInternalServerError
	}

	result := make([]response, len(viewMenus))
	for i := range viewMenus {
		result[i] = response{Name: viewMenus[i].Name}
	}

	return c.JSON(handler.ListEnvelope{Count: count, Result: result})
}

// Get returns a single resource by id.
func (s *Service) Get(c *fiber.Ctx) error {
	viewMenu, err := s.loadViewMenu(c)
	if err != nil {
		return s.loadError(c, err)
	}

	return c.JSON(handler.ItemEnvelope{ID: viewMenu.ID, Result: response{Name: viewMenu.Name}})
}

// Create adds a resource. A missing name is a 422 on this surface.
func (s *Service) Create(c *fiber.Ctx) error {
	var req writeRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusUnprocessableEntity, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusUnprocessableEntity, handler.ValidationMessages(err))
	}

	if existing, err := s.manager.FindViewMenu(req.Name); err == nil && existing != nil {
		return handler.FieldErrors(c, fiber.StatusUnprocessableEntity,
			map[string][]string{"name": {"Already exists."}})
	}

	viewMenu, err := s.manager.AddViewMenu(req.Name)
	if err != nil {
		log.Error().Err(err).Msg("failed to create resource")

		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).
		JSON(handler.ItemEnvelope{ID: viewMenu.ID, Result: response{Name: viewMenu.Name}})
}

// Update renames a resource.
func (s *Service) Update(c *fiber.Ctx) error {
	viewMenu, err := s.loadViewMenu(c)
	if err != nil {
		return s.loadError(c, err)
	}

	var req writeRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusUnprocessableEntity, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusUnprocessableEntity, handler.ValidationMessages(err))
	}

	viewMenu.Name = req.Name
	if err := s.manager.DB().Save(viewMenu).Error; err != nil {
		return handler.FieldErrors(c, fiber.StatusUnprocessableEntity,
			map[string][]string{"name": {"Already exists."}})
	}

	return c.JSON(handler.ItemEnvelope{ID: viewMenu.ID, Result: response{Name: viewMenu.Name}})
}

// Delete removes a resource together with its permission pairs.
func (s *Service) Delete(c *fiber.Ctx) error {
	viewMenu, err := s.loadViewMenu(c)
	if err != nil {
		return s.loadError(c, err)
	}

	if err := s.manager.DeleteViewMenu(viewMenu.Name); err != nil {
		if errors.Is(err, security.ErrViewMenuNotFound) {
			return handler.NotFound(c)
		}

		log.Error().Err(err).Msg("failed to delete resource")

		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"message": "OK"})
}

// loadError maps a loadViewMenu failure: an unknown or malformed id answers
// 404, anything else is a server error.
func (s *Service) loadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, security.ErrViewMenuNotFound) || errors.Is(err, handler.ErrInvalidID) {
		return handler.NotFound(c)
	}

	log.Error().Err(err).Msg("failed to load resource")

	return fiber.ErrInternalServerError
}

func (s *Service) loadViewMenu(c *fiber.Ctx) (*models.ViewMenu, error) {
	id, err := handler.ParseID(c)
	if err != nil {
		return nil, err
	}

	var viewMenu models.ViewMenu
	if err := s.manager.DB().First(&viewMenu, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, security.ErrViewMenuNotFound
		}

		return nil, err
	}

	return &viewMenu, nil
}
