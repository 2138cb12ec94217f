// Package group provides the /groups surface of the security API.
package group

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
	// Path is the base path of the groups surface.
	Path = handler.BasePath + "/groups"

	// RouteInfo exposes the surface metadata.
	RouteInfo = Path + "/_info"
	// RouteItem addresses a single group.
	RouteItem = Path + "/:id"
)

var orderColumns = map[string]bool{"id": true, "name": true, "label": true}

var filterColumns = map[string]bool{"name": true, "label": true}

// Service provides CRUD operations for groups.
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
	read := auth.RequirePermission(authService, auth.PermCanRead, auth.ResourceGroups)
	write := auth.RequirePermission(authService, auth.PermCanWrite, auth.ResourceGroups)

	app.Get(RouteInfo, token, read, s.Info)
	app.Get(Path, token, read, s.List)
	app.Get(RouteItem, token, read, s.Get)
	app.Post(Path, token, write, s.Create)
	app.Put(RouteItem, token, write, s.Update)
	app.Delete(RouteItem, token, write, s.Delete)
}

// Info returns the surface metadata.
func (s *Service) Info(c *fiber.Ctx) error {
	return c.JSON(handler.SurfaceInfo(c, s.manager, auth.ResourceGroups, filterColumns))
}

// List returns groups matching the q query parameter.
func (s *Service) List(c *fiber.Ctx) error {
	q, err := handler.ParseListQuery(c)
	if err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid query format")
	}

	tx := s.manager.DB().Model(&models.Group{})
	tx = q.EqualFilters(tx, filterColumns)

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		log.Error().Err(err).Msg("failed to count groups")

		return fiber.ErrInternalServerError
	}

	var groups []models.Group

	tx = q.Order(tx, orderColumns, "id")
	if err := q.Paginate(tx).Preload("Users").Preload("Roles").Find(&groups).Error; err != nil {
		log.Error().Err(err).Msg("failed to list groups")

		return fiber.ErrInternalServerError
	}

	return c.JSON(handler.ListEnvelope{Count: count, Result: toResponses(groups)})
}

// Get returns a single group by id.
func (s *Service) Get(c *fiber.Ctx) error {
	group, err := s.loadGroup(c)
	if err != nil {
		return s.loadError(c, err)
	}

	return c.JSON(handler.ItemEnvelope{ID: group.ID, Result: toResponse(group)})
}

// Create adds a group with optional role and user id lists.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	group, err := s.manager.AddGroup(req.Name, req.Label, req.Description, req.Roles, req.Users)
	if err != nil {
		return s.createError(c, err)
	}

	return c.Status(fiber.StatusCreated).
		JSON(handler.ItemEnvelope{ID: group.ID, Result: toResponse(group)})
}

func (s *Service) createError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, security.ErrRoleNotFound):
		return handler.FieldErrors(c, fiber.StatusBadRequest,
			map[string][]string{"roles": {"Invalid role id."}})
	case errors.Is(err, security.ErrUserNotFound):
		return handler.FieldErrors(c, fiber.StatusBadRequest,
			map[string][]string{"users": {"Invalid user id."}})
	default:
		return handler.FieldErrors(c, fiber.StatusUnprocessableEntity,
			map[string][]string{"name": {"Already exists."}})
	}
}

// Update applies a partial update to a group.
func (s *Service) Update(c *fiber.Ctx) error {
	group, err := s.loadGroup(c)
	if err != nil {
		return s.loadError(c, err)
	}

	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	if req.Name != nil {
		group.Name = *req.Name
	}

	if req.Label != nil {
		group.Label = *req.Label
	}

	if req.Description != nil {
		group.Description = *req.Description
	}

	// one transaction: an unknown referenced id rolls the whole update back
	if err := s.manager.UpdateGroup(group, req.Users, req.Roles); err != nil {
		return s.updateError(c, err)
	}

	reloaded, err := s.manager.FindGroup(group.Name)
	if err != nil || reloaded == nil {
		log.Error().Err(err).Msg("failed to reload group")

		return fiber.ErrInternalServerError
	}

	return c.JSON(handler.ItemEnvelope{ID: reloaded.ID, Result: toResponse(reloaded)})
}

func (s *Service) updateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, security.ErrUserNotFound),
		errors.Is(err, security.ErrRoleNotFound):
		return handler.NotFound(c)
	case errors.Is(err, security.ErrNameExists):
		return handler.FieldErrors(c, fiber.StatusUnprocessableEntity,
			map[string][]string{"name": {"Already exists."}})
	default:
		log.Error().Err(err).Msg("failed to update group")

		return fiber.ErrInternalServerError
	}
}

// Delete removes a group by id.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParseID(c)
	if err != nil {
		return handler.NotFound(c)
	}

	if err := s.manager.DeleteGroup(id); err != nil {
		if errors.Is(err, security.ErrGroupNotFound) {
			return handler.NotFound(c)
		}

		log.Error().Err(err).Msg("failed to delete group")

		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"message": "OK"})
}

// loadError maps a loadGroup failure: an unknown or malformed id answers
// 404, anything else is a server error.
func (s *Service) loadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, security.ErrGroupNotFound) || errors.Is(err, handler.ErrInvalidID) {
		return handler.NotFound(c)
	}

	log.Error().Err(err).Msg("failed to load group")

	return fiber.ErrInternalServerError
}

func (s *Service) loadGroup(c *fiber.Ctx) (*models.Group, error) {
	id, err := handler.ParseID(c)
	if err != nil {
		return nil, err
	}

	var group models.Group
	if err := s.manager.DB().Preload("Users").Preload("Roles").
		First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, security.ErrGroupNotFound
		}

		return nil, err
	}

	return &group, nil
}
