// Package user provides the /users surface of the security API.
package user

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
	// Path is the base path of the users surface.
	Path = handler.BasePath + "/users"

	// RouteInfo exposes the surface metadata.
	RouteInfo = Path + "/_info"
	// RouteItem addresses a single user.
	RouteItem = Path + "/:id"

	// MsgSchemaRolesOrGroups is the cross-field rule on user creation.
	MsgSchemaRolesOrGroups = "At least one of 'roles' or 'groups' must be provided and non-empty."
)

var orderColumns = map[string]bool{
	"id": true, "username": true, "email": true,
	"first_name": true, "last_name": true, "active": true,
}

var filterColumns = map[string]bool{
	"username": true, "email": true, "active": true,
	"first_name": true, "last_name": true,
}

// Service provides CRUD operations for users.
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
	read := auth.RequirePermission(authService, auth.PermCanRead, auth.ResourceUsers)
	write := auth.RequirePermission(authService, auth.PermCanWrite, auth.ResourceUsers)

	app.Get(RouteInfo, token, read, s.Info)
	app.Get(Path, token, read, s.List)
	app.Get(RouteItem, token, read, s.Get)
	app.Post(Path, token, write, s.Create)
	app.Put(RouteItem, token, write, s.Update)
	app.Delete(RouteItem, token, write, s.Delete)
}

// Info returns the surface metadata: permitted actions and filter columns.
func (s *Service) Info(c *fiber.Ctx) error {
	return c.JSON(handler.SurfaceInfo(c, s.manager, auth.ResourceUsers, filterColumns))
}

// List returns users matching the q query parameter.
func (s *Service) List(c *fiber.Ctx) error {
	q, err := handler.ParseListQuery(c)
	if err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid query format")
	}

	tx := s.manager.DB().Model(&models.User{})
	tx = q.EqualFilters(tx, filterColumns)
	tx = s.applyRelationFilters(tx, q)

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		log.Error().Err(err).Msg("failed to count users")

		return fiber.ErrInternalServerError
	}

	var users []models.User

	tx = q.Order(tx, orderColumns, "id")
	if err := q.Paginate(tx).Preload("Roles").Preload("Groups").Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("failed to list users")

		return fiber.ErrInternalServerError
	}

	return c.JSON(handler.ListEnvelope{Count: count, Result: toResponses(users)})
}

// applyRelationFilters handles rel_m_m filters on the roles and groups
// associations.
func (s *Service) applyRelationFilters(tx *gorm.DB, q *handler.ListQuery) *gorm.DB {
	for _, f := range q.Filters {
		if f.Opr != handler.OprRelManyToMany {
			continue
		}

		switch f.Col {
		case "roles":
			tx = tx.Where("users.id IN (SELECT user_id FROM user_roles WHERE role_id = ?)", f.Value)
		case "groups":
			tx = tx.Where("users.id IN (SELECT user_id FROM user_groups WHERE group_id = ?)", f.Value)
		}
	}

	return tx
}

// Get returns a single user by id.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ParseID(c)
	if err != nil {
		return handler.NotFound(c)
	}

	user, err := s.manager.UserByID(id)
	if err != nil {
		if errors.Is(err, security.ErrUserNotFound) {
			return handler.NotFound(c)
		}

		log.Error().Err(err).Msg("failed to load user")

		return fiber.ErrInternalServerError
	}

	return c.JSON(handler.ItemEnvelope{ID: user.ID, Result: toResponse(user)})
}

// Create adds a user. The payload must reference at least one existing role
// or group.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	if len(req.Roles) == 0 && len(req.Groups) == 0 {
		return handler.SchemaError(c, fiber.StatusBadRequest, MsgSchemaRolesOrGroups)
	}

	user, err := s.manager.AddUser(
		req.Username, req.FirstName, req.LastName, req.Email, req.Password,
		req.Roles, req.Groups,
	)
	if err != nil {
		return s.createError(c, err)
	}

	return c.Status(fiber.StatusCreated).
		JSON(handler.ItemEnvelope{ID: user.ID, Result: toResponse(user)})
}

func (s *Service) createError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, security.ErrPasswordComplexity):
		return handler.FieldErrors(c, fiber.StatusBadRequest,
			map[string][]string{"password": {err.Error()}})
	case errors.Is(err, security.ErrRoleNotFound):
		return handler.FieldErrors(c, fiber.StatusBadRequest,
			map[string][]string{"roles": {"Invalid role id."}})
	case errors.Is(err, security.ErrGroupNotFound):
		return handler.FieldErrors(c, fiber.StatusBadRequest,
			map[string][]string{"groups": {"Invalid group id."}})
	default:
		// unique constraint on username or email
		return handler.FieldErrors(c, fiber.StatusUnprocessableEntity,
			map[string][]string{"username": {"Already exists."}})
	}
}

// Update applies a partial update. Absent fields, including the password,
// stay untouched.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParseID(c)
	if err != nil {
		return handler.NotFound(c)
	}

	user, err := s.manager.UserByID(id)
	if err != nil {
		if errors.Is(err, security.ErrUserNotFound) {
			return handler.NotFound(c)
		}

		log.Error().Err(err).Msg("failed to load user")

		return fiber.ErrInternalServerError
	}

	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	if req.Password != nil {
		if err := s.manager.ValidatePassword(*req.Password); err != nil {
			return handler.FieldErrors(c, fiber.StatusBadRequest,
				map[string][]string{"password": {err.Error()}})
		}

		user.Password = models.HashPassword(*req.Password)
	}

	applyProfileFields(user, &req)

	// one transaction: an unknown referenced id rolls the whole update back
	if err := s.manager.UpdateUser(user, req.Roles, req.Groups); err != nil {
		return s.updateError(c, err)
	}

	reloaded, err := s.manager.UserByID(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload user")

		return fiber.ErrInternalServerError
	}

	return c.JSON(handler.ItemEnvelope{ID: reloaded.ID, Result: toResponse(reloaded)})
}

func applyProfileFields(user *models.User, req *updateRequest) {
	if req.Username != nil {
		user.Username = *req.Username
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}

	if req.LastName != nil {
		user.LastName = *req.LastName
	}

	if req.Email != nil {
		user.Email = *req.Email
	}

	if req.Active != nil {
		user.Active = *req.Active
	}
}

func (s *Service) updateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, security.ErrRoleNotFound),
		errors.Is(err, security.ErrGroupNotFound):
		return handler.NotFound(c)
	case errors.Is(err, security.ErrNameExists):
		return handler.FieldErrors(c, fiber.StatusUnprocessableEntity,
			map[string][]string{"username": {"Already exists."}})
	default:
		log.Error().Err(err).Msg("failed to update user")

		return fiber.ErrInternalServerError
	}
}

// Delete removes a user by id.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := handler.ParseID(c)
	if err != nil {
		return handler.NotFound(c)
	}

	if err := s.manager.DeleteUser(id); err != nil {
		if errors.Is(err, security.ErrUserNotFound) {
			return handler.NotFound(c)
		}

		log.Error().Err(err).Msg("failed to delete user")

		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"message": "OK"})
}
