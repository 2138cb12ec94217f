// Package login provides the /login and /refresh endpoints of the security
// API, exchanging credentials for bearer tokens.
package login

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/auth"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/uniuri"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler"
)

const (
	// Path is the login endpoint.
	Path = handler.BasePath + "/login"
	// RefreshPath is the token refresh endpoint.
	RefreshPath = handler.BasePath + "/refresh"
	// OAuthPath serves the OIDC authorization code flow.
	OAuthPath = handler.BasePath + "/oauth"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Provider string `json:"provider" validate:"omitempty,oneof=db ldap"`
	Refresh  bool   `json:"refresh"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Service provides the token issuing endpoints.
type Service struct {
	cfg       *config.Config
	auth      *auth.Service
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
	s.auth = authService
	s.validator = handler.NewValidator()

	app.Post(Path, s.Login)
	app.Post(RefreshPath, s.Refresh)
	app.Get(OAuthPath, s.OAuthAuthorize)
	app.Post(OAuthPath, s.OAuthLogin)
}

// Login exchanges a username/password pair for bearer tokens.
func (s *Service) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	provider := req.Provider
	if provider == "" {
		provider = auth.ProviderDB
	}

	user, err := s.auth.Login(provider, req.Username, req.Password)
	if err != nil {
		return s.loginError(c, err)
	}

	resp := tokenResponse{}

	resp.AccessToken, err = s.auth.Issuer().IssueAccess(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue access token")

		return fiber.ErrInternalServerError
	}

	if req.Refresh {
		resp.RefreshToken, err = s.auth.Issuer().IssueRefresh(user.ID)
		if err != nil {
			log.Error().Err(err).Msg("failed to issue refresh token")

			return fiber.ErrInternalServerError
		}
	}

	return c.JSON(resp)
}

func (s *Service) loginError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrUserAccountDisabled):
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"message": "Not authorized"})
	case errors.Is(err, auth.ErrProviderDisabled),
		errors.Is(err, auth.ErrUnknownProvider):
		return handler.FieldErrors(c, fiber.StatusBadRequest,
			map[string][]string{"provider": {"Invalid value."}})
	default:
		log.Error().Err(err).Msg("login failed")

		return fiber.ErrInternalServerError
	}
}

type oauthRequest struct {
	Code    string `json:"code" validate:"required"`
	Refresh bool   `json:"refresh"`
}

// OAuthAuthorize returns the OIDC provider's authorization URL together with
// the state the client must carry through the redirect.
func (s *Service) OAuthAuthorize(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" {
		state = uniuri.New()
	}

	url, err := s.auth.OAuthAuthorizationURL(state)
	if err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest,
			map[string][]string{"provider": {"Invalid value."}})
	}

	return c.JSON(fiber.Map{"authorization_url": url, "state": state})
}

// OAuthLogin redeems an OIDC authorization code for bearer tokens.
func (s *Service) OAuthLogin(c *fiber.Ctx) error {
	var req oauthRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.SchemaError(c, fiber.StatusBadRequest, "Invalid payload")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.FieldErrors(c, fiber.StatusBadRequest, handler.ValidationMessages(err))
	}

	user, err := s.auth.OAuthLogin(c.Context(), req.Code)
	if err != nil {
		return s.loginError(c, err)
	}

	resp := tokenResponse{}

	resp.AccessToken, err = s.auth.Issuer().IssueAccess(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue access token")

		return fiber.ErrInternalServerError
	}

	if req.Refresh {
		resp.RefreshToken, err = s.auth.Issuer().IssueRefresh(user.ID)
		if err != nil {
			log.Error().Err(err).Msg("failed to issue refresh token")

			return fiber.ErrInternalServerError
		}
	}

	return c.JSON(resp)
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token is presented as the bearer token of the request.
func (s *Service) Refresh(c *fiber.Ctx) error {
	raw := c.Get(fiber.HeaderAuthorization)

	const prefix = "Bearer "
	if len(raw) <= len(prefix) || raw[:len(prefix)] != prefix {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"message": "Not authorized"})
	}

	access, err := s.auth.Refresh(raw[len(prefix):])
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"message": "Not authorized"})
	}

	return c.JSON(tokenResponse{AccessToken: access})
}
