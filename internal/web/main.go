// Package web assembles the Fiber application: middleware, metrics, health
// and the security API surface.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/auth"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	fiberlogger "github.com/GoRBAC-Admin/GoRBAC-Admin/internal/logger/adapter/fiber"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/group"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/login"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/permission"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/permissionresource"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/resource"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/role"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/security/user"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	manager      *security.Manager
	authService  *auth.Service
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: fail the health check first so
	// the LB removes this instance from its active targets.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 for %d seconds to let the LB drain this instance",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, manager *security.Manager, authService *auth.Service) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if manager == nil {
		panic("manager cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "GoRBAC-Admin",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   errorHandler,
		},
	)

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: "/health",
	}))

	service := &Service{
		cfg:         cfg,
		App:         app,
		manager:     manager,
		authService: authService,
	}
	service.alive.Store(true)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", service.health)

	// the whole security surface disappears when the API flag is off
	if cfg.Security.APIEnabled {
		login.Handler.Init(app, cfg, manager, authService)
		user.Handler.Init(app, cfg, manager, authService)
		role.Handler.Init(app, cfg, manager, authService)
		permission.Handler.Init(app, cfg, manager, authService)
		resource.Handler.Init(app, cfg, manager, authService)
		permissionresource.Handler.Init(app, cfg, manager, authService)
		group.Handler.Init(app, cfg, manager, authService)
	} else {
		log.Warn().Msg("security API disabled, surface answers 404")
	}

	// unmatched routes answer the canonical 404 body
	app.Use(handler.NotFound)

	return service
}

// health serves the liveness check, turning 503 during graceful shutdown.
func (s *Service) health(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).
			JSON(fiber.Map{"status": "shutting down"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// errorHandler renders uncaught errors as the API's JSON error bodies.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code == fiber.StatusNotFound {
		return c.Status(code).JSON(fiber.Map{"message": handler.MsgNotFound})
	}

	return c.Status(code).JSON(fiber.Map{"message": utilsStatusMessage(code)})
}

func utilsStatusMessage(code int) string {
	switch code {
	case fiber.StatusMethodNotAllowed:
		return "Method not allowed"
	case fiber.StatusUnauthorized:
		return "Not authorized"
	default:
		return "Internal server error"
	}
}
