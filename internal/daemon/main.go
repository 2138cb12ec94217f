// Package daemon wires the database, the security manager, the auth
// providers and the web service into a running process.
package daemon

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/auth"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/dsn"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/logger/adapter/gormlogger"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until it is shut down.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.ViewMenu{},
		&models.PermissionViewMenu{},
		&models.Group{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	manager := security.NewManager(db, cfg)

	if err := seed(manager); err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
		return nil
	}

	authService := auth.NewService(context.Background(), cfg, manager)

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, manager, authService),
	}
}

// openDatabase opens the configured database engine with the zerolog
// adapter installed as gorm's logger.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "postgres":
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	return gorm.Open(dialector, &gorm.Config{Logger: gormlogger.New()})
}
