// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
func Create(cfg *config.Config) string {
	switch cfg.DB.GormEngine {
	case "postgres":
		out := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d",
			cfg.DB.Host,
			cfg.DB.User,
			cfg.DB.Password,
			cfg.DB.Name,
			cfg.DB.Port,
		)

		if cfg.DB.Extras != "" {
			out += " " + cfg.DB.Extras
		}

		return out
	case "sqlite":
		// Name is a file path here; empty means in-memory.
		if cfg.DB.Name == "" {
			return ":memory:"
		}

		return cfg.DB.Name
	default: // mysql
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			cfg.DB.User,
			cfg.DB.Password,
			cfg.DB.Host,
			cfg.DB.Port,
			cfg.DB.Name,
			cfg.DB.Extras,
		)
	}
}
