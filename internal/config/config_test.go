package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadConfig(t *testing.T) {
	var (
		err         error
		projectRoot string
	)

	// Get the project root by going up from internal/config
	projectRoot, err = filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	var cfg Config

	cfg, err = ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	if cfg.DB.GormEngine == "" {
		t.Error("DB.GormEngine should be defaulted")
	}

	if cfg.Security.JWTSecret == "" {
		t.Error("Security.JWTSecret should not be empty")
	}

	// TTL defaults must be filled by validate
	if cfg.Security.AccessTokenTTL == 0 {
		t.Error("Security.AccessTokenTTL should be defaulted")
	}

	if cfg.Security.RefreshTokenTTL == 0 {
		t.Error("Security.RefreshTokenTTL should be defaulted")
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		return Config{
			Webserver: Webserver{
				Port: 8080,
				URL:  "http://localhost:8080",
			},
			Security: Security{JWTSecret: "secret"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(_ *Config) {},
			wantErr: false,
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Webserver.Port = 0 },
			wantErr: true,
		},
		{
			name:    "missing URL",
			mutate:  func(c *Config) { c.Webserver.URL = "" },
			wantErr: true,
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "" },
			wantErr: true,
		},
		{
			name:    "unknown gorm engine",
			mutate:  func(c *Config) { c.DB.GormEngine = "oracle" },
			wantErr: true,
		},
		{
			name:    "postgres engine accepted",
			mutate:  func(c *Config) { c.DB.GormEngine = "postgres" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := validate(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{
		Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
		Security:  Security{JWTSecret: "secret"},
	}

	if err := validate(&cfg); err != nil {
		t.Fatalf("validate() error = %v", err)
	}

	if cfg.Webserver.ShutDownTime != 5 {
		t.Errorf("ShutDownTime = %d, want 5", cfg.Webserver.ShutDownTime)
	}

	if cfg.DB.GormEngine != "sqlite" {
		t.Errorf("GormEngine = %q, want sqlite", cfg.DB.GormEngine)
	}

	if cfg.Security.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 15m", cfg.Security.AccessTokenTTL)
	}
}

func TestReadConfigWithJSONOverride(t *testing.T) {
	var (
		err         error
		projectRoot string
	)

	projectRoot, err = filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	// Set JSON override environment variable
	jsonOverride := `{"Title":"Test Override","Webserver":{"Port":9090}}`
	t.Setenv(EnvConfigJSON, jsonOverride)

	var cfg Config

	cfg, err = ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title != "Test Override" {
		t.Errorf("Title = %v, want %v", cfg.Title, "Test Override")
	}

	if cfg.Webserver.Port != 9090 {
		t.Errorf("Webserver.Port = %v, want %v", cfg.Webserver.Port, 9090)
	}
}

func TestDumpConfig(t *testing.T) {
	cfg := Config{
		Title:   "Test",
		DevMode: true,
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
	}

	tomlStr, err := DumpConfig(&cfg)
	if err != nil {
		t.Fatalf("DumpConfig() error = %v", err)
	}

	if !strings.Contains(tomlStr, "Test") {
		t.Error("DumpConfig() output should contain Title")
	}
}

func TestDumpConfigJSON(t *testing.T) {
	cfg := Config{
		Title:   "Test",
		DevMode: true,
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
	}

	jsonStr, err := DumpConfigJSON(&cfg)
	if err != nil {
		t.Fatalf("DumpConfigJSON() error = %v", err)
	}

	if !strings.Contains(jsonStr, "Test") {
		t.Error("DumpConfigJSON() output should contain Title")
	}
}
