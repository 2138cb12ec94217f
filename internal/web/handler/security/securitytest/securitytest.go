// Package securitytest provides shared fixtures for the security API
// handler tests: an in-memory database, a seeded admin account and a ready
// Fiber app built the same way the daemon builds it.
package securitytest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/auth"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web"
)

// AdminPassword is the password of the seeded admin account.
const AdminPassword = "AB@12abcef"

// Env bundles everything a handler test needs.
type Env struct {
	App        *fiber.App
	Cfg        *config.Config
	Manager    *security.Manager
	Auth       *auth.Service
	Admin      *models.User
	AdminToken string
}

// New builds a test environment with the security API enabled.
func New(t *testing.T) *Env {
	t.Helper()

	return NewWithConfig(t, nil)
}

// NewWithConfig builds a test environment, letting the caller mutate the
// configuration before the app is assembled.
func NewWithConfig(t *testing.T, mutate func(*config.Config)) *Env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.ViewMenu{},
		&models.PermissionViewMenu{},
		&models.Group{},
	)
	if err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	cfg := &config.Config{}
	cfg.Webserver.Port = 8080
	cfg.Auth.LocalDB.Enabled = true
	cfg.Security.APIEnabled = true
	cfg.Security.JWTSecret = "test-secret"
	cfg.Security.AccessTokenTTL = time.Minute
	cfg.Security.RefreshTokenTTL = time.Hour

	if mutate != nil {
		mutate(cfg)
	}

	manager := security.NewManager(db, cfg)

	admin := seedAdmin(t, manager)

	authService := auth.NewService(context.Background(), cfg, manager)

	token, err := authService.Issuer().IssueAccess(admin.ID)
	if err != nil {
		t.Fatalf("failed to issue admin token: %v", err)
	}

	return &Env{
		App:        web.New(cfg, manager, authService).App,
		Cfg:        cfg,
		Manager:    manager,
		Auth:       authService,
		Admin:      admin,
		AdminToken: token,
	}
}

// seedAdmin grants every base permission on every surface to an Admin role
// and creates the admin account holding it.
func seedAdmin(t *testing.T, manager *security.Manager) *models.User {
	t.Helper()

	resources := []string{
		auth.ResourceUsers,
		auth.ResourceRoles,
		auth.ResourcePermissions,
		auth.ResourceResources,
		auth.ResourcePermissionResources,
		auth.ResourceGroups,
	}

	var pairs []models.PermissionViewMenu

	for _, resource := range resources {
		for _, permission := range []string{auth.PermCanRead, auth.PermCanWrite} {
			pair, err := manager.AddPermissionViewMenu(permission, resource)
			if err != nil {
				t.Fatalf("failed to seed pair %s/%s: %v", permission, resource, err)
			}

			pairs = append(pairs, *pair)
		}
	}

	role, err := manager.AddRole("Admin", pairs...)
	if err != nil {
		t.Fatalf("failed to seed Admin role: %v", err)
	}

	admin, err := manager.AddUser("admin", "Admin", "User", "admin@example.com",
		AdminPassword, []uint{role.ID}, nil)
	if err != nil {
		t.Fatalf("failed to seed admin user: %v", err)
	}

	return admin
}

// Request performs a JSON request against the app with the given bearer
// token; an empty token leaves the Authorization header unset.
func (e *Env) Request(t *testing.T, method, target, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.App.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, target, err)
	}

	return resp
}

// Decode reads a JSON response body into out.
func Decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}
