package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
)

func newTestService(t *testing.T) (*Service, *security.Manager) {
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
	cfg.Auth.LocalDB.Enabled = true
	cfg.Security.JWTSecret = "test-secret"
	cfg.Security.AccessTokenTTL = time.Minute
	cfg.Security.RefreshTokenTTL = time.Hour

	manager := security.NewManager(db, cfg)

	return NewService(context.Background(), cfg, manager), manager
}

func addUser(t *testing.T, manager *security.Manager, username, password string) *models.User {
	t.Helper()

	user, err := manager.AddUser(username, "Test", "User", username+"@example.com", password, nil, nil)
	if err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	return user
}

func TestLoginSuccessUpdatesCounters(t *testing.T) {
	service, manager := newTestService(t)
	user := addUser(t, manager, "alice", "AB@12abcef")

	got, err := service.Login(ProviderDB, "alice", "AB@12abcef")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if got.ID != user.ID {
		t.Errorf("logged in user id = %d, want %d", got.ID, user.ID)
	}

	reloaded, err := manager.UserByID(user.ID)
	if err != nil {
		t.Fatalf("UserByID failed: %v", err)
	}

	if reloaded.LoginCount != 1 {
		t.Errorf("LoginCount = %d, want 1", reloaded.LoginCount)
	}

	if reloaded.LastLogin == nil {
		t.Error("LastLogin should be set")
	}
}

func TestLoginWrongPasswordCountsFailure(t *testing.T) {
	service, manager := newTestService(t)
	user := addUser(t, manager, "bob", "AB@12abcef")

	_, err := service.Login(ProviderDB, "bob", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	reloaded, err := manager.UserByID(user.ID)
	if err != nil {
		t.Fatalf("UserByID failed: %v", err)
	}

	if reloaded.FailLoginCount != 1 {
		t.Errorf("FailLoginCount = %d, want 1", reloaded.FailLoginCount)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Login(ProviderDB, "ghost", "AB@12abcef"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	service, manager := newTestService(t)
	user := addUser(t, manager, "carol", "AB@12abcef")

	if err := manager.DB().Model(&models.User{}).Where("id = ?", user.ID).
		Update("active", false).Error; err != nil {
		t.Fatalf("failed to deactivate user: %v", err)
	}

	if _, err := service.Login(ProviderDB, "carol", "AB@12abcef"); !errors.Is(err, ErrUserAccountDisabled) {
		t.Errorf("expected ErrUserAccountDisabled, got %v", err)
	}
}

func TestLoginUnknownProvider(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Login("saml", "alice", "pw"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestLoginLDAPDisabled(t *testing.T) {
	service, _ := newTestService(t)

	if _, err := service.Login(ProviderLDAP, "alice", "pw"); !errors.Is(err, ErrProviderDisabled) {
		t.Errorf("expected ErrProviderDisabled, got %v", err)
	}
}

func TestResolveBearerRoundtrip(t *testing.T) {
	service, manager := newTestService(t)
	user := addUser(t, manager, "dave", "AB@12abcef")

	raw, err := service.Issuer().IssueAccess(user.ID)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	got, err := service.ResolveBearer(context.Background(), raw)
	if err != nil {
		t.Fatalf("ResolveBearer failed: %v", err)
	}

	if got != user.ID {
		t.Errorf("resolved user id = %d, want %d", got, user.ID)
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	service, manager := newTestService(t)
	user := addUser(t, manager, "eve", "AB@12abcef")

	refresh, err := service.Issuer().IssueRefresh(user.ID)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	access, err := service.Refresh(refresh)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	got, err := service.ResolveBearer(context.Background(), access)
	if err != nil {
		t.Fatalf("ResolveBearer failed: %v", err)
	}

	if got != user.ID {
		t.Errorf("resolved user id = %d, want %d", got, user.ID)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	service, manager := newTestService(t)
	user := addUser(t, manager, "frank", "AB@12abcef")

	access, err := service.Issuer().IssueAccess(user.ID)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	if _, err := service.Refresh(access); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestRefreshRejectsDisabledAccount(t *testing.T) {
	service, manager := newTestService(t)
	user := addUser(t, manager, "grace", "AB@12abcef")

	refresh, err := service.Issuer().IssueRefresh(user.ID)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	if err := manager.DB().Model(&models.User{}).Where("id = ?", user.ID).
		Update("active", false).Error; err != nil {
		t.Fatalf("failed to deactivate user: %v", err)
	}

	if _, err := service.Refresh(refresh); !errors.Is(err, ErrUserAccountDisabled) {
		t.Errorf("expected ErrUserAccountDisabled, got %v", err)
	}
}
