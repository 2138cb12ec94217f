package auth

import (
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
)

// LocalProvider handles username/password authentication against the local
// user table.
type LocalProvider struct {
	manager *security.Manager
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(manager *security.Manager) *LocalProvider {
	return &LocalProvider{manager: manager}
}

// Authenticate verifies a username/password pair against the local database.
// A wrong password increments the user's failed-login counter.
func (p *LocalProvider) Authenticate(username, password string) (*models.User, error) {
	user, err := p.manager.FindUser(username)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		if err := p.manager.RegisterFailedLogin(user.ID); err != nil {
			return nil, err
		}

		return nil, ErrInvalidCredentials
	}

	return user, nil
}
