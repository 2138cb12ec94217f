package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
)

// Provider names accepted by the login endpoint.
const (
	// ProviderDB selects username/password authentication against the local database.
	ProviderDB = "db"
	// ProviderLDAP selects username/password authentication against the directory.
	ProviderLDAP = "ldap"
)

// Service ties the authentication providers, the token issuer and the
// security manager together.
type Service struct {
	manager *security.Manager
	issuer  *TokenIssuer
	local   *LocalProvider
	ldap    *LDAPProvider
	oidc    *OIDCProvider
}

// NewService creates the auth service with the providers enabled in the
// configuration. A failing OIDC discovery disables the provider instead of
// failing startup so the API stays usable with local accounts.
func NewService(ctx context.Context, cfg *config.Config, manager *security.Manager) *Service {
	s := &Service{
		manager: manager,
		issuer:  NewTokenIssuer(cfg),
	}

	if cfg.Auth.LocalDB.Enabled {
		s.local = NewLocalProvider(manager)
	}

	if cfg.Auth.LDAP.Enabled {
		provider, err := NewLDAPProvider(cfg.Auth.LDAP, manager)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize LDAP provider")
		} else {
			s.ldap = provider
		}
	}

	if cfg.Auth.OIDC.Enabled {
		provider, err := NewOIDCProvider(ctx, cfg.Auth.OIDC, manager)
		if err != nil {
			log.Error().Err(err).Str("issuer", cfg.Auth.OIDC.Issuer).
				Msg("failed to initialize OIDC provider")
		} else {
			s.oidc = provider
		}
	}

	return s
}

// Issuer exposes the token issuer for handlers that mint tokens.
func (s *Service) Issuer() *TokenIssuer {
	return s.issuer
}

// Manager exposes the security manager for permission checks.
func (s *Service) Manager() *security.Manager {
	return s.manager
}

// Login authenticates a username/password pair with the named provider and
// records the login counters on success.
func (s *Service) Login(provider, username, password string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)

	switch provider {
	case ProviderDB:
		if s.local == nil {
			return nil, ErrProviderDisabled
		}

		user, err = s.local.Authenticate(username, password)
	case ProviderLDAP:
		if s.ldap == nil {
			return nil, ErrProviderDisabled
		}

		user, err = s.ldap.Authenticate(username, password)
	default:
		return nil, ErrUnknownProvider
	}

	if err != nil {
		return nil, err
	}

	if err := s.manager.RegisterLogin(user.ID); err != nil {
		return nil, err
	}

	return user, nil
}

// OAuthAuthorizationURL returns the OIDC provider's authorization URL for
// the given state.
func (s *Service) OAuthAuthorizationURL(state string) (string, error) {
	if s.oidc == nil {
		return "", ErrProviderDisabled
	}

	return s.oidc.AuthCodeURL(state), nil
}

// OAuthLogin redeems an OIDC authorization code and records the login
// counters for the mapped user.
func (s *Service) OAuthLogin(ctx context.Context, code string) (*models.User, error) {
	if s.oidc == nil {
		return nil, ErrProviderDisabled
	}

	user, err := s.oidc.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.manager.RegisterLogin(user.ID); err != nil {
		return nil, err
	}

	return user, nil
}

// ResolveBearer maps a bearer token onto a user id. Locally issued access
// tokens are tried first; externally issued OIDC ID tokens are accepted when
// the provider is enabled.
func (s *Service) ResolveBearer(ctx context.Context, raw string) (uint, error) {
	claims, err := s.issuer.Parse(raw, TokenTypeAccess)
	if err == nil {
		return claims.UserID, nil
	}

	if errors.Is(err, ErrWrongTokenType) {
		return 0, err
	}

	if s.oidc == nil {
		return 0, err
	}

	user, oidcErr := s.oidc.Authenticate(ctx, raw)
	if oidcErr != nil {
		// report the local parse failure, the common case
		return 0, err
	}

	return user.ID, nil
}

// Refresh validates a refresh token and issues a fresh access token for its
// user.
func (s *Service) Refresh(raw string) (string, error) {
	claims, err := s.issuer.Parse(raw, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	// the account may have been disabled since the token was issued
	user, err := s.manager.UserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, security.ErrUserNotFound) {
			return "", ErrInvalidToken
		}

		return "", err
	}

	if !user.Active {
		return "", ErrUserAccountDisabled
	}

	return s.issuer.IssueAccess(user.ID)
}
