package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
)

// OIDCProvider accepts ID tokens issued by an external OpenID Connect
// provider and maps them onto local user records. It also carries the
// oauth2 client used by the authorization code login flow.
type OIDCProvider struct {
	cfg      config.OIDCAuth
	verifier *oidc.IDTokenVerifier
	oauth    oauth2.Config
	manager  *security.Manager
}

// NewOIDCProvider creates an OIDC provider by discovering the issuer's
// signing keys and token endpoint.
func NewOIDCProvider(ctx context.Context, cfg config.OIDCAuth, manager *security.Manager) (*OIDCProvider, error) {
	if !cfg.Enabled {
		return nil, ErrProviderDisabled
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	return &OIDCProvider{
		cfg:      cfg,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		manager: manager,
	}, nil
}

// AuthCodeURL returns the provider's authorization URL for the given state.
func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange redeems an authorization code, verifies the ID token it yields
// and returns the mirrored local user.
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*models.User, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("%w: token response carries no id_token", ErrInvalidToken)
	}

	return p.Authenticate(ctx, rawIDToken)
}

// Authenticate verifies an externally issued ID token and returns the
// mirrored local user. A first-time subject gets a local row without roles.
func (p *OIDCProvider) Authenticate(ctx context.Context, rawIDToken string) (*models.User, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	var claims struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token claims: %w", err)
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w: ID token carries no email claim", ErrInvalidToken)
	}

	user, err := p.manager.FindUser(claims.Email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return p.manager.AddExternalUser(claims.Email, claims.GivenName, claims.FamilyName, claims.Email)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	return user, nil
}
