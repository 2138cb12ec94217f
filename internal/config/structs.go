package config

import (
	"time"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Security  Security
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string // domain name for the webserver
	Port         int    // listening port for the webserver
	ShutDownTime int    // wait time for shutdown
	URL          string // base url for the webserver
}

// LocalDBAuth holds settings for username/password authentication against
// the local user table.
type LocalDBAuth struct {
	Enabled bool
}

// LDAPAuth holds settings for LDAP/Active Directory authentication.
type LDAPAuth struct {
	Enabled      bool
	Server       string // ldap://host:port or ldaps://host:port
	BindDN       string // service account DN used for the search bind
	BindPassword string
	BaseDN       string // subtree searched for user entries
	UserFilter   string // filter with %s substituted by the login name, e.g. (uid=%s)
	StartTLS     bool
}

// OIDCAuth holds settings for accepting externally issued OIDC bearer tokens
// and for the authorization code login flow.
type OIDCAuth struct {
	Enabled      bool
	Issuer       string
	ClientID     string // expected audience of accepted ID tokens
	ClientSecret string // used by the authorization code exchange
	RedirectURL  string // callback registered at the provider
}

// Auth groups the authentication provider settings.
type Auth struct {
	LocalDB LocalDBAuth
	LDAP    LDAPAuth
	OIDC    OIDCAuth
}

// PasswordComplexity holds the password policy settings. When enabled and no
// custom validator is installed at runtime, the default complexity rules
// apply (minimum length, upper, lower, digit and special character).
type PasswordComplexity struct {
	Enabled bool
}

// Security holds the settings of the security API surface.
type Security struct {
	// APIEnabled mounts the /api/v1/security routes. When false the whole
	// surface answers 404.
	APIEnabled bool

	// JWTSecret signs access and refresh tokens (HS256).
	JWTSecret string

	// AccessTokenTTL is the lifetime of issued access tokens.
	AccessTokenTTL time.Duration
	// RefreshTokenTTL is the lifetime of issued refresh tokens.
	RefreshTokenTTL time.Duration

	PasswordComplexity PasswordComplexity
}
