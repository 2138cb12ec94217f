package auth

import (
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/security"
)

// ldapUserAttributes are the entry attributes fetched for a user search.
var ldapUserAttributes = []string{"uid", "mail", "givenName", "sn", "dn"}

// LDAPProvider authenticates users against an LDAP or Active Directory
// server and mirrors them into the local user table.
type LDAPProvider struct {
	cfg     config.LDAPAuth
	manager *security.Manager
}

// NewLDAPProvider creates a new LDAP provider.
func NewLDAPProvider(cfg config.LDAPAuth, manager *security.Manager) (*LDAPProvider, error) {
	if !cfg.Enabled {
		return nil, ErrProviderDisabled
	}

	if cfg.UserFilter == "" {
		cfg.UserFilter = "(uid=%s)"
	}

	return &LDAPProvider{cfg: cfg, manager: manager}, nil
}

// Connect establishes a connection to the configured LDAP server and
// upgrades it with StartTLS when requested.
func (p *LDAPProvider) Connect() (*ldap.Conn, error) {
	conn, err := ldap.DialURL(p.cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	if p.cfg.StartTLS {
		if errTLS := conn.StartTLS(&tls.Config{MinVersion: tls.VersionTLS12}); errTLS != nil {
			closeConn(conn)

			return nil, fmt.Errorf("failed to start TLS: %w", errTLS)
		}
	}

	return conn, nil
}

// Authenticate verifies a username/password pair against the directory and
// returns the mirrored local user.
func (p *LDAPProvider) Authenticate(username, password string) (*models.User, error) {
	conn, err := p.Connect()
	if err != nil {
		return nil, err
	}

	defer closeConn(conn)

	if err := p.bindService(conn); err != nil {
		return nil, err
	}

	entry, err := p.searchUserEntry(conn, username)
	if err != nil {
		return nil, err
	}

	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.mirrorUser(
		username,
		entry.GetAttributeValue("mail"),
		entry.GetAttributeValue("givenName"),
		entry.GetAttributeValue("sn"),
	)
}

// TestConnection checks the server connection and the service bind.
func (p *LDAPProvider) TestConnection() error {
	conn, err := p.Connect()
	if err != nil {
		return err
	}

	defer closeConn(conn)

	return p.bindService(conn)
}

func (p *LDAPProvider) bindService(conn *ldap.Conn) error {
	if p.cfg.BindDN == "" {
		return nil
	}

	if err := conn.Bind(p.cfg.BindDN, p.cfg.BindPassword); err != nil {
		return fmt.Errorf("failed to bind with service account: %w", err)
	}

	return nil
}

// searchUserEntry searches the directory for the given username and returns
// a single entry.
func (p *LDAPProvider) searchUserEntry(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	filter := strings.ReplaceAll(p.cfg.UserFilter, "%s", ldap.EscapeFilter(username))

	searchRequest := ldap.NewSearchRequest(
		p.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		0,
		false,
		filter,
		ldapUserAttributes,
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	switch len(searchResult.Entries) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return searchResult.Entries[0], nil
	default:
		return nil, ErrMultipleUsersFound
	}
}

// mirrorUser creates or refreshes the local row for a directory user. The
// mirrored row has no local password so it can only log in via LDAP.
func (p *LDAPProvider) mirrorUser(username, email, firstName, lastName string) (*models.User, error) {
	user, err := p.manager.FindUser(username)
	if err != nil {
		return nil, err
	}

	if user == nil {
		created, errCreate := p.manager.AddExternalUser(username, firstName, lastName, email)
		if errCreate != nil {
			return nil, fmt.Errorf("failed to mirror directory user: %w", errCreate)
		}

		log.Info().Str("username", username).Msg("created local user for directory account")

		return created, nil
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	if err := p.manager.UpdateUserProfile(user.ID, firstName, lastName, email); err != nil {
		return nil, fmt.Errorf("failed to refresh directory user: %w", err)
	}

	user.FirstName = firstName
	user.LastName = lastName
	user.Email = email

	return user, nil
}

func closeConn(conn *ldap.Conn) {
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close LDAP connection")
	}
}
