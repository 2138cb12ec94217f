package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the username or password is wrong.
	// Callers must not reveal which of the two failed.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrUserNotFound is returned when a user cannot be found in the database or directory.
	ErrUserNotFound = errors.New("user not found")

	// ErrMultipleUsersFound is returned when a query expected one user but found multiple.
	// This typically indicates a misconfigured LDAP filter or duplicate entries.
	ErrMultipleUsersFound = errors.New("multiple users found")

	// ErrInvalidToken is returned when a bearer token fails signature or claim validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongTokenType is returned when an access token is presented where a
	// refresh token is required, or the other way around.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrProviderDisabled is returned when the requested authentication
	// provider is disabled via configuration.
	ErrProviderDisabled = errors.New("authentication provider is disabled")

	// ErrUnknownProvider is returned when a login request names a provider
	// that does not exist.
	ErrUnknownProvider = errors.New("unknown authentication provider")
)
