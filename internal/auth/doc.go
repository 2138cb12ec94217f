// Package auth provides authentication for the security API.
//
// Three providers are supported, each toggled via configuration:
//   - local database authentication with Argon2id password hashing
//   - LDAP/Active Directory authentication, mirroring directory accounts
//     into the local user table
//   - OpenID Connect bearer tokens issued by an external identity provider
//
// Successful logins are exchanged for a pair of HS256 JWTs: a short-lived
// access token presented on API requests, and a long-lived refresh token
// accepted only by the refresh endpoint.
//
// Fiber middleware protects routes:
//   - RequireToken validates the bearer token and stores the user id in the
//     request locals
//   - RequirePermission checks the user holds a permission on a resource,
//     resolved through direct roles and group roles
//
// Example:
//
//	service := auth.NewService(ctx, cfg, manager)
//
//	app.Get("/api/v1/security/users",
//	    auth.RequireToken(service),
//	    auth.RequirePermission(service, auth.PermCanRead, auth.ResourceUsers),
//	    handler,
//	)
package auth
