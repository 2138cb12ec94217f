package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// User represents a user account in the security store.
// Users authenticate with a local password or via LDAP, and receive their
// permissions through assigned roles and through group memberships.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey"`
	// Active indicates whether the user account is active and can log in.
	Active bool
	// Username is the unique username for login.
	Username string `gorm:"unique;size:100;not null"`
	// Email is the user's email address.
	Email string `gorm:"unique;size:255;not null"`
	// Password is the hashed password, never the plaintext.
	// New hashes are Argon2id; legacy werkzeug scrypt hashes verify too.
	Password string `gorm:"size:255"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100;not null"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100;not null"`
	// LastLogin is the timestamp of the last successful login.
	LastLogin *time.Time
	// LoginCount is the number of successful logins.
	LoginCount int
	// FailLoginCount is the number of failed login attempts since the last success.
	FailLoginCount int
	// Roles are the roles directly assigned to this user.
	Roles []Role `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE"`
	// Groups are the groups this user belongs to.
	Groups []Group `gorm:"many2many:user_groups;constraint:OnDelete:CASCADE"`
	// CreatedByID references the user that created this record, if known.
	CreatedByID *uint
	// ChangedByID references the user that last changed this record, if known.
	ChangedByID *uint
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating user passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hash.
// Argon2id hashes and legacy werkzeug scrypt hashes (imported databases)
// are both accepted; comparison is constant time in both cases.
func (u *User) VerifyPassword(password string) bool {
	if isLegacyScryptHash(u.Password) {
		return verifyLegacyScrypt(password, u.Password)
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
