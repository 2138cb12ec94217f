package security

import (
	"unicode"
)

// PasswordValidator checks a plaintext password against a policy and returns
// an error when it is rejected. Deployments can install their own validator
// with Manager.SetPasswordValidator.
type PasswordValidator func(password string) error

// defaultPasswordMinLength is the minimum length of the default policy.
const defaultPasswordMinLength = 10

// DefaultPasswordValidator is the builtin complexity policy: at least ten
// characters including an upper case letter, a lower case letter, a digit
// and a special character.
func DefaultPasswordValidator(password string) error {
	if len([]rune(password)) < defaultPasswordMinLength {
		return ErrPasswordComplexity
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsSpace(r):
			// spaces count neither way
		default:
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return ErrPasswordComplexity
	}

	return nil
}
