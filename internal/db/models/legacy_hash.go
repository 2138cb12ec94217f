package models

import (
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/scrypt"
)

// Legacy hash format produced by werkzeug.security.generate_password_hash
// with the scrypt method: "scrypt:N:r:p$salt$hexdigest". Databases imported
// from the original Python deployment carry these.

const legacyScryptPrefix = "scrypt:"

// legacyScryptKeyLen is the derived key length werkzeug uses.
const legacyScryptKeyLen = 64

func isLegacyScryptHash(hash string) bool {
	return strings.HasPrefix(hash, legacyScryptPrefix)
}

func verifyLegacyScrypt(password, hash string) bool {
	parts := strings.SplitN(hash, "$", 3)
	if len(parts) != 3 {
		return false
	}

	params := strings.Split(parts[0], ":")
	if len(params) != 4 {
		return false
	}

	n, errN := strconv.Atoi(params[1])
	r, errR := strconv.Atoi(params[2])
	p, errP := strconv.Atoi(params[3])

	if errN != nil || errR != nil || errP != nil {
		return false
	}

	want, err := hex.DecodeString(parts[2])
	if err != nil {
		return false
	}

	got, err := scrypt.Key([]byte(password), []byte(parts[1]), n, r, p, legacyScryptKeyLen)
	if err != nil {
		log.Error().Msgf("failed to derive legacy scrypt key: %v", err)
		return false
	}

	return subtle.ConstantTimeCompare(got, want) == 1
}
