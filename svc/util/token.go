package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"freepaste/pkg/domain"

	"github.com/pkg/errors"
)

// GenToken mints a fresh owner token: 32 bytes from the system CSPRNG,
// hex encoded to 64 lowercase characters. The token is the only proof of
// ownership, so unlike paste ids it must come from a secure source.
func GenToken() (string, error) {
	buf := make([]byte, domain.TokenLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "rand fail")
	}
	return hex.EncodeToString(buf), nil
}

// TokenMatch compares a presented token against the stored one in constant
// time.
func TokenMatch(presented, stored string) bool {
	if presented == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}
