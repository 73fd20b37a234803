package util

import (
	"crypto/rand"
	"regexp"

	"freepaste/pkg/domain"

	"github.com/pkg/errors"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9]{10}$`)

// GenID returns a 10-character id drawn uniformly per character from the
// 62-char alphanumeric alphabet. The id space is not collision-free at
// scale; callers handle collisions by retrying the insert.
func GenID() (string, error) {
	id := make([]byte, domain.IDLength)
	buf := make([]byte, 1)
	for i := 0; i < domain.IDLength; {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "rand fail")
		}
		// Rejection sampling keeps the per-character distribution uniform:
		// 248 is the largest multiple of 62 below 256.
		if buf[0] >= 248 {
			continue
		}
		id[i] = idAlphabet[int(buf[0])%len(idAlphabet)]
		i++
	}
	return string(id), nil
}

// ValidID reports whether s has the shape of a public paste id.
func ValidID(s string) bool {
	return idPattern.MatchString(s)
}
