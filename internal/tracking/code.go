// Package tracking issues the human-readable codes handed to anonymous
// complainants in place of an identity-linked record.
package tracking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/kishanss4/corrupt-watch/internal/errors"
)

const prefix = "CW"

var codePattern = regexp.MustCompile(`^CW-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// NewCode generates a candidate code of the form CW-XXXX-XXXX where each half
// is four uppercase hexadecimal characters from an independent random draw.
// Codes are meant to be easy to read back over the phone, not to be secret;
// uniqueness is enforced by the store, callers retry on collision.
func NewCode() (string, error) {
	first, err := segment()
	if err != nil {
		return "", errors.Wrap(err, "first code segment")
	}
	second, err := segment()
	if err != nil {
		return "", errors.Wrap(err, "second code segment")
	}
	return fmt.Sprintf("%s-%s-%s", prefix, first, second), nil
}

// Valid reports whether s has the shape of a tracking code.
func Valid(s string) bool {
	return codePattern.MatchString(s)
}

func segment() (string, error) {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	return strings.ToUpper(hex.EncodeToString(buf[:])), nil
}
