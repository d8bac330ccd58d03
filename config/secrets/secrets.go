// Package secrets reads secret values mounted at /run/secrets, as done
// by container runtimes.
package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

const dir = "/run/secrets"

// Prefix is the prefix of a string to indicate it should be substituted
// with the secret value. For example:
//
//	"!secret foo" -> /run/secrets/foo
const Prefix = "!secret "

// CutPrefix is equivalent to [strings.CutPrefix](s, [Prefix])
func CutPrefix(s string) (secret string, ok bool) {
	return strings.CutPrefix(s, Prefix)
}

// Read returns the value of the secret file /run/secrets/<secret>,
// with surrounding whitespace trimmed.
func Read(secret string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, secret))
	if err != nil {
		return "", err
	}

	return string(bytes.TrimSpace(b)), nil
}

// MustRead returns the value of the secret file /run/secrets/<secret>.
// If there is an error reading the file then MustRead returns fallback.
func MustRead(secret, fallback string) string {
	s, err := Read(secret)
	if err != nil {
		return fallback
	}

	return s
}
