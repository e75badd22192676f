package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"strings"

	"github.com/google/uuid"
)

const codeDigits = 6

// GenerateCode returns a 6-digit numeric verification code using crypto/rand.
func GenerateCode() (string, error) {
	b := make([]byte, codeDigits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, codeDigits)
	for i := 0; i < codeDigits; i++ {
		s[i] = '0' + (b[i] % 10)
	}
	return string(s), nil
}

// CodeEqual performs constant-time comparison of verification codes.
func CodeEqual(provided, stored string) bool {
	if provided == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(stored)) == 1
}

// GenerateResetToken returns a high-entropy opaque token for the second stage
// of the password reset flow.
func GenerateResetToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
