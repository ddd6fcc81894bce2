package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

const inviteSaltLength = 16

// GenerateToken creates a cryptographically secure random token of the
// specified byte length, returned as a base64url string (no padding).
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateInviteCode produces an opaque invitation code: the SHA-256 of
// a random salt, the inviter identity, and the current time, hex
// encoded (64 chars, safe in a URL path segment). Collisions are
// negligible over the system lifetime; the store's unique index treats
// one as an invariant violation rather than retrying.
func GenerateInviteCode(inviter string) (string, error) {
	salt := make([]byte, inviteSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate invite code salt: %w", err)
	}

	h := sha256.New()
	h.Write(salt)
	_, _ = io.WriteString(h, inviter)
	_, _ = io.WriteString(h, strconv.FormatInt(time.Now().UnixNano(), 10))

	return hex.EncodeToString(h.Sum(nil)), nil
}
