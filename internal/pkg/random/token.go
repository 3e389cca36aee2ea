package random

import (
	"crypto/rand"
	"encoding/base64"

	"opshub/internal/pkg/errs"
)

// Capability tokens are opaque: URL-safe base64 with no embedded structure.
const tokenBytes = 32

func Token() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errs.Wrap(err, "failed to generate token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
