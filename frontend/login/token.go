package login

import (
	"crypto/rand"
	"encoding/base64"
)

const sessionTokenBytes = 32

// newSessionToken returns a URL-safe random console session id.
func newSessionToken() string {
	buf := make([]byte, sessionTokenBytes)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
