package session

import (
	"net/http"
	"time"
)

const CookieName = "X-Session-Token"

// TTL is how long a console session lives. Backend tokens may expire sooner;
// the middleware checks those separately.
const TTL = 12 * time.Hour

func SessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewSessionCookie carries a freshly issued session id for the whole TTL.
func NewSessionCookie(sessionID string) *http.Cookie {
	return SessionCookie(sessionID, int(TTL/time.Second))
}

// ClearedSessionCookie tells the browser to drop the session cookie.
func ClearedSessionCookie() *http.Cookie {
	return SessionCookie("", -1)
}

func DefaultExpiry() time.Time {
	return time.Now().Add(TTL)
}
