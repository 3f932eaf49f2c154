package login

import (
	"log/slog"
	"net/http"
	"net/url"

	"condowater/infrastructure/cache"
	sessioncookie "condowater/infrastructure/session"
	"condowater/infrastructure/sqlite"
)

// WizardCloser discards the readings wizard bound to a console session.
type WizardCloser interface {
	Close(key string)
}

// LogoutHandler clears the backend token, removes session state and clears
// the cookie.
func LogoutHandler(db *sqlite.DB, sessionCache *cache.UserSessionCache, tokens sessioncookie.TokenStorage, wizards WizardCloser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessioncookie.CookieName)
		if err == nil && cookie.Value != "" {
			if err := sessioncookie.NewTokenSession(cookie.Value, "", tokens).Clear(r.Context()); err != nil {
				slog.Warn("logout: clear backend token failed", slog.Any("err", err))
			}
			if wizards != nil {
				wizards.Close(cookie.Value)
			}
			sessionCache.DeleteSessionBySessionToken(cookie.Value)
			_ = DeleteSessionByToken(r.Context(), db, cookie.Value)
		}
		http.SetCookie(w, sessioncookie.ClearedSessionCookie())
		http.Redirect(w, r, "/login?status="+url.QueryEscape("You have been logged out"), http.StatusSeeOther)
	}
}
