package respond

import (
	"log/slog"
	"net/http"
	"net/url"

	sessioncontext "condowater/frontend/shared/context"
	"condowater/infrastructure/backend"
)

// Unauthorized handles a 401 from the billing backend: the stored backend
// token is cleared, which makes the next request ask for a new login, and the
// user is sent to the login page. It reports whether err was handled.
func Unauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !backend.IsUnauthorized(err) {
		return false
	}
	if tokens, ok := sessioncontext.GetTokensFromContext(r.Context()); ok {
		if clearErr := tokens.Clear(r.Context()); clearErr != nil {
			slog.Error("clear backend token failed", slog.Any("err", clearErr))
		}
	}
	http.Redirect(w, r, "/login?error="+url.QueryEscape("your billing session expired, please log in again"), http.StatusSeeOther)
	return true
}

// BackendError answers a failed backend call made by a command handler with a
// redirect carrying the error message.
func BackendError(w http.ResponseWriter, r *http.Request, err error, redirectTo string) {
	if Unauthorized(w, r, err) {
		return
	}
	slog.Error("backend call failed", slog.String("path", r.URL.Path), slog.Any("err", err))
	http.Redirect(w, r, redirectTo+"?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
}

// Client returns the request's backend client or answers 503.
func Client(w http.ResponseWriter, r *http.Request) (*backend.Client, bool) {
	client, ok := sessioncontext.GetBackendFromContext(r.Context())
	if !ok {
		http.Error(w, "billing backend unavailable", http.StatusServiceUnavailable)
		return nil, false
	}
	return client, true
}
