package login

import "net/http"

// GetLoginScreenHandler renders the login screen with the status or error
// passed back by the login, logout and session-expiry redirects.
func GetLoginScreenHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := GetLoginScreen(q.Get("status"), q.Get("error")).Render(r.Context(), w); err != nil {
		http.Error(w, "failed to render login screen", http.StatusInternalServerError)
		return
	}
}
