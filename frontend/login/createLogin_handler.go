package login

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"condowater/infrastructure/audit"
	"condowater/infrastructure/backend"
	"condowater/infrastructure/cache"
	"condowater/infrastructure/metrics"
	"condowater/infrastructure/rbac"
	sessioncookie "condowater/infrastructure/session"
	"condowater/infrastructure/sqlite"
	"condowater/models"
)

// Authenticator issues billing backend tokens.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (models.LoginResponse, error)
}

// CreateLoginHandler checks the console password, logs into the billing
// backend with the same credentials and issues a session cookie.
func CreateLoginHandler(db *sqlite.DB, sessionCache *cache.UserSessionCache, userCache *cache.UserCache, auth Authenticator, tokens sessioncookie.TokenStorage, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/login?error="+url.QueryEscape("invalid form data"), http.StatusSeeOther)
			return
		}

		username := strings.TrimSpace(r.FormValue("username"))
		password := strings.TrimSpace(r.FormValue("password"))
		if username == "" || password == "" {
			http.Redirect(w, r, "/login?error="+url.QueryEscape("e-mail and password are required"), http.StatusSeeOther)
			return
		}

		user, err := authenticateUser(r.Context(), db, username, password)
		if err != nil {
			metrics.IncLogin(err)
			if errors.Is(err, sql.ErrNoRows) {
				http.Redirect(w, r, "/login?error="+url.QueryEscape("invalid e-mail or password"), http.StatusSeeOther)
				return
			}
			slog.Error("login: local authentication failed", slog.Any("err", err))
			http.Redirect(w, r, "/login?error="+url.QueryEscape("authentication failed"), http.StatusSeeOther)
			return
		}

		resp, err := auth.Login(r.Context(), user.Username, password)
		if err != nil {
			metrics.IncLogin(err)
			slog.Warn("login: backend rejected credentials", slog.String("username", user.Username), slog.Any("err", err))
			msg := "billing backend login failed: " + err.Error()
			if backend.IsUnauthorized(err) {
				msg = "invalid e-mail or password"
			}
			http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusSeeOther)
			return
		}

		changed, err := syncUserProfile(r.Context(), db, &user, resp.User, rbac.RoleForProfile(resp.User.PerfilUsuario))
		if err != nil {
			slog.Error("login: profile sync failed", slog.Int64("user_id", user.ID), slog.Any("err", err))
		}
		if changed {
			sessionCache.DeleteSessionsByUserID(user.ID)
			userCache.Delete(user.Username)
		}

		session := newSession(user)
		if err := persistSession(r.Context(), db, auditSvc, session); err != nil {
			metrics.IncLogin(err)
			http.Redirect(w, r, "/login?error="+url.QueryEscape("failed to create session"), http.StatusSeeOther)
			return
		}

		sessionCache.AddSession(session)
		userCache.Add(user.Username, user)

		if err := sessioncookie.NewTokenSession(session.ID, "", tokens).Set(r.Context(), resp.Token); err != nil {
			metrics.IncLogin(err)
			slog.Error("login: store backend token failed", slog.String("session_id", session.ID), slog.Any("err", err))
			sessionCache.DeleteSessionBySessionToken(session.ID)
			_ = DeleteSessionByToken(r.Context(), db, session.ID)
			http.Redirect(w, r, "/login?error="+url.QueryEscape("failed to create session"), http.StatusSeeOther)
			return
		}
		metrics.IncLogin(nil)

		http.SetCookie(w, sessioncookie.NewSessionCookie(session.ID))
		http.Redirect(w, r, landingPath(user.Role), http.StatusSeeOther)
	}
}

func landingPath(role string) string {
	if role == rbac.RoleAdmin {
		return "/console/readings"
	}
	return "/console/units"
}

func newSession(user models.User) models.Session {
	return models.Session{
		ID:        newSessionToken(),
		UserID:    user.ID,
		User:      user,
		UserRoles: []string{user.Role},
		ExpiresAt: sessioncookie.DefaultExpiry(),
	}
}
