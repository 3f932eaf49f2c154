package adminusers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"condowater/frontend/shared/context"
	"condowater/frontend/shared/nav"
	"condowater/infrastructure/audit"
	"condowater/infrastructure/cache"
	"condowater/infrastructure/sqlite"
)

// UsersPageQueryHandler renders the admin users list page together with the
// screens each role may open.
func UsersPageQueryHandler(db *sqlite.DB, rbacCache *cache.RbacRolesCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		data, err := LoadUsersPageData(r.Context(), db)
		if err != nil {
			slog.Error("admin users: failed to load data", slog.Any("err", err))
			http.Error(w, "failed to load users", http.StatusInternalServerError)
			return
		}

		data.Nav = nav.BuildTopNavData(session)
		data.RoleScreens = make(map[string][]string, len(data.Roles))
		for _, role := range data.Roles {
			data.RoleScreens[role] = rbacCache.CodesForRole(role)
		}
		data.Status = r.URL.Query().Get("status")
		data.ErrorMessage = r.URL.Query().Get("error")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := UsersListPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render users page", http.StatusInternalServerError)
			return
		}
	}
}

// CreateUserCommandHandler creates a console operator and its backend account.
func CreateUserCommandHandler(db *sqlite.DB, userCache *cache.UserCache, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/console/admin/users?error="+url.QueryEscape("invalid form data"), http.StatusSeeOther)
			return
		}

		in := NewUser{
			Email:       r.FormValue("email"),
			DisplayName: r.FormValue("display_name"),
			Password:    r.FormValue("password"),
			Role:        r.FormValue("role"),
		}

		var registrar Registrar
		if client, ok := context.GetBackendFromContext(r.Context()); ok {
			registrar = client
		}

		if err := CreateUser(r.Context(), db, in, registrar, auditSvc, session.UserID); err != nil {
			slog.Warn("admin users: create failed", slog.String("email", in.Email), slog.Any("err", err))
			// Validation, policy and backend messages are safe to return as-is.
			http.Redirect(w, r, "/console/admin/users?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			return
		}

		userCache.Delete(strings.TrimSpace(in.Email))
		http.Redirect(w, r, "/console/admin/users?status="+url.QueryEscape("user created"), http.StatusSeeOther)
	}
}
