package help

import (
	"net/http"

	sessioncontext "condowater/frontend/shared/context"
	"condowater/frontend/shared/nav"
	"condowater/infrastructure/rbac"
)

type PageData struct {
	Nav     nav.TopNavData
	IsAdmin bool
}

func HelpPageQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		data := PageData{
			Nav:     nav.BuildTopNavData(session),
			IsAdmin: session.User.Role == rbac.RoleAdmin,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := HelpPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render help page", http.StatusInternalServerError)
			return
		}
	}
}
