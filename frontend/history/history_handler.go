package history

import (
	"log/slog"
	"net/http"

	sessioncontext "condowater/frontend/shared/context"
	"condowater/frontend/shared/format"
	"condowater/frontend/shared/nav"
	"condowater/infrastructure/audit"
	"condowater/infrastructure/sqlite"
)

func HistoryPageQueryHandler(db *sqlite.DB, auditSvc *audit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		month := r.URL.Query().Get("month")
		errorMessage := ""
		if _, ok := format.ParseYearMonth(month); month != "" && !ok {
			errorMessage = "invalid month filter, showing every month"
			month = ""
		}

		data, err := LoadHistoryPageData(r.Context(), db, auditSvc, month)
		if err != nil {
			slog.Error("history: failed to load data", slog.Any("err", err))
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
		data.Nav = nav.BuildTopNavData(session)
		data.ErrorMessage = errorMessage

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := HistoryPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render history page", http.StatusInternalServerError)
			return
		}
	}
}
