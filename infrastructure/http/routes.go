package http

import (
	"net/http"

	adminusers "condowater/frontend/adminUsers"
	"condowater/frontend/help"
	"condowater/frontend/history"
	"condowater/frontend/login"
	"condowater/frontend/readings"
	"condowater/frontend/reports"
	"condowater/frontend/summary"
	"condowater/frontend/units"
	"condowater/infrastructure/rbac"

	"github.com/go-chi/chi/v5"
)

// RegisterLoginRoutes registers login/logout routes.
func (s *Server) RegisterLoginRoutes() {
	s.router.Get("/login", login.GetLoginScreenHandler)
	s.router.Post("/login", login.CreateLoginHandler(s.DB, s.SessionCache, s.UserCache, s.Backend, s.tokenStorage(), s.Audit))
	s.router.Post("/logout", login.LogoutHandler(s.DB, s.SessionCache, s.tokenStorage(), s.Wizards))
}

// addAll grants a route to every console role.
func (s *Server) addAll(code, method, path string) {
	for _, role := range rbac.AllRoles {
		s.Rbac.Add(role, code, method, path)
	}
}

// RegisterFrontendRoutes registers the read-only pages every role can use.
func (s *Server) RegisterFrontendRoutes(r chi.Router) chi.Router {
	s.addAll("UNITS_LIST_VIEW", http.MethodGet, "/console/units")
	r.Get("/units", units.UnitsPageQueryHandler())
	s.addAll("UNIT_BILLS_VIEW", http.MethodGet, "/console/units/*/bills")
	r.Get("/units/{id}/bills", units.UnitBillsPageQueryHandler())

	s.addAll("SUMMARY_VIEW", http.MethodGet, "/console/summary")
	r.Get("/summary", summary.SummaryPageQueryHandler())
	s.addAll("SUMMARY_EXPORT", http.MethodGet, "/console/summary/*")
	r.Get("/summary/{month}.xlsx", summary.SummaryExportHandler("xlsx"))
	r.Get("/summary/{month}.pdf", summary.SummaryExportHandler("pdf"))

	s.addAll("UNIT_REPORT_VIEW", http.MethodGet, "/console/reports/unit/*/*")
	r.Get("/reports/unit/{id}/{month}.pdf", reports.UnitReportPDFHandler())

	s.addAll("HELP_VIEW", http.MethodGet, "/console/help")
	r.Get("/help", help.HelpPageQueryHandler())
	return r
}

// RegisterReadingsRoutes registers the monthly readings wizard.
func (s *Server) RegisterReadingsRoutes(r chi.Router) chi.Router {
	s.Rbac.Add(rbac.RoleAdmin, "READINGS_VIEW", http.MethodGet, "/console/readings")
	r.Get("/readings", readings.ReadingsPageQueryHandler(s.Wizards))
	s.Rbac.Add(rbac.RoleAdmin, "READINGS_SHEET", http.MethodGet, "/console/readings/sheet.pdf")
	r.Get("/readings/sheet.pdf", readings.ReadingSheetPDFHandler(s.Wizards))

	s.Rbac.Add(rbac.RoleAdmin, "READINGS_PRODUCTION_EDIT", http.MethodPost, "/console/readings/production")
	r.Post("/readings/production", readings.UpdateProductionCommandHandler(s.Wizards))
	s.Rbac.Add(rbac.RoleAdmin, "READINGS_UNIT_EDIT", http.MethodPost, "/console/readings/units/*")
	r.Post("/readings/units/{id}", readings.UpdateUnitReadingCommandHandler(s.Wizards))
	s.Rbac.Add(rbac.RoleAdmin, "READINGS_IMPORT", http.MethodPost, "/console/readings/import")
	r.Post("/readings/import", readings.ImportCSVCommandHandler(s.Wizards))
	s.Rbac.Add(rbac.RoleAdmin, "READINGS_SUBMIT", http.MethodPost, "/console/readings/submit")
	r.Post("/readings/submit", readings.SubmitCommandHandler(s.DB, s.Audit, s.Wizards))
	s.Rbac.Add(rbac.RoleAdmin, "READINGS_BACK", http.MethodPost, "/console/readings/back")
	r.Post("/readings/back", readings.BackCommandHandler(s.Wizards))
	s.Rbac.Add(rbac.RoleAdmin, "READINGS_FINALIZE", http.MethodPost, "/console/readings/finalize")
	r.Post("/readings/finalize", readings.FinalizeCommandHandler(s.Wizards))
	s.Rbac.Add(rbac.RoleAdmin, "READINGS_REOPEN", http.MethodPost, "/console/readings/reopen")
	r.Post("/readings/reopen", readings.ReopenCommandHandler(s.Wizards))
	return r
}

// RegisterAdminRoutes registers admin-only routes.
func (s *Server) RegisterAdminRoutes(r chi.Router) chi.Router {
	s.Rbac.Add(rbac.RoleAdmin, "HISTORY_VIEW", http.MethodGet, "/console/history")
	r.Get("/history", history.HistoryPageQueryHandler(s.DB, s.Audit))

	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_LIST_VIEW", http.MethodGet, "/console/admin/users")
	r.Get("/admin/users", adminusers.UsersPageQueryHandler(s.DB, s.RbacCache))
	s.Rbac.Add(rbac.RoleAdmin, "ADMIN_USERS_CREATE", http.MethodPost, "/console/admin/users")
	r.Post("/admin/users", adminusers.CreateUserCommandHandler(s.DB, s.UserCache, s.Audit))
	return r
}
