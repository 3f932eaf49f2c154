package units

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	sessioncontext "condowater/frontend/shared/context"
	"condowater/frontend/shared/nav"
	"condowater/frontend/shared/respond"
	"condowater/models"
)

// UnitsPageQueryHandler lists the condominium units.
func UnitsPageQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		client, ok := respond.Client(w, r)
		if !ok {
			return
		}

		data := ListPageData{Nav: nav.BuildTopNavData(session)}
		list, err := client.Units(r.Context())
		if err != nil {
			if respond.Unauthorized(w, r, err) {
				return
			}
			slog.Error("units: load failed", slog.Any("err", err))
			data.ErrorMessage = "could not load units: " + err.Error()
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].CodigoLote < list[j].CodigoLote })
		data.Units = list

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := UnitsListPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render units page", http.StatusInternalServerError)
			return
		}
	}
}

// UnitBillsPageQueryHandler shows the bill history of one unit, newest first.
func UnitBillsPageQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		codigoLote, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil || codigoLote <= 0 {
			http.Error(w, "invalid unit", http.StatusBadRequest)
			return
		}
		client, ok := respond.Client(w, r)
		if !ok {
			return
		}

		data := BillsPageData{
			Nav:  nav.BuildTopNavData(session),
			Unit: models.Unit{CodigoLote: codigoLote},
		}
		if list, err := client.Units(r.Context()); err == nil {
			for _, u := range list {
				if u.CodigoLote == codigoLote {
					data.Unit = u
					break
				}
			}
		} else if respond.Unauthorized(w, r, err) {
			return
		}

		bills, err := client.UnitBills(r.Context(), codigoLote)
		if err != nil {
			if respond.Unauthorized(w, r, err) {
				return
			}
			slog.Error("units: load bills failed", slog.Int("codigo_lote", codigoLote), slog.Any("err", err))
			data.ErrorMessage = "could not load bills: " + err.Error()
		}
		sort.SliceStable(bills, func(i, j int) bool { return bills[i].DataRef > bills[j].DataRef })
		data.Bills = bills

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := UnitBillsPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render bills page", http.StatusInternalServerError)
			return
		}
	}
}
