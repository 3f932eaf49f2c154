package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"condowater/frontend/shared/format"
	"condowater/frontend/shared/respond"
	"condowater/infrastructure/metrics"
)

// ReportFilename is the download name of a unit report.
func ReportFilename(codigoLote int, yearMonth string) string {
	return fmt.Sprintf("relatorio_%d_%s.pdf", codigoLote, yearMonth)
}

// UnitReportPDFHandler streams the backend-generated PDF report of a unit.
func UnitReportPDFHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codigoLote, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil || codigoLote <= 0 {
			http.Error(w, "invalid unit", http.StatusBadRequest)
			return
		}
		month := chi.URLParam(r, "month")
		if _, ok := format.ParseYearMonth(month); !ok {
			http.Error(w, "invalid month", http.StatusBadRequest)
			return
		}
		client, ok := respond.Client(w, r)
		if !ok {
			return
		}

		pdf, err := client.UnitReport(r.Context(), codigoLote, month)
		metrics.IncExport("unit-report", err)
		if err != nil {
			if respond.Unauthorized(w, r, err) {
				return
			}
			slog.Error("reports: unit report failed", slog.Int("codigo_lote", codigoLote), slog.String("month", month), slog.Any("err", err))
			http.Error(w, "could not generate the report: "+err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ReportFilename(codigoLote, month)))
		w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
		_, _ = w.Write(pdf)
	}
}
