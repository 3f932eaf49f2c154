package summary

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	sessioncontext "condowater/frontend/shared/context"
	"condowater/frontend/shared/format"
	"condowater/frontend/shared/nav"
	"condowater/frontend/shared/respond"
	"condowater/infrastructure/metrics"
)

// ParseQuery reads month, sort and order, falling back to the month before
// now, consumption and ascending order.
func ParseQuery(values url.Values, now time.Time) Query {
	q := Query{
		Month: strings.TrimSpace(values.Get("month")),
		Sort:  strings.TrimSpace(values.Get("sort")),
		Order: strings.ToLower(strings.TrimSpace(values.Get("order"))),
	}
	if _, ok := format.ParseYearMonth(q.Month); !ok {
		q.Month = DefaultMonth(now)
	}
	switch q.Sort {
	case SortDisplayName, SortCost, SortConsumption:
	default:
		q.Sort = defaultSortColumn
	}
	if q.Order != "desc" {
		q.Order = "asc"
	}
	return q
}

// DefaultMonth is the last closed month.
func DefaultMonth(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -1, 0).Format("2006-01")
}

// ToggleOrder returns the order a click on column should request: the same
// column flips direction, a new column starts ascending.
func (q Query) ToggleOrder(column string) string {
	if column == q.Sort && q.Order == "asc" {
		return "desc"
	}
	return "asc"
}

func (q Query) URL(path string) string {
	v := url.Values{}
	v.Set("month", q.Month)
	v.Set("sort", q.Sort)
	v.Set("order", q.Order)
	return path + "?" + v.Encode()
}

// SummaryPageQueryHandler renders the monthly summary.
func SummaryPageQueryHandler() http.HandlerFunc {
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

		data := PageData{
			Nav:          nav.BuildTopNavData(session),
			Query:        ParseQuery(r.URL.Query(), time.Now()),
			Status:       r.URL.Query().Get("status"),
			ErrorMessage: r.URL.Query().Get("error"),
		}
		s, err := client.MonthlySummary(r.Context(), data.Query.Month, data.Query.Sort, data.Query.Order)
		if err != nil {
			if respond.Unauthorized(w, r, err) {
				return
			}
			slog.Error("summary: load failed", slog.String("month", data.Query.Month), slog.Any("err", err))
			data.ErrorMessage = "could not load the monthly summary: " + err.Error()
		} else {
			data.Summary = &s
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := SummaryPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render summary page", http.StatusInternalServerError)
			return
		}
	}
}

// SummaryExportHandler serves the summary of {month} as xlsx or pdf.
func SummaryExportHandler(exportFormat string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month := chi.URLParam(r, "month")
		if _, ok := format.ParseYearMonth(month); !ok {
			http.Error(w, "invalid month", http.StatusBadRequest)
			return
		}
		client, ok := respond.Client(w, r)
		if !ok {
			return
		}
		q := ParseQuery(r.URL.Query(), time.Now())
		q.Month = month

		s, err := client.MonthlySummary(r.Context(), q.Month, q.Sort, q.Order)
		if err != nil {
			metrics.IncExport(exportFormat, err)
			respond.BackendError(w, r, err, "/console/summary")
			return
		}

		var (
			body        []byte
			contentType string
		)
		switch exportFormat {
		case "xlsx":
			body, err = BuildSummaryXLSX(s, q.Month)
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		case "pdf":
			body, err = BuildSummaryPDF(s, q.Month, time.Now())
			contentType = "application/pdf"
		default:
			err = fmt.Errorf("unsupported export format %q", exportFormat)
		}
		metrics.IncExport(exportFormat, err)
		if err != nil {
			slog.Error("summary: export failed", slog.String("format", exportFormat), slog.Any("err", err))
			http.Error(w, "failed to build export", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="resumo_%s.%s"`, q.Month, exportFormat))
		_, _ = w.Write(body)
	}
}
