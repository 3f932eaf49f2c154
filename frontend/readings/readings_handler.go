package readings

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	sessioncontext "condowater/frontend/shared/context"
	"condowater/frontend/shared/format"
	"condowater/frontend/shared/nav"
	"condowater/frontend/shared/respond"
	"condowater/infrastructure/audit"
	"condowater/infrastructure/metrics"
	"condowater/infrastructure/sqlite"
	"condowater/infrastructure/wizard"
	"condowater/models"
)

const (
	readingsPath = "/console/readings"
	// originalReadingField carries the reading a row was rendered with.
	originalReadingField = "leitura_atual_original"
	// loadWait bounds how long the page waits for a freshly opened wizard
	// before rendering the loading state.
	loadWait = 3 * time.Second
)

func redirectStatus(w http.ResponseWriter, r *http.Request, status string) {
	http.Redirect(w, r, readingsPath+"?status="+url.QueryEscape(status), http.StatusSeeOther)
}

func redirectError(w http.ResponseWriter, r *http.Request, err error) {
	http.Redirect(w, r, readingsPath+"?error="+url.QueryEscape(errorMessage(err)), http.StatusSeeOther)
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound):
		return "no readings wizard is open, it was started again"
	case errors.Is(err, wizard.ErrStaleSession):
		return "the wizard was reopened in the meantime, please repeat the action"
	case errors.Is(err, wizard.ErrNotReady):
		return "unit data is not loaded yet"
	default:
		return err.Error()
	}
}

// wizardID is the id the form was rendered for; an empty value targets the
// current wizard.
func wizardID(r *http.Request, wizards *wizard.Service, key string) (string, error) {
	if id := strings.TrimSpace(r.FormValue("wizard_id")); id != "" {
		return id, nil
	}
	_, id, err := wizards.Get(key)
	return id, err
}

// ReadingsPageQueryHandler shows the wizard of the current session, opening a
// new one when there is none.
func ReadingsPageQueryHandler(wizards *wizard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		st, id, err := wizards.Get(session.ID)
		if errors.Is(err, wizard.ErrSessionNotFound) {
			client, ok := respond.Client(w, r)
			if !ok {
				return
			}
			var done <-chan struct{}
			id, done = wizards.Open(r.Context(), session.ID, client)
			select {
			case <-done:
			case <-time.After(loadWait):
			case <-r.Context().Done():
			}
			st, id, err = wizards.Get(session.ID)
		}
		if err != nil {
			slog.Error("readings: load wizard", slog.String("session", session.ID), slog.Any("err", err))
			http.Error(w, "failed to load readings wizard", http.StatusInternalServerError)
			return
		}

		data := BuildPageData(st)
		data.Nav = nav.BuildTopNavData(session)
		data.WizardID = id
		data.Status = r.URL.Query().Get("status")
		data.ErrorMessage = r.URL.Query().Get("error")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ReadingsPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render readings page", http.StatusInternalServerError)
			return
		}
	}
}

// BuildPageData derives the table rows and live statistics of a state. The
// status of a row is the message of the last consistency check.
func BuildPageData(st wizard.State) PageData {
	data := PageData{State: st, Stats: wizard.ComputeStats(st.Readings)}
	for _, b := range st.Baselines {
		r := st.Readings[b.CodigoLote]
		data.Rows = append(data.Rows, UnitRow{Baseline: b, Reading: r, Message: r.MesMensagem})
	}
	sort.SliceStable(data.Rows, func(i, j int) bool {
		return data.Rows[i].Baseline.CodigoLote < data.Rows[j].Baseline.CodigoLote
	})
	return data
}

// ReadingSheetPDFHandler prints the meter-reading sheet for the units of the
// open wizard, or the backend's current units when the wizard is not ready.
func ReadingSheetPDFHandler(wizards *wizard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		var (
			baselines []models.LatestReading
			dataRef   string
		)
		if st, _, err := wizards.Get(session.ID); err == nil && len(st.Baselines) > 0 {
			baselines = st.Baselines
			if st.Production.DataRef != nil {
				dataRef = *st.Production.DataRef
			}
		} else {
			client, ok := respond.Client(w, r)
			if !ok {
				return
			}
			baselines, err = client.LatestReadings(r.Context())
			if err != nil {
				respond.BackendError(w, r, err, readingsPath)
				return
			}
			if next := wizard.NextReferenceDate(baselines); next != nil {
				dataRef = *next
			}
		}

		sorted := append([]models.LatestReading(nil), baselines...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CodigoLote < sorted[j].CodigoLote })

		pdfBytes, err := renderReadingSheetPDF(sorted, dataRef, time.Now())
		metrics.IncExport("reading-sheet", err)
		if err != nil {
			slog.Error("readings: build sheet", slog.Any("err", err))
			http.Error(w, "failed to build reading sheet", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename="folha_leitura.pdf"`)
		_, _ = w.Write(pdfBytes)
	}
}

// parseOptionalNumber reads a decimal that may use a comma separator. Empty
// input is nil.
func parseOptionalNumber(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", raw)
	}
	v := d.InexactFloat64()
	return &v, nil
}

// ParseProductionForm builds a patch from the fields present in form. The
// month input ("YYYY-MM") becomes the first day of that month.
func ParseProductionForm(form url.Values) (wizard.ProductionPatch, error) {
	var patch wizard.ProductionPatch
	if _, ok := form["data_ref"]; ok {
		raw := strings.TrimSpace(form.Get("data_ref"))
		if raw == "" {
			patch.DataRef = wizard.Set[string](nil)
		} else {
			t, ok := format.ParseYearMonth(format.YearMonth(raw))
			if !ok {
				return wizard.ProductionPatch{}, fmt.Errorf("invalid reference month %q", raw)
			}
			ref := t.Format("2006-01-02")
			patch.DataRef = wizard.Set(&ref)
		}
	}
	numbers := []struct {
		name  string
		field *wizard.Field[float64]
	}{
		{"producao_m3", &patch.ProducaoM3},
		{"outros_rs", &patch.OutrosRS},
		{"compra_rs", &patch.CompraRS},
	}
	for _, n := range numbers {
		if _, ok := form[n.name]; !ok {
			continue
		}
		v, err := parseOptionalNumber(form.Get(n.name))
		if err != nil {
			return wizard.ProductionPatch{}, fmt.Errorf("%s: %w", n.name, err)
		}
		*n.field = wizard.Set(v)
	}
	return patch, nil
}

// UpdateProductionCommandHandler merges the month-level inputs.
func UpdateProductionCommandHandler(wizards *wizard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessioncontext.GetSessionFromContext(r.Context())
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		patch, err := ParseProductionForm(r.PostForm)
		if err != nil {
			redirectError(w, r, err)
			return
		}
		id, err := wizardID(r, wizards, session.ID)
		if err != nil {
			redirectError(w, r, err)
			return
		}
		if _, err := wizards.UpdateProduction(session.ID, id, patch); err != nil {
			redirectError(w, r, err)
			return
		}
		redirectStatus(w, r, "Production data updated")
	}
}

// UpdateUnitReadingCommandHandler applies the manual edits of one unit row.
// Only the fields present in the form are touched: reading first, then an
// explicit consumption, then the date. A reading equal to its rendered
// original is left alone so an overridden consumption survives.
func UpdateUnitReadingCommandHandler(wizards *wizard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessioncontext.GetSessionFromContext(r.Context())
		codigoLote, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil || codigoLote <= 0 {
			http.Error(w, "invalid unit", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		id, err := wizardID(r, wizards, session.ID)
		if err != nil {
			redirectError(w, r, err)
			return
		}

		applied := 0
		for _, field := range []wizard.ReadingField{wizard.FieldReading, wizard.FieldConsumption, wizard.FieldDate} {
			values, ok := r.PostForm[string(field)]
			if !ok {
				continue
			}
			raw := ""
			if len(values) > 0 {
				raw = values[0]
			}
			if field == wizard.FieldReading && unchangedReading(r, raw) {
				continue
			}
			if _, err := wizards.UpdateReading(session.ID, id, codigoLote, field, raw); err != nil {
				redirectError(w, r, fmt.Errorf("unit %d: %w", codigoLote, err))
				return
			}
			applied++
		}
		if applied == 0 {
			redirectError(w, r, errors.New("nothing to update"))
			return
		}
		redirectStatus(w, r, fmt.Sprintf("Unit %d updated", codigoLote))
	}
}

func unchangedReading(r *http.Request, raw string) bool {
	original, ok := r.PostForm[originalReadingField]
	if !ok || len(original) == 0 {
		return false
	}
	return strings.TrimSpace(original[0]) == strings.TrimSpace(raw)
}

// ImportCSVCommandHandler merges an uploaded readings file.
func ImportCSVCommandHandler(wizards *wizard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessioncontext.GetSessionFromContext(r.Context())
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			redirectError(w, r, errors.New("invalid upload"))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			redirectError(w, r, errors.New("file is required"))
			return
		}
		defer file.Close()

		id, err := wizardID(r, wizards, session.ID)
		if err != nil {
			redirectError(w, r, err)
			return
		}
		result, _, err := wizards.ImportCSV(session.ID, id, header.Filename, file)
		metrics.IncCSVImport(err)
		if err != nil {
			redirectError(w, r, fmt.Errorf("import failed: %w", err))
			return
		}
		redirectStatus(w, r, fmt.Sprintf("Imported %d readings, %d rows skipped", result.Accepted, result.Skipped))
	}
}

// SubmitCommandHandler runs the consistency check and sends the readings.
// Every attempt that reaches the backend is recorded.
func SubmitCommandHandler(db *sqlite.DB, auditSvc *audit.Service, wizards *wizard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessioncontext.GetSessionFromContext(r.Context())
		client, ok := respond.Client(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		id, err := wizardID(r, wizards, session.ID)
		if err != nil {
			redirectError(w, r, err)
			return
		}

		out, err := wizards.Submit(r.Context(), session.ID, id, client)
		if errors.Is(err, wizard.ErrConsistency) {
			metrics.IncWizardSubmission(metrics.ResultBlocked)
			redirectError(w, r, fmt.Errorf("%d required fields are missing, see the log", out.ErrorCount))
			return
		}
		if !out.Submitted {
			redirectError(w, r, err)
			return
		}

		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		metrics.IncWizardSubmission(result)
		if _, recErr := RecordSubmission(r.Context(), db, auditSvc, SubmissionRecord{
			UserID:          session.UserID,
			WizardSessionID: id,
			Outcome:         out,
			Err:             err,
		}); recErr != nil {
			slog.Error("readings: record submission", slog.String("wizard_session", id), slog.Any("err", recErr))
		}

		if err != nil {
			if respond.Unauthorized(w, r, err) {
				return
			}
			redirectError(w, r, err)
			return
		}
		status := fmt.Sprintf("Readings processed for %d units", len(out.Response.Data))
		if out.Discarded {
			status += " (the wizard was reopened meanwhile, results are not shown)"
		}
		redirectStatus(w, r, status)
	}
}

// BackCommandHandler returns from review to entry.
func BackCommandHandler(wizards *wizard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessioncontext.GetSessionFromContext(r.Context())
		id, err := wizardID(r, wizards, session.ID)
		if err != nil {
			redirectError(w, r, err)
			return
		}
		if _, err := wizards.Back(session.ID, id); err != nil {
			redirectError(w, r, err)
			return
		}
		http.Redirect(w, r, readingsPath, http.StatusSeeOther)
	}
}

// FinalizeCommandHandler closes a reviewed wizard and shows the summary of
// the processed month.
func FinalizeCommandHandler(wizards *wizard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessioncontext.GetSessionFromContext(r.Context())
		id, err := wizardID(r, wizards, session.ID)
		if err != nil {
			redirectError(w, r, err)
			return
		}
		dataRef, err := wizards.Finalize(session.ID, id)
		if err != nil {
			redirectError(w, r, err)
			return
		}
		target := "/console/summary?status=" + url.QueryEscape("Readings saved")
		if month := format.YearMonth(dataRef); month != "" {
			target += "&month=" + url.QueryEscape(month)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// ReopenCommandHandler discards the wizard and loads the baselines again.
func ReopenCommandHandler(wizards *wizard.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessioncontext.GetSessionFromContext(r.Context())
		client, ok := respond.Client(w, r)
		if !ok {
			return
		}
		_, done := wizards.Open(r.Context(), session.ID, client)
		select {
		case <-done:
		case <-time.After(loadWait):
		case <-r.Context().Done():
		}
		http.Redirect(w, r, readingsPath, http.StatusSeeOther)
	}
}
