package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesRecordedMetrics(t *testing.T) {
	Init(func() int { return 3 })
	Init(nil)

	ObserveBackendCall("latest-readings", nil, 20*time.Millisecond)
	ObserveBackendCall("process-readings", errors.New("boom"), time.Second)
	IncWizardSubmission("blocked")
	IncCSVImport(nil)
	IncExport("xlsx", nil)
	IncLogin(errors.New("bad password"))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`condowater_backend_requests_total{endpoint="latest-readings",result="success"} 1`,
		`condowater_backend_requests_total{endpoint="process-readings",result="error"} 1`,
		`condowater_wizard_submissions_total{result="blocked"} 1`,
		`condowater_csv_imports_total{result="success"} 1`,
		`condowater_exports_total{format="xlsx",result="success"} 1`,
		`condowater_logins_total{result="error"} 1`,
		`condowater_wizard_sessions_open 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
