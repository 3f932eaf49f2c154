package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	sessioncontext "condowater/frontend/shared/context"
	"condowater/infrastructure/audit"
	"condowater/infrastructure/sqlite"
	"condowater/models"
)

func openHistoryTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "history-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func seedHistory(t *testing.T, db *sqlite.DB) {
	t.Helper()
	err := db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, username, display_name, password_hash, role) VALUES (1, 'admin@condo.test', 'Admin', 'x', 'admin')`); err != nil {
			return err
		}
		rows := []models.ReadingSubmission{
			{UserID: 1, WizardSessionID: "w1", DataRef: "2025-07-01", UnitCount: 10, ResultCount: 10, TotalConsumptionM3: 120, Status: models.SubmissionProcessed, Message: "ok", PayloadJSON: "{}"},
			{UserID: 1, WizardSessionID: "w2", DataRef: "2025-08-01", UnitCount: 10, Status: models.SubmissionFailed, Message: "pipeline failed", PayloadJSON: "{}"},
		}
		for i := range rows {
			if _, err := tx.NewInsert().Model(&rows[i]).Exec(ctx); err != nil {
				return err
			}
		}
		return audit.NewService().Write(ctx, tx, 1, audit.ActionReadingsSubmit, "reading_submission", "1", nil, map[string]string{"data_ref": "2025-07-01"})
	})
	if err != nil {
		t.Fatalf("seed history: %v", err)
	}
}

func TestLoadHistoryPageData_FiltersByMonth(t *testing.T) {
	db := openHistoryTestDB(t)
	seedHistory(t, db)

	all, err := LoadHistoryPageData(context.Background(), db, audit.NewService(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(all.Submissions) != 2 || all.Submissions[0].DataRef != "2025-08-01" {
		t.Fatalf("expected both submissions newest first, got %+v", all.Submissions)
	}
	if all.Submissions[0].Actor != "admin@condo.test" {
		t.Fatalf("expected actor username, got %q", all.Submissions[0].Actor)
	}
	if len(all.Activity) != 1 || all.Activity[0].Action != audit.ActionReadingsSubmit {
		t.Fatalf("unexpected activity %+v", all.Activity)
	}

	july, err := LoadHistoryPageData(context.Background(), db, nil, "2025-07")
	if err != nil {
		t.Fatalf("load july: %v", err)
	}
	if len(july.Submissions) != 1 || july.Submissions[0].Status != models.SubmissionProcessed {
		t.Fatalf("expected only the july submission, got %+v", july.Submissions)
	}
	if len(july.Activity) != 0 {
		t.Fatalf("expected no activity without an audit service")
	}
}

func TestHistoryPageRenders(t *testing.T) {
	db := openHistoryTestDB(t)
	seedHistory(t, db)

	req := httptest.NewRequest(http.MethodGet, "/console/history?month=bogus", nil)
	req = req.WithContext(sessioncontext.NewContextWithSession(req.Context(), models.Session{
		ID:   "s1",
		User: models.User{Username: "admin@condo.test", Role: "admin"},
	}))
	rec := httptest.NewRecorder()
	HistoryPageQueryHandler(db, audit.NewService())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "invalid month filter") {
		t.Fatalf("expected invalid filter notice")
	}
	if !strings.Contains(body, `href="/console/summary?month=2025-07"`) {
		t.Fatalf("expected summary link for the processed month")
	}
	if !strings.Contains(body, "pipeline failed") {
		t.Fatalf("expected failed submission message")
	}
}
