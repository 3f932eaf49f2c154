package readings

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/uptrace/bun"

	"condowater/infrastructure/audit"
	"condowater/infrastructure/sqlite"
	"condowater/infrastructure/wizard"
	"condowater/models"
)

func openReadingsTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "readings-test.db"))
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

	err = db.WithWriteTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, username, display_name, password_hash, role) VALUES (1, 'admin@condo.test', 'Admin', 'x', 'admin')`)
		return err
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return db
}

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func sampleOutcome() wizard.SubmitOutcome {
	return wizard.SubmitOutcome{
		Submitted: true,
		Payload: models.ProcessReadingsPayload{
			ProductionData: models.ProductionPayload{DataRef: str("2025-08-01"), ProducaoM3: f64(300)},
			UnitReadings: []models.UnitReadingPayload{
				{CodigoLote: 1, LeituraAtual: f64(112), Consumo: f64(12)},
				{CodigoLote: 2, LeituraAtual: f64(208.5), Consumo: f64(8.5)},
				{CodigoLote: 3, LeituraAtual: f64(50), Consumo: f64(-2)},
			},
		},
		Response: models.ProcessReadingsResponse{
			Message: "Processamento concluído",
			Data:    []models.PipelineResult{{CodigoLote: 1}, {CodigoLote: 2}, {CodigoLote: 3}},
		},
	}
}

func TestRecordSubmission_ProcessedWritesAudit(t *testing.T) {
	db := openReadingsTestDB(t)

	row, err := RecordSubmission(context.Background(), db, audit.NewService(), SubmissionRecord{
		UserID:          1,
		WizardSessionID: "wiz-1",
		Outcome:         sampleOutcome(),
	})
	if err != nil {
		t.Fatalf("record submission: %v", err)
	}
	if row.ID == 0 || row.Status != models.SubmissionProcessed {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.DataRef != "2025-08-01" || row.UnitCount != 3 || row.ResultCount != 3 {
		t.Fatalf("unexpected counts %+v", row)
	}
	if row.TotalConsumptionM3 != 20.5 {
		t.Fatalf("expected negative consumption excluded from total, got %v", row.TotalConsumptionM3)
	}

	var entries []audit.Entry
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		var err error
		entries, err = audit.NewService().Recent(ctx, tx, 10, audit.ActionReadingsSubmit)
		return err
	})
	if err != nil {
		t.Fatalf("recent audit: %v", err)
	}
	if len(entries) != 1 || entries[0].EntityType != "reading_submission" {
		t.Fatalf("expected one submission audit entry, got %+v", entries)
	}
}

func TestRecordSubmission_FailedSkipsAudit(t *testing.T) {
	db := openReadingsTestDB(t)
	out := sampleOutcome()
	out.Response = models.ProcessReadingsResponse{Error: "pipeline exploded"}

	row, err := RecordSubmission(context.Background(), db, audit.NewService(), SubmissionRecord{
		UserID:          1,
		WizardSessionID: "wiz-2",
		Outcome:         out,
		Err:             errors.New("backend pipeline failed: pipeline exploded"),
	})
	if err != nil {
		t.Fatalf("record submission: %v", err)
	}
	if row.Status != models.SubmissionFailed || row.ResultCount != 0 {
		t.Fatalf("unexpected row %+v", row)
	}

	var auditCount int
	err = db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(1) FROM audit_logs`).Scan(ctx, &auditCount)
	})
	if err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if auditCount != 0 {
		t.Fatalf("failed submissions must not be audited, got %d rows", auditCount)
	}
}
