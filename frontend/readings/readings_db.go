package readings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"condowater/infrastructure/audit"
	"condowater/infrastructure/sqlite"
	"condowater/models"
)

func newSubmissionRow(rec SubmissionRecord) (models.ReadingSubmission, error) {
	payload, err := json.Marshal(rec.Outcome.Payload)
	if err != nil {
		return models.ReadingSubmission{}, fmt.Errorf("marshal payload: %w", err)
	}
	response, err := json.Marshal(rec.Outcome.Response)
	if err != nil {
		return models.ReadingSubmission{}, fmt.Errorf("marshal response: %w", err)
	}

	row := models.ReadingSubmission{
		UserID:          rec.UserID,
		WizardSessionID: rec.WizardSessionID,
		UnitCount:       len(rec.Outcome.Payload.UnitReadings),
		ResultCount:     len(rec.Outcome.Response.Data),
		Status:          models.SubmissionProcessed,
		Message:         rec.Outcome.Response.Message,
		PayloadJSON:     string(payload),
		ResponseJSON:    string(response),
	}
	if ref := rec.Outcome.Payload.ProductionData.DataRef; ref != nil {
		row.DataRef = *ref
	}
	for _, u := range rec.Outcome.Payload.UnitReadings {
		if u.Consumo != nil && *u.Consumo > 0 {
			row.TotalConsumptionM3 += *u.Consumo
		}
	}
	if rec.Err != nil {
		row.Status = models.SubmissionFailed
		row.Message = rec.Err.Error()
	}
	return row, nil
}

// RecordSubmission stores a submission that reached the backend. A processed
// one also gets a readings.submit audit entry in the same transaction.
func RecordSubmission(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, rec SubmissionRecord) (models.ReadingSubmission, error) {
	row, err := newSubmissionRow(rec)
	if err != nil {
		return models.ReadingSubmission{}, err
	}
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert reading submission: %w", err)
		}
		if row.Status != models.SubmissionProcessed || auditSvc == nil {
			return nil
		}
		return auditSvc.Write(ctx, tx, row.UserID, audit.ActionReadingsSubmit, "reading_submission", fmt.Sprintf("%d", row.ID), nil, map[string]any{
			"data_ref":     row.DataRef,
			"unit_count":   row.UnitCount,
			"result_count": row.ResultCount,
		})
	})
	if err != nil {
		return models.ReadingSubmission{}, err
	}
	return row, nil
}
