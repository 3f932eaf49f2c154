package history

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"condowater/infrastructure/audit"
	"condowater/infrastructure/sqlite"
)

const pageLimit = 100

// LoadHistoryPageData lists readings submissions, newest first, optionally
// for one reference month ("YYYY-MM"), plus the latest audited activity.
func LoadHistoryPageData(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, month string) (PageData, error) {
	data := PageData{
		Month:       strings.TrimSpace(month),
		Submissions: make([]SubmissionRow, 0),
		Activity:    make([]audit.Entry, 0),
	}

	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewRaw(`
SELECT
	rs.id,
	COALESCE(strftime('%d/%m/%Y %H:%M', rs.created_at), '') AS created_at_uk,
	COALESCE(u.username, '-') AS actor,
	rs.data_ref,
	rs.unit_count,
	rs.result_count,
	rs.total_consumption_m3,
	rs.status,
	rs.message
FROM reading_submissions rs
LEFT JOIN users u ON u.id = rs.user_id
WHERE (? = '' OR substr(rs.data_ref, 1, 7) = ?)
ORDER BY rs.created_at DESC, rs.id DESC
LIMIT ?`, data.Month, data.Month, pageLimit).Scan(ctx, &data.Submissions); err != nil {
			return err
		}

		if auditSvc == nil {
			return nil
		}
		entries, err := auditSvc.Recent(ctx, tx, pageLimit)
		if err != nil {
			return err
		}
		data.Activity = entries
		return nil
	})
	return data, err
}
