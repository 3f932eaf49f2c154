package history

import (
	"condowater/frontend/shared/nav"
	"condowater/infrastructure/audit"
)

type PageData struct {
	Nav          nav.TopNavData
	Month        string
	Submissions  []SubmissionRow
	Activity     []audit.Entry
	ErrorMessage string
}

type SubmissionRow struct {
	ID                 int64   `bun:"id"`
	CreatedAtUK        string  `bun:"created_at_uk"`
	Actor              string  `bun:"actor"`
	DataRef            string  `bun:"data_ref"`
	UnitCount          int     `bun:"unit_count"`
	ResultCount        int     `bun:"result_count"`
	TotalConsumptionM3 float64 `bun:"total_consumption_m3"`
	Status             string  `bun:"status"`
	Message            string  `bun:"message"`
}
