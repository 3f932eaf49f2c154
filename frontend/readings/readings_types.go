package readings

import (
	"condowater/frontend/shared/nav"
	"condowater/infrastructure/wizard"
	"condowater/models"
)

// UnitRow is one line of the entry table.
type UnitRow struct {
	Baseline models.LatestReading
	Reading  wizard.NewReading
	Message  string
}

type PageData struct {
	Nav          nav.TopNavData
	WizardID     string
	State        wizard.State
	Rows         []UnitRow
	Stats        wizard.Stats
	Status       string
	ErrorMessage string
}

// SubmissionRecord is what gets stored about one submission attempt.
type SubmissionRecord struct {
	UserID          int64
	WizardSessionID string
	Outcome         wizard.SubmitOutcome
	Err             error
}
