package summary

import (
	"condowater/frontend/shared/nav"
	"condowater/models"
)

// Sort columns accepted by the monthly summary.
const (
	SortDisplayName   = "display_name"
	SortCost          = "cost_rs"
	SortConsumption   = "consumption_m3"
	defaultSortColumn = SortConsumption
)

type Query struct {
	Month string
	Sort  string
	Order string
}

type PageData struct {
	Nav          nav.TopNavData
	Query        Query
	Summary      *models.MonthlySummary
	Status       string
	ErrorMessage string
}
