package units

import (
	"condowater/frontend/shared/nav"
	"condowater/models"
)

type ListPageData struct {
	Nav          nav.TopNavData
	Units        []models.Unit
	ErrorMessage string
}

type BillsPageData struct {
	Nav          nav.TopNavData
	Unit         models.Unit
	Bills        []models.WaterBill
	ErrorMessage string
}
