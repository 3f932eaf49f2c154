package summary

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"condowater/frontend/shared/format"
	"condowater/models"
)

// BuildSummaryXLSX renders the monthly summary with a totals sheet and a
// per-unit sheet.
func BuildSummaryXLSX(s models.MonthlySummary, yearMonth string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	totalsSheet := "resumo"
	unitsSheet := "unidades"
	if err := f.SetSheetName("Sheet1", totalsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(unitsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(totalsSheet, "A1", "Resumo mensal")
	_ = f.SetCellValue(totalsSheet, "A3", "Mês")
	_ = f.SetCellValue(totalsSheet, "B3", s.MonthYear)
	_ = f.SetCellValue(totalsSheet, "A4", "Referência")
	_ = f.SetCellValue(totalsSheet, "B4", yearMonth)
	_ = f.SetCellValue(totalsSheet, "A5", "Custo total (R$)")
	_ = f.SetCellValue(totalsSheet, "B5", s.TotalCondoCostRS)
	_ = f.SetCellValue(totalsSheet, "A6", "Consumo total (m³)")
	_ = f.SetCellValue(totalsSheet, "B6", s.TotalCondoConsumptionM3)
	_ = f.SetCellValue(totalsSheet, "A7", "Unidades")
	_ = f.SetCellValue(totalsSheet, "B7", len(s.UnitDetails))

	_ = f.SetCellValue(unitsSheet, "A1", "Lote")
	_ = f.SetCellValue(unitsSheet, "B1", "Nome")
	_ = f.SetCellValue(unitsSheet, "C1", "Custo (R$)")
	_ = f.SetCellValue(unitsSheet, "D1", "Consumo (m³)")
	for i, u := range s.UnitDetails {
		row := i + 2
		_ = f.SetCellValue(unitsSheet, fmt.Sprintf("A%d", row), u.CodigoLote)
		_ = f.SetCellValue(unitsSheet, fmt.Sprintf("B%d", row), u.DisplayName)
		_ = f.SetCellValue(unitsSheet, fmt.Sprintf("C%d", row), u.CostRS)
		_ = f.SetCellValue(unitsSheet, fmt.Sprintf("D%d", row), u.ConsumptionM3)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSummaryPDF renders the monthly summary as a single table.
func BuildSummaryPDF(s models.MonthlySummary, yearMonth string, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Resumo mensal "+yearMonth, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, tr("Resumo mensal - "+s.MonthYear))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, tr("Custo total: "+format.CurrencyValue(s.TotalCondoCostRS)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr("Consumo total: "+format.Volume(s.TotalCondoConsumptionM3)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr("Gerado em: "+generatedAt.Format("02/01/2006 15:04")))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(20, 6, "Lote", "1", 0, "C", false, 0, "")
	pdf.CellFormat(90, 6, "Nome", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Custo", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Consumo", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, u := range s.UnitDetails {
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", u.CodigoLote), "1", 0, "C", false, 0, "")
		pdf.CellFormat(90, 6, tr(u.DisplayName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, tr(format.CurrencyValue(u.CostRS)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, tr(format.Volume(u.ConsumptionM3)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
