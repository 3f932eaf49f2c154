package readings

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"condowater/frontend/shared/format"
	"condowater/models"
)

const sheetRowsPerPage = 9

// UnitBarcode is the value printed under each meter row; scanners fill the
// unit code column of the readings file with it.
func UnitBarcode(codigoLote int) string {
	return fmt.Sprintf("%d", codigoLote)
}

// renderReadingSheetPDF prints one row per unit with the previous reading, a
// blank box for the new one and the unit barcode.
func renderReadingSheetPDF(baselines []models.LatestReading, dataRef string, printedAt time.Time) ([]byte, error) {
	if len(baselines) == 0 {
		return nil, fmt.Errorf("no units to print")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Folha de leitura", true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	month := "-"
	if t, ok := format.ParseYearMonth(format.YearMonth(dataRef)); ok {
		month = format.MonthYear(t)
	}

	pageW, _ := pdf.GetPageSize()
	margin := 12.0
	contentW := pageW - 2*margin
	rowH := 28.0

	for i, b := range baselines {
		if i%sheetRowsPerPage == 0 {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "B", 16)
			pdf.SetXY(margin, margin)
			pdf.CellFormat(contentW, 8, tr("Folha de leitura - "+month), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetX(margin)
			pdf.CellFormat(contentW, 5, "Impresso em "+printedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
		}

		y := margin + 18 + float64(i%sheetRowsPerPage)*rowH
		if err := addSheetRow(pdf, tr, b, margin, y, contentW, rowH, i); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func addSheetRow(pdf *gofpdf.Fpdf, tr func(string) string, b models.LatestReading, x, y, w, h float64, index int) error {
	pdf.SetLineWidth(0.3)
	pdf.Rect(x, y, w, h, "")

	name := strings.TrimSpace(b.NomeLote)
	if name == "" {
		name = fmt.Sprintf("Lote %d", b.CodigoLote)
	}
	leftW := w * 0.45
	pdf.SetFont("Helvetica", "B", fitFontSizeForWidth(pdf, "Helvetica", "B", 14, 9, tr(name), leftW-6))
	pdf.SetXY(x+3, y+2)
	pdf.CellFormat(leftW-6, 7, tr(name), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(x+3, y+10)
	pdf.CellFormat(leftW-6, 5, tr("Leitura anterior: "+format.Number(&b.LeituraAnterior)), "", 0, "L", false, 0, "")
	if b.DataRef != nil {
		pdf.SetXY(x+3, y+15)
		pdf.CellFormat(leftW-6, 5, tr("Referência: "+format.DisplayDate(*b.DataRef)), "", 0, "L", false, 0, "")
	}
	pdf.SetXY(x+3, y+20)
	pdf.CellFormat(leftW-6, 5, tr("Média 6 meses: "+format.Volume(b.MediaMovel6MesesAnteriores)), "", 0, "L", false, 0, "")

	boxX := x + leftW
	boxW := w * 0.25
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(boxX, y+2)
	pdf.CellFormat(boxW, 4, "LEITURA ATUAL", "", 0, "L", false, 0, "")
	pdf.Rect(boxX, y+7, boxW-4, h-10, "")

	value := UnitBarcode(b.CodigoLote)
	barcodePNG, err := renderCode128PNG(value, 600, 180)
	if err != nil {
		return err
	}
	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	imageName := fmt.Sprintf("unit-barcode-%d-%d", b.CodigoLote, index)
	pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
	codeX := boxX + boxW
	codeW := w - leftW - boxW - 3
	pdf.ImageOptions(imageName, codeX, y+3, codeW, h-12, false, opt, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(codeX, y+h-8)
	pdf.CellFormat(codeW, 5, value, "", 0, "C", false, 0, "")
	return nil
}

func fitFontSizeForWidth(pdf *gofpdf.Fpdf, family, style string, base, min float64, text string, maxWidth float64) float64 {
	if maxWidth <= 0 {
		return min
	}
	size := base
	pdf.SetFont(family, style, size)
	for size > min && pdf.GetStringWidth(text) > maxWidth {
		size -= 0.5
		pdf.SetFont(family, style, size)
	}
	return size
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := png.Encode(&out, toNRGBA(scaled)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
