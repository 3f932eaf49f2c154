package readings

import (
	"bytes"
	"testing"
	"time"

	"condowater/models"
)

func TestRenderReadingSheetPDF_GeneratesPages(t *testing.T) {
	t.Parallel()

	ref := "2025-07-01"
	baselines := make([]models.LatestReading, 0, 12)
	for i := 1; i <= 12; i++ {
		baselines = append(baselines, models.LatestReading{
			CodigoLote:                 i,
			NomeLote:                   "Lote São José",
			LeituraAnterior:            float64(100 * i),
			DataRef:                    &ref,
			MediaMovel6MesesAnteriores: 12.5,
		})
	}

	pdf, err := renderReadingSheetPDF(baselines, "2025-08-01", time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("renderReadingSheetPDF returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("expected pdf bytes")
	}
}

func TestRenderReadingSheetPDF_RequiresUnits(t *testing.T) {
	t.Parallel()

	if _, err := renderReadingSheetPDF(nil, "", time.Now()); err == nil {
		t.Fatalf("expected error for an empty sheet")
	}
}

func TestRenderCode128PNG(t *testing.T) {
	t.Parallel()

	png, err := renderCode128PNG(UnitBarcode(42), 600, 180)
	if err != nil {
		t.Fatalf("renderCode128PNG returned error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("expected png bytes")
	}
}
