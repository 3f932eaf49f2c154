package units

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"condowater/frontend/shared/format"
	"condowater/frontend/shared/html"
	"condowater/models"
)

func unitLabel(u models.Unit) string {
	label := fmt.Sprintf("%d", u.CodigoLote)
	if u.NomeLote != "" {
		label += " - " + u.NomeLote
	}
	return label
}

func UnitsListPage(data ListPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Units</h1>`)
		b.WriteString(html.Flash("", data.ErrorMessage))
		b.WriteString(`<table class="table"><thead><tr><th>Unit</th><th>Name</th><th>Alias</th><th></th></tr></thead><tbody>`)
		for _, u := range data.Units {
			id := strconv.Itoa(u.CodigoLote)
			b.WriteString(`<tr><td>` + id + `</td><td>` + html.Esc(u.NomeLote) + `</td><td>` + html.Esc(u.Codinome01) + `</td>`)
			b.WriteString(`<td><a href="/console/units/` + id + `/bills">Bills</a></td></tr>`)
		}
		if len(data.Units) == 0 {
			b.WriteString(`<tr><td colspan="4">No units.</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)
		return html.Page("Units", data.Nav, b.String()).Render(ctx, w)
	})
}

func UnitBillsPage(data BillsPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Unit ` + html.Esc(unitLabel(data.Unit)) + `</h1>`)
		b.WriteString(`<p><a href="/console/units">Back to units</a></p>`)
		b.WriteString(html.Flash("", data.ErrorMessage))

		b.WriteString(`<table class="table"><thead><tr><th>Month</th><th>Reading</th><th>Measured</th><th>Water total</th><th>Sewage</th><th>Bill total</th><th>Message</th><th></th></tr></thead><tbody>`)
		for _, bill := range data.Bills {
			b.WriteString(`<tr>`)
			b.WriteString(`<td>` + html.Esc(bill.DataDisplay) + `</td>`)
			b.WriteString(`<td>` + format.Number(&bill.Leitura) + `</td>`)
			b.WriteString(`<td>` + format.Volume(bill.ConsumoMedidoM3) + `</td>`)
			b.WriteString(`<td>` + format.Volume(bill.TotalWaterM3()) + `</td>`)
			b.WriteString(`<td>` + format.CurrencyValue(bill.TotalEsgotoRS) + `</td>`)
			b.WriteString(`<td><b>` + format.CurrencyValue(bill.TotalContaRS) + `</b></td>`)
			b.WriteString(`<td>` + html.Esc(bill.MesMensagem) + `</td>`)
			b.WriteString(`<td>`)
			if ym := format.YearMonth(bill.DataRef); ym != "" {
				b.WriteString(`<a href="/console/reports/unit/` + strconv.Itoa(data.Unit.CodigoLote) + `/` + ym + `.pdf">Report</a>`)
			}
			b.WriteString(`</td></tr>`)
			b.WriteString(`<tr class="detail"><td colspan="8"><details><summary>Details</summary>` + billDetail(bill) + `</details></td></tr>`)
		}
		if len(data.Bills) == 0 {
			b.WriteString(`<tr><td colspan="8">No bills for this unit.</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)
		return html.Page("Unit "+strconv.Itoa(data.Unit.CodigoLote), data.Nav, b.String()).Render(ctx, w)
	})
}

func billDetail(bill models.WaterBill) string {
	rows := [][2]string{
		{"Reading date", format.DisplayDate(bill.DataLeitura)},
		{"Produced water", format.Volume(bill.ConsumoProduzidoM3)},
		{"Purchased water", format.Volume(bill.ConsumoCompradoM3)},
		{"Purchased price per m³", format.CurrencyValue(bill.PrecoM3CompradoRS)},
		{"Water band", bill.FaixaAgua + " / " + format.CurrencyValue(bill.TarifaAgua) + " / deduct " + format.CurrencyValue(bill.DeduzirAgua)},
		{"Sewage band", bill.FaixaEsgoto + " / " + format.CurrencyValue(bill.TarifaEsgoto) + " / deduct " + format.CurrencyValue(bill.DeduzirEsgoto)},
		{"Sewage volume", format.Volume(bill.ConsumoEsgotoM3)},
		{"Produced water charge", format.CurrencyValue(bill.CobradoAguaProdRS)},
		{"Purchased water charge", format.CurrencyValue(bill.CobradoAguaCompRS)},
		{"Total water charge", format.CurrencyValue(bill.CobradoTotalAguaRS)},
		{"Common area", format.CurrencyValue(bill.CobradoAreaComumRS)},
		{"Other costs", format.CurrencyValue(bill.CobradoOutrosGastosRS)},
		{"Month average / median", format.Volume(bill.MesConsumoMediaM3) + " / " + format.Volume(bill.MesConsumoMedianaM3)},
	}
	var b strings.Builder
	b.WriteString(`<dl class="bill-detail">`)
	for _, row := range rows {
		b.WriteString(`<dt>` + html.Esc(row[0]) + `</dt><dd>` + html.Esc(row[1]) + `</dd>`)
	}
	b.WriteString(`</dl>`)
	return b.String()
}
