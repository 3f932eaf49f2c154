package summary

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"condowater/frontend/shared/format"
	"condowater/frontend/shared/html"
)

var columns = []struct {
	key   string
	label string
}{
	{SortDisplayName, "Unit"},
	{SortCost, "Cost"},
	{SortConsumption, "Consumption"},
}

func sortHeader(q Query, column, label string) string {
	next := q
	next.Sort = column
	next.Order = q.ToggleOrder(column)
	arrow := ""
	if q.Sort == column {
		arrow = " ▲"
		if q.Order == "desc" {
			arrow = " ▼"
		}
	}
	return `<th><a href="` + html.Esc(next.URL("/console/summary")) + `">` + html.Esc(label) + arrow + `</a></th>`
}

func SummaryPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		q := data.Query
		var b strings.Builder
		b.WriteString(`<h1>Monthly summary</h1>`)
		b.WriteString(html.Flash(data.Status, data.ErrorMessage))
		b.WriteString(`<form method="GET" action="/console/summary" class="inline">
  <label>Month <input type="month" name="month" value="` + html.Esc(q.Month) + `"></label>
  <input type="hidden" name="sort" value="` + html.Esc(q.Sort) + `">
  <input type="hidden" name="order" value="` + html.Esc(q.Order) + `">
  <button type="submit">Show</button>
</form>`)

		if data.Summary == nil {
			return html.Page("Monthly summary", data.Nav, b.String()).Render(ctx, w)
		}
		s := data.Summary

		b.WriteString(`<h2>` + html.Esc(s.MonthYear) + `</h2>`)
		b.WriteString(`<div class="cards"><div class="card"><span>Total cost</span><b>` + format.CurrencyValue(s.TotalCondoCostRS) + `</b></div>`)
		b.WriteString(`<div class="card"><span>Total consumption</span><b>` + html.Esc(format.Volume(s.TotalCondoConsumptionM3)) + `</b></div></div>`)
		b.WriteString(`<p class="exports"><a href="` + html.Esc(q.URL("/console/summary/"+q.Month+".xlsx")) + `">Export XLSX</a> <a href="` + html.Esc(q.URL("/console/summary/"+q.Month+".pdf")) + `">Export PDF</a></p>`)

		b.WriteString(`<table class="table"><thead><tr>`)
		for _, c := range columns {
			b.WriteString(sortHeader(q, c.key, c.label))
		}
		b.WriteString(`<th>Report</th></tr></thead><tbody>`)
		for _, u := range s.UnitDetails {
			id := strconv.Itoa(u.CodigoLote)
			b.WriteString(`<tr><td><a href="/console/units/` + id + `/bills">` + html.Esc(u.DisplayName) + `</a></td>`)
			b.WriteString(`<td>` + format.CurrencyValue(u.CostRS) + `</td>`)
			b.WriteString(`<td>` + html.Esc(format.Volume(u.ConsumptionM3)) + `</td>`)
			b.WriteString(`<td><a href="/console/reports/unit/` + id + `/` + html.Esc(q.Month) + `.pdf">PDF</a></td></tr>`)
		}
		if len(s.UnitDetails) == 0 {
			b.WriteString(`<tr><td colspan="4">No bills for this month.</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)
		return html.Page("Monthly summary", data.Nav, b.String()).Render(ctx, w)
	})
}
