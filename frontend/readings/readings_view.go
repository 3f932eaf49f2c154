package readings

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"condowater/frontend/shared/format"
	"condowater/frontend/shared/html"
	"condowater/infrastructure/wizard"
)

func inputNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func inputDate(v *string) string {
	if v == nil || len(*v) < 10 {
		return ""
	}
	return (*v)[:10]
}

func inputMonth(v *string) string {
	if v == nil {
		return ""
	}
	return format.YearMonth(*v)
}

func messageClass(msg string) string {
	switch msg {
	case wizard.MessageInvalid, wizard.MessageUrgent:
		return "msg-error"
	case wizard.MessageVeryHigh, wizard.MessageAbnormal, wizard.MessageZero:
		return "msg-warn"
	case wizard.MessagePending:
		return "msg-pending"
	default:
		return "msg-ok"
	}
}

func hiddenID(id string) string {
	return `<input type="hidden" name="wizard_id" value="` + html.Esc(id) + `">`
}

func postButton(action, id, label string) string {
	return `<form method="POST" action="` + action + `" class="inline">` + hiddenID(id) + `<button type="submit">` + html.Esc(label) + `</button></form>`
}

func ReadingsPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		st := data.State
		var b strings.Builder
		b.WriteString(`<h1>Monthly readings</h1>`)
		b.WriteString(html.Flash(data.Status, data.ErrorMessage))

		switch {
		case st.Loading:
			b.WriteString(`<p class="loading">Loading unit data... <a href="/console/readings">Refresh</a></p>`)
		case st.Error != nil:
			b.WriteString(`<div class="alert alert-error">` + html.Esc(*st.Error) + `</div>`)
			b.WriteString(postButton("/console/readings/reopen", data.WizardID, "Try again"))
		case st.Step == wizard.StepReview:
			writeReview(&b, data)
		default:
			writeEntry(&b, data)
		}

		writeLog(&b, st.Log)
		return html.Page("Monthly readings", data.Nav, b.String()).Render(ctx, w)
	})
}

func writeEntry(b *strings.Builder, data PageData) {
	st := data.State
	p := st.Production

	b.WriteString(`<section><h2>Step 1 - Readings</h2>`)
	b.WriteString(`<form method="POST" action="/console/readings/production" class="grid">` + hiddenID(data.WizardID))
	b.WriteString(`<label>Reference month <input type="month" name="data_ref" value="` + html.Esc(inputMonth(p.DataRef)) + `"></label>`)
	b.WriteString(`<label>Production (m³) <input type="text" inputmode="decimal" name="producao_m3" value="` + inputNumber(p.ProducaoM3) + `"></label>`)
	b.WriteString(`<label>Other costs (R$) <input type="text" inputmode="decimal" name="outros_rs" value="` + inputNumber(p.OutrosRS) + `"></label>`)
	b.WriteString(`<label>Purchased water (R$) <input type="text" inputmode="decimal" name="compra_rs" value="` + inputNumber(p.CompraRS) + `"></label>`)
	b.WriteString(`<button type="submit">Save</button></form>`)

	b.WriteString(`<div class="cards">`)
	b.WriteString(`<div class="card"><span>Total consumption</span><b>` + html.Esc(format.Volume(data.Stats.Total)) + `</b></div>`)
	b.WriteString(`<div class="card"><span>Mean</span><b>` + html.Esc(format.Volume(data.Stats.Mean)) + `</b></div>`)
	b.WriteString(`<div class="card"><span>Median</span><b>` + html.Esc(format.Volume(data.Stats.Median)) + `</b></div>`)
	b.WriteString(`</div>`)

	b.WriteString(`<form method="POST" action="/console/readings/import" enctype="multipart/form-data" class="inline">` + hiddenID(data.WizardID))
	b.WriteString(`<label>Readings file (.csv) <input type="file" name="file" accept=".csv,text/csv" required></label><button type="submit">Import</button></form>`)
	b.WriteString(` <a href="/console/readings/sheet.pdf" target="_blank">Print reading sheet</a>`)

	b.WriteString(`<table class="table"><thead><tr><th>Unit</th><th>Previous</th><th>Current</th><th>Date</th><th>Consumption</th><th>Avg 6m</th><th>Status</th><th></th></tr></thead><tbody>`)
	for _, row := range data.Rows {
		id := strconv.Itoa(row.Baseline.CodigoLote)
		formID := "unit-" + id
		b.WriteString(`<tr>`)
		b.WriteString(`<td>` + id + ` - ` + html.Esc(row.Baseline.NomeLote) + `</td>`)
		b.WriteString(`<td>` + format.Number(&row.Baseline.LeituraAnterior) + `</td>`)
		b.WriteString(`<td><input form="` + formID + `" type="text" inputmode="decimal" name="leitura_atual" value="` + inputNumber(row.Reading.LeituraAtual) + `"></td>`)
		b.WriteString(`<td><input form="` + formID + `" type="date" name="data_leitura_atual" value="` + html.Esc(inputDate(row.Reading.DataLeituraAtual)) + `"></td>`)
		b.WriteString(`<td><form method="POST" action="/console/readings/units/` + id + `" class="inline">` + hiddenID(data.WizardID))
		b.WriteString(`<input type="text" inputmode="decimal" name="consumo" value="` + inputNumber(row.Reading.Consumo) + `"><button type="submit" title="Override consumption">Set</button></form></td>`)
		b.WriteString(`<td>` + html.Esc(format.Volume(row.Baseline.MediaMovel6MesesAnteriores)) + `</td>`)
		b.WriteString(`<td class="` + messageClass(row.Message) + `">` + html.Esc(row.Message) + `</td>`)
		b.WriteString(`<td><form id="` + formID + `" method="POST" action="/console/readings/units/` + id + `">` + hiddenID(data.WizardID) + `<input type="hidden" name="` + originalReadingField + `" value="` + inputNumber(row.Reading.LeituraAtual) + `"><button type="submit">Save</button></form></td>`)
		b.WriteString(`</tr>`)
	}
	if len(data.Rows) == 0 {
		b.WriteString(`<tr><td colspan="8">No units.</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	label := "Submit readings"
	if st.Submitting {
		label = "Submitting..."
	}
	b.WriteString(postButton("/console/readings/submit", data.WizardID, label))
	b.WriteString(` ` + postButton("/console/readings/reopen", data.WizardID, "Start over"))
	b.WriteString(`</section>`)
}

func writeReview(b *strings.Builder, data PageData) {
	st := data.State
	month := "-"
	if st.Production.DataRef != nil {
		if t, ok := format.ParseYearMonth(format.YearMonth(*st.Production.DataRef)); ok {
			month = format.MonthYear(t)
		}
	}

	b.WriteString(`<section><h2>Step 2 - Results for ` + html.Esc(month) + `</h2>`)
	b.WriteString(`<table class="table"><thead><tr><th>Unit</th><th>Water</th><th>Sewage</th><th>Purchased</th><th>Other</th><th>Total</th><th>Water tier</th><th>Message</th></tr></thead><tbody>`)
	for _, res := range st.Results {
		b.WriteString(`<tr>`)
		b.WriteString(`<td>` + strconv.Itoa(res.CodigoLote) + ` - ` + html.Esc(res.NomeLote) + `</td>`)
		b.WriteString(`<td>` + format.Currency(res.ProdRS) + `</td>`)
		b.WriteString(`<td>` + format.Currency(res.EsgotoRS) + `</td>`)
		b.WriteString(`<td>` + format.Currency(res.CompRS) + `</td>`)
		b.WriteString(`<td>` + format.Currency(res.OutrosRS) + `</td>`)
		b.WriteString(`<td><b>` + format.Currency(res.TotalRS) + `</b></td>`)
		tier := "-"
		if res.FaixaAgua != nil {
			tier = *res.FaixaAgua
		}
		b.WriteString(`<td>` + html.Esc(tier) + `</td>`)
		msg := ""
		if res.Mensagem != nil {
			msg = *res.Mensagem
		}
		b.WriteString(`<td>` + html.Esc(msg) + `</td>`)
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
	b.WriteString(postButton("/console/readings/back", data.WizardID, "Back to readings"))
	b.WriteString(` ` + postButton("/console/readings/finalize", data.WizardID, "Save and finish"))
	b.WriteString(`</section>`)
}

func writeLog(b *strings.Builder, entries []wizard.LogEntry) {
	if len(entries) == 0 {
		return
	}
	b.WriteString(`<section><h2>Log</h2><ul class="log">`)
	for _, e := range entries {
		b.WriteString(`<li class="log-` + string(e.Kind) + `"><time>` + e.At.Format("15:04:05") + `</time> ` + html.Esc(e.Text) + `</li>`)
	}
	b.WriteString(`</ul></section>`)
}
