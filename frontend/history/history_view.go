package history

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"condowater/frontend/shared/format"
	"condowater/frontend/shared/html"
	"condowater/models"
)

func HistoryPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>History</h1>`)
		b.WriteString(html.Flash("", data.ErrorMessage))
		b.WriteString(`<form method="GET" action="/console/history" class="inline"><label>Month <input type="month" name="month" value="` + html.Esc(data.Month) + `"></label><button type="submit">Filter</button></form>`)

		b.WriteString(`<h2>Readings submissions</h2>`)
		b.WriteString(`<table class="table"><thead><tr><th>When</th><th>By</th><th>Month</th><th>Units</th><th>Results</th><th>Consumption</th><th>Status</th><th>Message</th></tr></thead><tbody>`)
		for _, s := range data.Submissions {
			class := "msg-ok"
			if s.Status == models.SubmissionFailed {
				class = "msg-error"
			}
			month := format.YearMonth(s.DataRef)
			b.WriteString(`<tr>`)
			b.WriteString(`<td>` + html.Esc(s.CreatedAtUK) + `</td>`)
			b.WriteString(`<td>` + html.Esc(s.Actor) + `</td>`)
			if month != "" && s.Status == models.SubmissionProcessed {
				b.WriteString(`<td><a href="/console/summary?month=` + html.Esc(month) + `">` + html.Esc(month) + `</a></td>`)
			} else {
				b.WriteString(`<td>` + html.Esc(month) + `</td>`)
			}
			b.WriteString(`<td>` + strconv.Itoa(s.UnitCount) + `</td>`)
			b.WriteString(`<td>` + strconv.Itoa(s.ResultCount) + `</td>`)
			b.WriteString(`<td>` + html.Esc(format.Volume(s.TotalConsumptionM3)) + `</td>`)
			b.WriteString(`<td class="` + class + `">` + html.Esc(s.Status) + `</td>`)
			b.WriteString(`<td>` + html.Esc(s.Message) + `</td>`)
			b.WriteString(`</tr>`)
		}
		if len(data.Submissions) == 0 {
			b.WriteString(`<tr><td colspan="8">No submissions yet.</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)

		b.WriteString(`<h2>Activity</h2><table class="table"><thead><tr><th>When</th><th>By</th><th>Action</th><th>Entity</th><th>Details</th></tr></thead><tbody>`)
		for _, e := range data.Activity {
			b.WriteString(`<tr>`)
			b.WriteString(`<td>` + e.CreatedAt.Format("02/01/2006 15:04") + `</td>`)
			b.WriteString(`<td>` + html.Esc(e.Username) + `</td>`)
			b.WriteString(`<td>` + html.Esc(e.Action) + `</td>`)
			b.WriteString(`<td>` + html.Esc(e.EntityType+" "+e.EntityID) + `</td>`)
			b.WriteString(`<td><code>` + html.Esc(e.AfterJSON) + `</code></td>`)
			b.WriteString(`</tr>`)
		}
		if len(data.Activity) == 0 {
			b.WriteString(`<tr><td colspan="5">No activity.</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)
		return html.Page("History", data.Nav, b.String()).Render(ctx, w)
	})
}
