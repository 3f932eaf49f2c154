package help

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"condowater/frontend/shared/html"
)

const viewerHelp = `<section>
<h2>Consulting bills</h2>
<p><b>Units</b> lists every unit. Open a unit to see its bill history; the water total is produced plus purchased water.</p>
<p><b>Monthly summary</b> shows the condominium totals for a month. Sort by name, cost or consumption and export to XLSX or PDF.
Each row links to the unit's PDF report, saved as relatorio_&lt;unit&gt;_&lt;YYYY-MM&gt;.pdf.</p>
</section>`

const adminHelp = `<section>
<h2>Monthly readings</h2>
<ol>
<li>Open <b>Readings</b>. The last processed reading of each unit is loaded and the reference date is set to the month after the latest one.</li>
<li>Fill production (m³), other costs and purchased water (R$). Print the reading sheet if the readings are taken on paper.</li>
<li>Type the readings or import a CSV file with <code>unit;reading;date</code> lines separated by semicolons. Dates are DD/MM/YYYY with an optional HH:mm.</li>
<li>Press <b>Submit</b>. The consistency check runs first; any missing field blocks the submission and is listed in the log.</li>
<li>Review the computed bills and press <b>Save and finish</b>, or go back to fix readings.</li>
</ol>
<p>Consumption of 2.5 times the median or more asks for an urgent check; above twice the median it is flagged as very high. Units above 1.5 times both their six-month average and the median are marked abnormal.</p>
<h2>Users</h2>
<p>New console users are registered on the billing backend with the same e-mail and password.</p>
</section>`

func HelpPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body := `<h1>Help</h1>` + viewerHelp
		if data.IsAdmin {
			body += adminHelp
		}
		return html.Page("Help", data.Nav, body).Render(ctx, w)
	})
}
