package nav

import (
	"strings"

	"github.com/a-h/templ"

	"condowater/models"
)

// Link is a top navigation entry shown when the session holds Code.
type Link struct {
	Code  string
	Label string
	Href  string
}

var links = []Link{
	{Code: "UNITS_LIST_VIEW", Label: "Units", Href: "/console/units"},
	{Code: "SUMMARY_VIEW", Label: "Monthly summary", Href: "/console/summary"},
	{Code: "READINGS_VIEW", Label: "Readings", Href: "/console/readings"},
	{Code: "HISTORY_VIEW", Label: "History", Href: "/console/history"},
	{Code: "ADMIN_USERS_LIST_VIEW", Label: "Users", Href: "/console/admin/users"},
	{Code: "HELP_VIEW", Label: "Help", Href: "/console/help"},
}

// TopNavData is shared with page renderers.
type TopNavData struct {
	Username    string
	DisplayName string
	Role        string
	Links       []Link
}

func BuildTopNavData(session models.Session) TopNavData {
	data := TopNavData{
		Username:    session.User.Username,
		DisplayName: session.User.DisplayName,
		Role:        session.User.Role,
	}
	for _, l := range links {
		if session.ScreenPermissions[l.Code] > 0 {
			data.Links = append(data.Links, l)
		}
	}
	return data
}

// HTML renders the navigation bar with a logout form.
func (d TopNavData) HTML() string {
	var b strings.Builder
	b.WriteString(`<nav class="topnav"><span class="brand">Condo Water</span><ul>`)
	for _, l := range d.Links {
		b.WriteString(`<li><a href="` + templ.EscapeString(l.Href) + `">` + templ.EscapeString(l.Label) + `</a></li>`)
	}
	b.WriteString(`</ul>`)
	name := d.DisplayName
	if name == "" {
		name = d.Username
	}
	if name != "" {
		b.WriteString(`<span class="user">` + templ.EscapeString(name) + ` (` + templ.EscapeString(d.Role) + `)</span>`)
		b.WriteString(`<form method="POST" action="/logout" class="inline"><button type="submit">Log out</button></form>`)
	}
	b.WriteString(`</nav>`)
	return b.String()
}
