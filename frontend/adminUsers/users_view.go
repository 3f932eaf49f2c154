package adminusers

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"condowater/frontend/shared/html"
)

func UsersListPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Console users</h1>`)
		b.WriteString(html.Flash(data.Status, data.ErrorMessage))

		b.WriteString(`<table class="table"><thead><tr><th>#</th><th>E-mail</th><th>Name</th><th>Role</th><th>Created</th></tr></thead><tbody>`)
		for _, u := range data.Users {
			b.WriteString(`<tr><td>` + strconv.FormatInt(u.ID, 10) + `</td><td>` + html.Esc(u.Username) + `</td><td>` + html.Esc(u.DisplayName) + `</td><td>` + html.Esc(u.Role) + `</td><td>` + u.CreatedAt.Format("02/01/2006") + `</td></tr>`)
		}
		if len(data.Users) == 0 {
			b.WriteString(`<tr><td colspan="5">No users yet.</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)

		b.WriteString(`<h2>Roles</h2><table class="table"><thead><tr><th>Role</th><th>Screens</th></tr></thead><tbody>`)
		for _, role := range data.Roles {
			b.WriteString(`<tr><td>` + html.Esc(role) + `</td><td>` + html.Esc(strings.Join(data.RoleScreens[role], ", ")) + `</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)

		b.WriteString(`<h2>New user</h2>
<form method="POST" action="/console/admin/users" class="stack">
  <label>E-mail <input type="email" name="email" required></label>
  <label>Name <input type="text" name="display_name" required></label>
  <label>Password <input type="password" name="password" required></label>
  <label>Role <select name="role">`)
		for _, role := range data.Roles {
			b.WriteString(`<option value="` + html.Esc(role) + `">` + html.Esc(role) + `</option>`)
		}
		b.WriteString(`</select></label>
  <button type="submit">Create user</button>
</form>
<p class="hint">The account is also registered on the billing backend with the same password.</p>`)

		return html.Page("Users", data.Nav, b.String()).Render(ctx, w)
	})
}
