package login

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"condowater/frontend/shared/html"
)

func GetLoginScreen(status, errorMessage string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		body := `<main class="login">
<h1>Condo Water</h1>
<p>Water billing console</p>` + html.Flash(status, errorMessage) + `
<form method="POST" action="/login">
  <label>E-mail <input type="email" name="username" autocomplete="username" required></label>
  <label>Password <input type="password" name="password" autocomplete="current-password" required></label>
  <button type="submit">Log in</button>
</form>
</main>`
		_, err := io.WriteString(w, html.RenderLayout("Log in", body))
		return err
	})
}
