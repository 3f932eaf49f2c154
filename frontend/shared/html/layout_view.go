package html

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"condowater/frontend/shared/nav"
)

func RenderLayout(title, body string) string {
	return fmt.Sprintf("<!doctype html><html lang=\"pt-BR\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>%s</title><link rel=\"stylesheet\" href=\"/assets/app.css\"></head><body>%s%s</body></html>", templ.EscapeString(title), body, CSRFFormScript())
}

// Page wraps body in the layout with the top navigation.
func Page(title string, topNav nav.TopNavData, body string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, RenderLayout(title, topNav.HTML()+`<main>`+body+`</main>`))
		return err
	})
}

// Flash renders the status and error banners passed through the query string.
func Flash(status, errorMessage string) string {
	out := ""
	if status != "" {
		out += `<div class="alert alert-success">` + templ.EscapeString(status) + `</div>`
	}
	if errorMessage != "" {
		out += `<div class="alert alert-error">` + templ.EscapeString(errorMessage) + `</div>`
	}
	return out
}

// Esc escapes text for HTML output.
func Esc(s string) string {
	return templ.EscapeString(s)
}
