// Package components renders the dashboard pages.
package components

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/rubiojr/signalscope/cmd/web/components/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("pages").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html"))

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

// Index is the full dashboard page. The body follows data.Status.
func Index(data types.PageData) templ.Component {
	return render("layout", data)
}

// Loading is shown until the snapshot load settles.
func Loading() templ.Component {
	return render("loading", nil)
}

// LoadError shows a failed load's message verbatim.
func LoadError(message string) templ.Component {
	return render("load_error", types.PageData{Error: message})
}

func TagSelector(data types.PageData) templ.Component {
	return render("tag_selector", data)
}

func ChartPanel(chart *types.ChartData) templ.Component {
	return render("chart_panel", chart)
}

func EmptySelection() templ.Component {
	return render("empty_selection", nil)
}
