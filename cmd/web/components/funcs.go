package components

import (
	"html/template"

	"github.com/a-h/templ"
)

// templateFuncs returns the helpers available to every page template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"pluralize": func(n int, singular, plural string) string {
			if n == 1 {
				return singular
			}
			return plural
		},
		"style": style,
	}
}

// style renders one sanitized CSS declaration for a style attribute.
func style(property, value string) template.CSS {
	return template.CSS(templ.SanitizeCSS(property, value))
}
