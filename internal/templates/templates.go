// Package templates embeds the dashboard's HTML templates and static assets.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
)

//go:embed *.html static
var files embed.FS

// DashboardTemplate is the name of the single dashboard page.
const DashboardTemplate = "dashboard.html"

var funcs = template.FuncMap{
	"lower": strings.ToLower,
	"row": func(rows map[string][]string, metric string) []string {
		return rows[metric]
	},
}

// Pages parses every embedded HTML template.
func Pages() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(files, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Static returns the embedded static asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(fmt.Sprintf("embedded static directory missing: %v", err))
	}
	return sub
}
