package api

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("").
	Funcs(template.FuncMap{"commaify": Commaify}).
	ParseFS(templateFS, "templates/*.html"))
