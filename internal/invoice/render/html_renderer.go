package render

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed templates/invoice.html.tmpl
var templates embed.FS

var invoiceTemplate = template.Must(template.ParseFS(templates, "templates/invoice.html.tmpl"))

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	return &HTMLRenderer{tpl: invoiceTemplate}
}

func (r *HTMLRenderer) RenderHTML(view View) (string, error) {
	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, "invoice.html.tmpl", view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
