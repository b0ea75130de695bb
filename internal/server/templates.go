package server

import (
	_ "embed"
	"html/template"
)

//go:embed templates/index.html
var indexPageTemplateHTML string

var indexPageTemplate = template.Must(template.New("index").Parse(indexPageTemplateHTML))

// PageData represents the data for the invitation console page
type PageData struct {
	Channel            string
	RawEmails          string
	ContextText        string
	IncludeDescription bool
	ValidEmails        []string
	InvalidEmails      []string
	Sending            bool
	Flash              string
	CSRFToken          string
	Result             *ResultView
	Error              *ErrorView
}
