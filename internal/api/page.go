package api

import (
	"html/template"
	"io"

	"github.com/JakeFAU/guestbook/internal/guestbook"
)

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"localTime": guestbook.FormatLocal,
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Guestbook</title></head>
<body>
<h1>Guestbook</h1>
<p>Every time you reload this page with the same email, the existing entry is updated.</p>
<p>You can add your email to the visit by appending it to the URL: <code>?email=you@example.com</code></p>
<table border="1" style="width:100%; text-align:left;">
<thead><tr><th>ID</th><th>Email</th><th>Visits</th><th>Local Time</th></tr></thead>
<tbody>
{{- range .}}
<tr><td>{{.ID}}</td><td>{{.Email}}</td><td>{{.Visits}}</td><td>{{localTime .Timestamp}}</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

func renderPage(w io.Writer, entries []guestbook.Entry) error {
	return pageTemplate.Execute(w, entries) //nolint:wrapcheck // caller logs
}
