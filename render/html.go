package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"checkeasy-report/models"
)

//go:embed templates/report.html
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html").Funcs(template.FuncMap{
		"hour":  hour,
		"nl2br": nl2br,
		"photo": photo,
	}).ParseFS(templateFS, "templates/report.html"),
)

// WriteHTML renders the report page to w.
func WriteHTML(w io.Writer, r *models.MappedRapport) error {
	if err := reportTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// HTML renders the report page.
func HTML(r *models.MappedRapport) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func hour(h *string) string {
	if h == nil {
		return ""
	}
	return *h
}

func nl2br(s string) template.HTML {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = template.HTMLEscapeString(l)
	}
	return template.HTML(strings.Join(lines, "<br>"))
}

// photo accepts URLs and bare base64 data, which session steps may carry.
func photo(src string) template.URL {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "data:image/"):
		return template.URL(src)
	case src == "":
		return ""
	default:
		return template.URL("data:image/jpeg;base64," + src)
	}
}
