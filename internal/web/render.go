package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"taskTracker/internal/auth"
	"taskTracker/internal/sla"
	"taskTracker/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "register", "index", "add_task", "masters"}

var templateFuncs = template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(sla.DateLayout)
	},
	"days": func(n *int) string {
		if n == nil {
			return ""
		}
		return strconv.Itoa(*n)
	},
}

// pages holds one template set per page, each sharing the layout.
type pages map[string]*template.Template

func loadPages() (pages, error) {
	out := make(pages, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// render executes a page into a buffer first so a template error never
// leaves a half-written response.
func (p pages) render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := p[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

type pageData struct {
	User *auth.Principal
}

type taskRow struct {
	*models.Task
	Metrics sla.Metrics
}

type indexPage struct {
	pageData
	Tasks []taskRow
}

type referencePage struct {
	pageData
	Categories []models.TaskCategory
	Persons    []models.AssignedPerson
}

func taskRows(tasks []models.Task) []taskRow {
	rows := make([]taskRow, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		rows = append(rows, taskRow{Task: t, Metrics: t.SLA()})
	}
	return rows
}
