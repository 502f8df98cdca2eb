package echoweb

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutor/core/tutor"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = []string{
	"login.html",
	"home.html",
	"study.html",
	"homework.html",
	"notes.html",
	"lessons.html",
	"assignments.html",
	"students.html",
	"error.html",
}

type (
	templateRenderer struct {
		templates map[string]*template.Template
	}

	menuItem struct {
		Label string
		Icon  string
		Path  string
	}

	// pageData is handed to every page template.
	pageData struct {
		AppName string
		Title   string
		Path    string
		Session *tutor.Session
		Menu    []menuItem
		CSRF    string
		Flash   string
		Errors  map[string]string
		Data    interface{}
	}
)

var (
	teacherMenu = []menuItem{
		{Label: "Home", Icon: "🏠", Path: "/"},
		{Label: "Lessons", Icon: "✏️", Path: "/lessons"},
		{Label: "Homework", Icon: "📝", Path: "/assignments"},
		{Label: "Students", Icon: "👥", Path: "/students"},
	}
	studentMenu = []menuItem{
		{Label: "Home", Icon: "🏠", Path: "/"},
		{Label: "Study", Icon: "⏱️", Path: "/study"},
		{Label: "To-Do", Icon: "✅", Path: "/homework"},
		{Label: "Notes", Icon: "🔔", Path: "/notes"},
	}
)

func newTemplateRenderer() (*templateRenderer, error) {
	funcs := template.FuncMap{
		"formatMinutes": tutor.FormatMinutes,
	}
	r := &templateRenderer{templates: make(map[string]*template.Template, len(pageTemplates))}
	for _, page := range pageTemplates {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %s", page)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

func newPageData(ctx echo.Context, title string, data interface{}) *pageData {
	sess := getSession(ctx)
	pd := &pageData{
		AppName: appName(ctx),
		Title:   title,
		Path:    ctx.Path(),
		Session: sess,
		Data:    data,
	}
	if token, ok := ctx.Get(csrfContextKey).(string); ok {
		pd.CSRF = token
	}
	if sess.Authenticated {
		if sess.Identity.IsTeacher() {
			pd.Menu = teacherMenu
		} else {
			pd.Menu = studentMenu
		}
	}
	return pd
}

func render(ctx echo.Context, code int, page string, pd *pageData) error {
	return ctx.Render(code, page, pd)
}

func renderError(ctx echo.Context, code int, message interface{}) error {
	pd := newPageData(ctx, http.StatusText(code), message)
	if fields, ok := message.(map[string]string); ok {
		pd.Data = nil
		pd.Errors = fields
	}
	return render(ctx, code, "error.html", pd)
}

func appName(ctx echo.Context) string {
	if name, ok := ctx.Get(contextAppNameKey).(string); ok {
		return name
	}
	return "Tutor"
}
