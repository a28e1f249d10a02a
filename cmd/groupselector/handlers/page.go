package handlers

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"slices"

	"github.com/gnps/groupselector/pkg/dashboard"
	"github.com/gnps/groupselector/pkg/echoutil"
	"github.com/gnps/groupselector/pkg/features"
	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/gnps/groupselector/pkg/table"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageTemplate is the template name of the dashboard page.
const PageTemplate = "dashboard.html"

var funcs = template.FuncMap{
	"has": func(list []string, s string) bool {
		return slices.Contains(list, s)
	},
	"cell": func(r table.Row, col string) string {
		return r.Get(col).String()
	},
	"add": func(a, b int) int { return a + b },
	"fetchFailed": func(err error) bool {
		return errors.Is(err, gnps.ErrRemoteFetch)
	},
}

// Renderer renders the pages embedded in this package.
type Renderer struct {
	templates *template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

func NewRenderer() (*Renderer, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// Page is what the dashboard page shows.
type Page struct {
	dashboard.State

	Version        string
	FeatureColumns []features.Column
	Filters        map[string]string
	FilterPrefix   string
}

// PageHandler renders the dashboard for the task named by the first segment
// of the path, or the default task of o.
func PageHandler(o *dashboard.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, ok := dashboard.TaskFromPath(c.Request().URL.Path)
		if !ok {
			task = o.DefaultTask()
		}
		in, err := ParseInput(c, task)
		if err != nil {
			return err
		}

		st := o.Run(c.Request().Context(), in)
		if st.Errors.Any() {
			echoutil.Logger(c).Info(
				"dashboard has failed stages",
				zap.String("task", st.Task),
				zap.NamedError("metadata", st.Errors.Metadata),
				zap.NamedError("features", st.Errors.Features),
				zap.NamedError("groups", st.Errors.Groups),
				zap.NamedError("filter", st.Errors.Filter),
				zap.NamedError("select", st.Errors.Select),
			)
		}

		return c.Render(http.StatusOK, PageTemplate, Page{
			State:          st,
			Version:        dashboard.Version,
			FeatureColumns: features.Columns,
			Filters:        in.Filters,
			FilterPrefix:   FilterPrefix,
		})
	}
}
