package httpserver

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/web"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	"github.com/Skotchmaster/storefront/pkg/session"
)

const layoutFile = "templates/layout.html"

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return strings.Replace(d.StringFixed(2), ".", ",", 1) + " €"
	},
	"date": func(t time.Time) string { return t.Format("02/01/2006 15:04") },
	"has":  func(list []string, v string) bool { return slices.Contains(list, v) },
	"join": strings.Join,
	"add":  func(a, b int) int { return a + b },
}

// Renderer executes one page template inside the shared layout and adds the data every
// page needs: csrf token, flashes, cart size and visitor identity.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	layout, err := template.New("layout").Funcs(funcs).ParseFS(web.Templates, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: map[string]*template.Template{}}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(web.Templates, f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		r.pages[path.Base(f)] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	view := map[string]any{}
	switch d := data.(type) {
	case echo.Map:
		for k, v := range d {
			view[k] = v
		}
	case map[string]any:
		for k, v := range d {
			view[k] = v
		}
	case nil:
	default:
		view["Data"] = d
	}

	sess := session.FromContext(c)
	cart := loadCart(sess)
	_, loggedIn := middleware.UserID(c)

	view["CSRF"] = csrf.Token(c)
	view["Flashes"] = sess.Flashes()
	view["CartCount"] = cart.Count()
	view["LoggedIn"] = loggedIn
	view["IsAdmin"] = middleware.IsAdmin(c)
	if _, ok := view["Errors"]; !ok {
		view["Errors"] = map[string]string{}
	}

	return t.ExecuteTemplate(w, "layout", view)
}
