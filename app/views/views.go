// Package views renders the server-side pages. Every page is parsed together
// with the layout and executes the "layout" template, which pulls in the
// page's "content" block.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"tipsvendor/app/models"
	"tipsvendor/app/payments"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded stylesheet and script assets.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Site carries the configured site identity and third-party tag IDs.
type Site struct {
	Name            string
	BaseURL         string
	AnalyticsID     string
	TagManagerID    string
	AdsenseClientID string
}

// Flash is a one-shot notification shown at the top of the next page.
type Flash struct {
	Kind    string
	Message string
}

// Page is the data every template receives.
type Page struct {
	Site        Site
	User        *models.User
	Flash       *Flash
	Title       string
	Description string
	Keywords    string
	Path        string
	Errors      map[string]string
	Data        any
	Now         time.Time
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	site  Site
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"money": func(amount decimal.Decimal, currency string) string {
		return payments.Format(amount, currency)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006")
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006 15:04")
	},
	"isoTime": func(t time.Time) string { return t.Format("2006-01-02T15:04") },
	"paragraphs": func(s string) []string {
		var out []string
		for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
	"pageURL": func(base string, page int) string {
		u, err := url.Parse(base)
		if err != nil {
			return base
		}
		q := u.Query()
		q.Set("page", fmt.Sprint(page))
		u.RawQuery = q.Encode()
		return u.String()
	},
	"upper": strings.ToUpper,
}

// New parses the layout, shared partials and every page template.
func New(site Site) (*Renderer, error) {
	r := &Renderer{site: site, pages: make(map[string]*template.Template)}

	for _, dir := range []string{"pages", "admin"} {
		files, err := fs.Glob(templateFS, path.Join("templates", dir, "*.gohtml"))
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			name := strings.TrimSuffix(path.Base(file), ".gohtml")
			if dir == "admin" {
				name = "admin/" + name
			}
			t, err := template.New("layout").Funcs(funcs).ParseFS(templateFS,
				"templates/layout.gohtml", "templates/partials/*.gohtml", file)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", file)
			}
			r.pages[name] = t
		}
	}
	return r, nil
}

// Site returns the identity the renderer was built with.
func (r *Renderer) Site() Site { return r.site }

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes page name into w. Output is buffered so a template error
// never leaves a half-written page.
func (r *Renderer) Render(w io.Writer, name string, p *Page) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	p.Site = r.site
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		return errors.Wrapf(err, "rendering %s", name)
	}
	_, err := buf.WriteTo(w)
	return err
}
