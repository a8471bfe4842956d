// Package templates renders the HTML views as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const styles = `
body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:1100px;color:#1f2937}
h1{font-size:1.4rem}
section{margin:1.5rem 0;padding:1rem;border:1px solid #e5e7eb;border-radius:8px}
table{border-collapse:collapse;width:100%;font-size:.9rem}
th,td{border:1px solid #e5e7eb;padding:.35rem .5rem;text-align:left}
th{background:#4f46e5;color:#fff}
td.num{text-align:right}
tfoot td{font-weight:600}
.muted{color:#6b7280}
.badge{display:inline-block;padding:.1rem .45rem;border-radius:999px;font-size:.75rem;margin-right:.25rem}
.badge.ok{background:#dcfce7;color:#166534}
.badge.danger{background:#fee2e2;color:#991b1b}
.badge.warn{background:#fef3c7;color:#92400e}
.alert{padding:.75rem 1rem;border-radius:6px;background:#fee2e2;color:#991b1b;margin:1rem 0}
.alert small{display:block;color:#7f1d1d}
`

// html accumulates markup and the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// text writes s escaped.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// tag writes <name>escaped text</name>.
func (h *html) tag(name, s string) {
	h.rawf("<%s>%s</%s>", name, templ.EscapeString(s), name)
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// Page wraps body in the document shell.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.tag("title", title)
		h.rawf("<style>%s</style></head><body>", strings.TrimSpace(styles))
		h.render(ctx, body)
		h.raw("</body></html>")
		return h.err
	})
}

// ErrorAlert renders a user-facing error with its suggested action.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw("</strong>")
		if action != "" {
			h.tag("small", action)
		}
		if code != "" {
			h.raw(`<small class="muted">Code: `)
			h.text(code)
			h.raw("</small>")
		}
		h.raw("</div>")
		return h.err
	})
}

// ErrorPage is a full page around ErrorAlert.
func ErrorPage(message, action, code string) templ.Component {
	return Page("Error", ErrorAlert(message, action, code))
}
