package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/criskgs/analiza-camion/internal/core"
	"github.com/criskgs/analiza-camion/internal/report"
)

// AnalysisForm holds the values the analysis form is filled with.
type AnalysisForm struct {
	MinKm    float64
	Source   core.DistanceSource
	IdleMode core.IdleMode
	IdleDays float64
	IdlePct  float64
}

// SessionView is everything the session page shows.
type SessionView struct {
	Info       core.SessionInfo
	Batch      *core.BatchReport
	Report     *core.Report
	Form       AnalysisForm
	Extensions []string
	Error      *core.UserMessage
}

// SessionPage renders the working page of one session: upload, analysis
// settings, the last batch outcome and the result table.
func SessionPage(v SessionView) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		base := "/s/" + v.Info.ID

		h.tag("h1", report.Title)
		if v.Error != nil {
			h.render(ctx, ErrorAlert(v.Error.Message, v.Error.Action, v.Error.Code))
		}

		// Upload
		h.raw("<section><h2>Reports</h2>")
		h.rawf(`<form method="post" action="%s/upload" enctype="multipart/form-data">`, templ.EscapeString(base))
		h.rawf(`<input type="file" name="files" multiple accept="%s">`,
			templ.EscapeString(strings.Join(v.Extensions, ",")))
		h.raw(` <label><input type="checkbox" name="append" value="true"> add to loaded rows</label>`)
		h.raw(` <button type="submit">Load</button></form>`)
		h.render(ctx, sessionInfo(v.Info))
		if v.Batch != nil {
			h.render(ctx, BatchSummary(*v.Batch))
		}
		h.raw("</section>")

		// Analysis
		h.raw("<section><h2>Analysis</h2>")
		h.render(ctx, analysisForm(base, v.Form))
		h.rawf(`<form method="post" action="%s/clear"><button type="submit">Clear</button></form>`,
			templ.EscapeString(base))
		h.raw("</section>")

		if v.Report != nil && v.Report.Result != nil {
			h.raw("<section>")
			h.render(ctx, ReportTable(v.Report))
			h.render(ctx, AlertList(v.Report))
			h.raw("<p>Export: ")
			for _, f := range []report.Format{report.FormatPDF, report.FormatXLSX, report.FormatHTML, report.FormatJSON} {
				h.rawf(`<a href="%s/export/%s">%s</a> `,
					templ.EscapeString(base), f, strings.ToUpper(string(f)))
			}
			h.raw("</p></section>")
		}
		return h.err
	})
	return Page(report.Title, body)
}

func sessionInfo(info core.SessionInfo) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<p class="muted">`)
		h.text(fmt.Sprintf("%d rows loaded from %d file(s).", info.Rows, len(info.Files)))
		if info.PeriodConflict {
			h.raw(" Files declare different periods; the last one is used.")
		}
		h.raw("</p>")
		return h.err
	})
}

// BatchSummary lists the outcome of each file of an upload batch.
func BatchSummary(b core.BatchReport) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<table><thead><tr><th>File</th><th>Rows</th><th>Status</th></tr></thead><tbody>")
		for _, f := range b.Files {
			h.raw("<tr>")
			h.tag("td", f.Name)
			h.raw(`<td class="num">`)
			h.text(fmt.Sprint(f.Rows))
			h.raw("</td>")
			switch {
			case f.Failed():
				h.raw(`<td><span class="badge danger">`)
				h.text(f.Error)
				h.raw("</span></td>")
			case f.Note != "":
				h.raw(`<td><span class="badge warn">`)
				h.text(f.Note)
				h.raw("</span></td>")
			default:
				h.raw(`<td><span class="badge ok">OK</span></td>`)
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table>")
		return h.err
	})
}

func analysisForm(base string, f AnalysisForm) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.rawf(`<form method="post" action="%s/analyze">`, templ.EscapeString(base))
		h.rawf(`<label>Minimum km <input type="number" name="min_km" min="0" step="any" value="%g"></label> `, f.MinKm)

		h.raw(`<label>Distance <select name="source">`)
		for _, s := range []core.DistanceSource{core.DistanceAuto, core.DistanceGPS, core.DistanceCAN} {
			option(h, string(s), strings.ToUpper(string(s)), s == f.Source)
		}
		h.raw("</select></label> ")

		h.raw(`<label>Idle allowance <select name="idle_mode">`)
		option(h, string(core.IdleFromPeriod), "3h per 24h of report period", f.IdleMode == core.IdleFromPeriod)
		option(h, string(core.IdleFromDays), "3h per day", f.IdleMode == core.IdleFromDays)
		option(h, string(core.IdleFromPercent), "% of engine run", f.IdleMode == core.IdleFromPercent)
		h.raw("</select></label> ")

		h.rawf(`<label>Days <input type="number" name="idle_days" min="0" step="any" value="%g"></label> `, f.IdleDays)
		h.rawf(`<label>Percent <input type="number" name="idle_pct" min="0" max="100" step="any" value="%g"></label> `, f.IdlePct)
		h.raw(`<button type="submit">Analyze</button></form>`)
		return h.err
	})
}

func option(h *html, value, label string, selected bool) {
	sel := ""
	if selected {
		sel = " selected"
	}
	h.rawf(`<option value="%s"%s>%s</option>`, templ.EscapeString(value), sel, templ.EscapeString(label))
}
