package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/criskgs/analiza-camion/internal/core"
	"github.com/criskgs/analiza-camion/internal/report"
)

// ReportTable renders the result table with per-vehicle alert badges and
// a footer with totals and the idle allowance.
func ReportTable(r *core.Report) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		if r == nil || r.Result == nil {
			h.raw(`<p class="muted">No analysis yet.</p>`)
			return h.err
		}

		h.raw(`<p class="period">`)
		h.text(r.PeriodSummary())
		h.raw("</p><table><thead><tr>")
		for _, col := range report.Columns {
			h.tag("th", col)
		}
		h.raw("<th>Alerts</th></tr></thead><tbody>")

		for _, row := range report.Rows(r) {
			h.raw("<tr>")
			for i, cell := range row.Cells {
				if i == 1 {
					h.raw(`<td class="num">`)
					h.text(cell)
					h.raw("</td>")
					continue
				}
				h.tag("td", cell)
			}
			h.raw("<td>")
			badges(h, r.Result, row)
			h.raw("</td></tr>")
		}

		h.raw(`</tbody><tfoot><tr><td>Total</td><td class="num">`)
		h.text(fmt.Sprintf("%.2f", r.Result.Stats.TotalKm))
		h.rawf(`</td><td colspan="%d" class="muted">`, len(report.Columns)-1)
		h.text(fmt.Sprintf("Average km: %.1f | Median km: %.1f | ",
			r.Result.AvgKm, r.Result.Stats.MedianKm))
		h.text(r.IdleSummary())
		h.raw("</td></tr></tfoot></table>")
		return h.err
	})
}

func badges(h *html, res *core.AnalysisResult, row report.Row) {
	if row.LowKm {
		h.raw(`<span class="badge danger">Low KM</span>`)
	} else {
		h.raw(`<span class="badge ok">OK</span>`)
	}
	if !row.IdleOver {
		return
	}
	flag, _ := res.IdleFlagFor(row.Cells[0])
	h.raw(`<span class="badge warn">`)
	if flag.OverByPercent > 0 {
		h.text(fmt.Sprintf("Idle over normal (+%.1f%%)", flag.OverByPercent))
	} else {
		h.text(fmt.Sprintf("Idle over normal (+%.2fh)", flag.OverByHours))
	}
	h.raw("</span>")
}

// AlertList renders the flagged vehicles, or "No alerts.".
func AlertList(r *core.Report) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<h2>Alerts</h2>")
		alerts := r.Alerts()
		if len(alerts) == 0 {
			h.raw("<p>No alerts.</p>")
			return h.err
		}
		h.raw("<ul>")
		for _, a := range alerts {
			h.tag("li", a)
		}
		h.raw("</ul>")
		return h.err
	})
}

// ReportDocument is the standalone HTML export.
func ReportDocument(r *core.Report) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.tag("h1", report.Title)
		h.render(ctx, ReportTable(r))
		if r != nil && r.Result != nil {
			h.render(ctx, AlertList(r))
			h.raw(`<p class="muted">Generated `)
			h.text(r.Result.GeneratedAt.Format("02.01.2006 15:04:05"))
			h.raw(" UTC</p>")
		}
		return h.err
	})
	return Page(report.Title, body)
}
