package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/criskgs/analiza-camion/internal/core"
)

// Format is an export format, named by its file extension.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat resolves a format name. Unknown names fail with
// core.ErrUnsupportedExport.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatXLSX, FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedExport, s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/html; charset=utf-8"
	}
}

// Write renders r in format f. HTML is rendered by the web templates and is
// not handled here.
func Write(w io.Writer, f Format, r *core.Report) error {
	if r == nil || r.Result == nil {
		return core.ErrNoResult
	}
	switch f {
	case FormatPDF:
		return WritePDF(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("%w: %q", core.ErrUnsupportedExport, f)
	}
}
