package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/criskgs/analiza-camion/internal/core"
	"github.com/criskgs/analiza-camion/internal/report"
	"github.com/criskgs/analiza-camion/internal/web/templates"
)

// multipartMemory is how much of an upload is buffered in memory before
// the rest spills to temporary files.
const multipartMemory = 32 << 20

// sessionID returns the {sessionID} URL parameter. Anything that is not a
// UUID cannot name a session.
func sessionID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "sessionID")
	if err := uuid.Validate(id); err != nil {
		return "", fmt.Errorf("%w: %q", core.ErrSessionNotFound, id)
	}
	return id, nil
}

// readBatch reads the uploaded files of a multipart request, in form order.
// Files may be sent under "files" (multiple) or "file". The boolean is the
// "append" form flag.
func (s *Server) readBatch(w http.ResponseWriter, r *http.Request) ([]core.InputFile, bool, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, false, fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, s.cfg.Upload.MaxFileSize)
		}
		return nil, false, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	defer r.MultipartForm.RemoveAll()

	var headers []*multipart.FileHeader
	headers = append(headers, r.MultipartForm.File["files"]...)
	headers = append(headers, r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		return nil, false, core.ErrNoFile
	}

	files := make([]core.InputFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, false, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, core.InputFile{Name: fh.Filename, Data: data})
	}

	appendRows, _ := strconv.ParseBool(r.FormValue("append"))
	return files, appendRows, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// analysisInput is the JSON body of an analysis request. Missing fields
// keep the configured defaults.
type analysisInput struct {
	MinKm    *float64 `json:"minKm"`
	Source   *string  `json:"source"`
	IdleMode *string  `json:"idleMode"`
	IdleDays *float64 `json:"idleDays"`
	IdlePct  *float64 `json:"idlePct"`
}

// analysisRequest reads analysis settings from a JSON body or from form
// fields (min_km, source, idle_mode, idle_days, idle_pct).
func (s *Server) analysisRequest(r *http.Request) (core.AnalysisRequest, error) {
	req := s.cfg.Analysis.Request()

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var in analysisInput
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			return req, fmt.Errorf("%w: %v", core.ErrMalformedRequest, err)
		}
		if in.MinKm != nil {
			req.MinKm = *in.MinKm
		}
		if in.Source != nil {
			req.Source = core.ParseDistanceSource(*in.Source)
		}
		if in.IdleMode != nil {
			req.Idle.Mode = core.ParseIdleMode(*in.IdleMode)
		}
		if in.IdleDays != nil {
			req.Idle.Days = *in.IdleDays
		}
		if in.IdlePct != nil {
			req.Idle.Percent = *in.IdlePct
		}
		return req, req.Validate()
	}

	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("%w: %v", core.ErrInvalidIdlePolicy, err)
	}
	var err error
	if req.MinKm, err = formFloat(r, "min_km", req.MinKm); err != nil {
		return req, fmt.Errorf("%w: %v", core.ErrInvalidMinKm, err)
	}
	if v := r.FormValue("source"); v != "" {
		req.Source = core.ParseDistanceSource(v)
	}
	if v := r.FormValue("idle_mode"); v != "" {
		req.Idle.Mode = core.ParseIdleMode(v)
	}
	if req.Idle.Days, err = formFloat(r, "idle_days", req.Idle.Days); err != nil {
		return req, fmt.Errorf("%w: %v", core.ErrInvalidIdlePolicy, err)
	}
	if req.Idle.Percent, err = formFloat(r, "idle_pct", req.Idle.Percent); err != nil {
		return req, fmt.Errorf("%w: %v", core.ErrInvalidIdlePolicy, err)
	}
	return req, req.Validate()
}

// formFloat parses a form number, accepting a decimal comma.
func formFloat(r *http.Request, name string, def float64) (float64, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	if err != nil {
		return def, fmt.Errorf("%s: %q is not a number", name, v)
	}
	return f, nil
}

// handleExport renders the session's last report as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	format, err := report.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.service.Report(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if format == report.FormatHTML {
		err = templates.ReportDocument(rep).Render(r.Context(), &buf)
	} else {
		err = report.Write(&buf, format, rep)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	name := report.FileName(format, time.Now())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// render writes an HTML component with the given status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "path", r.URL.Path, "error", err)
	}
}
