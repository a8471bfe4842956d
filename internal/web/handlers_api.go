package web

import (
	"net/http"

	"github.com/criskgs/analiza-camion/internal/core"
	"github.com/criskgs/analiza-camion/internal/logging"
)

// reportResponse is a report plus the summary lines shown with it.
type reportResponse struct {
	Report        *core.Report `json:"report"`
	PeriodSummary string       `json:"periodSummary"`
	IdleSummary   string       `json:"idleSummary"`
	Alerts        []string     `json:"alerts"`
}

func newReportResponse(r *core.Report) reportResponse {
	alerts := r.Alerts()
	if alerts == nil {
		alerts = []string{}
	}
	return reportResponse{
		Report:        r,
		PeriodSummary: r.PeriodSummary(),
		IdleSummary:   r.IdleSummary(),
		Alerts:        alerts,
	}
}

// statusResponse describes server capacity.
type statusResponse struct {
	Sessions   int                     `json:"sessions"`
	Batches    core.BatchLimiterStatus `json:"batches"`
	Extensions []string                `json:"extensions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Sessions:   s.service.SessionCount(),
		Batches:    s.service.LimiterStatus(),
		Extensions: core.Extensions(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.CreateSession()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Info())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sess, err := s.service.Session(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.DeleteSession(id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadFiles ingests a multipart batch. Per-file failures are part
// of the batch report; the request itself only fails when the batch cannot
// run at all.
func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	files, appendRows, err := s.readBatch(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	batch, err := s.service.Ingest(r.Context(), id, files, appendRows)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.WithSession(r.Context(), id).Info("batch uploaded",
		"files", len(files),
		"batch_rows", batch.BatchRows,
		"total_rows", batch.TotalRows,
	)
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := s.analysisRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rep, err := s.service.Analyze(id, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(rep))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.service.Clear(id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.service.Report(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(rep))
}
