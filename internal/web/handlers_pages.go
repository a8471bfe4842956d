package web

import (
	"errors"
	"net/http"

	"github.com/criskgs/analiza-camion/internal/core"
	"github.com/criskgs/analiza-camion/internal/logging"
	"github.com/criskgs/analiza-camion/internal/web/templates"
)

// handleIndex starts a new session and sends the browser to its page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.CreateSession()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/s/"+sess.ID, http.StatusSeeOther)
}

func (s *Server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}
	render(w, r, http.StatusOK, templates.SessionPage(s.sessionView(sess, nil, nil)))
}

func (s *Server) handlePageUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}

	files, appendRows, err := s.readBatch(w, r)
	if err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}

	batch, err := s.service.Ingest(r.Context(), sess.ID, files, appendRows)
	if err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}

	logging.WithSession(r.Context(), sess.ID).Info("batch uploaded",
		"files", len(files),
		"batch_rows", batch.BatchRows,
		"total_rows", batch.TotalRows,
	)
	render(w, r, http.StatusOK, templates.SessionPage(s.sessionView(sess, &batch, nil)))
}

func (s *Server) handlePageAnalyze(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}

	req, err := s.analysisRequest(r)
	if err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	if _, err := sess.Analyze(req); err != nil {
		s.renderPageError(w, r, sess, err)
		return
	}
	http.Redirect(w, r, "/s/"+sess.ID, http.StatusSeeOther)
}

func (s *Server) handlePageClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}
	sess.Clear()
	http.Redirect(w, r, "/s/"+sess.ID, http.StatusSeeOther)
}

// pageSession resolves the session of a page route. An unknown or expired
// session sends the browser to a fresh one.
func (s *Server) pageSession(w http.ResponseWriter, r *http.Request) (*core.Session, bool) {
	id, err := sessionID(r)
	if err == nil {
		var sess *core.Session
		if sess, err = s.service.Session(id); err == nil {
			return sess, true
		}
	}

	if errors.Is(err, core.ErrSessionNotFound) && r.Method == http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	s.fail(w, r, err)
	return nil, false
}

// renderPageError shows the session page again with the error on top.
func (s *Server) renderPageError(w http.ResponseWriter, r *http.Request, sess *core.Session, err error) {
	status := statusFor(err)
	logging.WithSession(r.Context(), sess.ID).Warn("page request failed",
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	msg := core.MapError(err)
	render(w, r, status, templates.SessionPage(s.sessionView(sess, nil, &msg)))
}

func (s *Server) sessionView(sess *core.Session, batch *core.BatchReport, msg *core.UserMessage) templates.SessionView {
	form := templates.AnalysisForm{
		MinKm:    s.cfg.Analysis.MinKm,
		Source:   core.ParseDistanceSource(s.cfg.Analysis.DistanceSource),
		IdleMode: core.ParseIdleMode(s.cfg.Analysis.IdleMode),
		IdleDays: s.cfg.Analysis.IdleDays,
		IdlePct:  s.cfg.Analysis.IdlePercent,
	}

	v := templates.SessionView{
		Info:       sess.Info(),
		Batch:      batch,
		Form:       form,
		Extensions: core.Extensions(),
		Error:      msg,
	}
	if rep, err := sess.Report(); err == nil {
		v.Report = rep
		v.Form.MinKm = rep.MinKm
		v.Form.Source = rep.Source
		v.Form.IdleMode = rep.Result.IdleMode
		if rep.Result.IdleMode == core.IdleFromPercent {
			v.Form.IdlePct = rep.Result.IdlePercent
		}
	}
	return v
}
