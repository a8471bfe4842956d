package core

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// noTableNote is attached to files that decoded fine but held no vehicle table.
const noTableNote = "no recognizable table"

// InputFile is one uploaded file.
type InputFile struct {
	Name string
	Data []byte
}

// FileReport describes what happened to one file of a batch.
type FileReport struct {
	Name   string    `json:"name"`
	Rows   int       `json:"rows"`
	Source RowSource `json:"source,omitempty"`
	Period *Period   `json:"period,omitempty"`
	Note   string    `json:"note,omitempty"`
	Error  string    `json:"error,omitempty"` // user-facing message
	Err    error     `json:"-"`
}

// Failed reports whether the file could not be decoded.
func (f FileReport) Failed() bool {
	return f.Err != nil
}

// BatchReport summarizes one Ingest call.
type BatchReport struct {
	SessionID      string       `json:"sessionId"`
	Files          []FileReport `json:"files"`
	BatchRows      int          `json:"batchRows"`
	TotalRows      int          `json:"totalRows"`
	Period         *Period      `json:"period,omitempty"`
	PeriodConflict bool         `json:"periodConflict"`
}

// AnalysisRequest carries the user-selected analysis settings.
type AnalysisRequest struct {
	MinKm  float64
	Source DistanceSource
	Idle   IdlePolicy
}

// Validate checks the request ranges.
func (r AnalysisRequest) Validate() error {
	if r.MinKm < 0 {
		return ErrInvalidMinKm
	}
	switch r.Idle.Mode {
	case IdleFromDays:
		if r.Idle.Days <= 0 {
			return fmt.Errorf("%w: days must be positive", ErrInvalidIdlePolicy)
		}
	case IdleFromPercent:
		if r.Idle.Percent < 0 || r.Idle.Percent > 100 {
			return fmt.Errorf("%w: percent must be between 0 and 100", ErrInvalidIdlePolicy)
		}
	}
	return nil
}

// Session holds the rows and period accumulated from one user's uploads,
// plus the last analysis. Writers are serialized by a mutex; the files of a
// batch are processed one after another in input order.
type Session struct {
	ID string

	periodOpts PeriodOptions
	log        *slog.Logger
	created    time.Time
	lastUsed   atomic.Int64 // unix nanoseconds

	mu             sync.Mutex
	rows           []CanonicalRow
	files          []string
	period         Period
	hasPeriod      bool
	periodConflict bool
	report         *Report
}

// NewSession creates an empty session.
func NewSession(id string, periodOpts PeriodOptions) *Session {
	s := &Session{
		ID:         id,
		periodOpts: periodOpts,
		log:        slog.With("session_id", id),
		created:    time.Now(),
	}
	s.touch()
	return s
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// LastUsed returns when the session was last read or written.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Ingest decodes files in order and adds their rows to the session.
// Unless appendRows is set the session is reset first. A file that fails to
// decode is reported and skipped; the rest of the batch still loads.
// Any previous analysis result is discarded.
func (s *Session) Ingest(files []InputFile, appendRows bool) BatchReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.touch()

	if !appendRows {
		s.resetLocked()
	}
	s.report = nil

	batch := BatchReport{SessionID: s.ID, Files: make([]FileReport, 0, len(files))}
	for _, f := range files {
		fr, rows := s.ingestFile(f)
		batch.Files = append(batch.Files, fr)
		batch.BatchRows += len(rows)
		s.rows = append(s.rows, rows...)
		s.files = append(s.files, f.Name)
	}

	batch.TotalRows = len(s.rows)
	batch.PeriodConflict = s.periodConflict
	if s.hasPeriod {
		p := s.period
		batch.Period = &p
	}

	s.log.Info("batch ingested",
		"files", len(files),
		"batch_rows", batch.BatchRows,
		"total_rows", batch.TotalRows,
		"period_found", s.hasPeriod,
	)
	return batch
}

func (s *Session) ingestFile(f InputFile) (FileReport, []CanonicalRow) {
	log := s.log.With("file", f.Name)
	fr := FileReport{Name: f.Name}

	doc, err := DecodeFile(f.Name, f.Data)
	if err != nil {
		log.Warn("decode failed", "error", err)
		fr.Err = err
		fr.Error = FormatUserError(err)
		return fr, nil
	}

	var rows []CanonicalRow
	var period Period
	var found bool

	switch {
	case len(doc.Grid) > 0:
		rows = ExtractRows(doc.Grid)
		period, found = ExtractPeriod(doc.Grid, s.periodOpts)
		fr.Source = SourceGrid
	case len(doc.Records) > 0:
		rows = ExtractRecords(doc.Records, doc.Fields)
		fr.Source = SourceRecords
	case len(doc.Fragments) > 0:
		rows = ExtractFreeText(doc.Fragments)
		period, found = ExtractPeriodText(doc.Fragments, s.periodOpts)
		fr.Source = SourceText
	}

	for i := range rows {
		rows[i].File = f.Name
	}
	fr.Rows = len(rows)
	if len(rows) == 0 {
		fr.Note = noTableNote
	}

	if found {
		p := period
		fr.Period = &p
		s.setPeriodLocked(period, log)
	}

	log.Debug("file processed", "rows", fr.Rows, "source", fr.Source, "period_found", found)
	return fr, rows
}

// setPeriodLocked records a period; the last one found in a batch wins.
func (s *Session) setPeriodLocked(p Period, log *slog.Logger) {
	if s.hasPeriod && (!s.period.Start.Equal(p.Start) || !s.period.End.Equal(p.End)) {
		s.periodConflict = true
		log.Warn("reporting periods differ between files, keeping the latest",
			"previous_start", s.period.Start,
			"previous_end", s.period.End,
			"start", p.Start,
			"end", p.End,
		)
	}
	s.period = p
	s.hasPeriod = true
}

// Analyze aggregates the accumulated rows and runs the anomaly analysis.
// The report is kept for later export.
func (s *Session) Analyze(req AnalysisRequest) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.touch()

	dataset := Aggregate(s.rows, req.Source)
	if len(dataset) == 0 {
		return nil, ErrEmptyDataset
	}

	var hours pgtype.Float8
	if s.hasPeriod {
		hours = floatValue(s.period.Hours)
	}

	res := Analyze(dataset, AnalyzeOptions{
		MinKm:       req.MinKm,
		Idle:        req.Idle,
		PeriodHours: hours,
	})

	s.report = &Report{
		Result:    res,
		Period:    s.period,
		HasPeriod: s.hasPeriod,
		Source:    ParseDistanceSource(string(req.Source)),
		MinKm:     req.MinKm,
		Files:     append([]string(nil), s.files...),
	}

	s.log.Info("analysis completed",
		"vehicles", len(dataset),
		"low_km", len(res.FlaggedLowKm),
		"idle_over", len(res.FlaggedIdleOver),
	)
	return s.report, nil
}

// Report returns the last analysis, or ErrNoResult.
func (s *Session) Report() (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.report == nil {
		return nil, ErrNoResult
	}
	return s.report, nil
}

// Clear drops all rows, the period and the last result.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.resetLocked()
	s.log.Info("session cleared")
}

func (s *Session) resetLocked() {
	s.rows = nil
	s.files = nil
	s.period = Period{}
	s.hasPeriod = false
	s.periodConflict = false
	s.report = nil
}

// Period returns the reporting period found so far.
func (s *Session) Period() (Period, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period, s.hasPeriod
}

// Rows returns a copy of the accumulated rows.
func (s *Session) Rows() []CanonicalRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CanonicalRow(nil), s.rows...)
}

// SessionInfo is a read-only view of a session for status pages.
type SessionInfo struct {
	ID             string    `json:"id"`
	Files          []string  `json:"files"`
	Rows           int       `json:"rows"`
	Period         *Period   `json:"period,omitempty"`
	PeriodConflict bool      `json:"periodConflict"`
	HasResult      bool      `json:"hasResult"`
	Created        time.Time `json:"created"`
	LastUsed       time.Time `json:"lastUsed"`
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		ID:             s.ID,
		Files:          append([]string(nil), s.files...),
		Rows:           len(s.rows),
		PeriodConflict: s.periodConflict,
		HasResult:      s.report != nil,
		Created:        s.created,
		LastUsed:       s.LastUsed(),
	}
	if s.hasPeriod {
		p := s.period
		info.Period = &p
	}
	return info
}
