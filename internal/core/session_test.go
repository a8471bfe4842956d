package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registerTestDecoders installs simple decoders: ".grid" files hold
// ";"-separated rows, ".lines" files hold free text.
func registerTestDecoders(t *testing.T) {
	t.Helper()
	ClearDecoders()
	t.Cleanup(ClearDecoders)

	RegisterDecoder(".grid", DecoderFunc(func(_ string, data []byte) (Document, error) {
		var grid [][]string
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			grid = append(grid, strings.Split(line, ";"))
		}
		return Document{Grid: grid}, nil
	}))
	RegisterDecoder(".lines", DecoderFunc(func(_ string, data []byte) (Document, error) {
		return Document{Fragments: strings.Split(string(data), "\n")}, nil
	}))
	RegisterDecoder(".bad", DecoderFunc(func(string, []byte) (Document, error) {
		return Document{}, errors.New("corrupt zip")
	}))
	RegisterDecoder(".boom", DecoderFunc(func(string, []byte) (Document, error) {
		panic("index out of range")
	}))
}

const weekReport = `Perioada: 01.03.2024 00:00:00 - 04.03.2024 00:00:00
Vehicul;Distanta GPS;Timp functionare motor in stationare;Functionare motor
B 100 AAA;1.000;10:00:00;40:00:00
B 200 BBB;10;01:00:00;02:00:00
B 300 CCC;900;02:00:00;30:00:00
Total;1.910;;`

const secondReport = `01.03.2024 00:00:00 - 02.03.2024 00:00:00
Vehicul;Km CAN
B 100 AAA;50`

func gridFile(name, body string) InputFile {
	return InputFile{Name: name, Data: []byte(body)}
}

func TestSession_IngestAndAnalyze(t *testing.T) {
	registerTestDecoders(t)
	sess := NewSession("s1", PeriodOptions{})

	batch := sess.Ingest([]InputFile{gridFile("week.grid", weekReport)}, false)

	require.Len(t, batch.Files, 1)
	assert.Equal(t, 3, batch.Files[0].Rows)
	assert.Equal(t, SourceGrid, batch.Files[0].Source)
	require.NotNil(t, batch.Period)
	assert.InDelta(t, 72, batch.Period.Hours, 1e-9)
	assert.False(t, batch.PeriodConflict)

	rep, err := sess.Analyze(AnalysisRequest{MinKm: 500, Source: DistanceAuto, Idle: IdlePolicy{Mode: IdleFromPeriod}})
	require.NoError(t, err)

	res := rep.Result
	assert.InDelta(t, 382, res.LowKmEdge, 1e-9)
	require.Len(t, res.FlaggedLowKm, 1)
	assert.Equal(t, "B 200 BBB", res.FlaggedLowKm[0].Vehicle)
	require.Len(t, res.FlaggedIdleOver, 1)
	assert.Equal(t, "B 100 AAA", res.FlaggedIdleOver[0].Vehicle)
	assert.InDelta(t, 1, res.FlaggedIdleOver[0].OverByHours, 1e-9)
	assert.Equal(t, []string{"week.grid"}, rep.Files)

	stored, err := sess.Report()
	require.NoError(t, err)
	assert.Same(t, rep, stored)
}

func TestSession_DecodeFailuresDoNotStopBatch(t *testing.T) {
	registerTestDecoders(t)
	sess := NewSession("s1", PeriodOptions{})

	batch := sess.Ingest([]InputFile{
		{Name: "broken.bad", Data: []byte("x")},
		{Name: "crash.boom", Data: []byte("x")},
		{Name: "notes.pdf", Data: []byte("x")},
		{Name: "empty.grid", Data: nil},
		gridFile("week.grid", weekReport),
	}, false)

	require.Len(t, batch.Files, 5)
	for _, f := range batch.Files[:4] {
		assert.True(t, f.Failed(), f.Name)
		assert.NotEmpty(t, f.Error, f.Name)
	}
	assert.True(t, errors.Is(batch.Files[0].Err, ErrDecodeFailed))
	assert.True(t, errors.Is(batch.Files[1].Err, ErrDecodeFailed))
	assert.True(t, errors.Is(batch.Files[2].Err, ErrUnsupportedFormat))
	assert.True(t, errors.Is(batch.Files[3].Err, ErrEmptyFile))
	assert.Equal(t, "FILE002", MapError(batch.Files[2].Err).Code)

	assert.Equal(t, 3, batch.TotalRows)
}

func TestSession_NoTableNote(t *testing.T) {
	registerTestDecoders(t)
	sess := NewSession("s1", PeriodOptions{})

	batch := sess.Ingest([]InputFile{gridFile("other.grid", "Sofer;Ore\nIon;8")}, false)

	require.Len(t, batch.Files, 1)
	assert.False(t, batch.Files[0].Failed())
	assert.Equal(t, noTableNote, batch.Files[0].Note)
	assert.Equal(t, 0, batch.TotalRows)
}

func TestSession_ReplaceAndAppend(t *testing.T) {
	registerTestDecoders(t)
	sess := NewSession("s1", PeriodOptions{})

	sess.Ingest([]InputFile{gridFile("week.grid", weekReport)}, false)
	batch := sess.Ingest([]InputFile{gridFile("second.grid", secondReport)}, false)
	assert.Equal(t, 1, batch.TotalRows, "new batch replaces rows")
	assert.False(t, batch.PeriodConflict)

	sess.Ingest([]InputFile{gridFile("week.grid", weekReport)}, false)
	batch = sess.Ingest([]InputFile{gridFile("second.grid", secondReport)}, true)
	assert.Equal(t, 4, batch.TotalRows)
	assert.True(t, batch.PeriodConflict)
	require.NotNil(t, batch.Period)
	assert.InDelta(t, 24, batch.Period.Hours, 1e-9, "latest period wins")

	rep, err := sess.Analyze(AnalysisRequest{MinKm: 0, Source: DistanceAuto})
	require.NoError(t, err)
	assert.Equal(t, 3, len(rep.Result.Dataset))
	assert.InDelta(t, 1050, rep.Result.Dataset[0].Km, 1e-9)
}

func TestSession_FreeTextBatch(t *testing.T) {
	registerTestDecoders(t)
	sess := NewSession("s1", PeriodOptions{})

	batch := sess.Ingest([]InputFile{{
		Name: "dump.lines",
		Data: []byte("Interval: 01.03.2024 00:00:00 - 02.03.2024 00:00:00\nB 123 ABC 200 km idle 5h"),
	}}, false)

	require.Len(t, batch.Files, 1)
	assert.Equal(t, SourceText, batch.Files[0].Source)
	assert.Equal(t, 1, batch.Files[0].Rows)
	require.NotNil(t, batch.Period)

	rep, err := sess.Analyze(AnalysisRequest{MinKm: 100, Source: DistanceAuto})
	require.NoError(t, err)
	require.Len(t, rep.Result.FlaggedIdleOver, 1)
	assert.InDelta(t, 2, rep.Result.FlaggedIdleOver[0].OverByHours, 1e-9)
}

func TestSession_Errors(t *testing.T) {
	registerTestDecoders(t)
	sess := NewSession("s1", PeriodOptions{})

	_, err := sess.Analyze(AnalysisRequest{MinKm: 500})
	assert.ErrorIs(t, err, ErrEmptyDataset)
	assert.Equal(t, "ANL001", MapError(err).Code)

	_, err = sess.Report()
	assert.ErrorIs(t, err, ErrNoResult)
	assert.Equal(t, "EXP001", MapError(err).Code)

	_, err = sess.Analyze(AnalysisRequest{MinKm: -1})
	assert.ErrorIs(t, err, ErrInvalidMinKm)

	_, err = sess.Analyze(AnalysisRequest{Idle: IdlePolicy{Mode: IdleFromPercent, Percent: 120}})
	assert.ErrorIs(t, err, ErrInvalidIdlePolicy)
	assert.Equal(t, "ANL003", MapError(err).Code)
}

func TestSession_Clear(t *testing.T) {
	registerTestDecoders(t)
	sess := NewSession("s1", PeriodOptions{})

	sess.Ingest([]InputFile{gridFile("week.grid", weekReport)}, false)
	_, err := sess.Analyze(AnalysisRequest{MinKm: 500})
	require.NoError(t, err)

	sess.Clear()

	assert.Empty(t, sess.Rows())
	_, ok := sess.Period()
	assert.False(t, ok)
	_, err = sess.Report()
	assert.ErrorIs(t, err, ErrNoResult)

	info := sess.Info()
	assert.Equal(t, 0, info.Rows)
	assert.False(t, info.HasResult)
	assert.Nil(t, info.Period)
}

func TestSession_IngestDropsStaleResult(t *testing.T) {
	registerTestDecoders(t)
	sess := NewSession("s1", PeriodOptions{})

	sess.Ingest([]InputFile{gridFile("week.grid", weekReport)}, false)
	_, err := sess.Analyze(AnalysisRequest{MinKm: 500})
	require.NoError(t, err)

	sess.Ingest([]InputFile{gridFile("second.grid", secondReport)}, true)
	_, err = sess.Report()
	assert.ErrorIs(t, err, ErrNoResult)
}

// ----------------------------------------------------------------------------
// Service Tests
// ----------------------------------------------------------------------------

func newLiveSession(t *testing.T, svc *Service) *Session {
	t.Helper()
	sess, err := svc.CreateSession()
	require.NoError(t, err)
	return sess
}

func TestService_SessionLimit(t *testing.T) {
	svc := NewService(ServiceConfig{MaxSessions: 2})
	first := newLiveSession(t, svc)
	newLiveSession(t, svc)

	_, err := svc.CreateSession()
	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, "SES002", MapError(err).Code)
	assert.Equal(t, 2, svc.SessionCount())

	require.NoError(t, svc.DeleteSession(first.ID))
	_, err = svc.CreateSession()
	assert.NoError(t, err)
}

func TestService_Lifecycle(t *testing.T) {
	registerTestDecoders(t)
	svc := NewService(ServiceConfig{MaxFilesPerBatch: 2, MaxConcurrentBatches: 1, MaxBatchWait: time.Second})
	ctx := context.Background()

	sess := newLiveSession(t, svc)
	assert.Equal(t, 1, svc.SessionCount())

	batch, err := svc.Ingest(ctx, sess.ID, []InputFile{gridFile("week.grid", weekReport)}, false)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, batch.SessionID)

	rep, err := svc.Analyze(sess.ID, AnalysisRequest{MinKm: 500, Source: DistanceGPS})
	require.NoError(t, err)
	assert.Equal(t, DistanceGPS, rep.Source)

	got, err := svc.Report(sess.ID)
	require.NoError(t, err)
	assert.Same(t, rep, got)

	require.NoError(t, svc.Clear(sess.ID))
	_, err = svc.Report(sess.ID)
	assert.ErrorIs(t, err, ErrNoResult)

	require.NoError(t, svc.DeleteSession(sess.ID))
	assert.Equal(t, 0, svc.SessionCount())
	assert.Equal(t, 0, svc.LimiterStatus().Active)
}

func TestService_IngestValidation(t *testing.T) {
	registerTestDecoders(t)
	svc := NewService(ServiceConfig{MaxFilesPerBatch: 1})
	ctx := context.Background()
	sess := newLiveSession(t, svc)

	_, err := svc.Ingest(ctx, sess.ID, nil, false)
	assert.ErrorIs(t, err, ErrNoFile)

	files := []InputFile{gridFile("a.grid", weekReport), gridFile("b.grid", weekReport)}
	_, err = svc.Ingest(ctx, sess.ID, files, false)
	assert.ErrorIs(t, err, ErrTooManyFiles)
	assert.Equal(t, "UPL001", MapError(err).Code)

	_, err = svc.Ingest(ctx, "missing", files[:1], false)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, "SES001", MapError(err).Code)

	assert.ErrorIs(t, svc.Clear("missing"), ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession("missing"), ErrSessionNotFound)
}

func TestService_SweepIdle(t *testing.T) {
	svc := NewService(ServiceConfig{})
	old := newLiveSession(t, svc)
	fresh := newLiveSession(t, svc)

	old.lastUsed.Store(time.Now().Add(-3 * time.Hour).UnixNano())

	removed := svc.SweepIdle(time.Now(), 2*time.Hour)
	assert.Equal(t, 1, removed)

	_, err := svc.Session(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Session(fresh.ID)
	assert.NoError(t, err)
}

func TestService_JanitorStopsOnCancel(t *testing.T) {
	svc := NewService(ServiceConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartJanitor(ctx, JanitorConfig{IdleTTL: time.Hour, SweepInterval: 10 * time.Millisecond})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
