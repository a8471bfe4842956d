package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/criskgs/analiza-camion/internal/config"
	"github.com/criskgs/analiza-camion/internal/core"
	"github.com/criskgs/analiza-camion/internal/report"
)

// analyzeOptions are the flags of the analyze command.
type analyzeOptions struct {
	minKm    float64
	source   string
	idleMode string
	idleDays float64
	idlePct  float64

	pdf  string
	xlsx string
	json string

	location *time.Location
}

func newAnalyzeCmd(cfg *config.AnalysisConfig) *cobra.Command {
	opts := analyzeOptions{location: cfg.Location()}

	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze one or more report files as a single dataset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), args, opts)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.minKm, "min-km", cfg.MinKm, "minimum expected km per vehicle")
	f.StringVar(&opts.source, "source", cfg.DistanceSource, "distance source: gps, can or auto")
	f.StringVar(&opts.idleMode, "idle-mode", cfg.IdleMode, "idle allowance: period, days or percent")
	f.Float64Var(&opts.idleDays, "idle-days", cfg.IdleDays, "days of 3h idle allowance (idle-mode days)")
	f.Float64Var(&opts.idlePct, "idle-pct", cfg.IdlePercent, "allowed idle share of engine time (idle-mode percent)")
	f.StringVar(&opts.pdf, "pdf", "", "write a PDF report to this path")
	f.StringVar(&opts.xlsx, "xlsx", "", "write an XLSX workbook to this path")
	f.StringVar(&opts.json, "json", "", "write the JSON result to this path")
	return cmd
}

// request turns the flags into an analysis request. Unlike the web form,
// unknown source or mode names are rejected.
func (o analyzeOptions) request() (core.AnalysisRequest, error) {
	switch core.DistanceSource(o.source) {
	case core.DistanceGPS, core.DistanceCAN, core.DistanceAuto:
	default:
		return core.AnalysisRequest{}, fmt.Errorf("--source must be gps, can or auto, got %q", o.source)
	}
	switch core.IdleMode(o.idleMode) {
	case core.IdleFromPeriod, core.IdleFromDays, core.IdleFromPercent:
	default:
		return core.AnalysisRequest{}, fmt.Errorf("--idle-mode must be period, days or percent, got %q", o.idleMode)
	}

	req := core.AnalysisRequest{
		MinKm:  o.minKm,
		Source: core.DistanceSource(o.source),
		Idle: core.IdlePolicy{
			Mode:    core.IdleMode(o.idleMode),
			Days:    o.idleDays,
			Percent: o.idlePct,
		},
	}
	return req, req.Validate()
}

func runAnalyze(out io.Writer, paths []string, opts analyzeOptions) error {
	req, err := opts.request()
	if err != nil {
		return err
	}

	files := make([]core.InputFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, core.InputFile{Name: filepath.Base(p), Data: data})
	}

	sess := core.NewSession(uuid.NewString(), core.PeriodOptions{Location: opts.location})
	batch := sess.Ingest(files, false)
	printBatch(out, batch)

	rep, err := sess.Analyze(req)
	if err != nil {
		return err
	}
	if err := printReport(out, rep); err != nil {
		return err
	}

	exports := []struct {
		path   string
		format report.Format
	}{
		{opts.pdf, report.FormatPDF},
		{opts.xlsx, report.FormatXLSX},
		{opts.json, report.FormatJSON},
	}
	for _, e := range exports {
		if e.path == "" {
			continue
		}
		if err := writeExport(e.path, e.format, rep); err != nil {
			return err
		}
		pterm.Success.WithWriter(out).Printfln("Wrote %s", e.path)
	}
	return nil
}

func printBatch(out io.Writer, batch core.BatchReport) {
	warn := pterm.Warning.WithWriter(out)
	for _, f := range batch.Files {
		switch {
		case f.Failed():
			warn.Printfln("%s: %s", f.Name, f.Error)
		case f.Note != "":
			warn.Printfln("%s: %s", f.Name, f.Note)
		default:
			slog.Info("file loaded", "file", f.Name, "rows", f.Rows, "source", f.Source)
		}
	}
	if batch.PeriodConflict {
		warn.Println("Files declare different periods; the last one is used.")
	}
}

func printReport(out io.Writer, rep *core.Report) error {
	pterm.Info.WithWriter(out).Println(rep.PeriodSummary())

	header := append(append([]string{}, report.Columns...), "Status")
	data := pterm.TableData{header}
	for _, row := range report.Rows(rep) {
		data = append(data, append(append([]string{}, row.Cells...), row.Status))
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(out, report.Footer(rep))
	fmt.Fprintln(out)

	alerts := rep.Alerts()
	if len(alerts) == 0 {
		pterm.Success.WithWriter(out).Println("No alerts.")
		return nil
	}
	pterm.Warning.WithWriter(out).Printfln("Alerts (%d):", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(out, "  - %s\n", a)
	}
	return nil
}

func writeExport(path string, f report.Format, rep *core.Report) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := report.Write(file, f, rep); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
