package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gradestats-server-go/db"
	"gradestats-server-go/grades"
	"gradestats-server-go/handlers"
	"gradestats-server-go/models"
	"gradestats-server-go/report"
)

func newReportCmd() *cobra.Command {
	var (
		outDir      string
		excludeZero bool
	)
	cmd := &cobra.Command{
		Use:   "report FILE",
		Short: "Analyze a workbook and write the XLSX and PDF reports next to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = filepath.Dir(args[0])
			}
			analyzer := grades.NewAnalyzer(nil)
			analyzer.Bucketizer.IncludeLowest = !excludeZero
			return runReport(cmd.OutOrStdout(), args[0], outDir, analyzer, report.NewAssembler())
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: the input file's directory)")
	cmd.Flags().BoolVar(&excludeZero, "exclude-zero", false, "use a left-open first interval (0, 5], so grades of exactly 0 fall in no interval")
	return cmd
}

func runReport(w io.Writer, path, outDir string, analyzer *grades.Analyzer, assembler *report.Assembler) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	analysis, err := analyzer.Analyze(f, filepath.Base(path))
	if err != nil {
		var missing *grades.MissingColumnError
		if errors.As(err, &missing) {
			color.New(color.FgRed).Fprintf(w, "Coloane detectate: %v\n", missing.Detected)
		}
		return err
	}
	printAnalysis(w, analysis)

	artifacts, err := assembler.Build(analysis)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, out := range []struct {
		kind db.ArtifactKind
		data []byte
	}{
		{db.KindWorkbook, artifacts.Workbook},
		{db.KindDocument, artifacts.Document},
	} {
		target := filepath.Join(outDir, handlers.ReportFileName(analysis.FileName, out.kind))
		if err := os.WriteFile(target, out.data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		color.New(color.FgGreen).Fprintf(w, "Scris: %s\n", target)
	}
	return nil
}

func printAnalysis(w io.Writer, a *models.Analysis) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "\n=== %s ===\n", a.FileName)

	summary := tablewriter.NewWriter(w)
	summary.SetHeader(report.SummaryHeader)
	summary.Append([]string{
		fmt.Sprintf("%d", a.Summary.Total),
		fmt.Sprintf("%.2f", a.Summary.Mean),
		fmt.Sprintf("%d", a.Summary.Passed),
		fmt.Sprintf("%d", a.Summary.Failed),
	})
	summary.Render()

	color.New(color.FgYellow).Fprintln(w, "\nIntervalele mediilor")
	dist := tablewriter.NewWriter(w)
	dist.SetHeader([]string{"Interval", "Elevi"})
	for _, b := range a.Distribution {
		dist.Append([]string{b.Label, fmt.Sprintf("%d", b.Count)})
	}
	dist.Render()
}
