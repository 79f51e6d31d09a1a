package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zulandar/segdash/internal/models"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and download reports",
	}
	cmd.AddCommand(newReportGenerateCmd())
	cmd.AddCommand(newReportDownloadCmd())
	return cmd
}

func newReportGenerateCmd() *cobra.Command {
	var reportType string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report",
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			rt, err := models.ParseReportType(reportType)
			if err != nil {
				return err
			}
			rep, err := e.client.GenerateReport(cmd.Context(), rt)
			if err != nil {
				return sessionHint(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Report %s generated (%s, %s)\n", rep.ReportID, rep.ReportType, formatBytes(rep.FileSize))
			if rep.Message != "" {
				fmt.Fprintln(out, rep.Message)
			}
			fmt.Fprintf(out, "Download with: segdash report download %s\n", rep.ReportID)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&reportType, "type", "t", string(models.ReportFull), "report type: full, summary or segment")
	return cmd
}

func newReportDownloadCmd() *cobra.Command {
	var (
		outPath string
		archive bool
	)

	cmd := &cobra.Command{
		Use:   "download <report-id>",
		Short: "Download a generated report",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			return runReportDownload(cmd, e, args[0], outPath, archive)
		}),
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: name sent by the server)")
	cmd.Flags().BoolVar(&archive, "archive", false, "also copy the report to the configured archive")
	return cmd
}

func runReportDownload(cmd *cobra.Command, e *env, id, outPath string, archive bool) error {
	ctx := cmd.Context()
	d, err := e.client.DownloadReport(ctx, id)
	if err != nil {
		return sessionHint(err)
	}
	defer d.Body.Close()

	if outPath == "" {
		outPath = filepath.Base(d.FileName)
		if d.FileName == "" || outPath == "." || outPath == "/" {
			outPath = "report-" + id + ".pdf"
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	n, err := io.Copy(f, d.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", outPath, formatBytes(n))

	if archive {
		ct := d.ContentType
		if ct == "" {
			ct = "application/pdf"
		}
		return archiveFile(cmd, e, outPath, ct)
	}
	return nil
}
