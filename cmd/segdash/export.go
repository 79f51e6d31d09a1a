package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zulandar/segdash/internal/export"
	"github.com/zulandar/segdash/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func newExportCmd() *cobra.Command {
	var (
		outPath  string
		fileName string
		archive  bool
	)

	cmd := &cobra.Command{
		Use:       "export customers|segments",
		Short:     "Export customers or segments to an Excel workbook",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"customers", "segments"},
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			return runExport(cmd, e, args[0], outPath, fileName, archive)
		}),
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output .xlsx file (default: <kind>.xlsx)")
	cmd.Flags().StringVar(&fileName, "file", "", "only rows of this uploaded file")
	cmd.Flags().BoolVar(&archive, "archive", false, "also copy the workbook to the configured archive")
	return cmd
}

func runExport(cmd *cobra.Command, e *env, kind, outPath, fileName string, archive bool) error {
	ctx := cmd.Context()
	if outPath == "" {
		outPath = kind + ".xlsx"
	}

	var (
		write func(io.Writer) error
		rows  int
	)
	switch kind {
	case "customers":
		cs, err := e.client.Customers(ctx, models.CustomerFilter{FileName: fileName})
		if err != nil {
			return sessionHint(err)
		}
		rows = len(cs)
		write = func(w io.Writer) error { return export.Customers(w, cs) }
	case "segments":
		segs, err := e.client.Segments(ctx, fileName)
		if err != nil {
			return sessionHint(err)
		}
		rows = len(segs)
		write = func(w io.Writer) error { return export.Segments(w, segs) }
	default:
		return fmt.Errorf("unknown export %q (want customers or segments)", kind)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d %s to %s\n", rows, kind, outPath)

	if archive {
		return archiveFile(cmd, e, outPath, xlsxContentType)
	}
	return nil
}
