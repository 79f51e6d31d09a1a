package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zulandar/segdash/internal/archive"
)

// archiveFile copies a local file to the configured archive and prints the
// download link.
func archiveFile(cmd *cobra.Command, e *env, path, contentType string) error {
	if !e.cfg.Archive.Enabled() {
		return fmt.Errorf("--archive needs archive.endpoint in %s", configPath(cmd))
	}
	a, err := archive.New(e.cfg.Archive, e.log)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.EnsureBucket(ctx); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	obj, err := a.Put(ctx, filepath.Base(path), f, st.Size(), contentType)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Archived to %s/%s\n", obj.Bucket, obj.Key)
	fmt.Fprintf(out, "Link: %s\n", obj.URL)
	return nil
}
