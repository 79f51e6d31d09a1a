package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zulandar/segdash/internal/upload"
)

func newUploadCmd() *cobra.Command {
	var (
		clusters   int
		noSegments bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a CSV or JSON file and run segmentation",
		Long:  "Uploads customer data, clusters it into --clusters segments and then lists the resulting segments.",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			return runUpload(cmd, e, args[0], clusters, !noSegments)
		}),
	}

	cmd.Flags().IntVarP(&clusters, "clusters", "k", 0, fmt.Sprintf("number of segments (%d-%d, default from config)", upload.MinClusters, upload.MaxClusters))
	cmd.Flags().BoolVar(&noSegments, "no-segments", false, "do not list segments when done")
	return cmd
}

func runUpload(cmd *cobra.Command, e *env, path string, clusters int, showSegments bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	file, err := upload.OpenPath(path)
	if err != nil {
		return err
	}

	navigated := make(chan string, 1)
	wf, err := upload.New(upload.Options{
		Service:         e.client,
		RedirectDelay:   e.cfg.Upload.RedirectDelay,
		DefaultClusters: e.cfg.Upload.DefaultClusters,
		Logger:          e.log,
		Navigator: upload.NavigatorFunc(func(route string) {
			navigated <- route
		}),
	})
	if err != nil {
		return err
	}
	defer wf.Close()

	if err := wf.Select(file); err != nil {
		return err
	}
	if clusters != 0 {
		if err := wf.SetClusterCount(clusters); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Uploading %s (%s, %s)...\n", file.Name, file.ContentType, formatBytes(file.Size))
	res, err := wf.StartUpload(ctx)
	if err != nil {
		return sessionHint(err)
	}
	fmt.Fprintf(out, "%s: %s records imported\n", res.Message, formatCount(int64(res.RecordsImported)))

	fmt.Fprintf(out, "Clustering into %d segments...\n", wf.Snapshot().ClusterCount)
	cl, err := wf.StartClustering(ctx)
	if err != nil {
		return sessionHint(err)
	}
	if cl.Message != "" {
		fmt.Fprintln(out, cl.Message)
	}

	select {
	case <-navigated:
	case <-ctx.Done():
		return ctx.Err()
	}
	if !showSegments {
		return nil
	}
	segs, err := e.client.Segments(ctx, res.FileName)
	if err != nil {
		return sessionHint(err)
	}
	fmt.Fprintln(out)
	printSegments(out, segs)
	return nil
}
