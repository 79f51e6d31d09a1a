package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "segdash",
		Short:         "Segdash: customer segmentation from the command line",
		Long:          "Segdash talks to the customer-segmentation analysis service: sign in, upload customer data, run clustering, browse segments and insights, and serve a local dashboard.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringP("config", "c", "segdash.yaml", "path to segdash config file")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newRefreshCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newFilesCmd())
	cmd.AddCommand(newSegmentsCmd())
	cmd.AddCommand(newInsightsCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newCustomersCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newPredictCmd())
	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "segdash %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// configPath returns the --config value inherited from the root command.
func configPath(cmd *cobra.Command) string {
	p, err := cmd.Flags().GetString("config")
	if err != nil || p == "" {
		return "segdash.yaml"
	}
	return p
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
