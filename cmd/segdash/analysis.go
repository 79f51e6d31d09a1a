package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/segdash/internal/models"
)

func newFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List uploaded data files",
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			files, err := e.client.Files(cmd.Context())
			if err != nil {
				return sessionHint(err)
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No files uploaded yet")
				return nil
			}
			sort.Strings(files)
			for _, f := range files {
				fmt.Fprintln(out, f)
			}
			return nil
		}),
	}
}

func newSegmentsCmd() *cobra.Command {
	var fileName string

	cmd := &cobra.Command{
		Use:   "segments",
		Short: "List customer segments",
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			segs, err := e.client.Segments(cmd.Context(), fileName)
			if err != nil {
				return sessionHint(err)
			}
			printSegments(cmd.OutOrStdout(), segs)
			return nil
		}),
	}

	cmd.Flags().StringVar(&fileName, "file", "", "only segments of this uploaded file")
	return cmd
}

func printSegments(out io.Writer, segs []models.SegmentDTO) {
	if len(segs) == 0 {
		fmt.Fprintln(out, "No segments found. Upload a file and run clustering first.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCUSTOMERS\tAVG INCOME\tAVG SPEND\tRESPONSE\tFILE")
	for _, s := range segs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.SegmentID, truncate(s.SegmentName, 30), formatCount(int64(s.CustomerCount)),
			formatMoney(s.AvgIncome), formatMoney(s.AvgSpending), formatRate(s.ResponseRate), s.FileName)
	}
	w.Flush()
}

func newInsightsCmd() *cobra.Command {
	var fileName string

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show marketing insights per segment",
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			ins, err := e.client.Insights(cmd.Context(), fileName)
			if err != nil {
				return sessionHint(err)
			}
			printInsights(cmd.OutOrStdout(), ins)
			return nil
		}),
	}

	cmd.Flags().StringVar(&fileName, "file", "", "only insights of this uploaded file")
	return cmd
}

func printInsights(out io.Writer, ins []models.InsightDTO) {
	if len(ins) == 0 {
		fmt.Fprintln(out, "No insights yet.")
		return
	}
	for i, in := range ins {
		if i > 0 {
			fmt.Fprintln(out)
		}
		name := in.SegmentName
		if name == "" {
			name = "Segment " + strconv.Itoa(in.SegmentID)
		}
		fmt.Fprintf(out, "== %s ==\n", name)
		fmt.Fprintf(out, "Strategy: %s\n", in.Strategy)
		if in.Characteristics != "" {
			fmt.Fprintf(out, "Profile:  %s\n", in.Characteristics)
		}
		for _, r := range in.Recommendations {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
}

func newStatsCmd() *cobra.Command {
	var fileName string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard aggregates",
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			d, err := e.client.Dashboard(cmd.Context(), fileName)
			if err != nil {
				return sessionHint(err)
			}
			printStats(cmd.OutOrStdout(), d)
			return nil
		}),
	}

	cmd.Flags().StringVar(&fileName, "file", "", "only aggregates of this uploaded file")
	return cmd
}

func printStats(out io.Writer, d *models.DashboardDTO) {
	if d.TotalCustomers == 0 {
		fmt.Fprintln(out, "No customer data yet.")
		return
	}
	fmt.Fprintf(out, "Customers:      %s\n", formatCount(int64(d.TotalCustomers)))
	fmt.Fprintf(out, "Avg spending:   %s\n", formatMoney(d.AvgSpending))
	fmt.Fprintf(out, "Response rate:  %s\n", formatRate(d.MarketingResponseRate))

	segs := make([]int, 0, len(d.SegmentDistribution))
	for s := range d.SegmentDistribution {
		segs = append(segs, s)
	}
	sort.Ints(segs)
	fmt.Fprintln(out, "\nDistribution:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, s := range segs {
		n := d.SegmentDistribution[s]
		share := float64(n) * 100 / float64(d.TotalCustomers)
		fmt.Fprintf(w, "  Segment %d\t%s\t%.1f%%\t%s\n", s, formatCount(int64(n)), share, strings.Repeat("#", int(share/5)))
	}
	w.Flush()
}

func newCustomersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Browse customers",
	}
	cmd.AddCommand(newCustomersListCmd())
	cmd.AddCommand(newCustomersShowCmd())
	return cmd
}

func newCustomersListCmd() *cobra.Command {
	var (
		segment       int
		maritalStatus string
		fileName      string
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers, optionally filtered",
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			f := models.CustomerFilter{MaritalStatus: maritalStatus, FileName: fileName}
			if cmd.Flags().Changed("segment") {
				if segment < 0 {
					return fmt.Errorf("--segment must not be negative")
				}
				f.Segment = &segment
			}
			cs, err := e.client.Customers(cmd.Context(), f)
			if err != nil {
				return sessionHint(err)
			}
			printCustomers(cmd.OutOrStdout(), cs, limit)
			return nil
		}),
	}

	cmd.Flags().IntVar(&segment, "segment", 0, "only customers in this segment")
	cmd.Flags().StringVar(&maritalStatus, "marital-status", "", "only customers with this marital status")
	cmd.Flags().StringVar(&fileName, "file", "", "only customers of this uploaded file")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to print (0 for all)")
	return cmd
}

func printCustomers(out io.Writer, cs []models.CustomerDTO, limit int) {
	if len(cs) == 0 {
		fmt.Fprintln(out, "No customers found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEDUCATION\tMARITAL\tINCOME\tSPENDING\tSEGMENT")
	for i, c := range cs {
		if limit > 0 && i == limit {
			break
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Education, c.MaritalStatus, formatFloatPtr(c.Income), formatFloatPtr(c.TotalSpending), formatIntPtr(c.Segment))
	}
	w.Flush()
	if limit > 0 && len(cs) > limit {
		fmt.Fprintf(out, "... %d more (use --limit 0 to show all)\n", len(cs)-limit)
	}
}

func newCustomersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one customer",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid customer id %q", args[0])
			}
			c, err := e.client.Customer(cmd.Context(), id)
			if err != nil {
				return sessionHint(err)
			}
			printCustomer(cmd.OutOrStdout(), c)
			return nil
		}),
	}
}

func printCustomer(out io.Writer, c *models.CustomerDTO) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", strconv.Itoa(c.ID)},
		{"File", c.FileName},
		{"Education", c.Education},
		{"Marital status", c.MaritalStatus},
		{"Income", formatFloatPtr(c.Income)},
		{"Segment", formatIntPtr(c.Segment)},
		{"Total spending", formatFloatPtr(c.TotalSpending)},
		{"Wines", formatFloatPtr(c.MntWines)},
		{"Fruits", formatFloatPtr(c.MntFruits)},
		{"Meat", formatFloatPtr(c.MntMeatProducts)},
		{"Fish", formatFloatPtr(c.MntFishProducts)},
		{"Sweets", formatFloatPtr(c.MntSweetProducts)},
		{"Gold", formatFloatPtr(c.MntGoldProds)},
		{"Web purchases", formatIntPtr(c.NumWebPurchases)},
		{"Catalog purchases", formatIntPtr(c.NumCatalogPurchases)},
		{"Store purchases", formatIntPtr(c.NumStorePurchases)},
		{"Deal purchases", formatIntPtr(c.NumDealsPurchases)},
		{"Campaigns accepted", formatIntPtr(c.TotalCampaignAccepted)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s:\t%s\n", r[0], r[1])
	}
	w.Flush()
}
