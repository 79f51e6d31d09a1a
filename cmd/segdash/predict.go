package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/segdash/internal/models"
)

func newPredictCmd() *cobra.Command {
	var (
		income   float64
		optional = make(map[string]*float64, len(models.PredictOptionalFields))
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the segment of a customer",
		Long:  "Classifies one customer with the trained model. --income is required; other spending and purchase figures are optional.",
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			if income < 0 {
				return fmt.Errorf("--income must not be negative")
			}
			req := models.PredictRequest{Income: income}
			for _, name := range models.PredictOptionalFields {
				if cmd.Flags().Changed(flagName(name)) {
					req.SetOptional(name, *optional[name])
				}
			}
			p, err := e.client.Predict(cmd.Context(), req)
			if err != nil {
				return sessionHint(err)
			}
			printPrediction(cmd.OutOrStdout(), p)
			return nil
		}),
	}

	cmd.Flags().Float64Var(&income, "income", 0, "yearly household income (required)")
	cmd.MarkFlagRequired("income")
	for _, name := range models.PredictOptionalFields {
		v := new(float64)
		optional[name] = v
		cmd.Flags().Float64Var(v, flagName(name), 0, name)
	}
	return cmd
}

// flagName turns a JSON field name into a flag name: mntWines -> mnt-wines.
func flagName(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9' && i > 0 && !(field[i-1] >= '0' && field[i-1] <= '9'):
			b.WriteByte('-')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func printPrediction(out io.Writer, p *models.Prediction) {
	fmt.Fprintf(out, "Segment:    %d (%s)\n", p.PredictedSegment, p.SegmentName)
	fmt.Fprintf(out, "Confidence: %s\n", formatRate(p.Confidence))
	if p.SegmentDescription != "" {
		fmt.Fprintf(out, "About:      %s\n", p.SegmentDescription)
	}
	if p.Recommendation != "" {
		fmt.Fprintf(out, "Recommend:  %s\n", p.Recommendation)
	}
	if len(p.Probabilities.Segments) > 0 {
		keys := make([]string, 0, len(p.Probabilities.Segments))
		for k := range p.Probabilities.Segments {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(out, "Probabilities:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, k := range keys {
			fmt.Fprintf(w, "  Segment %s\t%s\n", k, formatRate(p.Probabilities.Segments[k]))
		}
		w.Flush()
	}
}

func newTrainCmd() *cobra.Command {
	var (
		name     string
		features []string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the segment prediction model",
		RunE: withSession(func(cmd *cobra.Command, e *env, args []string) error {
			m, err := e.client.TrainModel(cmd.Context(), models.TrainModelRequest{ModelName: name, Features: features})
			if err != nil {
				return sessionHint(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Trained %s (%s)\n", m.ModelName, m.ModelID)
			fmt.Fprintf(out, "Rows: %s  Segments: %d  Accuracy: %s  Time: %dms\n",
				formatCount(int64(m.TrainingDataSize)), m.NumSegments, formatRate(m.Accuracy), m.TrainingTimeMs)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "segment-classifier", "model name")
	cmd.Flags().StringSliceVar(&features, "features", nil, "feature columns (default: backend choice)")
	return cmd
}
