package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"opengeo/internal/classify"
	"opengeo/internal/geojson"
	"opengeo/internal/logging"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Accuracy assessment and category areas",
	}
	cmd.AddCommand(accuracyCmd(), categoryAreaCmd("area"))
	return cmd
}

type accuracyOutputs struct {
	labels  string
	csv     string
	heatmap string
	samples string
}

func accuracyCmd() *cobra.Command {
	var outs accuracyOutputs
	cmd := &cobra.Command{
		Use:   "accuracy <points> <raster> <field>",
		Short: "Compare reference points with a classified raster",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			labels := map[int]string{}
			if outs.labels != "" {
				l, err := classify.LoadLabels(outs.labels)
				if err != nil {
					return err
				}
				labels = l
			}

			res, err := classify.Validate(ctx, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if res.Outside > 0 || res.NonPoint > 0 {
				logging.FromContext(ctx).Warn("reference features skipped",
					zap.Int("outside_or_nodata", res.Outside),
					zap.Int("non_point", res.NonPoint))
			}

			if err := classify.WriteReport(cmd.OutOrStdout(), res.Matrix, res.Metrics, labels); err != nil {
				return err
			}
			return writeAccuracyOutputs(outs, res, labels)
		},
	}
	cmd.Flags().StringVar(&outs.labels, "labels", "", "CSV with LULC_Code and Label columns")
	cmd.Flags().StringVar(&outs.csv, "csv", "", "write per-class accuracies to this CSV")
	cmd.Flags().StringVar(&outs.heatmap, "heatmap", "", "write the confusion matrix as an SVG heatmap")
	cmd.Flags().StringVar(&outs.samples, "samples", "", "write the sampled points as GeoJSON")
	return cmd
}

func writeAccuracyOutputs(outs accuracyOutputs, res classify.Result, labels map[int]string) error {
	if outs.csv != "" {
		if err := classify.WriteClassAccuracies(outs.csv, res.Matrix, res.Metrics, labels); err != nil {
			return err
		}
	}
	if outs.heatmap != "" {
		f, err := os.Create(outs.heatmap)
		if err != nil {
			return fmt.Errorf("create heatmap: %w", err)
		}
		if err := classify.WriteHeatmapSVG(f, res.Matrix, labels); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close heatmap: %w", err)
		}
	}
	if outs.samples != "" {
		if err := geojson.Write(outs.samples, geojson.BuildSamplesFC(res.Samples)); err != nil {
			return err
		}
	}
	return nil
}
