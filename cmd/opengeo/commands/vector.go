package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"opengeo/internal/vector"
)

func vectorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vector",
		Short: "Inspect and buffer vector datasets",
	}
	cmd.AddCommand(vectorExtentCmd(), vectorFieldsCmd(), vectorBufferCmd())
	return cmd
}

func vectorExtentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extent <dataset>",
		Short: "Print the bounding box of the first layer",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := vector.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !info.HasExtent {
				return fmt.Errorf("%s: layer %q has no extent", args[0], info.Layer)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Layer:\t%s\n", info.Layer)
			fmt.Fprintf(tw, "Features:\t%d\n", info.FeatureCount)
			fmt.Fprintf(tw, "EPSG:\t%d\n", info.EPSG)
			fmt.Fprintf(tw, "Extent:\t%s %s %s %s\n",
				formatFloat(info.Extent.Min[0]), formatFloat(info.Extent.Min[1]),
				formatFloat(info.Extent.Max[0]), formatFloat(info.Extent.Max[1]))
			return tw.Flush()
		},
	}
}

func vectorFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <dataset>",
		Short: "List the attribute columns of the first layer",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := vector.Fields(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "name\ttype")
			for _, f := range fields {
				fmt.Fprintf(tw, "%s\t%s\n", f.Name, f.Type)
			}
			return tw.Flush()
		},
	}
}

func vectorBufferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buffer <in> <out> <distance>",
		Short: "Buffer every feature, keeping its attributes",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseFloatArg("distance", args[2])
			if err != nil {
				return err
			}
			return vector.Buffer(cmd.Context(), args[0], args[1], d)
		},
	}
}
