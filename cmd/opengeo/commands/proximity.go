package commands

import (
	"github.com/spf13/cobra"

	"opengeo/internal/proximity"
)

func proximityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proximity",
		Short: "Distance rasters and buffers",
	}
	cmd.AddCommand(proximityDistanceCmd(), bufferRasterCmd(), bufferVectorCmd())
	return cmd
}

func proximityDistanceCmd() *cobra.Command {
	var nodata float64
	cmd := &cobra.Command{
		Use:   "distance <in> <out>",
		Short: "Distance in map units to the nearest non-zero cell",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return proximity.Distance(cmd.Context(), args[0], args[1], nodata)
		},
	}
	cmd.Flags().Float64Var(&nodata, "nodata", proximity.DefaultNoData, "output nodata value")
	return cmd
}

func bufferRasterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buffer-raster <in> <out> <distance>",
		Short: "Grow the non-zero cells of a raster by a distance",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseFloatArg("distance", args[2])
			if err != nil {
				return err
			}
			return proximity.BufferRaster(cmd.Context(), args[0], args[1], d)
		},
	}
}

func bufferVectorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buffer-vector <in> <out> <distance>",
		Short: "Buffer vector features",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseFloatArg("distance", args[2])
			if err != nil {
				return err
			}
			return proximity.BufferVector(cmd.Context(), args[0], args[1], d)
		},
	}
}
