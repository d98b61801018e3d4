package commands

import (
	"github.com/spf13/cobra"

	"opengeo/internal/rasterize"
)

func rasterizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rasterize",
		Short: "Burn vector features into rasters",
	}
	cmd.AddCommand(rasterizeVectorCmd(), rasterizeRefCmd())
	return cmd
}

func rasterizeVectorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vector <in> <attribute> <pixel-size> <out>",
		Short: "Burn an attribute at a fixed pixel size",
		Args:  exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := parseFloatArg("pixel-size", args[2])
			if err != nil {
				return err
			}
			return rasterize.ByPixelSize(cmd.Context(), args[0], args[1], size, args[3])
		},
	}
}

func rasterizeRefCmd() *cobra.Command {
	var opts rasterize.ReferenceOptions
	cmd := &cobra.Command{
		Use:   "ref <in> <reference> <out>",
		Short: "Burn features onto the grid of a reference raster",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rasterize.ByReference(cmd.Context(), args[0], args[1], args[2], opts)
		},
	}
	cmd.Flags().StringVar(&opts.Attribute, "attribute", "", "attribute to burn (default: burn 1)")
	return cmd
}
