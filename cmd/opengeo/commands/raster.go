package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"opengeo/internal/logging"
	"opengeo/internal/raster"
)

func rasterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raster",
		Short: "Inspect, convert, mask, resample and analyse rasters",
	}
	cmd.AddCommand(
		rasterInfoCmd(),
		rasterMinMaxCmd(),
		rasterStatsCmd(),
		rasterRegionsCmd(),
		rasterTo8BitCmd(),
		rasterTo8BitDirCmd(),
		rasterDropBandCmd(),
		rasterMaskCmd(),
		rasterFootprintCmd(),
		rasterFootprintDirCmd(),
		rasterResampleCmd(),
		rasterResampleRefCmd(),
		rasterResampleGSDCmd(),
		rasterReprojectCmd(),
		rasterPyramidsCmd(),
		rasterPyramidsDirCmd(),
		rasterReplaceCmd(),
		rasterProbabilityCmd(),
		categoryAreaCmd("category-area"),
		rasterClipCmd(),
	)
	return cmd
}

func rasterInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <raster>",
		Short: "Print SRS, resolution, bounds, size, nodata and data type",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := raster.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Path:\t%s\n", d.Path)
			fmt.Fprintf(tw, "EPSG:\t%d\n", d.EPSG)
			fmt.Fprintf(tw, "Resolution:\t%s x %s\n", formatFloat(d.XRes), formatFloat(d.YRes))
			fmt.Fprintf(tw, "Bounds:\t%s %s %s %s\n",
				formatFloat(d.Bounds[0]), formatFloat(d.Bounds[1]), formatFloat(d.Bounds[2]), formatFloat(d.Bounds[3]))
			fmt.Fprintf(tw, "Size:\t%d x %d\n", d.Width, d.Height)
			fmt.Fprintf(tw, "Bands:\t%d\n", d.BandCount)
			fmt.Fprintf(tw, "Data type:\t%s (%d bit, %s..%s)\n", d.DataType, d.BitDepth, formatFloat(d.BitMin), formatFloat(d.BitMax))
			fmt.Fprintf(tw, "NoData:\t%s\n", formatNoData(d.NoData))
			return tw.Flush()
		},
	}
}

func rasterMinMaxCmd() *cobra.Command {
	var exact bool
	cmd := &cobra.Command{
		Use:   "minmax <raster>",
		Short: "Print the min and max of every band",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ranges, err := raster.BandMinMax(cmd.Context(), args[0], exact)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "band\tmin\tmax")
			for _, r := range ranges {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Band, formatFloat(r.Min), formatFloat(r.Max))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&exact, "exact", false, "scan every pixel instead of using statistics")
	return cmd
}

func rasterStatsCmd() *cobra.Command {
	var band int
	cmd := &cobra.Command{
		Use:   "stats <raster>",
		Short: "Count, range, mean, std and percentiles of one band",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := raster.Stats(cmd.Context(), args[0], band)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "band\tcount\tmin\tmax\tmean\tstd\tp2\tmedian\tp98")
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.4f\t%.4f\t%s\t%s\t%s\n",
				st.Band, st.Count, formatFloat(st.Min), formatFloat(st.Max), st.Mean, st.Std,
				formatFloat(st.P2), formatFloat(st.Median), formatFloat(st.P98))
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&band, "band", 1, "1-based band")
	return cmd
}

func rasterRegionsCmd() *cobra.Command {
	var (
		opts raster.RegionOptions
		out  string
	)
	cmd := &cobra.Command{
		Use:   "regions <raster> <threshold>",
		Short: "Connected groups of cells at or above a threshold",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseFloatArg("threshold", args[1])
			if err != nil {
				return err
			}
			opts.Threshold = t

			regions, err := raster.Regions(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if out != "" {
				if err := raster.WriteRegions(out, regions); err != nil {
					return err
				}
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "area_px\tmean\tx\ty")
			for _, r := range regions {
				fmt.Fprintf(tw, "%d\t%.2f\t%s\t%s\n", r.AreaPx, r.Mean, formatFloat(r.X), formatFloat(r.Y))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&opts.Band, "band", 1, "1-based band")
	cmd.Flags().BoolVar(&opts.Invert, "invert", false, "select cells at or below the threshold")
	cmd.Flags().IntVar(&opts.MinArea, "min-area", 1, "drop regions with fewer pixels")
	cmd.Flags().StringVar(&out, "out", "", "write region centroids as GeoJSON points")
	return cmd
}

func rasterTo8BitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "to8bit <in> <out>",
		Short: "Stretch every band to 0..255 Byte",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return raster.ConvertTo8Bit(cmd.Context(), args[0], args[1])
		},
	}
}

func rasterTo8BitDirCmd() *cobra.Command {
	var (
		ext       string
		recursive bool
	)
	cmd := &cobra.Command{
		Use:   "to8bit-dir <in-dir> <out-dir>",
		Short: "Convert every raster of a folder to 8 bit",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := raster.ConvertDirTo8Bit(cmd.Context(), args[0], args[1], ext, recursive, workerCount())
			if err != nil {
				return err
			}
			return printBatch(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&ext, "ext", ".tif", "raster file extension")
	cmd.Flags().BoolVar(&recursive, "recursive", true, "search subfolders")
	return cmd
}

func rasterDropBandCmd() *cobra.Command {
	var band int
	cmd := &cobra.Command{
		Use:   "drop-band <raster|dir>",
		Short: "Remove one band, writing <stem>_modified.tif",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var results []raster.DropResult
			st, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if st.IsDir() {
				results, err = raster.DropBandInDir(cmd.Context(), args[0], band)
			} else {
				var r raster.DropResult
				r, err = raster.DropBand(cmd.Context(), args[0], band)
				results = []raster.DropResult{r}
			}
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "input\toutput")
			for _, r := range results {
				out := r.Output
				if r.Skipped {
					out = fmt.Sprintf("skipped (fewer than %d bands)", band)
				}
				fmt.Fprintf(tw, "%s\t%s\n", r.Input, out)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&band, "band", 4, "1-based band to remove")
	return cmd
}

func rasterMaskCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "mask <raster>",
		Short: "Write a 0/1 validity mask",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := raster.CreateMask(cmd.Context(), args[0], out)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Mask:\t%s\n", res.Output)
			fmt.Fprintf(tw, "Case:\t%s\n", res.Case)
			fmt.Fprintf(tw, "NoData:\t%s\n", res.PossibleNoData())
			fmt.Fprintf(tw, "Valid regions:\t%d\n", res.Regions)
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "mask path (default <stem>_mask.tif)")
	return cmd
}

func rasterFootprintCmd() *cobra.Command {
	var (
		out      string
		keepMask bool
	)
	cmd := &cobra.Command{
		Use:   "footprint <raster>",
		Short: "Polygonize the valid area of a raster",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := raster.Footprint(cmd.Context(), args[0], out, keepMask)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, nodata %s)\n", res.Footprint, res.Mask.Case, res.Mask.PossibleNoData())
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "footprint .shp or .gpkg, or a directory")
	cmd.Flags().BoolVar(&keepMask, "keep-mask", false, "keep the intermediate mask raster")
	return cmd
}

func rasterFootprintDirCmd() *cobra.Command {
	var opts raster.FootprintDirOptions
	cmd := &cobra.Command{
		Use:   "footprint-dir <in-dir> <out-dir>",
		Short: "Create footprints for every raster of a folder tree",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Workers = workerCount()
			rows, err := raster.FootprintDir(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}

			failed := 0
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "raster\tstatus\tdetail")
			for _, r := range rows {
				if r.Status != "Success" {
					failed++
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.RasterPath, r.Status, r.Detail)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d footprints failed", failed, len(rows))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Wildcard, "wildcard", "*.tif", "raster name pattern")
	cmd.Flags().StringVar(&opts.LogName, "log", "footprint_log.csv", "CSV log name inside the output folder")
	cmd.Flags().BoolVar(&opts.KeepMask, "keep-mask", false, "keep the intermediate masks")
	return cmd
}

func rasterResampleCmd() *cobra.Command {
	var (
		opts   raster.ResampleOptions
		bounds string
	)
	cmd := &cobra.Command{
		Use:   "resample <in> <out>",
		Short: "Warp to a new resolution, optionally clipping to bounds",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bounds != "" {
				b, err := parseBounds(bounds)
				if err != nil {
					return err
				}
				opts.Bounds = &b
			}
			if opts.YRes == 0 {
				opts.YRes = opts.XRes
			}
			return raster.Resample(cmd.Context(), args[0], args[1], opts)
		},
	}
	cmd.Flags().Float64Var(&opts.XRes, "xres", 0, "target pixel width")
	cmd.Flags().Float64Var(&opts.YRes, "yres", 0, "target pixel height (default: xres)")
	cmd.Flags().StringVar(&bounds, "bounds", "", "xmin,ymin,xmax,ymax (default: input bounds)")
	cmd.Flags().StringVar(&opts.Method, "method", "nearest", "nearest, bilinear, cubic, cubicspline, lanczos, average or mode")
	_ = cmd.MarkFlagRequired("xres")
	return cmd
}

func parseBounds(s string) ([4]float64, error) {
	var b [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return b, usageError{fmt.Errorf("bounds %q: want xmin,ymin,xmax,ymax", s)}
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return b, usageError{fmt.Errorf("bounds %q: %w", s, err)}
		}
		b[i] = v
	}
	if b[0] >= b[2] || b[1] >= b[3] {
		return b, usageError{fmt.Errorf("bounds %q: min must be below max", s)}
	}
	return b, nil
}

func rasterResampleRefCmd() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "resample-ref <in> <reference> <out>",
		Short: "Match the resolution and bounds of a reference raster",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return raster.ResampleToReference(cmd.Context(), args[0], args[1], args[2], method)
		},
	}
	cmd.Flags().StringVar(&method, "method", "nearest", "resampling method")
	return cmd
}

func rasterResampleGSDCmd() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "resample-gsd <in> <out> <gsd>",
		Short: "Rescale to a target ground sample distance",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			gsd, err := parseFloatArg("gsd", args[2])
			if err != nil {
				return err
			}
			written, err := raster.ResampleToGSD(cmd.Context(), args[0], args[1], gsd, method)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintln(cmd.OutOrStdout(), "GSD unchanged, no output written")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "bilinear", "resampling method")
	return cmd
}

func rasterReprojectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reproject <in> <out> <EPSG:code>",
		Short: "Warp into another coordinate reference system",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return raster.Reproject(cmd.Context(), args[0], args[1], args[2])
		},
	}
}

func rasterPyramidsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pyramids <raster>",
		Short: "Write a copy with internal overviews (<stem>_InterPyrd.tif)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := raster.BuildInternalPyramids(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func rasterPyramidsDirCmd() *cobra.Command {
	var (
		ext       string
		recursive bool
	)
	cmd := &cobra.Command{
		Use:   "pyramids-dir <dir>",
		Short: "Build internal overviews for every raster of a folder",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := raster.PyramidsDir(cmd.Context(), args[0], ext, recursive, workerCount())
			if err != nil {
				return err
			}
			return printBatch(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&ext, "ext", ".tif", "raster file extension")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "search subfolders")
	return cmd
}

func rasterReplaceCmd() *cobra.Command {
	var band int
	cmd := &cobra.Command{
		Use:   "replace <source> <reference> <out> <value>",
		Short: "Replace cells equal to value with the reference raster's cells",
		Args:  exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseFloatArg("value", args[3])
			if err != nil {
				return err
			}
			n, err := raster.ReplaceValue(cmd.Context(), args[0], args[1], args[2], value, band)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replaced %d cells\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&band, "band", 1, "1-based band to process")
	return cmd
}

func rasterProbabilityCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "probability <value> <out> [rasters...]",
		Short: "Fraction of rasters whose band 1 equals value",
		Args:  minimumArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseFloatArg("value", args[0])
			if err != nil {
				return err
			}
			out, inputs := args[1], args[2:]

			if dir != "" {
				if len(inputs) > 0 {
					return usageError{fmt.Errorf("give either --dir or raster paths, not both")}
				}
				return raster.ProbabilityFromDir(cmd.Context(), dir, value, out)
			}
			return raster.Probability(cmd.Context(), inputs, value, out)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "use every .tif directly inside this folder")
	return cmd
}

// categoryAreaCmd is registered under both raster and classify.
func categoryAreaCmd(use string) *cobra.Command {
	var skipNoData bool
	cmd := &cobra.Command{
		Use:   use + " <raster>",
		Short: "Pixel count and area of every value of band 1",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := raster.CategoryArea(cmd.Context(), args[0], skipNoData)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "value\tpixels\tarea")
			for _, c := range cats {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", formatFloat(c.Value), c.Count, formatFloat(c.Area))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&skipNoData, "skip-nodata", false, "leave the nodata value out")
	return cmd
}

func rasterClipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clip <raster> <polygons> <out>",
		Short: "Set cells outside the polygons to nodata",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := raster.MaskWithPolygon(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			logging.FromContext(cmd.Context()).Info("raster clipped",
				zap.String("output", args[2]),
				zap.String("type", res.OutputType),
				zap.Float64("nodata", res.NoData))
			return nil
		},
	}
}
