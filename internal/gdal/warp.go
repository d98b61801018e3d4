package gdal

import (
	"context"
	"fmt"
	"strconv"
)

// WarpOptions are the gdalwarp flags used for reprojection, resampling and
// polygon masking.
type WarpOptions struct {
	DstSRS          string
	TargetExtent    *[4]float64 // xmin ymin xmax ymax
	XRes, YRes      float64
	Width, Height   int
	Resampling      string
	Cutline         string
	CropToCutline   bool
	DstNoData       *float64
	OutputType      string
	CreationOptions []string
	Overwrite       bool
}

// Warp runs gdalwarp.
func Warp(ctx context.Context, input, output string, opts WarpOptions) error {
	_, _, err := Run(ctx, "gdalwarp", warpArgs(input, output, opts)...)
	if err != nil {
		return fmt.Errorf("gdalwarp: %w", err)
	}
	return nil
}

func warpArgs(input, output string, opts WarpOptions) []string {
	args := []string{"-of", "GTiff"}
	if opts.Overwrite {
		args = append(args, "-overwrite")
	}
	if opts.DstSRS != "" {
		args = append(args, "-t_srs", opts.DstSRS)
	}
	if opts.TargetExtent != nil {
		args = append(args, "-te")
		for _, v := range opts.TargetExtent {
			args = append(args, formatFloat(v))
		}
	}
	if opts.XRes != 0 && opts.YRes != 0 {
		args = append(args, "-tr", formatFloat(opts.XRes), formatFloat(opts.YRes))
	} else if opts.Width > 0 && opts.Height > 0 {
		args = append(args, "-ts", strconv.Itoa(opts.Width), strconv.Itoa(opts.Height))
	}
	if opts.Resampling != "" {
		args = append(args, "-r", opts.Resampling)
	}
	if opts.Cutline != "" {
		args = append(args, "-cutline", opts.Cutline)
		if opts.CropToCutline {
			args = append(args, "-crop_to_cutline")
		}
	}
	if opts.DstNoData != nil {
		args = append(args, "-dstnodata", formatNoData(*opts.DstNoData))
	}
	if opts.OutputType != "" {
		args = append(args, "-ot", opts.OutputType)
	}
	for _, co := range opts.CreationOptions {
		args = append(args, "-co", co)
	}
	return append(args, input, output)
}
