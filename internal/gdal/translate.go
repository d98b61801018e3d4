package gdal

import (
	"context"
	"fmt"
	"strconv"
)

// Scale maps a source range onto a destination range for one band.
type Scale struct {
	SrcMin, SrcMax float64
	DstMin, DstMax float64
}

// TranslateOptions are the gdal_translate flags used across the suite.
type TranslateOptions struct {
	Format          string
	OutputType      string
	Bands           []int
	Scales          []Scale // one per output band, applied with -scale_<n>
	SRS             string
	ULLR            *[4]float64 // ulx uly lrx lry
	NoData          *float64
	CreationOptions []string
}

// Translate runs gdal_translate.
func Translate(ctx context.Context, input, output string, opts TranslateOptions) error {
	_, _, err := Run(ctx, "gdal_translate", translateArgs(input, output, opts)...)
	if err != nil {
		return fmt.Errorf("gdal_translate: %w", err)
	}
	return nil
}

func translateArgs(input, output string, opts TranslateOptions) []string {
	var args []string
	if opts.Format != "" {
		args = append(args, "-of", opts.Format)
	}
	if opts.OutputType != "" {
		args = append(args, "-ot", opts.OutputType)
	}
	for _, b := range opts.Bands {
		args = append(args, "-b", strconv.Itoa(b))
	}
	for i, s := range opts.Scales {
		args = append(args, "-scale_"+strconv.Itoa(i+1),
			formatFloat(s.SrcMin), formatFloat(s.SrcMax),
			formatFloat(s.DstMin), formatFloat(s.DstMax))
	}
	if opts.SRS != "" {
		args = append(args, "-a_srs", opts.SRS)
	}
	if opts.ULLR != nil {
		args = append(args, "-a_ullr")
		for _, v := range opts.ULLR {
			args = append(args, formatFloat(v))
		}
	}
	if opts.NoData != nil {
		args = append(args, "-a_nodata", formatNoData(*opts.NoData))
	}
	for _, co := range opts.CreationOptions {
		args = append(args, "-co", co)
	}
	return append(args, input, output)
}

// formatNoData spells non-finite values the way GDAL tools expect.
func formatNoData(v float64) string {
	switch s := formatFloat(v); s {
	case "NaN":
		return "nan"
	case "+Inf":
		return "inf"
	case "-Inf":
		return "-inf"
	default:
		return s
	}
}
