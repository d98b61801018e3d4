package gdal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// RasterizeOptions are the gdal_rasterize flags used by the suite.
type RasterizeOptions struct {
	Attribute       string   // -a, burn values from this field
	Burn            *float64 // -burn, used when Attribute is empty
	Layer           string
	XRes, YRes      float64
	Extent          *[4]float64 // xmin ymin xmax ymax
	SRS             string
	OutputType      string
	NoData          *float64
	InitValue       *float64
	AllTouched      bool
	CreationOptions []string
}

// Rasterize burns a vector dataset into a new GeoTIFF.
func Rasterize(ctx context.Context, vector, output string, opts RasterizeOptions) error {
	if opts.Attribute == "" && opts.Burn == nil {
		return fmt.Errorf("gdal_rasterize: attribute or burn value is required")
	}

	args := []string{"-of", "GTiff"}
	if opts.Attribute != "" {
		args = append(args, "-a", opts.Attribute)
	} else {
		args = append(args, "-burn", formatFloat(*opts.Burn))
	}
	if opts.Layer != "" {
		args = append(args, "-l", opts.Layer)
	}
	if opts.XRes != 0 && opts.YRes != 0 {
		args = append(args, "-tr", formatFloat(opts.XRes), formatFloat(opts.YRes))
	}
	if opts.Extent != nil {
		args = append(args, "-te")
		for _, v := range opts.Extent {
			args = append(args, formatFloat(v))
		}
	}
	if opts.SRS != "" {
		args = append(args, "-a_srs", opts.SRS)
	}
	if opts.OutputType != "" {
		args = append(args, "-ot", opts.OutputType)
	}
	if opts.NoData != nil {
		args = append(args, "-a_nodata", formatNoData(*opts.NoData))
	}
	if opts.InitValue != nil {
		args = append(args, "-init", formatFloat(*opts.InitValue))
	}
	if opts.AllTouched {
		args = append(args, "-at")
	}
	for _, co := range opts.CreationOptions {
		args = append(args, "-co", co)
	}
	args = append(args, vector, output)

	if err := removeIfExists(output); err != nil {
		return err
	}
	if _, _, err := Run(ctx, "gdal_rasterize", args...); err != nil {
		return fmt.Errorf("gdal_rasterize: %w", err)
	}
	return nil
}

// BuildOverviews adds internal overviews with LZW-compressed levels.
func BuildOverviews(ctx context.Context, path, resampling string, levels []int) error {
	if len(levels) == 0 {
		return fmt.Errorf("gdaladdo: no overview levels")
	}
	if resampling == "" {
		resampling = "nearest"
	}

	args := []string{"--config", "COMPRESS_OVERVIEW", "LZW", "-r", resampling, path}
	for _, l := range levels {
		args = append(args, strconv.Itoa(l))
	}
	if _, _, err := Run(ctx, "gdaladdo", args...); err != nil {
		return fmt.Errorf("gdaladdo: %w", err)
	}
	return nil
}

// ProximityOptions are the gdal_proximity.py flags.
type ProximityOptions struct {
	Values          []float64 // target pixel values, all non-zero when empty
	MaxDistance     float64
	NoData          *float64
	OutputType      string
	CreationOptions []string
}

// Proximity computes the geographic distance to target pixels.
func Proximity(ctx context.Context, input, output string, opts ProximityOptions) error {
	if opts.OutputType == "" {
		opts.OutputType = "Float32"
	}

	args := []string{input, output, "-of", "GTiff", "-distunits", "GEO", "-ot", opts.OutputType}
	if len(opts.Values) > 0 {
		vals := make([]string, len(opts.Values))
		for i, v := range opts.Values {
			vals[i] = formatFloat(v)
		}
		args = append(args, "-values", strings.Join(vals, ","))
	}
	if opts.MaxDistance > 0 {
		args = append(args, "-maxdist", formatFloat(opts.MaxDistance))
	}
	if opts.NoData != nil {
		args = append(args, "-nodata", formatNoData(*opts.NoData))
	}
	for _, co := range opts.CreationOptions {
		args = append(args, "-co", co)
	}

	if err := removeIfExists(output); err != nil {
		return err
	}
	if _, _, err := Run(ctx, "gdal_proximity.py", args...); err != nil {
		return fmt.Errorf("gdal_proximity: %w", err)
	}
	return nil
}

// PolygonizeOptions are the gdal_polygonize.py flags.
type PolygonizeOptions struct {
	Band           int
	Mask           string // mask raster, "none" to disable the default mask
	Driver         string
	Layer          string
	Field          string
	EightConnected bool
}

// Polygonize converts connected regions of a raster band into polygons.
func Polygonize(ctx context.Context, input, output string, opts PolygonizeOptions) error {
	if opts.Band == 0 {
		opts.Band = 1
	}
	if opts.Layer == "" {
		opts.Layer = "out"
	}
	if opts.Field == "" {
		opts.Field = "value"
	}

	var args []string
	if opts.EightConnected {
		args = append(args, "-8")
	}
	if opts.Mask != "" {
		args = append(args, "-mask", opts.Mask)
	}
	args = append(args, input, "-b", strconv.Itoa(opts.Band))
	if opts.Driver != "" {
		args = append(args, "-f", opts.Driver)
	}
	args = append(args, output, opts.Layer, opts.Field)

	if _, _, err := Run(ctx, "gdal_polygonize.py", args...); err != nil {
		return fmt.Errorf("gdal_polygonize: %w", err)
	}
	return nil
}
