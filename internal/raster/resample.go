package raster

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"

	"opengeo/internal/gdal"
	"opengeo/internal/logging"
)

var resamplingMethods = map[string]string{
	"nearest":      "near",
	"bilinear":     "bilinear",
	"cubic":        "cubic",
	"cubicspline":  "cubicspline",
	"cubic_spline": "cubicspline",
	"lanczos":      "lanczos",
	"average":      "average",
	"mode":         "mode",
}

// ResamplingMethod maps a user-facing method name to the gdalwarp -r value.
func ResamplingMethod(name string) (string, error) {
	if name == "" {
		name = "nearest"
	}
	m, ok := resamplingMethods[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%q: %w (nearest, bilinear, cubic, cubicspline, lanczos, average, mode)", name, ErrUnsupportedResampling)
	}
	return m, nil
}

// ResampleOptions configures Resample.
type ResampleOptions struct {
	XRes, YRes float64
	Bounds     *[4]float64 // xmin ymin xmax ymax, the input bounds when nil
	Method     string
}

// Resample warps in to a new pixel size, optionally clipping to Bounds.
func Resample(ctx context.Context, in, out string, opts ResampleOptions) error {
	if opts.XRes <= 0 || opts.YRes <= 0 {
		return fmt.Errorf("resolution must be positive, got %v x %v", opts.XRes, opts.YRes)
	}
	method, err := ResamplingMethod(opts.Method)
	if err != nil {
		return err
	}
	if err := requireFile(in); err != nil {
		return err
	}

	bounds := opts.Bounds
	if bounds == nil {
		info, err := gdal.GetInfo(ctx, in)
		if err != nil {
			return err
		}
		b := info.Bounds()
		bounds = &b
	}

	return gdal.Warp(ctx, in, out, gdal.WarpOptions{
		TargetExtent:    bounds,
		XRes:            opts.XRes,
		YRes:            opts.YRes,
		Resampling:      method,
		CreationOptions: warpCO,
		Overwrite:       true,
	})
}

// ResampleToReference resamples in onto the resolution and bounds of ref.
// Both rasters must share a spatial reference.
func ResampleToReference(ctx context.Context, in, ref, out, method string) error {
	if err := requireFile(in); err != nil {
		return err
	}
	if err := requireFile(ref); err != nil {
		return fmt.Errorf("reference: %w", err)
	}

	inInfo, err := gdal.GetInfo(ctx, in)
	if err != nil {
		return err
	}
	refInfo, err := gdal.GetInfo(ctx, ref)
	if err != nil {
		return err
	}
	if !inInfo.SameSRS(refInfo) {
		return fmt.Errorf("%s vs %s: %w; reproject the input first", in, ref, ErrSRSMismatch)
	}

	xres, yres := refInfo.Resolution()
	b := refInfo.Bounds()
	return Resample(ctx, in, out, ResampleOptions{
		XRes:   math.Abs(xres),
		YRes:   math.Abs(yres),
		Bounds: &b,
		Method: method,
	})
}

// ResampleToGSD rescales in so that its pixel width becomes gsd. The new size
// is int(size * old/new). It reports false and writes nothing when the GSD is
// unchanged.
func ResampleToGSD(ctx context.Context, in, out string, gsd float64, method string) (bool, error) {
	if gsd <= 0 {
		return false, fmt.Errorf("target GSD must be positive, got %v", gsd)
	}
	m, err := ResamplingMethod(method)
	if err != nil {
		return false, err
	}
	if err := requireFile(in); err != nil {
		return false, err
	}

	info, err := gdal.GetInfo(ctx, in)
	if err != nil {
		return false, err
	}
	oldGSD := math.Abs(info.GeoTransform[1])
	if oldGSD == gsd {
		logging.FromContext(ctx).Info("GSD unchanged, nothing to do", zap.Float64("gsd", gsd))
		return false, nil
	}

	w, h := gsdSize(info.Width, info.Height, oldGSD, gsd)
	if w == 0 || h == 0 {
		return false, fmt.Errorf("target GSD %v leaves no pixels (%dx%d)", gsd, w, h)
	}

	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("remove output: %w", err)
	}
	err = gdal.Warp(ctx, in, out, gdal.WarpOptions{
		Width:           w,
		Height:          h,
		Resampling:      m,
		CreationOptions: lzw,
	})
	return err == nil, err
}

func gsdSize(width, height int, oldGSD, newGSD float64) (int, int) {
	scale := oldGSD / newGSD
	return int(float64(width) * scale), int(float64(height) * scale)
}

// Reproject warps in to the target CRS, given as EPSG:<code>.
func Reproject(ctx context.Context, in, out, target string) error {
	if err := requireFile(in); err != nil {
		return err
	}
	if !strings.HasPrefix(strings.ToUpper(target), "EPSG:") {
		return fmt.Errorf("target CRS %q must look like EPSG:<code>", target)
	}
	return gdal.Warp(ctx, in, out, gdal.WarpOptions{
		DstSRS:    target,
		Overwrite: true,
	})
}
