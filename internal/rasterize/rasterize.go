// Package rasterize burns vector features into GeoTIFFs.
package rasterize

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"opengeo/internal/gdal"
	"opengeo/internal/logging"
	"opengeo/internal/vector"
)

var lzw = []string{"COMPRESS=LZW"}

// ByPixelSize rasterizes input over its own extent with square pixels of
// pixelSize, burning the values of attribute.
func ByPixelSize(ctx context.Context, input, attribute string, pixelSize float64, out string) error {
	if pixelSize <= 0 {
		return fmt.Errorf("pixel size must be positive, got %v", pixelSize)
	}
	if err := requireAttribute(ctx, input, attribute); err != nil {
		return err
	}

	if err := gdal.Rasterize(ctx, input, out, gdal.RasterizeOptions{
		Attribute:       attribute,
		XRes:            pixelSize,
		YRes:            pixelSize,
		CreationOptions: lzw,
	}); err != nil {
		return fmt.Errorf("rasterize %s: %w", input, err)
	}
	logging.FromContext(ctx).Info("rasterized", zap.String("output", out))
	return nil
}

// ReferenceOptions selects what ByReference burns.
type ReferenceOptions struct {
	Attribute string // burn this field; burn 1 when empty
}

// ByReference rasterizes input onto the CRS, resolution and bounds of ref.
func ByReference(ctx context.Context, input, ref, out string, opts ReferenceOptions) error {
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("open vector: %w", err)
	}
	if _, err := os.Stat(ref); err != nil {
		return fmt.Errorf("open reference: %w", err)
	}
	if opts.Attribute != "" {
		if err := requireAttribute(ctx, input, opts.Attribute); err != nil {
			return err
		}
	}

	info, err := gdal.GetInfo(ctx, ref)
	if err != nil {
		return err
	}
	xres, yres := info.Resolution()
	bounds := info.Bounds()

	ro := gdal.RasterizeOptions{
		Attribute:       opts.Attribute,
		XRes:            xres,
		YRes:            yres,
		Extent:          &bounds,
		SRS:             info.SRSArg(),
		CreationOptions: lzw,
	}
	if opts.Attribute == "" {
		burn := 1.0
		ro.Burn = &burn
	}

	if err := gdal.Rasterize(ctx, input, out, ro); err != nil {
		return fmt.Errorf("rasterize %s onto %s: %w", input, ref, err)
	}
	logging.FromContext(ctx).Info("rasterized", zap.String("output", out), zap.String("reference", ref))
	return nil
}

func requireAttribute(ctx context.Context, input, attribute string) error {
	ok, err := vector.FieldExists(ctx, input, attribute)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("attribute %q: %w", attribute, vector.ErrFieldNotFound)
	}
	return nil
}
