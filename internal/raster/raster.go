// Package raster implements the raster commands: inspection, conversion,
// masking, resampling and per-pixel analysis.
package raster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"opengeo/internal/gdal"
	"opengeo/internal/logging"
)

var (
	ErrSRSMismatch           = errors.New("spatial reference mismatch")
	ErrShapeMismatch         = errors.New("raster dimensions differ")
	ErrGridMismatch          = errors.New("raster grids differ")
	ErrNoInputs              = errors.New("no input rasters")
	ErrUnsupportedResampling = errors.New("unsupported resampling method")
	ErrBandOutOfRange        = errors.New("band index out of range")
)

// Creation options shared by the GeoTIFF writers.
var (
	lzw      = []string{"COMPRESS=LZW"}
	lzwTiled = []string{"COMPRESS=LZW", "TILED=YES"}
	lzwBig   = []string{"COMPRESS=LZW", "BIGTIFF=YES"}
	warpCO   = []string{"COMPRESS=LZW", "TILED=YES", "BIGTIFF=YES", "BLOCKXSIZE=256", "BLOCKYSIZE=256"}
)

func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open raster: %w", err)
	}
	return nil
}

// withScratch runs fn with a scratch directory that is removed afterwards.
func withScratch(ctx context.Context, fn func(s *gdal.Scratch) error) error {
	s, err := gdal.NewScratch()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Cleanup(); err != nil {
			logging.FromContext(ctx).Warn("scratch cleanup failed", zap.Error(err))
		}
	}()
	return fn(s)
}

// writeLike writes g with the georeferencing of info.
func writeLike(ctx context.Context, s *gdal.Scratch, g gdal.Grid, info gdal.RasterInfo, out string, outputType string, nodata *float64, co []string) error {
	gt := info.GeoTransform
	return gdal.WriteGrid(ctx, s, g, out, gdal.WriteOptions{
		SRS:             info.SRSArg(),
		GeoTransform:    &gt,
		OutputType:      outputType,
		NoData:          nodata,
		CreationOptions: co,
	})
}

func float64Ptr(v float64) *float64 {
	return &v
}

func strconvFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
