// Package proximity computes distance rasters and buffers.
package proximity

import (
	"context"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"

	"opengeo/internal/gdal"
	"opengeo/internal/logging"
	"opengeo/internal/vector"
)

// DefaultNoData is the nodata value of distance rasters.
const DefaultNoData = -9999.0

// Distance writes, for every cell of in, the distance in georeferenced units
// to the nearest non-zero cell of band 1.
func Distance(ctx context.Context, in, out string, nodata float64) error {
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("open raster: %w", err)
	}
	if err := gdal.Proximity(ctx, in, out, gdal.ProximityOptions{
		NoData:          &nodata,
		OutputType:      "Float32",
		CreationOptions: []string{"COMPRESS=LZW"},
	}); err != nil {
		return fmt.Errorf("proximity %s: %w", in, err)
	}
	logging.FromContext(ctx).Info("proximity raster written", zap.String("output", out))
	return nil
}

// BufferRaster marks every cell within distance (map units) of a cell > 0,
// using a square window of int(distance/|pixel|) cells per side. The output
// is a Byte raster of 1s with nodata 0.
func BufferRaster(ctx context.Context, in, out string, distance float64) error {
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance < 0 {
		return fmt.Errorf("buffer distance must be a finite non-negative number, got %v", distance)
	}
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("open raster: %w", err)
	}
	info, err := gdal.GetInfo(ctx, in)
	if err != nil {
		return err
	}

	rx := cellRadius(distance, info.GeoTransform[1], info.Width)
	ry := cellRadius(distance, info.GeoTransform[5], info.Height)

	s, err := gdal.NewScratch()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Cleanup(); err != nil {
			logging.FromContext(ctx).Warn("scratch cleanup failed", zap.Error(err))
		}
	}()

	g, err := gdal.ReadBand(ctx, s, in, 1)
	if err != nil {
		return err
	}
	mask := Dilate(g, rx, ry)

	gt := info.GeoTransform
	nodata := 0.0
	if err := gdal.WriteGrid(ctx, s, mask, out, gdal.WriteOptions{
		SRS:             info.SRSArg(),
		GeoTransform:    &gt,
		OutputType:      "Byte",
		NoData:          &nodata,
		CreationOptions: []string{"COMPRESS=LZW"},
	}); err != nil {
		return fmt.Errorf("buffer %s: %w", in, err)
	}
	logging.FromContext(ctx).Info("raster buffer written",
		zap.String("output", out), zap.Int("cells_x", rx), zap.Int("cells_y", ry))
	return nil
}

// cellRadius converts a distance to whole cells, capped at limit so that the
// conversion never overflows.
func cellRadius(distance, pixel float64, limit int) int {
	return int(math.Min(distance/math.Abs(pixel), float64(limit)))
}

// Dilate returns a 0/1 grid where a cell is 1 when some cell > 0 lies within
// rx columns and ry rows of it. Any value > 0 seeds, the declared nodata
// included; NaN never does. Radii are clamped to the grid size.
func Dilate(g gdal.Grid, rx, ry int) gdal.Grid {
	w, h := g.Width, g.Height
	rx, ry = min(max(rx, 0), w), min(max(ry, 0), h)
	seed := make([]int, len(g.Data))
	for i, v := range g.Data {
		if v > 0 {
			seed[i] = 1
		}
	}

	// the square max filter is separable: rows first, then columns
	rows := make([]int, len(seed))
	prefix := make([]int, max(w, h)+1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + seed[y*w+x]
		}
		for x := 0; x < w; x++ {
			lo, hi := max(0, x-rx), min(w-1, x+rx)
			if prefix[hi+1]-prefix[lo] > 0 {
				rows[y*w+x] = 1
			}
		}
	}

	out := gdal.NewGrid(g, 0)
	out.NoData, out.HasNoData = 0, true
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + rows[y*w+x]
		}
		for y := 0; y < h; y++ {
			lo, hi := max(0, y-ry), min(h-1, y+ry)
			if prefix[hi+1]-prefix[lo] > 0 {
				out.Data[y*w+x] = 1
			}
		}
	}
	return out
}

// BufferVector buffers every feature of in by distance and writes polygons
// with the original attributes to out.
func BufferVector(ctx context.Context, in, out string, distance float64) error {
	if err := vector.Buffer(ctx, in, out, distance); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("vector buffer written", zap.String("output", out))
	return nil
}
