package classify

import (
	"context"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"

	"opengeo/internal/gdal"
	"opengeo/internal/geojson"
	"opengeo/internal/logging"
	"opengeo/internal/vector"
)

// Result is the outcome of Validate.
type Result struct {
	Matrix  Matrix
	Metrics Metrics
	Samples []geojson.LabeledPoint
	// Outside counts points that fall off the raster or on nodata cells.
	Outside int
	// NonPoint counts features that are not points.
	NonPoint int
}

// Validate samples band 1 of raster at every reference point of points and
// compares the cell values with the integer attribute field. Points are
// reprojected into the raster CRS first.
func Validate(ctx context.Context, points, raster, field string) (Result, error) {
	for _, p := range []string{points, raster} {
		if _, err := os.Stat(p); err != nil {
			return Result{}, fmt.Errorf("validate: %w", err)
		}
	}

	info, err := gdal.GetInfo(ctx, raster)
	if err != nil {
		return Result{}, err
	}
	fc, err := vector.Features(ctx, points, info.SRSArg())
	if err != nil {
		return Result{}, fmt.Errorf("read reference points: %w", err)
	}
	samples, nonPoint, err := geojson.PointSamples(fc, field)
	if err != nil {
		return Result{}, err
	}

	s, err := gdal.NewScratch()
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := s.Cleanup(); err != nil {
			logging.FromContext(ctx).Warn("scratch cleanup failed", zap.Error(err))
		}
	}()
	grid, err := gdal.ReadBand(ctx, s, raster, 1)
	if err != nil {
		return Result{}, err
	}

	res := Result{NonPoint: nonPoint}
	labeled, outside := sampleGrid(grid, info.GeoTransform, samples)
	res.Samples, res.Outside = labeled, outside

	reference := make([]int, len(labeled))
	predicted := make([]int, len(labeled))
	for i, p := range labeled {
		reference[i], predicted[i] = p.Reference, p.Predicted
	}
	res.Matrix, err = ConfusionMatrix(reference, predicted)
	if err != nil {
		return Result{}, err
	}
	res.Metrics = ComputeMetrics(res.Matrix)

	logging.FromContext(ctx).Info("accuracy assessed",
		zap.Int("samples", len(labeled)),
		zap.Int("outside", outside),
		zap.Int("non_point", nonPoint),
		zap.Float64("overall", res.Metrics.Overall))
	return res, nil
}

// sampleGrid reads the cell under every sample. Points off the grid or on
// nodata cells are counted and dropped.
func sampleGrid(g gdal.Grid, gt gdal.GeoTransform, samples []geojson.PointSample) ([]geojson.LabeledPoint, int) {
	var labeled []geojson.LabeledPoint
	outside := 0
	for _, smp := range samples {
		px, py, err := gt.GeoToPixel(smp.Point.X(), smp.Point.Y())
		if err != nil {
			outside++
			continue
		}
		col, row := int(math.Floor(px)), int(math.Floor(py))
		if col < 0 || row < 0 || col >= g.Width || row >= g.Height {
			outside++
			continue
		}
		v := g.At(col, row)
		if g.IsNoData(v) {
			outside++
			continue
		}
		labeled = append(labeled, geojson.LabeledPoint{
			Point:     smp.Point,
			Reference: smp.Value,
			Predicted: int(v),
		})
	}
	return labeled, outside
}
