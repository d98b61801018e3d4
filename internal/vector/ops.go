package vector

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"opengeo/internal/gdal"
	"opengeo/internal/logging"
)

// Buffer writes a polygon buffer of every feature of in to out, keeping the
// attributes. distance is in the layer's CRS units.
func Buffer(ctx context.Context, in, out string, distance float64) error {
	driver, err := DriverForPath(out)
	if err != nil {
		return err
	}

	info, err := Describe(ctx, in)
	if err != nil {
		return err
	}

	sql := bufferSQL(info, distance)
	logging.FromContext(ctx).Debug("buffer vector",
		zap.String("input", in), zap.String("output", out), zap.String("sql", sql))

	if err := RemoveDataset(out); err != nil {
		return err
	}
	if err := gdal.VectorSQL(ctx, in, out, driver, sql, "POLYGON"); err != nil {
		return fmt.Errorf("buffer %s: %w", in, err)
	}
	return nil
}

func bufferSQL(info Info, distance float64) string {
	geom := info.GeometryColumn
	if geom == "" {
		geom = "geometry"
	}

	cols := []string{fmt.Sprintf("ST_Buffer(%s, %s) AS geometry", quoteIdent(geom), strconv.FormatFloat(distance, 'g', -1, 64))}
	for _, f := range info.Fields {
		cols = append(cols, quoteIdent(f.Name))
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quoteIdent(info.Layer))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Polygonize converts the value-1 cells of a 0/1 mask raster into polygons
// with a "value" attribute. out must be a .shp or .gpkg file and is replaced
// when it exists.
func Polygonize(ctx context.Context, mask, out string) error {
	ext := strings.ToLower(filepath.Ext(out))
	if ext != ".shp" && ext != ".gpkg" {
		return fmt.Errorf("%s: %w (use .shp or .gpkg)", out, ErrUnsupportedFormat)
	}
	driver, err := DriverForPath(out)
	if err != nil {
		return err
	}

	if err := RemoveDataset(out); err != nil {
		return err
	}

	layer := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
	return gdal.Polygonize(ctx, mask, out, gdal.PolygonizeOptions{
		Band:   1,
		Mask:   mask,
		Driver: driver,
		Layer:  layer,
		Field:  "value",
	})
}
