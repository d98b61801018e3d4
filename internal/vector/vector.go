// Package vector inspects and transforms vector datasets through OGR.
package vector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"

	"opengeo/internal/fsutil"
	"opengeo/internal/gdal"
	"opengeo/internal/geojson"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported vector format")
	ErrFieldNotFound     = errors.New("field not found")
	ErrNoLayers          = errors.New("dataset has no layers")
)

var drivers = map[string]string{
	".shp":     "ESRI Shapefile",
	".geojson": "GeoJSON",
	".json":    "GeoJSON",
	".gpkg":    "GPKG",
	".fgb":     "FlatGeobuf",
}

// DriverForPath returns the OGR driver matching the file extension.
func DriverForPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	d, ok := drivers[ext]
	if !ok {
		return "", fmt.Errorf("%s: %w (use .shp, .geojson, .json, .gpkg or .fgb)", path, ErrUnsupportedFormat)
	}
	return d, nil
}

// Field is an attribute column and its OGR type name.
type Field struct {
	Name string
	Type string
}

// Info summarizes the first layer of a vector dataset.
type Info struct {
	Path           string
	Driver         string
	Layer          string
	FeatureCount   int64
	GeometryType   string
	GeometryColumn string
	Extent         orb.Bound
	HasExtent      bool
	SRS            string
	EPSG           int
	Fields         []Field
}

// Describe reads the layer summary of path.
func Describe(ctx context.Context, path string) (Info, error) {
	if _, err := os.Stat(path); err != nil {
		return Info{}, fmt.Errorf("open vector: %w", err)
	}

	ds, err := gdal.VectorInfo(ctx, path)
	if err != nil {
		return Info{}, err
	}
	if len(ds.Layers) == 0 {
		return Info{}, fmt.Errorf("%s: %w", path, ErrNoLayers)
	}

	l := ds.Layers[0]
	info := Info{
		Path:           path,
		Driver:         ds.Driver,
		Layer:          l.Name,
		FeatureCount:   l.FeatureCount,
		GeometryType:   l.GeometryType,
		GeometryColumn: l.GeometryColumn,
		SRS:            l.SRS,
		EPSG:           l.EPSG,
	}
	if l.Extent != nil {
		info.Extent = orb.Bound{
			Min: orb.Point{l.Extent[0], l.Extent[1]},
			Max: orb.Point{l.Extent[2], l.Extent[3]},
		}
		info.HasExtent = true
	}
	for _, f := range l.Fields {
		info.Fields = append(info.Fields, Field{Name: f.Name, Type: f.Type})
	}
	return info, nil
}

// Extent returns the bounding box of the first layer.
func Extent(ctx context.Context, path string) (orb.Bound, error) {
	info, err := Describe(ctx, path)
	if err != nil {
		return orb.Bound{}, err
	}
	if !info.HasExtent {
		return orb.Bound{}, fmt.Errorf("%s: layer %q has no extent", path, info.Layer)
	}
	return info.Extent, nil
}

// Fields lists the attribute columns of the first layer.
func Fields(ctx context.Context, path string) ([]Field, error) {
	info, err := Describe(ctx, path)
	if err != nil {
		return nil, err
	}
	return info.Fields, nil
}

// FieldExists reports whether the first layer has a column named name.
func FieldExists(ctx context.Context, path, name string) (bool, error) {
	fields, err := Fields(ctx, path)
	if err != nil {
		return false, err
	}
	for _, f := range fields {
		if f.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Features loads every feature of path, reprojected to dstSRS when set.
func Features(ctx context.Context, path, dstSRS string) (*orbjson.FeatureCollection, error) {
	data, err := gdal.VectorToGeoJSON(ctx, path, dstSRS)
	if err != nil {
		return nil, err
	}
	return geojson.Decode(data)
}

var shapefileParts = []string{".shp", ".shx", ".dbf", ".prj", ".cpg", ".sbn", ".sbx", ".qix", ".fix", ".shp.xml"}

// RemoveDataset deletes an existing vector file. Shapefiles take their
// sidecar files with them.
func RemoveDataset(path string) error {
	paths := []string{path}
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		paths = paths[:0]
		for _, ext := range shapefileParts {
			paths = append(paths, fsutil.ReplaceExt(path, ext))
		}
	}

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}
