package gdal

import (
	"context"
	"encoding/json"
	"fmt"
)

// LayerInfo describes one vector layer as reported by ogrinfo.
type LayerInfo struct {
	Name           string
	FeatureCount   int64
	GeometryType   string
	GeometryColumn string
	Extent         *[4]float64 // xmin ymin xmax ymax
	SRS            string
	EPSG           int
	Fields         []FieldInfo
}

// FieldInfo is an attribute column.
type FieldInfo struct {
	Name string
	Type string
}

// VectorDataset is the ogrinfo summary of a vector dataset.
type VectorDataset struct {
	Path   string
	Driver string
	Layers []LayerInfo
}

// VectorInfo runs ogrinfo -json -so -al and returns the layer summaries.
func VectorInfo(ctx context.Context, path string) (VectorDataset, error) {
	stdout, _, err := Run(ctx, "ogrinfo", "-json", "-so", "-al", path)
	if err != nil {
		return VectorDataset{}, fmt.Errorf("ogrinfo: %w", err)
	}

	ds, err := parseVectorInfo([]byte(stdout))
	if err != nil {
		return VectorDataset{}, err
	}
	ds.Path = path
	return ds, nil
}

type vectorInfoPayload struct {
	Driver string `json:"driverShortName"`
	Layers []struct {
		Name           string `json:"name"`
		FeatureCount   int64  `json:"featureCount"`
		GeometryFields []struct {
			Name             string    `json:"name"`
			Type             string    `json:"type"`
			Extent           []float64 `json:"extent"`
			CoordinateSystem *struct {
				WKT string `json:"wkt"`
			} `json:"coordinateSystem"`
		} `json:"geometryFields"`
		Fields []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"fields"`
	} `json:"layers"`
}

func parseVectorInfo(data []byte) (VectorDataset, error) {
	var payload vectorInfoPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return VectorDataset{}, fmt.Errorf("parse ogrinfo json: %w", err)
	}

	ds := VectorDataset{Driver: payload.Driver}
	for _, l := range payload.Layers {
		layer := LayerInfo{Name: l.Name, FeatureCount: l.FeatureCount}
		if len(l.GeometryFields) > 0 {
			gf := l.GeometryFields[0]
			layer.GeometryType = gf.Type
			layer.GeometryColumn = gf.Name
			if len(gf.Extent) == 4 {
				layer.Extent = &[4]float64{gf.Extent[0], gf.Extent[1], gf.Extent[2], gf.Extent[3]}
			}
			if gf.CoordinateSystem != nil {
				layer.SRS = gf.CoordinateSystem.WKT
				layer.EPSG = epsgFromWKT(layer.SRS)
			}
		}
		for _, f := range l.Fields {
			layer.Fields = append(layer.Fields, FieldInfo{Name: f.Name, Type: f.Type})
		}
		ds.Layers = append(ds.Layers, layer)
	}
	return ds, nil
}

// VectorToGeoJSON streams a dataset as GeoJSON through /vsistdout/,
// reprojected to dstSRS when set.
func VectorToGeoJSON(ctx context.Context, path, dstSRS string) ([]byte, error) {
	args := []string{"-f", "GeoJSON"}
	if dstSRS != "" {
		args = append(args, "-t_srs", dstSRS)
	}
	args = append(args, "/vsistdout/", path)

	stdout, _, err := Run(ctx, "ogr2ogr", args...)
	if err != nil {
		return nil, fmt.Errorf("ogr2ogr: %w", err)
	}
	return []byte(stdout), nil
}

// OGROptions are the ogr2ogr flags used for conversions and SQL.
type OGROptions struct {
	Format       string
	SQL          string
	Dialect      string
	DstSRS       string
	GeometryType string // -nlt
	LayerName    string // -nln
	Overwrite    bool
}

// VectorTranslate runs ogr2ogr from src into dst.
func VectorTranslate(ctx context.Context, src, dst string, opts OGROptions) error {
	var args []string
	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	if opts.Overwrite {
		args = append(args, "-overwrite")
	}
	if opts.DstSRS != "" {
		args = append(args, "-t_srs", opts.DstSRS)
	}
	if opts.Dialect != "" {
		args = append(args, "-dialect", opts.Dialect)
	}
	if opts.SQL != "" {
		args = append(args, "-sql", opts.SQL)
	}
	if opts.GeometryType != "" {
		args = append(args, "-nlt", opts.GeometryType)
	}
	if opts.LayerName != "" {
		args = append(args, "-nln", opts.LayerName)
	}
	args = append(args, dst, src)

	if _, _, err := Run(ctx, "ogr2ogr", args...); err != nil {
		return fmt.Errorf("ogr2ogr: %w", err)
	}
	return nil
}

// VectorSQL evaluates a SQLite-dialect statement against src into dst.
func VectorSQL(ctx context.Context, src, dst, format, sql, geometryType string) error {
	return VectorTranslate(ctx, src, dst, OGROptions{
		Format:       format,
		SQL:          sql,
		Dialect:      "SQLite",
		GeometryType: geometryType,
		Overwrite:    true,
	})
}
