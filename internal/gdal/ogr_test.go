package gdal

import (
	"context"
	"strings"
	"testing"
)

const sampleOGRInfo = `{
  "driverShortName": "ESRI Shapefile",
  "layers": [{
    "name": "parcels",
    "featureCount": 3,
    "geometryFields": [{
      "name": "",
      "type": "Polygon",
      "extent": [10, 20, 30, 40],
      "coordinateSystem": {"wkt": "GEOGCRS[\"WGS 84\",ID[\"EPSG\",4326]]"}
    }],
    "fields": [
      {"name": "id", "type": "Integer"},
      {"name": "class", "type": "String"}
    ]
  }]
}`

func TestVectorInfoParsesLayers(t *testing.T) {
	useLocalGDAL(t)

	tempDir := t.TempDir()
	argsFile := fakeTool(t, tempDir, "ogrinfo", "cat <<'EOF'\n"+sampleOGRInfo+"\nEOF")
	prependPath(t, tempDir)

	ds, err := VectorInfo(context.Background(), "parcels.shp")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := strings.Join(readArgs(t, argsFile), " "); got != "-json -so -al parcels.shp" {
		t.Fatalf("unexpected args: %q", got)
	}
	if ds.Driver != "ESRI Shapefile" || len(ds.Layers) != 1 {
		t.Fatalf("unexpected dataset: %+v", ds)
	}

	layer := ds.Layers[0]
	if layer.Name != "parcels" || layer.FeatureCount != 3 || layer.GeometryType != "Polygon" {
		t.Fatalf("unexpected layer: %+v", layer)
	}
	if layer.Extent == nil || *layer.Extent != [4]float64{10, 20, 30, 40} {
		t.Fatalf("unexpected extent: %v", layer.Extent)
	}
	if layer.EPSG != 4326 {
		t.Fatalf("unexpected epsg: %d", layer.EPSG)
	}
	if len(layer.Fields) != 2 || layer.Fields[1].Name != "class" {
		t.Fatalf("unexpected fields: %+v", layer.Fields)
	}
}

func TestVectorToGeoJSONUsesStdout(t *testing.T) {
	useLocalGDAL(t)

	tempDir := t.TempDir()
	argsFile := fakeTool(t, tempDir, "ogr2ogr", `echo '{"type":"FeatureCollection","features":[]}'`)
	prependPath(t, tempDir)

	data, err := VectorToGeoJSON(context.Background(), "in.shp", "EPSG:3857")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(string(data), "FeatureCollection") {
		t.Fatalf("unexpected output: %q", data)
	}
	if got := strings.Join(readArgs(t, argsFile), " "); got != "-f GeoJSON -t_srs EPSG:3857 /vsistdout/ in.shp" {
		t.Fatalf("unexpected args: %q", got)
	}
}

func TestVectorSQLArgs(t *testing.T) {
	useLocalGDAL(t)

	tempDir := t.TempDir()
	argsFile := fakeTool(t, tempDir, "ogr2ogr", "exit 0")
	prependPath(t, tempDir)

	sql := "SELECT ST_Buffer(geometry, 5) AS geometry FROM roads"
	if err := VectorSQL(context.Background(), "roads.shp", "buf.gpkg", "GPKG", sql, "POLYGON"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	args := readArgs(t, argsFile)
	if !containsSeq(args, "-dialect", "SQLite", "-sql", sql, "-nlt", "POLYGON", "buf.gpkg", "roads.shp") {
		t.Fatalf("unexpected args: %q", args)
	}
}
