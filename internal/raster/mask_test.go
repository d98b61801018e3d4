package raster

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opengeo/internal/gdal"
)

func bandGrid(data ...float64) gdal.Grid {
	return gdal.Grid{Width: len(data), Height: 1, CellSizeX: 1, CellSizeY: 1, Data: data}
}

func TestComputeMaskCases(t *testing.T) {
	byteType, err := gdal.LookupDataType("Byte")
	require.NoError(t, err)
	float32Type, err := gdal.LookupDataType("Float32")
	require.NoError(t, err)

	tests := []struct {
		name  string
		bands []gdal.Grid
		nd    *float64
		dt    gdal.DataType
		want  []float64
		cases MaskCase
	}{
		{
			name:  "nodata in any band",
			bands: []gdal.Grid{bandGrid(0, 5, 5), bandGrid(5, 5, 0)},
			nd:    ptr(0),
			dt:    byteType,
			want:  []float64{0, 1, 0},
			cases: MaskNoData,
		},
		{
			name:  "float nodata uses tolerance",
			bands: []gdal.Grid{bandGrid(-9999.00001, 1)},
			nd:    ptr(-9999),
			dt:    float32Type,
			want:  []float64{0, 1},
			cases: MaskNoData,
		},
		{
			name:  "nan nodata",
			bands: []gdal.Grid{bandGrid(math.NaN(), 1)},
			nd:    ptr(math.NaN()),
			dt:    float32Type,
			want:  []float64{0, 1},
			cases: MaskNoData,
		},
		{
			name:  "alpha band",
			bands: []gdal.Grid{bandGrid(1, 0), bandGrid(1, 0), bandGrid(1, 0), bandGrid(0, 255)},
			dt:    byteType,
			want:  []float64{0, 1},
			cases: MaskAlphaBand,
		},
		{
			name:  "type extremes in every band",
			bands: []gdal.Grid{bandGrid(0, 255, 0, 7), bandGrid(255, 255, 3, 0)},
			dt:    byteType,
			want:  []float64{0, 0, 1, 1},
			cases: MaskTypeExtremes,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mask, c := computeMask(tc.bands, tc.nd, tc.dt)
			assert.Equal(t, tc.cases, c)
			assert.Equal(t, tc.want, mask.Data)
			assert.True(t, mask.HasNoData)
			assert.Equal(t, 0.0, mask.NoData)
		})
	}
}

func TestCreateMask(t *testing.T) {
	tools := fakeGDAL(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "scene.tif")
	writeFixture(t, in, fixture{
		Width:  3,
		Height: 2,
		NoData: ptr(0),
		Bands:  []string{"0 4 4\n0 0 4", "3 3 3\n0 0 3"},
	})

	res, err := CreateMask(context.Background(), in, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scene_mask.tif"), res.Output)
	assert.Equal(t, MaskNoData, res.Case)
	assert.Equal(t, "0", res.PossibleNoData())
	assert.Equal(t, 1, res.Regions)
	assert.Equal(t, []float64{0, 1, 1, 0, 0, 1}, readOutput(t, res.Output).Data)

	args := readArgs(t, tools, "gdal_translate")
	assert.True(t, containsSeq(args, "-ot", "Byte"), "args: %q", args)
	assert.True(t, containsSeq(args, "-a_nodata", "0"), "args: %q", args)
	assert.True(t, containsSeq(args, "-co", "TILED=YES"), "args: %q", args)
}

func TestMaskResultPossibleNoData(t *testing.T) {
	r := MaskResult{Case: MaskTypeExtremes, BitMin: 0, BitMax: 65535}
	assert.Equal(t, "0/65535", r.PossibleNoData())
	assert.Equal(t, "Case 3: type min/max", r.Case.String())
}

func TestFootprintPath(t *testing.T) {
	dir := t.TempDir()
	raster := filepath.Join("data", "scene.tif")

	assert.Equal(t, filepath.Join("data", "scene_footprint.gpkg"), FootprintPath(raster, ""))
	assert.Equal(t, filepath.Join(dir, "scene_footprint.gpkg"), FootprintPath(raster, dir))
	assert.Equal(t, "fp.shp", FootprintPath(raster, "fp.shp"))
	assert.Equal(t, filepath.Join("data", "scene_mask.tif"), MaskPath(raster))
}

func TestFootprintRejectsUnknownFormat(t *testing.T) {
	_, err := Footprint(context.Background(), "scene.tif", "scene.kml", false)
	assert.Error(t, err)
}
