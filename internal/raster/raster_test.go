package raster

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opengeo/internal/gdal"
)

func TestDescribe(t *testing.T) {
	fakeGDAL(t)
	path := filepath.Join(t.TempDir(), "img.tif")
	writeFixture(t, path, fixture{Width: 4, Height: 3, Type: "UInt16", NoData: ptr(0), Bands: []string{"", "", ""}})

	d, err := Describe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 32633, d.EPSG)
	assert.Equal(t, 10.0, d.XRes)
	assert.Equal(t, 10.0, d.YRes)
	assert.Equal(t, [4]float64{1000, 1970, 1040, 2000}, d.Bounds)
	assert.Equal(t, 3, d.BandCount)
	assert.Equal(t, 16, d.BitDepth)
	assert.Equal(t, 65535.0, d.BitMax)
	require.NotNil(t, d.NoData)
	assert.Equal(t, 0.0, *d.NoData)
}

func TestDescribeMissingFile(t *testing.T) {
	_, err := Describe(context.Background(), filepath.Join(t.TempDir(), "none.tif"))
	assert.Error(t, err)
}

func TestEightBitScales(t *testing.T) {
	scales := eightBitScales([]BandRange{
		{Band: 1, Min: 10, Max: 510},
		{Band: 2, Min: 7, Max: 7},
	})
	assert.Equal(t, []gdal.Scale{
		{SrcMin: 10, SrcMax: 510, DstMin: 0, DstMax: 255},
		{SrcMin: 7, SrcMax: 8, DstMin: 0, DstMax: 0},
	}, scales)
}

func TestEightBitName(t *testing.T) {
	assert.Equal(t, "tiles_a_8bit.tif", EightBitName(filepath.Join("in", "tiles", "a.tif")))
}

func TestConvertTo8Bit(t *testing.T) {
	tools := fakeGDAL(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "img.tif")
	writeFixture(t, in, fixture{Width: 1, Height: 1, Type: "UInt16", Bands: []string{"1", "1"}})

	require.NoError(t, ConvertTo8Bit(context.Background(), in, filepath.Join(dir, "out.tif")))
	assert.Contains(t, readArgs(t, tools, "gdalinfo"), "-mm")
	args := readArgs(t, tools, "gdal_translate")
	assert.True(t, containsSeq(args, "-ot", "Byte"), "args: %q", args)
	assert.True(t, containsSeq(args, "-scale_1", "0", "255", "0", "255"), "args: %q", args)
	assert.True(t, containsSeq(args, "-scale_2", "0", "255", "0", "255"), "args: %q", args)
	assert.True(t, containsSeq(args, "-co", "BIGTIFF=YES"), "args: %q", args)
}

func TestDropBand(t *testing.T) {
	tools := fakeGDAL(t)
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "a.tif"), fixture{Width: 1, Height: 1, Bands: []string{"1", "2", "3"}})
	writeFixture(t, filepath.Join(dir, "b.tif"), fixture{Width: 1, Height: 1, Bands: []string{"1"}})

	results, err := DropBandInDir(context.Background(), dir, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, filepath.Join(dir, "a_modified.tif"), results[0].Output)
	assert.False(t, results[0].Skipped)
	assert.True(t, results[1].Skipped)

	args := readArgs(t, tools, "gdal_translate")
	assert.True(t, containsSeq(args, "-b", "1", "-b", "3"), "args: %q", args)

	_, err = DropBand(context.Background(), filepath.Join(dir, "a.tif"), 0)
	assert.ErrorIs(t, err, ErrBandOutOfRange)
}

func TestOverviewLevels(t *testing.T) {
	assert.Equal(t, []int{2, 4, 8}, overviewLevels(10, 9))
	assert.Empty(t, overviewLevels(1, 1))
	assert.Len(t, overviewLevels(5000, 100), 10)
}

func TestPyramidPath(t *testing.T) {
	assert.Equal(t, filepath.Join("d", "x_InterPyrd.tif"), PyramidPath(filepath.Join("d", "x.tif")))
}
