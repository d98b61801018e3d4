package raster

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opengeo/internal/geojson"
)

func TestStats(t *testing.T) {
	fakeGDAL(t)
	path := filepath.Join(t.TempDir(), "dem.tif")
	writeFixture(t, path, fixture{Width: 4, Height: 2, Type: "Int16", NoData: ptr(-9999),
		Bands: []string{"1 2 3 4\n5 6 7 -9999"}})

	st, err := Stats(context.Background(), path, 0)
	require.NoError(t, err)
	assert.InDelta(t, 4, st.Mean, 1e-9)
	assert.InDelta(t, 2, st.Std, 1e-9)
	st.Mean, st.Std = 0, 0
	assert.Equal(t, BandStats{Band: 1, Count: 7, Min: 1, Max: 7, P2: 1, Median: 4, P98: 7}, st)
}

func TestStatsAllNoData(t *testing.T) {
	fakeGDAL(t)
	path := filepath.Join(t.TempDir(), "empty.tif")
	writeFixture(t, path, fixture{Width: 2, Height: 1, NoData: ptr(0), Bands: []string{"0 0"}})

	_, err := Stats(context.Background(), path, 1)
	assert.Error(t, err)
}

func TestRegions(t *testing.T) {
	fakeGDAL(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "score.tif")
	writeFixture(t, path, fixture{Width: 4, Height: 3, Bands: []string{"9 9 0 0\n9 0 0 8\n0 0 0 8"}})

	ctx := context.Background()
	regions, err := Regions(ctx, path, RegionOptions{Threshold: 5})
	require.NoError(t, err)
	require.Len(t, regions, 2)

	assert.Equal(t, 3, regions[0].AreaPx)
	assert.Equal(t, 9.0, regions[0].Mean)
	assert.InDelta(t, 1000+(1.0/3+0.5)*10, regions[0].X, 1e-9)
	assert.InDelta(t, 2000-(1.0/3+0.5)*10, regions[0].Y, 1e-9)

	assert.Equal(t, Region{AreaPx: 2, Mean: 8, X: 1035, Y: 1980}, regions[1])

	regions, err = Regions(ctx, path, RegionOptions{Threshold: 5, MinArea: 3})
	require.NoError(t, err)
	assert.Len(t, regions, 1)

	out := filepath.Join(dir, "regions.geojson")
	require.NoError(t, WriteRegions(out, regions))
	fc, err := geojson.Read(out)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, 3.0, fc.Features[0].Properties["area_px"])
}
