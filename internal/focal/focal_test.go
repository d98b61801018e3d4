package focal

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opengeo/internal/gdal"
)

func TestMain(m *testing.M) {
	os.Setenv(gdal.ModeEnv, "local")
	os.Exit(m.Run())
}

// 3x3 grid with one nodata cell (-1) in the centre of the top row.
func sample() gdal.Grid {
	return gdal.Grid{
		Width: 3, Height: 3, NoData: -1, HasNoData: true, CellSizeX: 1, CellSizeY: 1,
		Data: []float64{
			1, -1, 3,
			4, 5, 6,
			7, 8, 9,
		},
	}
}

func TestApplyStats(t *testing.T) {
	tests := []struct {
		stat Stat
		want []float64
	}{
		{Sum, []float64{10, 19, 14, 25, 43, 31, 24, 39, 28}},
		{Min, []float64{1, 1, 3, 1, 1, 3, 4, 4, 5}},
		{Max, []float64{5, 6, 6, 8, 9, 9, 8, 9, 9}},
		{Range, []float64{4, 5, 3, 7, 8, 6, 4, 5, 4}},
		{Mean, []float64{10.0 / 3, 19.0 / 5, 14.0 / 3, 25.0 / 5, 43.0 / 8, 31.0 / 5, 6, 39.0 / 6, 7}},
		{Median, []float64{4, 4, 5, 5, 5.5, 6, 6, 6.5, 7}},
		{UniqueCount, []float64{3, 5, 3, 5, 8, 5, 4, 6, 4}},
	}

	for _, tc := range tests {
		t.Run(string(tc.stat), func(t *testing.T) {
			got, err := Apply(sample(), 3, tc.stat, 2)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got.Data, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tc.stat, diff)
			}
			assert.Equal(t, NoData, got.NoData)
		})
	}
}

func TestApplyDispersion(t *testing.T) {
	g := gdal.Grid{Width: 3, Height: 1, NoData: -9, HasNoData: true, Data: []float64{2, 4, 6}}

	std, err := Apply(g, 3, Std, 1)
	require.NoError(t, err)
	variance, err := Apply(g, 3, Variance, 1)
	require.NoError(t, err)

	// windows: {2,4} {2,4,6} {4,6}
	want := []float64{1, 8.0 / 3, 1}
	if diff := cmp.Diff(want, variance.Data, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("variance mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 1.0, std.Data[0], 1e-12)
}

func TestApplyMajorityMinority(t *testing.T) {
	g := gdal.Grid{Width: 5, Height: 1, NoData: 0, HasNoData: true, Data: []float64{3, 3, 2, 2, 0}}

	maj, err := Apply(g, 5, Majority, 1)
	require.NoError(t, err)
	// windows: {3,3,2} {3,3,2,2} {3,3,2,2} {3,2,2} {2,2}
	assert.Equal(t, []float64{3, 2, 2, 2, 2}, maj.Data)

	minority, err := Apply(g, 5, Minority, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2, 3, 2}, minority.Data)
}

func TestApplyAllNoDataWindow(t *testing.T) {
	g := gdal.Grid{Width: 3, Height: 1, NoData: -1, HasNoData: true, Data: []float64{-1, -1, 5}}
	got, err := Apply(g, 1, Mean, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{NoData, NoData, 5}, got.Data)
}

func TestApplyRejectsBadInput(t *testing.T) {
	_, err := Apply(sample(), 4, Mean, 1)
	assert.ErrorIs(t, err, ErrEvenKernel)

	_, err = Apply(sample(), 3, Stat("mode"), 1)
	assert.ErrorIs(t, err, ErrUnsupportedStat)
}

func TestParseStat(t *testing.T) {
	s, err := ParseStat(" Unique_Count ")
	require.NoError(t, err)
	assert.Equal(t, UniqueCount, s)

	_, err = ParseStat("skew")
	assert.ErrorIs(t, err, ErrUnsupportedStat)
}

func TestRasterRequiresNoData(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake GDAL tools need a POSIX shell")
	}
	dir := t.TempDir()
	in := filepath.Join(dir, "dem.tif")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))
	script := "#!/bin/sh\ncat <<'EOF'\n" +
		`{"size":[3,3],"geoTransform":[0,1,0,3,0,-1],"bands":[{"band":1,"type":"Float32"}]}` +
		"\nEOF\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gdalinfo"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	err := Raster(context.Background(), in, filepath.Join(dir, "out.tif"), 3, Mean, 1)
	assert.ErrorIs(t, err, ErrNoDataRequired)

	err = Raster(context.Background(), in, filepath.Join(dir, "out.tif"), 2, Mean, 1)
	assert.ErrorIs(t, err, ErrEvenKernel)
}
