package raster

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceValue(t *testing.T) {
	tools := fakeGDAL(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src.tif")
	ref := filepath.Join(dir, "ref.tif")
	out := filepath.Join(dir, "out.tif")
	writeFixture(t, src, fixture{Width: 2, Height: 2, Bands: []string{"1 5\n5 2"}})
	writeFixture(t, ref, fixture{Width: 2, Height: 2, Bands: []string{"9 8\n7 6"}})

	n, err := ReplaceValue(context.Background(), src, ref, out, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{1, 8, 7, 2}, readOutput(t, out).Data)

	args := readArgs(t, tools, "gdal_translate")
	assert.True(t, containsSeq(args, "-ot", "Byte"), "args: %q", args)
	assert.True(t, containsSeq(args, "-a_srs", "EPSG:32633"), "args: %q", args)
	assert.True(t, containsSeq(args, "-a_ullr", "1000", "2000", "1020", "1980"), "args: %q", args)
	assert.True(t, containsSeq(args, "-co", "COMPRESS=LZW"), "args: %q", args)
}

func TestReplaceValueRejectsMismatches(t *testing.T) {
	fakeGDAL(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src.tif")
	small := filepath.Join(dir, "small.tif")
	other := filepath.Join(dir, "other.tif")
	writeFixture(t, src, fixture{Width: 2, Height: 2, Bands: []string{"1 5\n5 2"}})
	writeFixture(t, small, fixture{Width: 1, Height: 2, Bands: []string{"1\n2"}})
	writeFixture(t, other, fixture{Width: 2, Height: 2, EPSG: 4326, Bands: []string{"1 5\n5 2"}})

	_, err := ReplaceValue(context.Background(), src, small, filepath.Join(dir, "a.tif"), 5, 1)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = ReplaceValue(context.Background(), src, other, filepath.Join(dir, "b.tif"), 5, 1)
	assert.ErrorIs(t, err, ErrSRSMismatch)

	_, err = ReplaceValue(context.Background(), src, filepath.Join(dir, "missing.tif"), filepath.Join(dir, "c.tif"), 5, 1)
	assert.Error(t, err)
}

func TestProbability(t *testing.T) {
	tools := fakeGDAL(t)
	dir := t.TempDir()
	var inputs []string
	for i, data := range []string{"1 0\n1 1", "1 1\n0 2", "1 0\n0 2"} {
		path := filepath.Join(dir, "r"+string(rune('a'+i))+".tif")
		writeFixture(t, path, fixture{Width: 2, Height: 2, Bands: []string{data}})
		inputs = append(inputs, path)
	}
	out := filepath.Join(t.TempDir(), "prob.tif")
	require.NoError(t, ProbabilityFromDir(context.Background(), dir, 1, out))

	got := readOutput(t, out).Data
	want := []float64{1, 1.0 / 3, 2.0 / 3, 1.0 / 3}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "cell %d", i)
	}
	assert.True(t, containsSeq(readArgs(t, tools, "gdal_translate"), "-ot", "Float32"))

	require.NoError(t, Probability(context.Background(), inputs[:1], 2, out))
	assert.Equal(t, []float64{0, 0, 0, 0}, readOutput(t, out).Data)
}

func TestProbabilityRejectsMisalignedInputs(t *testing.T) {
	fakeGDAL(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.tif")
	shifted := filepath.Join(dir, "shifted.tif")
	utm := filepath.Join(dir, "utm.tif")
	writeFixture(t, a, fixture{Width: 1, Height: 1, Bands: []string{"1"}})
	writeFixture(t, shifted, fixture{Width: 1, Height: 1, GeoTransform: [6]float64{1010, 10, 0, 2000, 0, -10}, Bands: []string{"1"}})
	writeFixture(t, utm, fixture{Width: 1, Height: 1, EPSG: 32634, Bands: []string{"1"}})

	err := Probability(context.Background(), []string{a, shifted}, 1, filepath.Join(dir, "o.tif"))
	assert.ErrorIs(t, err, ErrGridMismatch)

	err = Probability(context.Background(), []string{a, utm}, 1, filepath.Join(dir, "o.tif"))
	assert.ErrorIs(t, err, ErrSRSMismatch)

	assert.ErrorIs(t, Probability(context.Background(), nil, 1, "o.tif"), ErrNoInputs)
	assert.ErrorIs(t, ProbabilityFromDir(context.Background(), t.TempDir(), 1, "o.tif"), ErrNoInputs)
}

func TestCategoryArea(t *testing.T) {
	fakeGDAL(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "lulc.tif")
	writeFixture(t, path, fixture{Width: 2, Height: 2, NoData: ptr(0), Bands: []string{"2 1\n2 0"}})

	cats, err := CategoryArea(context.Background(), path, true)
	require.NoError(t, err)
	assert.Equal(t, []Category{
		{Value: 1, Count: 1, Area: 100},
		{Value: 2, Count: 2, Area: 200},
	}, cats)

	cats, err = CategoryArea(context.Background(), path, false)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, Category{Value: 0, Count: 1, Area: 100}, cats[0])
}
