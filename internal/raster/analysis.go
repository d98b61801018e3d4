package raster

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"opengeo/internal/gdal"
	"opengeo/internal/gridstat"
)

// ReplaceValue copies band of ref into the cells of src's band that equal
// value and writes the result to out with the source type and
// georeferencing. It returns the number of replaced cells.
func ReplaceValue(ctx context.Context, src, ref, out string, value float64, band int) (int, error) {
	if band < 1 {
		band = 1
	}
	if err := requireFile(src); err != nil {
		return 0, err
	}
	if err := requireFile(ref); err != nil {
		return 0, fmt.Errorf("reference: %w", err)
	}

	srcInfo, err := gdal.GetInfo(ctx, src)
	if err != nil {
		return 0, err
	}
	refInfo, err := gdal.GetInfo(ctx, ref)
	if err != nil {
		return 0, err
	}
	if srcInfo.Width != refInfo.Width || srcInfo.Height != refInfo.Height {
		return 0, fmt.Errorf("%dx%d vs %dx%d: %w", srcInfo.Width, srcInfo.Height, refInfo.Width, refInfo.Height, ErrShapeMismatch)
	}
	if !srcInfo.SameSRS(refInfo) {
		return 0, fmt.Errorf("%s vs %s: %w", src, ref, ErrSRSMismatch)
	}
	if band > srcInfo.BandCount() || band > refInfo.BandCount() {
		return 0, fmt.Errorf("band %d: %w", band, ErrBandOutOfRange)
	}

	replaced := 0
	err = withScratch(ctx, func(s *gdal.Scratch) error {
		sg, err := gdal.ReadBand(ctx, s, src, band)
		if err != nil {
			return err
		}
		rg, err := gdal.ReadBand(ctx, s, ref, band)
		if err != nil {
			return err
		}

		replaced = replaceCells(sg, rg, value)
		return writeLike(ctx, s, sg, srcInfo, out, srcInfo.Bands[band-1].Type, srcInfo.Bands[band-1].NoData, lzw)
	})
	if err != nil {
		return 0, err
	}
	return replaced, nil
}

func replaceCells(dst, ref gdal.Grid, value float64) int {
	n := 0
	for i, v := range dst.Data {
		if v == value {
			dst.Data[i] = ref.Data[i]
			n++
		}
	}
	return n
}

// Probability writes, per pixel, the fraction of inputs whose band 1 equals
// value as Float32. All inputs must share CRS, size and geotransform.
func Probability(ctx context.Context, inputs []string, value float64, out string) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}

	infos := make([]gdal.RasterInfo, len(inputs))
	for i, path := range inputs {
		if err := requireFile(path); err != nil {
			return err
		}
		info, err := gdal.GetInfo(ctx, path)
		if err != nil {
			return err
		}
		infos[i] = info
	}
	if err := checkAligned(infos); err != nil {
		return err
	}

	return withScratch(ctx, func(s *gdal.Scratch) error {
		var counts []int
		var like gdal.Grid
		for i, path := range inputs {
			g, err := gdal.ReadBand(ctx, s, path, 1)
			if err != nil {
				return err
			}
			if i == 0 {
				like = g
				counts = make([]int, len(g.Data))
			}
			accumulateMatches(counts, g, value)
		}

		prob := probabilityGrid(like, counts, len(inputs))
		return writeLike(ctx, s, prob, infos[0], out, "Float32", nil, lzw)
	})
}

func checkAligned(infos []gdal.RasterInfo) error {
	first := infos[0]
	for _, info := range infos[1:] {
		if !info.SameSRS(first) {
			return fmt.Errorf("%s vs %s: %w", info.Path, first.Path, ErrSRSMismatch)
		}
		if !info.SameGrid(first) {
			return fmt.Errorf("%s vs %s: %w", info.Path, first.Path, ErrGridMismatch)
		}
	}
	return nil
}

func accumulateMatches(counts []int, g gdal.Grid, value float64) {
	for i, v := range g.Data {
		if v == value {
			counts[i]++
		}
	}
}

func probabilityGrid(like gdal.Grid, counts []int, total int) gdal.Grid {
	prob := gdal.NewGrid(like, 0)
	prob.HasNoData = false
	for i, c := range counts {
		prob.Data[i] = float64(c) / float64(total)
	}
	return prob
}

// ProbabilityFromDir runs Probability over the .tif files directly inside
// dir, in name order.
func ProbabilityFromDir(ctx context.Context, dir string, value float64, out string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	var inputs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tif") {
			inputs = append(inputs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(inputs)
	if len(inputs) == 0 {
		return fmt.Errorf("%s: %w", dir, ErrNoInputs)
	}
	return Probability(ctx, inputs, value, out)
}

// Category is the pixel count and area of one value.
type Category struct {
	Value float64
	Count int
	Area  float64
}

// CategoryArea counts every distinct value of band 1 and converts the
// counts to areas in squared map units, ascending by value.
func CategoryArea(ctx context.Context, path string, skipNoData bool) ([]Category, error) {
	if err := requireFile(path); err != nil {
		return nil, err
	}
	info, err := gdal.GetInfo(ctx, path)
	if err != nil {
		return nil, err
	}

	var cats []Category
	err = withScratch(ctx, func(s *gdal.Scratch) error {
		g, err := gdal.ReadBand(ctx, s, path, 1)
		if err != nil {
			return err
		}
		xres, yres := info.Resolution()
		cats = categories(g, math.Abs(xres)*math.Abs(yres), skipNoData)
		return nil
	})
	return cats, err
}

func categories(g gdal.Grid, pixelArea float64, skipNoData bool) []Category {
	counts := gridstat.Counts(g, skipNoData)
	cats := make([]Category, len(counts))
	for i, c := range counts {
		cats[i] = Category{Value: c.Value, Count: c.Count, Area: float64(c.Count) * pixelArea}
	}
	return cats
}
