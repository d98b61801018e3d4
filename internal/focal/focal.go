// Package focal implements moving-window statistics over raster grids.
package focal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"opengeo/internal/gdal"
	"opengeo/internal/gridstat"
	"opengeo/internal/logging"
)

// NoData marks output cells whose window holds no valid value.
const NoData = -9999.0

var (
	ErrEvenKernel      = errors.New("kernel size must be an odd number")
	ErrNoDataRequired  = errors.New("input raster has no nodata value")
	ErrUnsupportedStat = errors.New("unsupported focal statistic")
)

// Stat names a window statistic.
type Stat string

const (
	Mean        Stat = "mean"
	Median      Stat = "median"
	Min         Stat = "min"
	Max         Stat = "max"
	Std         Stat = "std"
	Variance    Stat = "variance"
	Sum         Stat = "sum"
	Range       Stat = "range"
	Majority    Stat = "majority"
	Minority    Stat = "minority"
	UniqueCount Stat = "unique_count"
)

// Stats lists every supported statistic.
var Stats = []Stat{Mean, Median, Min, Max, Std, Variance, Sum, Range, Majority, Minority, UniqueCount}

// ParseStat validates a statistic name.
func ParseStat(name string) (Stat, error) {
	s := Stat(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Stats {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnsupportedStat)
}

// Apply computes stat over a kernel×kernel window centred on every cell.
// Windows are clipped at the grid edge and nodata cells are ignored; a cell
// whose window has no valid value becomes NoData. Rows are processed by up to
// workers goroutines.
func Apply(g gdal.Grid, kernel int, stat Stat, workers int) (gdal.Grid, error) {
	if kernel < 1 || kernel%2 == 0 {
		return gdal.Grid{}, fmt.Errorf("kernel %d: %w", kernel, ErrEvenKernel)
	}
	reduce, err := reducer(stat)
	if err != nil {
		return gdal.Grid{}, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := gdal.NewGrid(g, NoData)
	out.NoData, out.HasNoData = NoData, true
	half := kernel / 2

	var eg errgroup.Group
	eg.SetLimit(workers)
	for y := 0; y < g.Height; y++ {
		eg.Go(func() error {
			window := make([]float64, 0, kernel*kernel)
			for x := 0; x < g.Width; x++ {
				window = window[:0]
				for wy := max(0, y-half); wy <= min(g.Height-1, y+half); wy++ {
					for wx := max(0, x-half); wx <= min(g.Width-1, x+half); wx++ {
						v := g.Data[wy*g.Width+wx]
						if !g.IsNoData(v) {
							window = append(window, v)
						}
					}
				}
				if len(window) > 0 {
					out.Data[y*g.Width+x] = reduce(window)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return gdal.Grid{}, err
	}
	return out, nil
}

func reducer(stat Stat) (func([]float64) float64, error) {
	switch stat {
	case Mean:
		return mean, nil
	case Median:
		return gridstat.Median, nil
	case Min:
		return minOf, nil
	case Max:
		return maxOf, nil
	case Std:
		return std, nil
	case Variance:
		return variance, nil
	case Sum:
		return sum, nil
	case Range:
		return func(v []float64) float64 { return maxOf(v) - minOf(v) }, nil
	case Majority:
		return func(v []float64) float64 { return mode(v, true) }, nil
	case Minority:
		return func(v []float64) float64 { return mode(v, false) }, nil
	case UniqueCount:
		return func(v []float64) float64 { return float64(len(frequencies(v))) }, nil
	default:
		return nil, fmt.Errorf("%q: %w", stat, ErrUnsupportedStat)
	}
}

func mean(v []float64) float64 {
	m, _ := gridstat.MeanStd(v)
	return m
}

// std is the population standard deviation.
func std(v []float64) float64 {
	_, s := gridstat.MeanStd(v)
	return s
}

func variance(v []float64) float64 {
	s := std(v)
	return s * s
}

func minOf(v []float64) float64 {
	m := math.Inf(1)
	for _, x := range v {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		m = math.Max(m, x)
	}
	return m
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

type valueFreq struct {
	value float64
	n     int
}

// frequencies returns the distinct values of v in ascending order with their
// counts.
func frequencies(v []float64) []valueFreq {
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	var freqs []valueFreq
	for _, x := range sorted {
		if len(freqs) > 0 && freqs[len(freqs)-1].value == x {
			freqs[len(freqs)-1].n++
			continue
		}
		freqs = append(freqs, valueFreq{value: x, n: 1})
	}
	return freqs
}

// mode returns the most (or least) frequent value; ties go to the smallest.
func mode(v []float64, most bool) float64 {
	freqs := frequencies(v)
	best := freqs[0]
	for _, f := range freqs[1:] {
		if (most && f.n > best.n) || (!most && f.n < best.n) {
			best = f
		}
	}
	return best.value
}

// Raster applies a focal statistic to band 1 of in and writes a Float32
// GeoTIFF with nodata -9999. The input must declare a nodata value.
func Raster(ctx context.Context, in, out string, kernel int, stat Stat, workers int) error {
	if kernel < 1 || kernel%2 == 0 {
		return fmt.Errorf("kernel %d: %w", kernel, ErrEvenKernel)
	}
	if _, err := reducer(stat); err != nil {
		return err
	}
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("open raster: %w", err)
	}

	info, err := gdal.GetInfo(ctx, in)
	if err != nil {
		return err
	}
	if info.BandCount() == 0 || info.Bands[0].NoData == nil {
		return fmt.Errorf("%s: %w", in, ErrNoDataRequired)
	}

	logger := logging.FromContext(ctx)
	s, err := gdal.NewScratch()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Cleanup(); err != nil {
			logger.Warn("scratch cleanup failed", zap.Error(err))
		}
	}()

	g, err := gdal.ReadBand(ctx, s, in, 1)
	if err != nil {
		return err
	}
	// the ASCII grid carries the band nodata, but keep gdalinfo's value authoritative
	g.NoData, g.HasNoData = *info.Bands[0].NoData, true

	res, err := Apply(g, kernel, stat, workers)
	if err != nil {
		return err
	}

	gt := info.GeoTransform
	nodata := NoData
	if err := gdal.WriteGrid(ctx, s, res, out, gdal.WriteOptions{
		SRS:             info.SRSArg(),
		GeoTransform:    &gt,
		OutputType:      "Float32",
		NoData:          &nodata,
		CreationOptions: []string{"COMPRESS=LZW", "TILED=YES", "BLOCKXSIZE=256", "BLOCKYSIZE=256"},
	}); err != nil {
		return fmt.Errorf("focal %s: %w", stat, err)
	}

	logger.Info("focal statistic written",
		zap.String("output", out), zap.String("stat", string(stat)), zap.Int("kernel", kernel))
	return nil
}
