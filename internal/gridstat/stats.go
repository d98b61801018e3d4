package gridstat

import (
	"fmt"
	"math"
	"sort"

	"opengeo/internal/gdal"
)

// Valid returns the cells of g that are neither nodata nor NaN.
func Valid(g gdal.Grid) []float64 {
	values := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if g.IsNoData(v) {
			continue
		}
		values = append(values, v)
	}
	return values
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (mean, std float64) {
	count := 0
	m2 := 0.0

	for _, v := range values {
		count++
		delta := v - mean
		mean += delta / float64(count)
		delta2 := v - mean
		m2 += delta * delta2
	}

	if count == 0 {
		return 0, 0
	}

	variance := m2 / float64(count)
	return mean, math.Sqrt(variance)
}

// GridMeanStd is MeanStd over the valid cells of g.
func GridMeanStd(g gdal.Grid) (mean, std float64) {
	return MeanStd(Valid(g))
}

// Percentile returns the pth percentile (nearest rank) of values.
// p must be in the range (0, 100).
func Percentile(values []float64, p float64) (float64, error) {
	if p <= 0 || p >= 100 {
		return 0, fmt.Errorf("invalid percentile %v", p)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("no valid values")
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(math.Ceil((p/100.0)*float64(len(sorted)))) - 1
	if idx < 0 {
		return sorted[0], nil
	}
	if idx >= len(sorted) {
		return sorted[len(sorted)-1], nil
	}
	return sorted[idx], nil
}

// Median returns the middle value, averaging the two middle values for an
// even count. values is reordered.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// MinMax returns the extremes of the valid cells of g; ok is false when
// there are none.
func MinMax(g gdal.Grid) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.Data {
		if g.IsNoData(v) {
			continue
		}
		ok = true
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// ValueCount is the number of cells holding Value.
type ValueCount struct {
	Value float64
	Count int
}

// Counts tallies the distinct values of g in ascending order. NaN cells are
// never counted; declared nodata cells are skipped when skipNoData is set.
func Counts(g gdal.Grid, skipNoData bool) []ValueCount {
	tally := make(map[float64]int)
	for _, v := range g.Data {
		if math.IsNaN(v) {
			continue
		}
		if skipNoData && g.IsNoData(v) {
			continue
		}
		tally[v]++
	}

	counts := make([]ValueCount, 0, len(tally))
	for v, n := range tally {
		counts = append(counts, ValueCount{Value: v, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Value < counts[j].Value })
	return counts
}
