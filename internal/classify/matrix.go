// Package classify assesses the accuracy of classified rasters against
// reference points.
package classify

import (
	"fmt"
	"math"
	"sort"
)

// Matrix is a confusion matrix. Rows are reference classes, columns are
// predicted classes, both ordered as Labels.
type Matrix struct {
	Labels []int
	Counts [][]int
}

// ConfusionMatrix tallies reference against predicted classes over the
// sorted union of the labels seen in either slice.
func ConfusionMatrix(reference, predicted []int) (Matrix, error) {
	if len(reference) != len(predicted) {
		return Matrix{}, fmt.Errorf("confusion matrix: %d reference values but %d predictions", len(reference), len(predicted))
	}

	seen := make(map[int]struct{})
	for _, v := range reference {
		seen[v] = struct{}{}
	}
	for _, v := range predicted {
		seen[v] = struct{}{}
	}
	labels := make([]int, 0, len(seen))
	for v := range seen {
		labels = append(labels, v)
	}
	sort.Ints(labels)

	index := make(map[int]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	for i := range reference {
		counts[index[reference[i]]][index[predicted[i]]]++
	}

	return Matrix{Labels: labels, Counts: counts}, nil
}

// Total is the number of samples in the matrix.
func (m Matrix) Total() int {
	n := 0
	for _, row := range m.Counts {
		for _, c := range row {
			n += c
		}
	}
	return n
}

// Max is the largest cell count.
func (m Matrix) Max() int {
	best := 0
	for _, row := range m.Counts {
		for _, c := range row {
			best = max(best, c)
		}
	}
	return best
}

// Metrics summarizes a confusion matrix. Producer and User follow the order
// of Matrix.Labels and hold NaN for classes with no reference (producer) or
// no predicted (user) samples.
type Metrics struct {
	Overall  float64
	Producer []float64
	User     []float64
	Kappa    float64
}

// ComputeMetrics derives overall accuracy, per-class producer and user
// accuracy, and Cohen's kappa.
func ComputeMetrics(m Matrix) Metrics {
	n := len(m.Labels)
	rowSums := make([]float64, n)
	colSums := make([]float64, n)
	var diag, total float64
	for i, row := range m.Counts {
		for j, c := range row {
			rowSums[i] += float64(c)
			colSums[j] += float64(c)
			total += float64(c)
		}
		diag += float64(row[i])
	}

	met := Metrics{
		Overall:  math.NaN(),
		Producer: make([]float64, n),
		User:     make([]float64, n),
		Kappa:    math.NaN(),
	}
	for i := range m.Labels {
		met.Producer[i] = ratio(float64(m.Counts[i][i]), rowSums[i])
		met.User[i] = ratio(float64(m.Counts[i][i]), colSums[i])
	}
	if total == 0 {
		return met
	}

	met.Overall = diag / total
	var pe float64
	for i := range m.Labels {
		pe += rowSums[i] * colSums[i]
	}
	pe /= total * total
	met.Kappa = ratio(met.Overall-pe, 1-pe)
	return met
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	return a / b
}
