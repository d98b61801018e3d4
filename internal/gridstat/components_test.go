package gridstat

import (
	"math"
	"sort"
	"testing"

	"opengeo/internal/gdal"
)

const componentEps = 1e-9

func TestComponentsFourNeighborhood(t *testing.T) {
	grid := gdal.Grid{
		Width:  4,
		Height: 3,
		NoData: -9999,
		Data: []float64{
			1, 1, 0, 0,
			1, 0, 0, 2,
			0, 0, 2, 2,
		},
	}

	got := Components(grid, Threshold(grid, 1, false), 1)
	if len(got) != 2 {
		t.Fatalf("expected 2 components, got %d", len(got))
	}

	sortComponents(got)

	want := []Component{
		{Area: 3, Sum: 3, Cx: 1.0 / 3.0, Cy: 1.0 / 3.0},
		{Area: 3, Sum: 6, Cx: 8.0 / 3.0, Cy: 5.0 / 3.0},
	}

	for i := range want {
		assertComponentClose(t, got[i], want[i])
	}
}

func TestComponentsDiagonalSeparate(t *testing.T) {
	grid := gdal.Grid{
		Width:  2,
		Height: 2,
		Data: []float64{
			1, 0,
			0, 1,
		},
	}

	got := Components(grid, func(v float64) bool { return v == 1 }, 1)
	if len(got) != 2 {
		t.Fatalf("expected 2 components, got %d", len(got))
	}
}

func TestComponentsIgnoreNoDataAndMinArea(t *testing.T) {
	grid := gdal.Grid{
		Width:     3,
		Height:    2,
		NoData:    -9999,
		HasNoData: true,
		Data: []float64{
			1, -9999, 1,
			math.NaN(), 1, 0,
		},
	}

	got := Components(grid, Threshold(grid, 1, false), 1)
	if len(got) != 3 {
		t.Fatalf("expected 3 components, got %d", len(got))
	}

	got = Components(grid, Threshold(grid, 1, false), 2)
	if len(got) != 0 {
		t.Fatalf("expected 0 components with min area, got %d", len(got))
	}
}

func TestThresholdInvert(t *testing.T) {
	grid := gdal.Grid{Width: 3, Height: 1, Data: []float64{5, 1, 5}}

	got := Components(grid, Threshold(grid, 2, true), 1)
	if len(got) != 1 || got[0].Area != 1 || got[0].Cx != 1 {
		t.Fatalf("unexpected components: %+v", got)
	}
}

func sortComponents(c []Component) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Cx == c[j].Cx {
			return c[i].Cy < c[j].Cy
		}
		return c[i].Cx < c[j].Cx
	})
}

func assertComponentClose(t *testing.T, got, want Component) {
	t.Helper()
	if got.Area != want.Area {
		t.Fatalf("expected area %d, got %d", want.Area, got.Area)
	}
	if math.Abs(got.Sum-want.Sum) > componentEps {
		t.Fatalf("expected sum %v, got %v", want.Sum, got.Sum)
	}
	if math.Abs(got.Cx-want.Cx) > componentEps {
		t.Fatalf("expected cx %v, got %v", want.Cx, got.Cx)
	}
	if math.Abs(got.Cy-want.Cy) > componentEps {
		t.Fatalf("expected cy %v, got %v", want.Cy, got.Cy)
	}
}
