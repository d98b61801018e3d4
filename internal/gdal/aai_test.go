package gdal

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestParseAAIGrid(t *testing.T) {
	input := strings.TrimSpace(`
		ncols 3
		nrows 2
		xllcorner 0
		yllcorner 0
		cellsize 1
		NODATA_value -9999
		1 2 3
		4 5 6
	`)

	grid, err := ParseAAIGrid(strings.NewReader(input))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if grid.Width != 3 || grid.Height != 2 {
		t.Fatalf("unexpected size: %+v", grid)
	}
	if grid.NoData != -9999 {
		t.Fatalf("unexpected nodata: %v", grid.NoData)
	}
	want := []float64{1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(grid.Data, want) {
		t.Fatalf("unexpected data: %#v", grid.Data)
	}
}

func TestParseAAIGridHeaderOrderAndMissingNoData(t *testing.T) {
	input := strings.TrimSpace(`
		nrows 2
		cellsize 10
		ncols 2
		yllcenter 105
		xllcenter 5
		1 2
		3 4
	`)

	grid, err := ParseAAIGrid(strings.NewReader(input))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if grid.HasNoData {
		t.Fatalf("expected no declared nodata")
	}
	if grid.NoData != -9999 {
		t.Fatalf("unexpected default nodata: %v", grid.NoData)
	}
	if grid.XllCorner != 0 || grid.YllCorner != 100 {
		t.Fatalf("unexpected origin: %v %v", grid.XllCorner, grid.YllCorner)
	}
	if grid.CellSizeX != 10 || grid.CellSizeY != 10 {
		t.Fatalf("unexpected cell size: %v %v", grid.CellSizeX, grid.CellSizeY)
	}
	if !reflect.DeepEqual(grid.Data, []float64{1, 2, 3, 4}) {
		t.Fatalf("unexpected data: %#v", grid.Data)
	}
}

func TestParseAAIGridDxDyAndNaN(t *testing.T) {
	input := "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ndx 2\ndy 3\n1 nan\n"
	grid, err := ParseAAIGrid(strings.NewReader(input))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if grid.CellSizeX != 2 || grid.CellSizeY != 3 {
		t.Fatalf("unexpected cell size: %v %v", grid.CellSizeX, grid.CellSizeY)
	}
	if !math.IsNaN(grid.Data[1]) || !grid.IsNoData(grid.Data[1]) {
		t.Fatalf("expected NaN cell to count as nodata: %#v", grid.Data)
	}
}

func TestParseAAIGridRejectsTruncatedData(t *testing.T) {
	values := strings.TrimSpace(strings.Repeat("7 ", 199))
	input := "ncols 200\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nNODATA_value -9999\n" + values + "\n"

	_, err := ParseAAIGrid(strings.NewReader(input))
	if err == nil {
		t.Fatalf("expected error for a grid missing one value")
	}
	if !strings.Contains(err.Error(), "expected 200 values, got 199") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseAAIGridErrors(t *testing.T) {
	cases := map[string]string{
		"missing ncols":  "nrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"missing origin": "ncols 1\nnrows 1\ncellsize 1\n1\n",
		"trailing value": "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n",
		"too few values": "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n",
		"empty":          "",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseAAIGrid(strings.NewReader(input)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestWriteAAIGridRoundTrip(t *testing.T) {
	grid := Grid{
		Width:     2,
		Height:    2,
		NoData:    -9999,
		HasNoData: true,
		XllCorner: 100,
		YllCorner: 200,
		CellSizeX: 0.5,
		CellSizeY: 0.5,
		Data:      []float64{1.25, math.NaN(), 3, -4},
	}

	var buf bytes.Buffer
	if err := WriteAAIGrid(&buf, grid); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "NODATA_value -9999") {
		t.Fatalf("missing nodata header: %q", buf.String())
	}

	parsed, err := ParseAAIGrid(&buf)
	if err != nil {
		t.Fatalf("parse written grid: %v", err)
	}
	want := []float64{1.25, -9999, 3, -4}
	if !reflect.DeepEqual(parsed.Data, want) {
		t.Fatalf("unexpected data: %#v", parsed.Data)
	}
	if parsed.XllCorner != 100 || parsed.YllCorner != 200 || parsed.CellSizeX != 0.5 {
		t.Fatalf("unexpected georeferencing: %+v", parsed)
	}
}

func TestWriteAAIGridRejectsShortData(t *testing.T) {
	err := WriteAAIGrid(&bytes.Buffer{}, Grid{Width: 2, Height: 2, Data: []float64{1}})
	if err == nil {
		t.Fatalf("expected error")
	}
}
