package gdal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestScratch(t *testing.T) *Scratch {
	t.Helper()
	if err := Initialize(context.Background(), Options{Mode: "local", TempDir: t.TempDir()}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(Shutdown)

	s, err := NewScratch()
	if err != nil {
		t.Fatalf("new scratch: %v", err)
	}
	t.Cleanup(func() { _ = s.Cleanup() })
	return s
}

func TestScratchLifecycle(t *testing.T) {
	s := newTestScratch(t)

	info, err := os.Stat(s.Dir())
	if err != nil || !info.IsDir() {
		t.Fatalf("expected scratch dir to exist: %v", err)
	}
	a, b := s.TempFile("x", ".asc"), s.TempFile("x", ".asc")
	if a == b {
		t.Fatalf("expected distinct temp files, got %q twice", a)
	}
	if filepath.Dir(a) != s.Dir() || !strings.HasSuffix(a, ".asc") {
		t.Fatalf("unexpected temp file: %q", a)
	}

	if err := s.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(s.Dir()); !os.IsNotExist(err) {
		t.Fatalf("expected scratch dir to be removed, got %v", err)
	}
}

func TestReadBandParsesTranslatedGrid(t *testing.T) {
	useLocalGDAL(t)
	s := newTestScratch(t)

	tempDir := t.TempDir()
	argsFile := fakeTool(t, tempDir, "gdal_translate", `for a; do last=$a; done
cat > "$last" <<'EOF'
ncols 2
nrows 1
xllcorner 10
yllcorner 20
cellsize 5
NODATA_value 0
7 0
EOF`)
	prependPath(t, tempDir)

	grid, err := ReadBand(context.Background(), s, "in.tif", 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if grid.Width != 2 || grid.Height != 1 || grid.Data[0] != 7 || !grid.IsNoData(grid.Data[1]) {
		t.Fatalf("unexpected grid: %+v", grid)
	}
	if !containsSeq(readArgs(t, argsFile), "-b", "2", "in.tif") {
		t.Fatalf("unexpected args: %q", readArgs(t, argsFile))
	}
}

func TestWriteGridPassesGeoreferencing(t *testing.T) {
	useLocalGDAL(t)
	s := newTestScratch(t)

	tempDir := t.TempDir()
	argsFile := fakeTool(t, tempDir, "gdal_translate", `for a; do prev=$last; last=$a; done
cp "$prev" "$last"`)
	prependPath(t, tempDir)

	grid := Grid{Width: 2, Height: 1, CellSizeX: 1, CellSizeY: 1, NoData: -1, HasNoData: true, Data: []float64{1, 2}}
	gt := GeoTransform{100, 10, 0, 50, 0, -10}
	out := filepath.Join(tempDir, "out.tif")

	err := WriteGrid(context.Background(), s, grid, out, WriteOptions{
		SRS:             "EPSG:32633",
		GeoTransform:    &gt,
		OutputType:      "Float32",
		CreationOptions: []string{"COMPRESS=LZW"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	args := readArgs(t, argsFile)
	for _, seq := range [][]string{
		{"-of", "GTiff"},
		{"-ot", "Float32"},
		{"-a_srs", "EPSG:32633"},
		{"-a_ullr", "100", "50", "120", "40"},
		{"-a_nodata", "-1"},
		{"-co", "COMPRESS=LZW"},
	} {
		if !containsSeq(args, seq...) {
			t.Fatalf("missing %q in %q", seq, args)
		}
	}

	content, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(content), "ncols 2") {
		t.Fatalf("expected ascii grid to be handed to gdal_translate: %q", content)
	}
}
