package gdal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBandToAAIGridRunsTranslate(t *testing.T) {
	useLocalGDAL(t)

	ctx := context.Background()
	tempDir := t.TempDir()
	fake := filepath.Join(tempDir, "gdal_translate")
	writeScript(t, fake, "#!/bin/sh\n"+
		"if [ \"$1\" != \"-of\" ] || [ \"$2\" != \"AAIGrid\" ]; then\n"+
		"  echo \"bad args\" 1>&2\n"+
		"  exit 3\n"+
		"fi\n"+
		"echo input=$3 output=$4 > \"$4\"\n")

	prependPath(t, tempDir)

	inputPath := filepath.Join(tempDir, "input.tif")
	outputPath := filepath.Join(tempDir, "output.asc")
	if err := os.WriteFile(inputPath, []byte("data"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := os.WriteFile(outputPath, []byte("old"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	if err := BandToAAIGrid(ctx, inputPath, 1, outputPath); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(content), "input="+inputPath) {
		t.Fatalf("unexpected output content: %q", string(content))
	}
}

func TestBandToAAIGridReturnsError(t *testing.T) {
	useLocalGDAL(t)

	ctx := context.Background()
	tempDir := t.TempDir()
	fake := filepath.Join(tempDir, "gdal_translate")
	writeScript(t, fake, "#!/bin/sh\n"+
		"echo nope 1>&2\n"+
		"exit 2\n")

	prependPath(t, tempDir)

	err := BandToAAIGrid(ctx, "/tmp/input.tif", 1, filepath.Join(tempDir, "output.asc"))
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "gdal_translate") {
		t.Fatalf("expected gdal_translate error, got %v", err)
	}
}

func TestBandToAAIGridSelectsBand(t *testing.T) {
	useLocalGDAL(t)

	tempDir := t.TempDir()
	argsFile := fakeTool(t, tempDir, "gdal_translate", "exit 0")
	prependPath(t, tempDir)

	out := filepath.Join(tempDir, "b3.asc")
	if err := BandToAAIGrid(context.Background(), "in.tif", 3, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	args := readArgs(t, argsFile)
	if !containsSeq(args, "-of", "AAIGrid", "-b", "3", "in.tif", out) {
		t.Fatalf("unexpected args: %q", args)
	}
}

func TestBandToAAIGridRejectsBandZero(t *testing.T) {
	if err := BandToAAIGrid(context.Background(), "in.tif", 0, "out.asc"); err == nil {
		t.Fatalf("expected error for band 0")
	}
}
