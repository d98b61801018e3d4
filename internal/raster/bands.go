package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"opengeo/internal/gdal"
)

// DropResult describes one DropBand call.
type DropResult struct {
	Input   string
	Output  string
	Skipped bool // the raster had fewer bands than the one to drop
}

// DropBand writes <stem>_modified.tif next to path without band n.
func DropBand(ctx context.Context, path string, n int) (DropResult, error) {
	res := DropResult{Input: path}
	if n < 1 {
		return res, fmt.Errorf("band %d: %w", n, ErrBandOutOfRange)
	}
	if err := requireFile(path); err != nil {
		return res, err
	}

	info, err := gdal.GetInfo(ctx, path)
	if err != nil {
		return res, err
	}
	if info.BandCount() < n {
		res.Skipped = true
		return res, nil
	}

	keep := make([]int, 0, info.BandCount()-1)
	for b := 1; b <= info.BandCount(); b++ {
		if b != n {
			keep = append(keep, b)
		}
	}

	res.Output = strings.TrimSuffix(path, filepath.Ext(path)) + "_modified.tif"
	if err := os.Remove(res.Output); err != nil && !os.IsNotExist(err) {
		return res, fmt.Errorf("remove output: %w", err)
	}
	err = gdal.Translate(ctx, path, res.Output, gdal.TranslateOptions{
		Format: "GTiff",
		Bands:  keep,
	})
	return res, err
}

// DropBandInDir applies DropBand to every .tif directly inside dir. Outputs
// of earlier runs are not processed again.
func DropBandInDir(ctx context.Context, dir string, n int) ([]DropResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var results []DropResult
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".tif") || strings.HasSuffix(name, "_modified.tif") {
			continue
		}
		res, err := DropBand(ctx, filepath.Join(dir, name), n)
		if err != nil {
			return results, fmt.Errorf("drop band %d from %s: %w", n, name, err)
		}
		results = append(results, res)
	}
	return results, nil
}
