package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"opengeo/internal/batch"
	"opengeo/internal/fsutil"
	"opengeo/internal/gdal"
)

var overviewFactors = []int{2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}

// PyramidPath is <stem>_InterPyrd.tif next to path.
func PyramidPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_InterPyrd.tif"
}

// BuildInternalPyramids copies path to a DEFLATE BigTIFF and adds nearest
// overviews with LZW compression. It returns the output path.
func BuildInternalPyramids(ctx context.Context, path string) (string, error) {
	if err := requireFile(path); err != nil {
		return "", err
	}
	info, err := gdal.GetInfo(ctx, path)
	if err != nil {
		return "", err
	}

	out := PyramidPath(path)
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("remove output: %w", err)
	}
	if err := gdal.Translate(ctx, path, out, gdal.TranslateOptions{
		Format:          "GTiff",
		CreationOptions: []string{"COMPRESS=DEFLATE", "BIGTIFF=YES"},
	}); err != nil {
		return "", err
	}

	levels := overviewLevels(info.Width, info.Height)
	if len(levels) == 0 {
		return out, nil
	}
	if err := gdal.BuildOverviews(ctx, out, "nearest", levels); err != nil {
		return "", err
	}
	return out, nil
}

// overviewLevels keeps the factors that still leave at least one pixel.
func overviewLevels(width, height int) []int {
	largest := max(width, height)
	var levels []int
	for _, f := range overviewFactors {
		if f > largest {
			break
		}
		levels = append(levels, f)
	}
	return levels
}

// PyramidsDir builds internal pyramids for every file with extension ext
// under dir.
func PyramidsDir(ctx context.Context, dir, ext string, recursive bool, workers int) ([]batch.Result[string], error) {
	files, err := fsutil.FindFilesByExtension(dir, ext, recursive)
	if err != nil {
		return nil, fmt.Errorf("find rasters: %w", err)
	}

	var inputs []string
	for _, f := range files {
		if !strings.HasSuffix(strings.TrimSuffix(f, filepath.Ext(f)), "_InterPyrd") {
			inputs = append(inputs, f)
		}
	}

	return batch.Run(ctx, inputs, workers, func(ctx context.Context, path string) error {
		_, err := BuildInternalPyramids(ctx, path)
		return err
	}), nil
}
