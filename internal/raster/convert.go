package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"opengeo/internal/batch"
	"opengeo/internal/fsutil"
	"opengeo/internal/gdal"
	"opengeo/internal/logging"
)

// ConvertTo8Bit stretches each band linearly from its exact min..max to
// 0..255 and writes an LZW BigTIFF. Constant bands become all zeros.
func ConvertTo8Bit(ctx context.Context, in, out string) error {
	if err := requireFile(in); err != nil {
		return err
	}
	info, err := gdal.GetInfoWithOptions(ctx, in, gdal.InfoOptions{MinMax: true})
	if err != nil {
		return err
	}
	ranges, err := bandRanges(info)
	if err != nil {
		return err
	}

	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove output: %w", err)
	}
	if err := gdal.Translate(ctx, in, out, gdal.TranslateOptions{
		Format:          "GTiff",
		OutputType:      "Byte",
		Scales:          eightBitScales(ranges),
		CreationOptions: lzwBig,
	}); err != nil {
		return fmt.Errorf("convert %s to 8-bit: %w", in, err)
	}
	return nil
}

func eightBitScales(ranges []BandRange) []gdal.Scale {
	scales := make([]gdal.Scale, len(ranges))
	for i, r := range ranges {
		if r.Max == r.Min {
			// every pixel maps to the bottom of a 0..0 range
			scales[i] = gdal.Scale{SrcMin: r.Min, SrcMax: r.Min + 1, DstMin: 0, DstMax: 0}
			continue
		}
		scales[i] = gdal.Scale{SrcMin: r.Min, SrcMax: r.Max, DstMin: 0, DstMax: 255}
	}
	return scales
}

// EightBitName names the converted copy of path:
// <parent dir name>_<file stem>_8bit<ext>.
func EightBitName(path string) string {
	parent := filepath.Base(filepath.Dir(path))
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return fmt.Sprintf("%s_%s_8bit%s", parent, stem, ext)
}

// ConvertDirTo8Bit converts every file with extension ext under inDir into
// outDir.
func ConvertDirTo8Bit(ctx context.Context, inDir, outDir, ext string, recursive bool, workers int) ([]batch.Result[string], error) {
	files, err := fsutil.FindFilesByExtension(inDir, ext, recursive)
	if err != nil {
		return nil, fmt.Errorf("find rasters: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	logger := logging.FromContext(ctx)
	return batch.Run(ctx, files, workers, func(ctx context.Context, path string) error {
		out := filepath.Join(outDir, EightBitName(path))
		logger.Info("converting to 8-bit", zap.String("input", path), zap.String("output", out))
		return ConvertTo8Bit(ctx, path, out)
	}), nil
}
