package raster

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"opengeo/internal/batch"
	"opengeo/internal/fsutil"
	"opengeo/internal/logging"
	"opengeo/internal/vector"
)

// FootprintResult reports one footprint run.
type FootprintResult struct {
	Mask      MaskResult
	Footprint string
	MaskKept  bool
}

// FootprintPath resolves the footprint destination: empty means
// <stem>_footprint.gpkg next to the raster, a directory means that file
// inside it.
func FootprintPath(raster, out string) string {
	stem := strings.TrimSuffix(filepath.Base(raster), filepath.Ext(raster))
	if out == "" {
		return filepath.Join(filepath.Dir(raster), stem+"_footprint.gpkg")
	}
	if fi, err := os.Stat(out); err == nil && fi.IsDir() {
		return filepath.Join(out, stem+"_footprint.gpkg")
	}
	return out
}

// Footprint builds the valid-data mask of raster and polygonizes its value-1
// cells into out (.shp or .gpkg). The intermediate mask sits next to the
// footprint and is removed unless keepMask is set.
func Footprint(ctx context.Context, raster, out string, keepMask bool) (FootprintResult, error) {
	out = FootprintPath(raster, out)
	res := FootprintResult{Footprint: out, MaskKept: keepMask}

	if _, err := vector.DriverForPath(out); err != nil {
		return res, err
	}

	maskPath := strings.TrimSuffix(out, filepath.Ext(out)) + "_mask.tif"
	m, err := CreateMask(ctx, raster, maskPath)
	res.Mask = m
	if err != nil {
		return res, err
	}

	if err := vector.Polygonize(ctx, maskPath, out); err != nil {
		return res, fmt.Errorf("polygonize %s: %w", maskPath, err)
	}

	if !keepMask {
		if err := os.Remove(maskPath); err != nil {
			logging.FromContext(ctx).Warn("could not delete mask raster",
				zap.String("mask", maskPath), zap.Error(err))
		}
	}
	return res, nil
}

// FootprintLogRow is one line of the batch footprint CSV log.
type FootprintLogRow struct {
	RasterPath string
	Status     string
	Case       string
	NoData     string
	Detail     string // footprint path or error message
}

// FootprintDirOptions configures FootprintDir.
type FootprintDirOptions struct {
	Wildcard string // e.g. "*.tif", matched as a case-insensitive suffix
	LogName  string
	KeepMask bool
	Workers  int
}

// FootprintDir creates <name>_footprint.shp in outDir for every raster under
// inDir (recursively) and writes a CSV log. A failing raster is logged and
// does not stop the batch.
func FootprintDir(ctx context.Context, inDir, outDir string, opts FootprintDirOptions) ([]FootprintLogRow, error) {
	if opts.Wildcard == "" {
		opts.Wildcard = "*.tif"
	}
	if opts.LogName == "" {
		opts.LogName = "footprint_log.csv"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	suffix := strings.ReplaceAll(opts.Wildcard, "*", "")
	files, err := fsutil.FindFilesBySuffix(inDir, suffix, true)
	if err != nil {
		return nil, fmt.Errorf("find rasters: %w", err)
	}

	rows := make([]FootprintLogRow, len(files))
	index := make(map[string]int, len(files))
	for i, f := range files {
		index[f] = i
	}
	outputs := footprintOutputs(inDir, outDir, files)

	results := batch.Run(ctx, files, opts.Workers, func(ctx context.Context, path string) error {
		out := outputs[index[path]]
		res, err := Footprint(ctx, path, out, opts.KeepMask)
		row := FootprintLogRow{RasterPath: path, Status: "Success", Detail: res.Footprint}
		if res.Mask.Case != 0 {
			row.Case = res.Mask.Case.String()
			row.NoData = res.Mask.PossibleNoData()
		}
		if err != nil {
			row.Status = "Failed"
			row.Detail = err.Error()
		}
		rows[index[path]] = row
		return err
	})

	for i, r := range results {
		// items cancelled before they started never filled their row
		if rows[i].RasterPath == "" {
			rows[i] = FootprintLogRow{RasterPath: r.Item, Status: "Failed", Detail: fmt.Sprint(r.Err)}
		}
	}

	if err := writeFootprintLog(filepath.Join(outDir, opts.LogName), rows); err != nil {
		return rows, err
	}
	return rows, nil
}

// footprintOutputs names the footprint of every raster <stem>_footprint.shp.
// Rasters sharing a stem are told apart by their path below inDir
// (a/scene.tif becomes a_scene_footprint.shp), so no two workers write the
// same mask or shapefile.
func footprintOutputs(inDir, outDir string, files []string) []string {
	stems := make([]string, len(files))
	seen := make(map[string]int, len(files))
	for i, f := range files {
		stems[i] = strings.ToLower(strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)))
		seen[stems[i]]++
	}

	outputs := make([]string, len(files))
	used := make(map[string]bool, len(files))
	for i, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		if seen[stems[i]] > 1 {
			if rel, err := filepath.Rel(inDir, f); err == nil {
				rel = strings.TrimSuffix(rel, filepath.Ext(rel))
				name = strings.ReplaceAll(filepath.ToSlash(rel), "/", "_")
			}
		}
		base := name
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[strings.ToLower(name)] = true
		outputs[i] = filepath.Join(outDir, name+"_footprint.shp")
	}
	return outputs
}

func writeFootprintLog(path string, rows []FootprintLogRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	if err := writeFootprintRows(csv.NewWriter(f), rows); err != nil {
		f.Close()
		return fmt.Errorf("write log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close log: %w", err)
	}
	return nil
}

func writeFootprintRows(w *csv.Writer, rows []FootprintLogRow) error {
	if err := w.Write([]string{"RasterPath", "Status", "Case", "NoData/PossibleNoData", "FootPrintOutput/Error"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.RasterPath, r.Status, r.Case, r.NoData, r.Detail}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
