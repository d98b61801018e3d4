package gdal

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// ReadBand extracts one band of path into a Grid through an ASCII grid in s.
func ReadBand(ctx context.Context, s *Scratch, path string, band int) (Grid, error) {
	asc := s.TempFile("band"+strconv.Itoa(band), ".asc")
	if err := BandToAAIGrid(ctx, path, band, asc); err != nil {
		return Grid{}, err
	}

	f, err := os.Open(asc)
	if err != nil {
		return Grid{}, fmt.Errorf("open ascii grid: %w", err)
	}
	defer f.Close()

	grid, err := ParseAAIGrid(f)
	if err != nil {
		return Grid{}, fmt.Errorf("parse ascii grid %s: %w", path, err)
	}
	return grid, nil
}

// WriteOptions controls how WriteGrid encodes the GeoTIFF.
type WriteOptions struct {
	SRS             string        // assigned with -a_srs when set
	GeoTransform    *GeoTransform // overrides the grid origin with -a_ullr
	OutputType      string        // GDAL type name, empty keeps Float64
	NoData          *float64      // overrides the grid nodata
	CreationOptions []string      // -co values, e.g. COMPRESS=LZW
}

// WriteGrid writes g to a GeoTIFF at out.
func WriteGrid(ctx context.Context, s *Scratch, g Grid, out string, opts WriteOptions) error {
	asc := s.TempFile("grid", ".asc")
	f, err := os.Create(asc)
	if err != nil {
		return fmt.Errorf("create ascii grid: %w", err)
	}
	if err := WriteAAIGrid(f, g); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ascii grid: %w", err)
	}

	topts := TranslateOptions{
		Format:          "GTiff",
		OutputType:      opts.OutputType,
		SRS:             opts.SRS,
		NoData:          opts.NoData,
		CreationOptions: opts.CreationOptions,
	}
	if opts.GeoTransform != nil {
		b := opts.GeoTransform.Bounds(g.Width, g.Height)
		topts.ULLR = &[4]float64{b[0], b[3], b[2], b[1]}
	}
	if topts.NoData == nil && g.HasNoData {
		nd := g.NoData
		topts.NoData = &nd
	}

	if err := removeIfExists(out); err != nil {
		return err
	}
	return Translate(ctx, asc, out, topts)
}
