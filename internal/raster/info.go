package raster

import (
	"context"
	"fmt"

	"opengeo/internal/gdal"
)

// Description is the summary printed by `raster info`.
type Description struct {
	Path      string
	SRS       string
	EPSG      int
	XRes      float64
	YRes      float64
	Bounds    [4]float64 // xmin ymin xmax ymax
	Width     int
	Height    int
	NoData    *float64
	DataType  string
	BitDepth  int
	BitMin    float64
	BitMax    float64
	BandCount int
}

// Describe collects SRS, resolution, bounds, size, nodata, data type and
// band count. The type and nodata come from the first band.
func Describe(ctx context.Context, path string) (Description, error) {
	if err := requireFile(path); err != nil {
		return Description{}, err
	}
	info, err := gdal.GetInfo(ctx, path)
	if err != nil {
		return Description{}, err
	}
	if info.BandCount() == 0 {
		return Description{}, fmt.Errorf("%s: raster has no bands", path)
	}

	xres, yres := info.Resolution()
	band := info.Bands[0]
	d := Description{
		Path:      path,
		SRS:       info.SRS,
		EPSG:      info.EPSG,
		XRes:      xres,
		YRes:      yres,
		Bounds:    info.Bounds(),
		Width:     info.Width,
		Height:    info.Height,
		NoData:    band.NoData,
		DataType:  band.Type,
		BandCount: info.BandCount(),
	}

	dt, err := gdal.LookupDataType(band.Type)
	if err != nil {
		return Description{}, err
	}
	d.BitDepth, d.BitMin, d.BitMax = dt.BitDepth, dt.Min, dt.Max
	return d, nil
}

// BandRange is the min and max of one band.
type BandRange struct {
	Band int
	Min  float64
	Max  float64
}

// BandMinMax returns per-band min and max. exact forces a full scan (-mm);
// otherwise gdalinfo -stats is used.
func BandMinMax(ctx context.Context, path string, exact bool) ([]BandRange, error) {
	if err := requireFile(path); err != nil {
		return nil, err
	}
	opts := gdal.InfoOptions{Stats: !exact, MinMax: exact}
	info, err := gdal.GetInfoWithOptions(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return bandRanges(info)
}

func bandRanges(info gdal.RasterInfo) ([]BandRange, error) {
	ranges := make([]BandRange, 0, info.BandCount())
	for _, b := range info.Bands {
		if b.Min == nil || b.Max == nil {
			return nil, fmt.Errorf("band %d: gdalinfo reported no min/max", b.Index)
		}
		ranges = append(ranges, BandRange{Band: b.Index, Min: *b.Min, Max: *b.Max})
	}
	return ranges, nil
}
