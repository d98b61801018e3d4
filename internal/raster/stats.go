package raster

import (
	"context"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"

	"opengeo/internal/gdal"
	"opengeo/internal/geojson"
	"opengeo/internal/gridstat"
)

// BandStats summarises the valid cells of one band.
type BandStats struct {
	Band   int
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Std    float64
	P2     float64
	Median float64
	P98    float64
}

// Stats computes BandStats over the cells of band that are not nodata.
func Stats(ctx context.Context, path string, band int) (BandStats, error) {
	if band < 1 {
		band = 1
	}
	if err := requireFile(path); err != nil {
		return BandStats{}, err
	}

	var st BandStats
	err := withScratch(ctx, func(s *gdal.Scratch) error {
		g, err := gdal.ReadBand(ctx, s, path, band)
		if err != nil {
			return err
		}
		st, err = gridStats(g)
		return err
	})
	st.Band = band
	return st, err
}

func gridStats(g gdal.Grid) (BandStats, error) {
	lo, hi, ok := gridstat.MinMax(g)
	if !ok {
		return BandStats{}, fmt.Errorf("band has no valid cells")
	}
	values := gridstat.Valid(g)
	st := BandStats{Count: len(values), Min: lo, Max: hi}
	st.Mean, st.Std = gridstat.GridMeanStd(g)

	var err error
	if st.P2, err = gridstat.Percentile(values, 2); err != nil {
		return BandStats{}, err
	}
	if st.P98, err = gridstat.Percentile(values, 98); err != nil {
		return BandStats{}, err
	}
	st.Median = gridstat.Median(values)
	return st, nil
}

// RegionOptions configures Regions.
type RegionOptions struct {
	Band      int
	Threshold float64
	Invert    bool // select cells at or below Threshold
	MinArea   int  // pixels
}

// Region is a 4-connected group of cells passing the threshold.
type Region struct {
	AreaPx int
	Mean   float64
	X, Y   float64 // centroid in map units
}

// Regions finds connected groups of cells at or above (or below) a
// threshold, largest first.
func Regions(ctx context.Context, path string, opts RegionOptions) ([]Region, error) {
	if opts.Band < 1 {
		opts.Band = 1
	}
	if err := requireFile(path); err != nil {
		return nil, err
	}
	info, err := gdal.GetInfo(ctx, path)
	if err != nil {
		return nil, err
	}

	var regions []Region
	err = withScratch(ctx, func(s *gdal.Scratch) error {
		g, err := gdal.ReadBand(ctx, s, path, opts.Band)
		if err != nil {
			return err
		}
		for _, c := range gridstat.Components(g, gridstat.Threshold(g, opts.Threshold, opts.Invert), opts.MinArea) {
			x, y := info.GeoTransform.PixelToGeo(c.Cx+0.5, c.Cy+0.5)
			regions = append(regions, Region{AreaPx: c.Area, Mean: c.Sum / float64(c.Area), X: x, Y: y})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].AreaPx > regions[j].AreaPx
	})
	return regions, nil
}

// WriteRegions stores region centroids as GeoJSON points.
func WriteRegions(path string, regions []Region) error {
	fc := orbjson.NewFeatureCollection()
	for _, r := range regions {
		f := orbjson.NewFeature(orb.Point{r.X, r.Y})
		f.Properties["area_px"] = r.AreaPx
		f.Properties["mean"] = r.Mean
		fc.Append(f)
	}
	return geojson.Write(path, fc)
}
