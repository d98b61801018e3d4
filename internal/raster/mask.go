package raster

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"opengeo/internal/gdal"
	"opengeo/internal/gridstat"
	"opengeo/internal/logging"
)

// MaskCase identifies how invalid pixels were recognised.
type MaskCase int

const (
	// MaskNoData: a band value equals the declared nodata.
	MaskNoData MaskCase = 1
	// MaskAlphaBand: no nodata and band 4 holds the type minimum.
	MaskAlphaBand MaskCase = 2
	// MaskTypeExtremes: no nodata, fewer than 4 bands, and every band holds
	// the type minimum or maximum.
	MaskTypeExtremes MaskCase = 3
)

func (c MaskCase) String() string {
	switch c {
	case MaskNoData:
		return "Case 1: nodata"
	case MaskAlphaBand:
		return "Case 2: band 4"
	case MaskTypeExtremes:
		return "Case 3: type min/max"
	default:
		return fmt.Sprintf("MaskCase(%d)", int(c))
	}
}

// MaskResult reports what CreateMask did.
type MaskResult struct {
	Input  string
	Output string
	Case   MaskCase
	// NoData is the declared nodata for Case 1 and the type minimum otherwise.
	NoData   float64
	DataType string
	BitMin   float64
	BitMax   float64
	Regions  int
}

// PossibleNoData describes the value used to decide validity, for logs.
func (r MaskResult) PossibleNoData() string {
	switch r.Case {
	case MaskNoData, MaskAlphaBand:
		return strconvFloat(r.NoData)
	default:
		return strconvFloat(r.BitMin) + "/" + strconvFloat(r.BitMax)
	}
}

// MaskPath is the default mask location: <stem>_mask.tif next to path.
func MaskPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_mask.tif"
}

// CreateMask writes a Byte raster holding 1 for valid pixels and 0 (nodata)
// elsewhere. out defaults to MaskPath(in).
func CreateMask(ctx context.Context, in, out string) (MaskResult, error) {
	if out == "" {
		out = MaskPath(in)
	}
	res := MaskResult{Input: in, Output: out}
	if err := requireFile(in); err != nil {
		return res, err
	}

	info, err := gdal.GetInfo(ctx, in)
	if err != nil {
		return res, err
	}
	if info.BandCount() == 0 {
		return res, fmt.Errorf("%s: raster has no bands", in)
	}
	dt, err := gdal.LookupDataType(info.Bands[0].Type)
	if err != nil {
		return res, err
	}
	res.DataType, res.BitMin, res.BitMax = dt.Name, dt.Min, dt.Max

	err = withScratch(ctx, func(s *gdal.Scratch) error {
		bands := make([]gdal.Grid, info.BandCount())
		for i := range bands {
			g, err := gdal.ReadBand(ctx, s, in, i+1)
			if err != nil {
				return err
			}
			bands[i] = g
		}

		mask, c := computeMask(bands, info.Bands[0].NoData, dt)
		res.Case = c
		res.NoData = dt.Min
		if c == MaskNoData {
			res.NoData = *info.Bands[0].NoData
		}
		res.Regions = len(gridstat.Components(mask, func(v float64) bool { return v == 1 }, 1))

		return writeLike(ctx, s, mask, info, out, "Byte", float64Ptr(0), lzwTiled)
	})
	if err != nil {
		return res, fmt.Errorf("create mask for %s: %w", in, err)
	}

	logging.FromContext(ctx).Info("mask created",
		zap.String("output", out),
		zap.Stringer("case", res.Case),
		zap.Int("regions", res.Regions))
	return res, nil
}

func computeMask(bands []gdal.Grid, nodata *float64, dt gdal.DataType) (gdal.Grid, MaskCase) {
	c := MaskTypeExtremes
	switch {
	case nodata != nil:
		c = MaskNoData
	case len(bands) >= 4:
		c = MaskAlphaBand
	}

	mask := gdal.NewGrid(bands[0], 1)
	mask.NoData, mask.HasNoData = 0, true

	for i := range mask.Data {
		var invalid bool
		switch c {
		case MaskNoData:
			invalid = anyBandEquals(bands, i, *nodata, dt.Float)
		case MaskAlphaBand:
			invalid = bands[3].Data[i] == dt.Min
		case MaskTypeExtremes:
			invalid = allBandsAtExtremes(bands, i, dt.Min, dt.Max)
		}
		if invalid {
			mask.Data[i] = 0
		}
	}
	return mask, c
}

func anyBandEquals(bands []gdal.Grid, i int, nodata float64, float bool) bool {
	for _, b := range bands {
		v := b.Data[i]
		if math.IsNaN(nodata) {
			if math.IsNaN(v) {
				return true
			}
			continue
		}
		if float {
			if isClose(v, nodata) {
				return true
			}
		} else if v == nodata {
			return true
		}
	}
	return false
}

func allBandsAtExtremes(bands []gdal.Grid, i int, lo, hi float64) bool {
	for _, b := range bands {
		v := b.Data[i]
		if v != lo && v != hi {
			return false
		}
	}
	return true
}

// isClose matches numpy.isclose with its default tolerances.
func isClose(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}
