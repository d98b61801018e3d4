package raster

import (
	"context"
	"fmt"
	"math"

	"opengeo/internal/gdal"
)

const clipNoData = -9999.0

// ClipResult reports the nodata and type MaskWithPolygon used.
type ClipResult struct {
	NoData     float64
	OutputType string
}

// MaskWithPolygon sets the cells of raster outside the polygons to nodata,
// keeping extent and resolution. Without a declared nodata -9999 is used and
// the type is promoted so it can hold it. Polygons in another CRS are
// reprojected by gdalwarp.
func MaskWithPolygon(ctx context.Context, raster, polygons, out string) (ClipResult, error) {
	if err := requireFile(raster); err != nil {
		return ClipResult{}, err
	}
	if err := requireFile(polygons); err != nil {
		return ClipResult{}, fmt.Errorf("polygons: %w", err)
	}

	info, err := gdal.GetInfo(ctx, raster)
	if err != nil {
		return ClipResult{}, err
	}
	if info.BandCount() == 0 {
		return ClipResult{}, fmt.Errorf("%s: raster has no bands", raster)
	}

	band := info.Bands[0]
	res := ClipResult{NoData: clipNoData, OutputType: band.Type}
	if band.NoData != nil {
		res.NoData = *band.NoData
	} else {
		res.OutputType, err = promoteForNoData(band.Type)
		if err != nil {
			return ClipResult{}, err
		}
	}

	xres, yres := info.Resolution()
	bounds := info.Bounds()
	err = gdal.Warp(ctx, raster, out, gdal.WarpOptions{
		TargetExtent:    &bounds,
		XRes:            math.Abs(xres),
		YRes:            math.Abs(yres),
		Cutline:         polygons,
		DstNoData:       float64Ptr(res.NoData),
		OutputType:      res.OutputType,
		CreationOptions: lzw,
		Overwrite:       true,
	})
	if err != nil {
		return ClipResult{}, fmt.Errorf("mask %s with %s: %w", raster, polygons, err)
	}
	return res, nil
}

// promoteForNoData returns a type able to hold -9999: unsigned integers
// widen to the next signed type and floats become Float32.
func promoteForNoData(gdalType string) (string, error) {
	dt, err := gdal.LookupDataType(gdalType)
	if err != nil {
		return "", err
	}
	switch {
	case dt.Float:
		return "Float32", nil
	case dt.Signed:
		return dt.Name, nil
	}
	switch dt.BitDepth {
	case 8:
		return "Int16", nil
	case 16:
		return "Int32", nil
	case 32:
		return "Int64", nil
	default:
		return "", fmt.Errorf("unsupported unsigned integer bit size: %d", dt.BitDepth)
	}
}
