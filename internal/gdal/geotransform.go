package gdal

import (
	"fmt"
	"math"
)

// GeoTransform is a GDAL-style affine transform:
// x = gt[0] + col*gt[1] + row*gt[2], y = gt[3] + col*gt[4] + row*gt[5].
type GeoTransform [6]float64

// PixelToGeo converts pixel coordinates to map coordinates.
func (gt GeoTransform) PixelToGeo(px, py float64) (x, y float64) {
	x = gt[0] + px*gt[1] + py*gt[2]
	y = gt[3] + px*gt[4] + py*gt[5]
	return x, y
}

// GeoToPixel converts map coordinates to fractional pixel coordinates.
func (gt GeoTransform) GeoToPixel(x, y float64) (px, py float64, err error) {
	det := gt[1]*gt[5] - gt[2]*gt[4]
	if det == 0 {
		return 0, 0, fmt.Errorf("geotransform is not invertible")
	}

	dx := x - gt[0]
	dy := y - gt[3]
	px = (gt[5]*dx - gt[2]*dy) / det
	py = (gt[1]*dy - gt[4]*dx) / det
	return px, py, nil
}

// Bounds returns (xmin, ymin, xmax, ymax) covering a width×height raster.
func (gt GeoTransform) Bounds(width, height int) [4]float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	corners := [][2]float64{
		{0, 0},
		{float64(width), 0},
		{0, float64(height)},
		{float64(width), float64(height)},
	}
	for _, corner := range corners {
		x, y := gt.PixelToGeo(corner[0], corner[1])
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}

	return [4]float64{minX, minY, maxX, maxY}
}

// IsNorthUp reports whether the transform has no rotation terms.
func (gt GeoTransform) IsNorthUp() bool {
	return gt[2] == 0 && gt[4] == 0
}
