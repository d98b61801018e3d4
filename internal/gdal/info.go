package gdal

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RasterInfo describes raster metadata from gdalinfo.
type RasterInfo struct {
	Path         string
	Driver       string
	Width        int
	Height       int
	GeoTransform GeoTransform
	SRS          string // WKT, empty when the raster is not georeferenced
	EPSG         int    // 0 when no EPSG authority could be found
	WGS84BBox    *[4]float64
	Bands        []BandInfo
}

// BandInfo describes a single band.
type BandInfo struct {
	Index  int
	Type   string
	Block  [2]int
	NoData *float64
	Min    *float64
	Max    *float64
	Mean   *float64
	StdDev *float64
}

// InfoOptions selects the optional statistics gdalinfo computes.
type InfoOptions struct {
	MinMax      bool // exact min/max (-mm)
	Stats       bool // full statistics (-stats)
	ApproxStats bool // approximate statistics (-approx_stats)
}

// BandCount returns the number of bands.
func (ri RasterInfo) BandCount() int {
	return len(ri.Bands)
}

// Resolution returns the pixel size in map units, positive for north-up rasters.
func (ri RasterInfo) Resolution() (xres, yres float64) {
	return ri.GeoTransform[1], -ri.GeoTransform[5]
}

// Bounds returns (xmin, ymin, xmax, ymax) from the four raster corners.
func (ri RasterInfo) Bounds() [4]float64 {
	return ri.GeoTransform.Bounds(ri.Width, ri.Height)
}

// SRSArg returns the SRS in a form GDAL tools accept on the command line.
func (ri RasterInfo) SRSArg() string {
	if ri.EPSG > 0 {
		return fmt.Sprintf("EPSG:%d", ri.EPSG)
	}
	return ri.SRS
}

// SameSRS reports whether both rasters use the same coordinate system.
func (ri RasterInfo) SameSRS(other RasterInfo) bool {
	if ri.EPSG > 0 && other.EPSG > 0 {
		return ri.EPSG == other.EPSG
	}
	return normalizeWKT(ri.SRS) == normalizeWKT(other.SRS)
}

// SameGrid reports whether both rasters share size and geotransform.
func (ri RasterInfo) SameGrid(other RasterInfo) bool {
	if ri.Width != other.Width || ri.Height != other.Height {
		return false
	}
	for i := range ri.GeoTransform {
		if !nearlyEqual(ri.GeoTransform[i], other.GeoTransform[i]) {
			return false
		}
	}
	return true
}

// GetInfo runs gdalinfo and extracts raster size, geotransform, SRS and bands.
func GetInfo(ctx context.Context, path string) (RasterInfo, error) {
	return GetInfoWithOptions(ctx, path, InfoOptions{})
}

// GetInfoWithOptions runs gdalinfo with the requested statistics.
func GetInfoWithOptions(ctx context.Context, path string, opts InfoOptions) (RasterInfo, error) {
	args := []string{"-json"}
	if opts.MinMax {
		args = append(args, "-mm")
	}
	if opts.Stats {
		args = append(args, "-stats")
	}
	if opts.ApproxStats {
		args = append(args, "-approx_stats")
	}
	args = append(args, path)

	stdout, _, err := Run(ctx, "gdalinfo", args...)
	if err != nil {
		return RasterInfo{}, fmt.Errorf("gdalinfo: %w", err)
	}

	info, err := parseInfo([]byte(stdout))
	if err != nil {
		return RasterInfo{}, err
	}
	info.Path = path
	return info, nil
}

type infoPayload struct {
	Driver           string    `json:"driverShortName"`
	Size             []int     `json:"size"`
	GeoTransform     []float64 `json:"geoTransform"`
	CoordinateSystem *struct {
		WKT string `json:"wkt"`
	} `json:"coordinateSystem"`
	Stac *struct {
		EPSG *int `json:"proj:epsg"`
	} `json:"stac"`
	WGS84Extent *struct {
		Type        string        `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	} `json:"wgs84Extent"`
	Bands []struct {
		Band        int             `json:"band"`
		Block       []int           `json:"block"`
		Type        string          `json:"type"`
		NoDataValue json.RawMessage `json:"noDataValue"`
		ComputedMin *float64        `json:"computedMin"`
		ComputedMax *float64        `json:"computedMax"`
		Minimum     *float64        `json:"minimum"`
		Maximum     *float64        `json:"maximum"`
		Mean        *float64        `json:"mean"`
		StdDev      *float64        `json:"stdDev"`
	} `json:"bands"`
}

func parseInfo(data []byte) (RasterInfo, error) {
	var payload infoPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return RasterInfo{}, fmt.Errorf("parse gdalinfo json: %w", err)
	}

	if len(payload.Size) != 2 {
		return RasterInfo{}, fmt.Errorf("unexpected gdalinfo size length: %d", len(payload.Size))
	}

	info := RasterInfo{
		Driver: payload.Driver,
		Width:  payload.Size[0],
		Height: payload.Size[1],
	}

	switch len(payload.GeoTransform) {
	case 0:
		// gdalinfo omits the transform for non-georeferenced rasters
		info.GeoTransform = GeoTransform{0, 1, 0, 0, 0, 1}
	case 6:
		copy(info.GeoTransform[:], payload.GeoTransform)
	default:
		return RasterInfo{}, fmt.Errorf("unexpected gdalinfo geotransform length: %d", len(payload.GeoTransform))
	}

	if payload.CoordinateSystem != nil {
		info.SRS = payload.CoordinateSystem.WKT
	}
	if payload.Stac != nil && payload.Stac.EPSG != nil {
		info.EPSG = *payload.Stac.EPSG
	} else {
		info.EPSG = epsgFromWKT(info.SRS)
	}

	if payload.WGS84Extent != nil {
		bbox := wgs84BBoxFromExtent(payload.WGS84Extent.Coordinates)
		if bbox != nil {
			info.WGS84BBox = bbox
		}
	}

	for i, b := range payload.Bands {
		band := BandInfo{
			Index:  b.Band,
			Type:   b.Type,
			Mean:   b.Mean,
			StdDev: b.StdDev,
		}
		if band.Index == 0 {
			band.Index = i + 1
		}
		if len(b.Block) == 2 {
			band.Block = [2]int{b.Block[0], b.Block[1]}
		}
		nodata, err := parseNoData(b.NoDataValue)
		if err != nil {
			return RasterInfo{}, fmt.Errorf("band %d: %w", band.Index, err)
		}
		band.NoData = nodata

		band.Min, band.Max = b.ComputedMin, b.ComputedMax
		if band.Min == nil {
			band.Min = b.Minimum
		}
		if band.Max == nil {
			band.Max = b.Maximum
		}
		info.Bands = append(info.Bands, band)
	}

	return info, nil
}

// parseNoData accepts a JSON number or the strings gdalinfo uses for
// non-finite values.
func parseNoData(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return &number, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, fmt.Errorf("parse noDataValue %s: %w", string(raw), err)
	}
	switch strings.ToLower(text) {
	case "nan":
		v := math.NaN()
		return &v, nil
	case "inf", "infinity":
		v := math.Inf(1)
		return &v, nil
	case "-inf", "-infinity":
		v := math.Inf(-1)
		return &v, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("parse noDataValue %q: %w", text, err)
	}
	return &v, nil
}

var (
	wkt2IDPattern = regexp.MustCompile(`ID\["EPSG",\s*(\d+)\]`)
	wkt1IDPattern = regexp.MustCompile(`AUTHORITY\["EPSG",\s*"(\d+)"\]`)
)

// epsgFromWKT returns the code of the outermost EPSG authority, which WKT
// places last.
func epsgFromWKT(wkt string) int {
	for _, pattern := range []*regexp.Regexp{wkt2IDPattern, wkt1IDPattern} {
		matches := pattern.FindAllStringSubmatch(wkt, -1)
		if len(matches) == 0 {
			continue
		}
		code, err := strconv.Atoi(matches[len(matches)-1][1])
		if err == nil {
			return code
		}
	}
	return 0
}

func normalizeWKT(wkt string) string {
	return strings.Join(strings.Fields(wkt), "")
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func wgs84BBoxFromExtent(coords [][][]float64) *[4]float64 {
	if len(coords) == 0 || len(coords[0]) == 0 || len(coords[0][0]) < 2 {
		return nil
	}

	minLon, maxLon := coords[0][0][0], coords[0][0][0]
	minLat, maxLat := coords[0][0][1], coords[0][0][1]

	for _, ring := range coords {
		minLon, minLat, maxLon, maxLat = updateBBoxFromRing(ring, minLon, minLat, maxLon, maxLat)
	}

	return &[4]float64{minLon, minLat, maxLon, maxLat}
}

func updateBBoxFromRing(ring [][]float64, minLon, minLat, maxLon, maxLat float64) (float64, float64, float64, float64) {
	for _, pt := range ring {
		if len(pt) < 2 {
			continue
		}

		minLon = math.Min(minLon, pt[0])
		maxLon = math.Max(maxLon, pt[0])
		minLat = math.Min(minLat, pt[1])
		maxLat = math.Max(maxLat, pt[1])
	}

	return minLon, minLat, maxLon, maxLat
}
