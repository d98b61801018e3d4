package gdal

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// defaultNoData is assumed when an ASCII grid declares no NODATA_value.
const defaultNoData = -9999.0

// Grid represents an ESRI ASCII grid (AAIGrid), row-major from the top row.
type Grid struct {
	Width     int
	Height    int
	NoData    float64
	HasNoData bool
	XllCorner float64
	YllCorner float64
	CellSizeX float64
	CellSizeY float64
	Data      []float64
}

// NewGrid returns a grid of the given size filled with fill, sharing the
// georeferencing of like.
func NewGrid(like Grid, fill float64) Grid {
	g := like
	g.Data = make([]float64, like.Width*like.Height)
	for i := range g.Data {
		g.Data[i] = fill
	}
	return g
}

// IsNoData reports whether v is NaN or equal to the declared nodata value.
func (g Grid) IsNoData(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	return g.HasNoData && v == g.NoData
}

// At returns the value at column x, row y.
func (g Grid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

// ParseAAIGrid reads an ESRI ASCII grid from r. Header keys may appear in any
// order; cellsize or dx/dy and corner or center origins are accepted.
func ParseAAIGrid(r io.Reader) (Grid, error) {
	reader := bufio.NewReader(r)
	fields, firstValue, err := parseHeaderFields(reader)
	if err != nil {
		return Grid{}, err
	}

	width, height, err := parseGridDimensions(fields)
	if err != nil {
		return Grid{}, err
	}

	grid := Grid{Width: width, Height: height}
	if err := parseCellSize(fields, &grid); err != nil {
		return Grid{}, err
	}
	if err := parseOrigin(fields, &grid); err != nil {
		return Grid{}, err
	}

	// nodata_value is optional, default to -9999 if not present
	nodata, hasNoData, err := parseNoDataValue(fields)
	if err != nil {
		return Grid{}, err
	}
	grid.NoData = nodata
	grid.HasNoData = hasNoData

	expected := width * height
	data, err := parseGridData(reader, firstValue, expected)
	if err != nil {
		return Grid{}, err
	}

	err = validateNoTrailingData(reader)
	if err != nil {
		return Grid{}, err
	}

	grid.Data = data
	return grid, nil
}

// parseHeaderFields reads key/value pairs until the first numeric token,
// which is returned as the first data value.
func parseHeaderFields(reader *bufio.Reader) (map[string]string, string, error) {
	fields := make(map[string]string, 7)
	for {
		token, err := scanHeaderToken(reader, "key")
		if err != nil {
			if err == io.EOF && len(fields) > 0 {
				return fields, "", nil
			}
			if err == io.EOF {
				return nil, "", fmt.Errorf("parse header: unexpected EOF")
			}
			return nil, "", err
		}

		if isNumericToken(token) {
			if len(fields) == 0 {
				return nil, "", fmt.Errorf("parse header: missing ncols")
			}
			return fields, token, nil
		}

		value, err := scanHeaderToken(reader, "value")
		if err != nil {
			if err == io.EOF {
				return nil, "", fmt.Errorf("parse header: unexpected EOF")
			}
			return nil, "", err
		}
		fields[strings.ToLower(token)] = value
	}
}

func scanHeaderToken(reader *bufio.Reader, tokenName string) (string, error) {
	var token string
	_, err := fmt.Fscan(reader, &token)
	if err == nil {
		return token, nil
	}
	if err == io.EOF {
		return "", io.EOF
	}

	return "", fmt.Errorf("parse header %s: %w", tokenName, err)
}

func isNumericToken(token string) bool {
	_, err := parseDataToken(token)
	return err == nil
}

func parseNoDataValue(fields map[string]string) (float64, bool, error) {
	value, ok := fields["nodata_value"]
	if !ok {
		return defaultNoData, false, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse header: nodata_value=%q: %w", value, err)
	}

	return parsed, true, nil
}

func parseCellSize(fields map[string]string, grid *Grid) error {
	if _, ok := fields["cellsize"]; ok {
		size, err := parseHeaderFloat(fields, "cellsize")
		if err != nil {
			return err
		}
		grid.CellSizeX, grid.CellSizeY = size, size
		return nil
	}

	dx, err := parseHeaderFloat(fields, "dx")
	if err != nil {
		return fmt.Errorf("parse header: missing cellsize")
	}
	dy, err := parseHeaderFloat(fields, "dy")
	if err != nil {
		return err
	}
	grid.CellSizeX, grid.CellSizeY = dx, dy
	return nil
}

func parseOrigin(fields map[string]string, grid *Grid) error {
	x, err := parseCornerOrCenter(fields, "xllcorner", "xllcenter", grid.CellSizeX)
	if err != nil {
		return err
	}
	y, err := parseCornerOrCenter(fields, "yllcorner", "yllcenter", grid.CellSizeY)
	if err != nil {
		return err
	}
	grid.XllCorner, grid.YllCorner = x, y
	return nil
}

func parseCornerOrCenter(fields map[string]string, cornerKey, centerKey string, cell float64) (float64, error) {
	if _, ok := fields[cornerKey]; ok {
		return parseHeaderFloat(fields, cornerKey)
	}
	if _, ok := fields[centerKey]; ok {
		center, err := parseHeaderFloat(fields, centerKey)
		if err != nil {
			return 0, err
		}
		return center - cell/2, nil
	}
	return 0, fmt.Errorf("parse header: missing %s", cornerKey)
}

func parseGridData(reader *bufio.Reader, firstValue string, expected int) ([]float64, error) {
	data := make([]float64, 0, expected)
	if firstValue != "" && expected > 0 {
		value, err := parseDataToken(firstValue)
		if err != nil {
			return nil, fmt.Errorf("parse data value: %w", err)
		}
		data = append(data, value)
	}

	for len(data) < expected {
		value, err := scanDataValue(reader)
		if err == io.EOF {
			return nil, fmt.Errorf("parse data: expected %d values, got %d", expected, len(data))
		}
		if err != nil {
			return nil, fmt.Errorf("parse data value: %w", err)
		}
		data = append(data, value)
	}

	return data, nil
}

func scanDataValue(reader *bufio.Reader) (float64, error) {
	var token string
	_, err := fmt.Fscan(reader, &token)
	if err != nil {
		return 0, err
	}

	return parseDataToken(token)
}

// parseDataToken accepts the nan/inf spellings GDAL writes for float grids.
func parseDataToken(token string) (float64, error) {
	switch strings.ToLower(token) {
	case "nan", "-nan":
		return math.NaN(), nil
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(token, 64)
}

func validateNoTrailingData(reader *bufio.Reader) error {
	var extra string
	_, err := fmt.Fscan(reader, &extra)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("parse data: %w", err)
	}

	return fmt.Errorf("parse data: unexpected trailing value %q", extra)
}

func parseGridDimensions(fields map[string]string) (int, int, error) {
	width, err := parseHeaderInt(fields, "ncols")
	if err != nil {
		return 0, 0, err
	}

	height, err := parseHeaderInt(fields, "nrows")
	if err != nil {
		return 0, 0, err
	}

	if width < 0 || height < 0 {
		return 0, 0, fmt.Errorf("parse header: negative grid size %dx%d", width, height)
	}

	return width, height, nil
}

func parseHeaderInt(fields map[string]string, key string) (int, error) {
	value, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("parse header: missing %s", key)
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse header: %s=%q: %w", key, value, err)
	}
	return parsed, nil
}

func parseHeaderFloat(fields map[string]string, key string) (float64, error) {
	value, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("parse header: missing %s", key)
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse header: %s=%q: %w", key, value, err)
	}
	return parsed, nil
}

// WriteAAIGrid writes g as an ESRI ASCII grid. NaN cells are written as the
// nodata value when one is declared.
func WriteAAIGrid(w io.Writer, g Grid) error {
	if len(g.Data) != g.Width*g.Height {
		return fmt.Errorf("write grid: have %d values for %dx%d", len(g.Data), g.Width, g.Height)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", g.Width)
	fmt.Fprintf(bw, "nrows %d\n", g.Height)
	fmt.Fprintf(bw, "xllcorner %s\n", formatFloat(g.XllCorner))
	fmt.Fprintf(bw, "yllcorner %s\n", formatFloat(g.YllCorner))
	if g.CellSizeX == g.CellSizeY {
		fmt.Fprintf(bw, "cellsize %s\n", formatFloat(g.CellSizeX))
	} else {
		fmt.Fprintf(bw, "dx %s\n", formatFloat(g.CellSizeX))
		fmt.Fprintf(bw, "dy %s\n", formatFloat(g.CellSizeY))
	}
	if g.HasNoData {
		fmt.Fprintf(bw, "NODATA_value %s\n", formatFloat(g.NoData))
	}

	for y := 0; y < g.Height; y++ {
		row := g.Data[y*g.Width : (y+1)*g.Width]
		for x, v := range row {
			if x > 0 {
				bw.WriteByte(' ')
			}
			if math.IsNaN(v) && g.HasNoData {
				v = g.NoData
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
