package gdal

import (
	"fmt"
	"strings"
)

// DataType describes the range of a GDAL pixel type.
type DataType struct {
	Name     string
	BitDepth int
	Min      float64
	Max      float64
	Signed   bool
	Float    bool
}

var dataTypes = map[string]DataType{
	"byte":    {Name: "Byte", BitDepth: 8, Min: 0, Max: 255},
	"int8":    {Name: "Int8", BitDepth: 8, Min: -128, Max: 127, Signed: true},
	"int16":   {Name: "Int16", BitDepth: 16, Min: -32768, Max: 32767, Signed: true},
	"uint16":  {Name: "UInt16", BitDepth: 16, Min: 0, Max: 65535},
	"int32":   {Name: "Int32", BitDepth: 32, Min: -2147483648, Max: 2147483647, Signed: true},
	"uint32":  {Name: "UInt32", BitDepth: 32, Min: 0, Max: 4294967295},
	"int64":   {Name: "Int64", BitDepth: 64, Min: -9223372036854775808, Max: 9223372036854775807, Signed: true},
	"uint64":  {Name: "UInt64", BitDepth: 64, Min: 0, Max: 18446744073709551615},
	"float32": {Name: "Float32", BitDepth: 32, Min: -3.4e38, Max: 3.4e38, Signed: true, Float: true},
	"float64": {Name: "Float64", BitDepth: 64, Min: -1.7e308, Max: 1.7e308, Signed: true, Float: true},
}

// LookupDataType returns the range of a GDAL type name ("Byte", "UInt16", …).
// numpy-style names ("uint8", "float32") are accepted too.
func LookupDataType(name string) (DataType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "uint8" {
		key = "byte"
	}
	dt, ok := dataTypes[key]
	if !ok {
		return DataType{}, fmt.Errorf("unsupported GDAL data type: %q", name)
	}
	return dt, nil
}

// Unsigned reports whether the type is an unsigned integer.
func (dt DataType) Unsigned() bool {
	return !dt.Signed && !dt.Float
}
