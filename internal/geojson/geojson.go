// Package geojson reads and writes GeoJSON feature collections on top of
// orb's geojson types.
package geojson

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
)

// ErrFieldNotFound is returned when a feature lacks the requested property.
var ErrFieldNotFound = errors.New("field not found")

// Decode parses a FeatureCollection.
func Decode(data []byte) (*orbjson.FeatureCollection, error) {
	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	return fc, nil
}

// Read loads a FeatureCollection from path.
func Read(path string) (*orbjson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	return Decode(data)
}

// Write stores fc at path.
func Write(path string, fc *orbjson.FeatureCollection) error {
	if fc == nil {
		fc = orbjson.NewFeatureCollection()
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// PointSample is a point feature with an integer attribute.
type PointSample struct {
	Point orb.Point
	Value int
}

// PointSamples extracts the point features of fc together with the integer
// value of field. Non-point features are counted in skipped.
func PointSamples(fc *orbjson.FeatureCollection, field string) (samples []PointSample, skipped int, err error) {
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			skipped++
			continue
		}

		raw, ok := f.Properties[field]
		if !ok {
			return nil, 0, fmt.Errorf("feature %d: %q: %w", i, field, ErrFieldNotFound)
		}
		value, err := intValue(raw)
		if err != nil {
			return nil, 0, fmt.Errorf("feature %d: %q: %w", i, field, err)
		}

		samples = append(samples, PointSample{Point: pt, Value: value})
	}
	return samples, skipped, nil
}

func intValue(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("value %v is not an integer", v)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", v)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("unsupported value type %T", raw)
	}
}

// LabeledPoint is a point with a reference and a predicted class.
type LabeledPoint struct {
	Point     orb.Point
	Reference int
	Predicted int
}

// BuildSamplesFC builds a point collection recording reference and predicted
// classes, for inspecting an accuracy assessment in a GIS.
func BuildSamplesFC(points []LabeledPoint) *orbjson.FeatureCollection {
	fc := orbjson.NewFeatureCollection()
	for _, p := range points {
		f := orbjson.NewFeature(p.Point)
		f.Properties["reference"] = p.Reference
		f.Properties["predicted"] = p.Predicted
		f.Properties["correct"] = p.Reference == p.Predicted
		fc.Append(f)
	}
	return fc
}
