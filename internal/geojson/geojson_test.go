package geojson

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
)

const sampleFC = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [10, 20]}, "properties": {"class": 3}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [11, 21]}, "properties": {"class": "4"}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {"class": 1}}
  ]
}`

func TestPointSamples(t *testing.T) {
	fc, err := Decode([]byte(sampleFC))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	samples, skipped, err := PointSamples(fc, "class")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped feature, got %d", skipped)
	}
	want := []PointSample{
		{Point: orb.Point{10, 20}, Value: 3},
		{Point: orb.Point{11, 21}, Value: 4},
	}
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("sample %d: expected %+v, got %+v", i, want[i], samples[i])
		}
	}
}

func TestPointSamplesMissingField(t *testing.T) {
	fc, err := Decode([]byte(sampleFC))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, _, err = PointSamples(fc, "label")
	if !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}
}

func TestPointSamplesRejectsFractions(t *testing.T) {
	fc, err := Decode([]byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"class":1.5}}]}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, _, err := PointSamples(fc, "class"); err == nil {
		t.Fatalf("expected error for fractional class")
	}
}

func TestBuildSamplesFCWriteRead(t *testing.T) {
	fc := BuildSamplesFC([]LabeledPoint{
		{Point: orb.Point{1, 2}, Reference: 5, Predicted: 5},
		{Point: orb.Point{3, 4}, Reference: 5, Predicted: 7},
	})

	path := filepath.Join(t.TempDir(), "samples.geojson")
	if err := Write(path, fc); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(got.Features))
	}
	if got.Features[1].Properties["correct"] != false {
		t.Fatalf("expected second sample to be incorrect: %v", got.Features[1].Properties)
	}
	if got.Features[0].Properties.MustInt("predicted") != 5 {
		t.Fatalf("unexpected predicted value: %v", got.Features[0].Properties)
	}
	if pt, ok := got.Features[1].Geometry.(orb.Point); !ok || pt != (orb.Point{3, 4}) {
		t.Fatalf("unexpected geometry: %#v", got.Features[1].Geometry)
	}
}

func TestWriteNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.geojson")
	if err := Write(path, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := Read(path)
	if err != nil || len(fc.Features) != 0 {
		t.Fatalf("expected empty collection, got %v %v", fc, err)
	}
}
