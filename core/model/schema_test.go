package model

import (
	"reflect"
	"testing"

	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

func TestNewSchema(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		wantErr bool
	}{
		{name: "ordered names", names: []string{"radius_mean", "texture_mean"}},
		{name: "empty", names: nil, wantErr: true},
		{name: "blank name", names: []string{"radius_mean", ""}, wantErr: true},
		{name: "duplicate", names: []string{"radius_mean", "radius_mean"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSchema(tt.names...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var valErr *errors.ValidationError
				if !errors.As(err, &valErr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if !reflect.DeepEqual(s.Names(), tt.names) {
				t.Errorf("Names() = %v, want %v", s.Names(), tt.names)
			}
		})
	}
}

func TestSchema_Vector(t *testing.T) {
	s := MustSchema("radius_mean", "texture_mean", "area_mean")

	vec, err := s.Vector("test", map[string]float64{"area_mean": 3, "radius_mean": 1, "texture_mean": 2})
	if err != nil {
		t.Fatalf("Vector() error = %v", err)
	}
	if !reflect.DeepEqual(vec, []float64{1, 2, 3}) {
		t.Errorf("Vector() = %v, want schema order [1 2 3]", vec)
	}

	_, err = s.Vector("test", map[string]float64{"radius_mean": 1, "texture_mean": 2, "volume_mean": 9})
	var dimErr *errors.DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
	if !reflect.DeepEqual(dimErr.Missing, []string{"area_mean"}) {
		t.Errorf("Missing = %v", dimErr.Missing)
	}
	if !reflect.DeepEqual(dimErr.Unexpected, []string{"volume_mean"}) {
		t.Errorf("Unexpected = %v", dimErr.Unexpected)
	}
}

func TestSchema_MapAndEqual(t *testing.T) {
	s := MustSchema("a", "b")

	m, err := s.Map("test", []float64{1.5, -2})
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if m["a"] != 1.5 || m["b"] != -2 {
		t.Errorf("Map() = %v", m)
	}
	if _, err := s.Map("test", []float64{1}); err == nil {
		t.Error("expected width error")
	}

	if !s.Equal(MustSchema("a", "b")) {
		t.Error("identical schemas should be equal")
	}
	if s.Equal(MustSchema("b", "a")) {
		t.Error("order must matter for equality")
	}
}
