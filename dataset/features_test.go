package dataset

import "testing"

func TestBreastCancerSchema(t *testing.T) {
	schema := BreastCancerSchema()
	if schema.Len() != 30 {
		t.Fatalf("Len() = %d, want 30", schema.Len())
	}
	tests := []struct {
		index int
		want  string
	}{
		{0, "radius_mean"},
		{7, "concave points_mean"},
		{10, "radius_se"},
		{29, "fractal_dimension_worst"},
	}
	for _, tt := range tests {
		if got := schema.Name(tt.index); got != tt.want {
			t.Errorf("Name(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		feature string
		want    string
	}{
		{"radius_mean", "Radius (mean)"},
		{"concave points_se", "Concave points (se)"},
		{"fractal_dimension_worst", "Fractal dimension (worst)"},
		{"x", "X"},
	}
	for _, tt := range tests {
		t.Run(tt.feature, func(t *testing.T) {
			if got := Title(tt.feature); got != tt.want {
				t.Errorf("Title(%q) = %q, want %q", tt.feature, got, tt.want)
			}
		})
	}
}

func TestSplitFeature(t *testing.T) {
	m, v, ok := SplitFeature(FeatureName("concave points", "worst"))
	if !ok || m != "concave points" || v != "worst" {
		t.Errorf("SplitFeature() = %q, %q, %v", m, v, ok)
	}
	if _, _, ok := SplitFeature("radius"); ok {
		t.Error("SplitFeature(radius) should fail")
	}
}
