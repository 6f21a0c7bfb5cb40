package dataset

import (
	"testing"

	"github.com/YuminosukeSato/oncolens/core/model"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

func TestNew_Validation(t *testing.T) {
	schema := model.MustSchema("a", "b")
	tests := []struct {
		name    string
		records []Record
	}{
		{"empty", nil},
		{"wrong width", []Record{{Label: 0, Features: []float64{1}}}},
		{"bad label", []Record{{Label: 2, Features: []float64{1, 2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(schema, tt.records); err == nil {
				t.Error("New() error = nil")
			}
		})
	}
}

func TestDataset_Accessors(t *testing.T) {
	ds, err := New(model.MustSchema("a", "b"), []Record{
		{Label: Benign, Features: []float64{1, 10}},
		{Label: Malignant, Features: []float64{3, 10}},
		{Label: Malignant, Features: []float64{2, 10}},
	})
	if err != nil {
		t.Fatal(err)
	}

	X := ds.X()
	if r, c := X.Dims(); r != 3 || c != 2 {
		t.Fatalf("X() dims = %d×%d", r, c)
	}
	if X.At(1, 0) != 3 {
		t.Errorf("X[1,0] = %v, want 3", X.At(1, 0))
	}
	if y := ds.Y(); y.At(0, 0) != 0 || y.At(2, 0) != 1 {
		t.Errorf("Y() = %v", y.RawMatrix().Data)
	}

	stats, err := ds.Stats("a")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Min != 1 || stats.Max != 3 || stats.Mean != 2 {
		t.Errorf("Stats(a) = %+v", stats)
	}

	_, err = ds.Column("volume")
	var dimErr *errors.DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Errorf("Column(volume) error = %v, want DimensionMismatchError", err)
	}

	sub := ds.Subset([]int{2, 0})
	if sub.Len() != 2 || sub.Records[0].Features[0] != 2 {
		t.Errorf("Subset() = %+v", sub.Records)
	}
	if counts := ds.ClassCounts(); counts[Malignant] != 2 || counts[Benign] != 1 {
		t.Errorf("ClassCounts() = %v", counts)
	}
}
