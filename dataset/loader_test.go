package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YuminosukeSato/oncolens/core/model"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

// breastCancerCSV builds a CSV in the layout of the public WDBC export:
// id, diagnosis, 30 features and a trailing empty column.
func breastCancerCSV(labels ...string) string {
	names := BreastCancerSchema().Names()
	var b strings.Builder
	b.WriteString("id,diagnosis," + strings.Join(names, ",") + ",\n")
	for i, label := range labels {
		fmt.Fprintf(&b, "%d,%s", 840000+i, label)
		for j := range names {
			fmt.Fprintf(&b, ",%g", float64(i+1)*float64(j+1)/10)
		}
		b.WriteString(",\n")
	}
	return b.String()
}

func TestLoader_Read(t *testing.T) {
	ds, err := NewLoader().Read(strings.NewReader(breastCancerCSV("M", "B", "b")), "cdata.csv")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if ds.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ds.Len())
	}
	if got := ds.Labels(); got[0] != Malignant || got[1] != Benign || got[2] != Benign {
		t.Errorf("Labels() = %v, want [1 0 0]", got)
	}
	if got := ds.Records[1].Features[0]; got != 0.2 {
		t.Errorf("radius_mean of row 2 = %v, want 0.2", got)
	}
	if got := ds.Records[0].Features[29]; got != 3 {
		t.Errorf("fractal_dimension_worst of row 1 = %v, want 3", got)
	}
	if ds.Source != "cdata.csv" {
		t.Errorf("Source = %q", ds.Source)
	}
}

func TestLoader_ReordersColumnsBySchema(t *testing.T) {
	schema := model.MustSchema("a", "b")
	csv := "Unnamed: 0,b,label,a\n0,2,M,1\n1,4,B,3\n"

	ds, err := NewLoader(WithSchema(schema), WithLabelColumn("label")).Read(strings.NewReader(csv), "t.csv")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if f := ds.Records[0].Features; f[0] != 1 || f[1] != 2 {
		t.Errorf("Features = %v, want [1 2]", f)
	}
}

func TestLoader_Errors(t *testing.T) {
	schema := model.MustSchema("a", "b")
	tests := []struct {
		name    string
		csv     string
		opts    []LoaderOption
		wantCol string
	}{
		{
			name:    "missing label column",
			csv:     "a,b\n1,2\n",
			wantCol: "diagnosis",
		},
		{
			name: "missing feature column",
			csv:  "diagnosis,a\nM,1\n",
		},
		{
			name:    "unexpected column",
			csv:     "diagnosis,a,b,volume\nM,1,2,3\n",
			wantCol: "volume",
		},
		{
			name:    "unknown label",
			csv:     "diagnosis,a,b\nX,1,2\n",
			wantCol: "diagnosis",
		},
		{
			name:    "not a number",
			csv:     "diagnosis,a,b\nM,1,abc\n",
			wantCol: "b",
		},
		{
			name:    "not finite",
			csv:     "diagnosis,a,b\nM,NaN,2\n",
			wantCol: "a",
		},
		{
			name: "no data rows",
			csv:  "diagnosis,a,b\n",
		},
		{
			name: "empty file",
			csv:  "",
		},
		{
			name: "ragged row",
			csv:  "diagnosis,a,b\nM,1\n",
		},
		{
			name:    "dropped column is ignored but others are not",
			csv:     "diagnosis,a,b,note,extra\nM,1,2,x,y\n",
			opts:    []LoaderOption{WithDropColumns("note")},
			wantCol: "extra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]LoaderOption{WithSchema(schema)}, tt.opts...)
			_, err := NewLoader(opts...).Read(strings.NewReader(tt.csv), "t.csv")
			var dfErr *errors.DataFormatError
			if !errors.As(err, &dfErr) {
				t.Fatalf("Read() error = %v, want DataFormatError", err)
			}
			if tt.wantCol != "" && dfErr.Column != tt.wantCol {
				t.Errorf("Column = %q, want %q", dfErr.Column, tt.wantCol)
			}
			if dfErr.Source != "t.csv" {
				t.Errorf("Source = %q, want t.csv", dfErr.Source)
			}
		})
	}
}

func TestLoader_ErrorRowNumber(t *testing.T) {
	csv := "diagnosis,a\nM,1\nB,2\nB,oops\n"
	_, err := NewLoader(WithSchema(model.MustSchema("a"))).Read(strings.NewReader(csv), "t.csv")
	var dfErr *errors.DataFormatError
	if !errors.As(err, &dfErr) {
		t.Fatalf("Read() error = %v, want DataFormatError", err)
	}
	if dfErr.Row != 4 {
		t.Errorf("Row = %d, want 4 (file line)", dfErr.Row)
	}
}

func TestLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cdata.csv")
	content := breastCancerCSV("M", "B")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ds.Len())
	}

	// 読み込みでファイルが変更されないこと
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != content {
		t.Error("Load() modified the source file")
	}

	_, err = NewLoader().Load(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want fs.ErrNotExist", err)
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"M", Malignant, false},
		{" malignant ", Malignant, false},
		{"1", Malignant, false},
		{"B", Benign, false},
		{"Benign", Benign, false},
		{"0", Benign, false},
		{"", 0, true},
		{"2", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLabel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLabel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLabel(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
