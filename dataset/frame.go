// Package dataset reads the tabular ARFF and CSV files handed over by the
// benchmark harness into numeric frames.
package dataset

import (
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Kind is the declared type of a column.
type Kind int

const (
	Numeric Kind = iota
	Nominal
	String
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Nominal:
		return "nominal"
	default:
		return "string"
	}
}

// Attribute describes one column. Values lists the categories of a nominal
// column in code order.
type Attribute struct {
	Name   string
	Kind   Kind
	Values []string
}

func (a *Attribute) code(v string) (float64, bool) {
	for i, c := range a.Values {
		if c == v {
			return float64(i), true
		}
	}
	return math.NaN(), false
}

// Frame is a decoded data file. Feature cells are numeric in X with nominal
// categories ordinal-encoded and missing values as NaN. The target column is
// kept apart, both as raw labels and as floats.
type Frame struct {
	Attributes []Attribute
	TargetAttr Attribute
	X          *mat.Dense
	Labels     []string  // raw target values, "" when missing
	Y          []float64 // numeric target, NaN when missing or non-numeric

	cells [][]string // raw feature cells, kept for Align
}

// FeatureNames returns the feature column names in order.
func (f *Frame) FeatureNames() []string {
	names := make([]string, len(f.Attributes))
	for i, a := range f.Attributes {
		names[i] = a.Name
	}
	return names
}

// Rows returns the number of samples.
func (f *Frame) Rows() int { return len(f.Labels) }

// ReadFile decodes path as ARFF or CSV depending on its extension. target
// names the target column; encoding is a WHATWG label such as "utf-8".
func ReadFile(path, target, encoding string) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".arff":
		return ReadARFF(path, target, encoding)
	case ".csv":
		return ReadCSV(path, target, encoding)
	default:
		return nil, errors.NewValueError("dataset.ReadFile", "unsupported file extension: "+filepath.Ext(path))
	}
}

// build splits raw rows into features and target, and encodes features.
func build(attrs []Attribute, rows [][]string, target string) (*Frame, error) {
	ti := -1
	for i, a := range attrs {
		if a.Name == target {
			ti = i
		}
	}
	if ti < 0 {
		return nil, errors.NewValueError("dataset", "target column "+strconv.Quote(target)+" not found")
	}

	f := &Frame{TargetAttr: attrs[ti]}
	for i, a := range attrs {
		if i != ti {
			f.Attributes = append(f.Attributes, a)
		}
	}

	f.cells = make([][]string, len(rows))
	f.Labels = make([]string, len(rows))
	f.Y = make([]float64, len(rows))
	for r, row := range rows {
		if len(row) != len(attrs) {
			return nil, errors.NewDimensionError("dataset", len(attrs), len(row), 1)
		}
		feat := make([]string, 0, len(attrs)-1)
		for i, v := range row {
			if i == ti {
				continue
			}
			feat = append(feat, v)
		}
		f.cells[r] = feat
		f.Labels[r] = row[ti]
		f.Y[r] = parseFloat(row[ti])
	}

	// string columns get their categories in order of first appearance
	for j := range f.Attributes {
		a := &f.Attributes[j]
		if a.Kind != String {
			continue
		}
		seen := make(map[string]bool)
		for _, row := range f.cells {
			if v := row[j]; v != "" && !seen[v] {
				seen[v] = true
				a.Values = append(a.Values, v)
			}
		}
	}

	X, err := encode(f.Attributes, f.cells)
	if err != nil {
		return nil, err
	}
	f.X = X
	return f, nil
}

func encode(attrs []Attribute, cells [][]string) (*mat.Dense, error) {
	if len(cells) == 0 || len(attrs) == 0 {
		return nil, errors.NewModelError("dataset", "empty data", errors.ErrEmptyData)
	}
	X := mat.NewDense(len(cells), len(attrs), nil)
	for r, row := range cells {
		for j := range attrs {
			a := &attrs[j]
			v := row[j]
			if v == "" {
				X.Set(r, j, math.NaN())
				continue
			}
			switch a.Kind {
			case Numeric:
				x := parseFloat(v)
				if math.IsNaN(x) {
					return nil, errors.NewValidationError(a.Name, "not a number", v)
				}
				X.Set(r, j, x)
			default:
				// unseen categories become missing
				code, _ := a.code(v)
				X.Set(r, j, code)
			}
		}
	}
	return X, nil
}

// Align re-encodes f against the columns and categories of schema, usually
// the training frame, so that codes agree between train and test.
func (f *Frame) Align(schema *Frame) (*Frame, error) {
	index := make(map[string]int, len(f.Attributes))
	for j, a := range f.Attributes {
		index[a.Name] = j
	}
	cells := make([][]string, len(f.cells))
	for r := range cells {
		cells[r] = make([]string, len(schema.Attributes))
	}
	for j, a := range schema.Attributes {
		src, ok := index[a.Name]
		if !ok {
			return nil, errors.NewValueError("Frame.Align", "missing column "+strconv.Quote(a.Name))
		}
		for r := range f.cells {
			cells[r][j] = f.cells[r][src]
		}
	}

	X, err := encode(schema.Attributes, cells)
	if err != nil {
		return nil, err
	}
	return &Frame{
		Attributes: schema.Attributes,
		TargetAttr: f.TargetAttr,
		X:          X,
		Labels:     f.Labels,
		Y:          f.Y,
		cells:      cells,
	}, nil
}

// Classes returns the class labels of the target: the declared categories of
// a nominal target, otherwise the sorted distinct non-missing labels.
func (f *Frame) Classes() []string {
	if f.TargetAttr.Kind == Nominal {
		return append([]string(nil), f.TargetAttr.Values...)
	}
	seen := make(map[string]bool)
	var out []string
	for _, l := range f.Labels {
		if l != "" && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

func parseFloat(v string) float64 {
	x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return math.NaN()
	}
	return x
}
