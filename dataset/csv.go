package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"sort"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

// ReadCSV reads a CSV file with a header row. A column is numeric when every
// non-empty cell parses as a number, otherwise nominal with sorted categories.
// Empty cells and "?" are missing.
func ReadCSV(path, target, encoding string) (*Frame, error) {
	rc, err := openDecoded(path, encoding)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("dataset.ReadCSV", "empty file", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		for i, v := range rec {
			if v == "?" {
				rec[i] = ""
			}
		}
		rows = append(rows, rec)
	}

	attrs := make([]Attribute, len(header))
	for j, name := range header {
		attrs[j] = inferAttribute(name, rows, j)
	}
	return build(attrs, rows, target)
}

func inferAttribute(name string, rows [][]string, j int) Attribute {
	seen := make(map[string]bool)
	numeric := true
	for _, row := range rows {
		if j >= len(row) || row[j] == "" {
			continue
		}
		seen[row[j]] = true
		if math.IsNaN(parseFloat(row[j])) {
			numeric = false
		}
	}
	if numeric {
		return Attribute{Name: name, Kind: Numeric}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return Attribute{Name: name, Kind: Nominal, Values: values}
}
