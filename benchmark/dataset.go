package benchmark

import (
	"path/filepath"
	"strings"
)

// Dataset references the split files of one fold. Paths follow the layout
// <root>/<dataset id>/<split>_<fold>.<ext>.
type Dataset struct {
	TrainPath string `json:"train_path" yaml:"train_path" toml:"train_path"`
	TestPath  string `json:"test_path" yaml:"test_path" toml:"test_path"`
	Target    string `json:"target" yaml:"target" toml:"target"`
}

// DatasetID is the name of the directory holding the training file.
func (d Dataset) DatasetID() string {
	return filepath.Base(filepath.Dir(d.TrainPath))
}

// Fold is the suffix after the last underscore of the training file name,
// "0" for train_0.arff.
func (d Dataset) Fold() string {
	name := filepath.Base(d.TrainPath)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
