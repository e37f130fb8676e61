// Package benchmark holds the harness side of a framework run: the task
// configuration, the dataset reference, the result record and the small
// filesystem and timing helpers shared by framework adapters.
package benchmark

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

const (
	TaskClassification = "classification"
	TaskRegression     = "regression"

	defaultPredictionsFile = "predictions.csv"
)

// Config is the task configuration handed to a framework by the harness.
type Config struct {
	Name                  string         `json:"name" yaml:"name" toml:"name"`
	Framework             string         `json:"framework" yaml:"framework" toml:"framework"`
	FrameworkVersion      string         `json:"framework_version" yaml:"framework_version" toml:"framework_version"`
	FrameworkParams       map[string]any `json:"framework_params" yaml:"framework_params" toml:"framework_params"`
	Type                  string         `json:"type" yaml:"type" toml:"type"`
	Metric                string         `json:"metric" yaml:"metric" toml:"metric"`
	Fold                  int            `json:"fold" yaml:"fold" toml:"fold"`
	MaxRuntimeSeconds     int            `json:"max_runtime_seconds" yaml:"max_runtime_seconds" toml:"max_runtime_seconds"`
	Cores                 int            `json:"cores" yaml:"cores" toml:"cores"`
	MaxMemSizeMB          int            `json:"max_mem_size_mb" yaml:"max_mem_size_mb" toml:"max_mem_size_mb"`
	Seed                  *int64         `json:"seed" yaml:"seed" toml:"seed"`
	OutputDir             string         `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	OutputPredictionsFile string         `json:"output_predictions_file" yaml:"output_predictions_file" toml:"output_predictions_file"`
}

// IsClassification reports whether the task is a classification task.
func (c *Config) IsClassification() bool { return c.Type == TaskClassification }

// Validate checks the fields every framework relies on and fills in the
// predictions file when only the output directory is given.
func (c *Config) Validate() error {
	if c.Type != TaskClassification && c.Type != TaskRegression {
		return errors.NewValidationError("type", "must be classification or regression", c.Type)
	}
	if c.Metric == "" {
		return errors.NewValidationError("metric", "is required", c.Metric)
	}
	if c.MaxRuntimeSeconds <= 0 {
		return errors.NewValidationError("max_runtime_seconds", "must be positive", c.MaxRuntimeSeconds)
	}
	if c.Cores <= 0 {
		return errors.NewValidationError("cores", "must be positive", c.Cores)
	}
	if c.MaxMemSizeMB < 0 {
		return errors.NewValidationError("max_mem_size_mb", "must be non-negative", c.MaxMemSizeMB)
	}
	if c.OutputDir == "" {
		return errors.NewValidationError("output_dir", "is required", c.OutputDir)
	}
	if c.OutputPredictionsFile == "" {
		c.OutputPredictionsFile = filepath.Join(c.OutputDir, defaultPredictionsFile)
	}
	if c.FrameworkParams == nil {
		c.FrameworkParams = map[string]any{}
	}
	return nil
}

// LoadRequest reads a request file holding a dataset and a config section.
// The format follows the extension: .json, .yaml/.yml or .toml. Unknown
// keys are rejected.
func LoadRequest(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	req := &Request{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		dec.UseNumber()
		err = dec.Decode(req)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(req)
	case ".toml":
		var md toml.MetaData
		md, err = toml.Decode(string(data), req)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				err = errors.Newf("unknown configuration options: %s", strings.Join(keys, ", "))
			}
		}
	default:
		return nil, errors.NewValueError("LoadRequest", "unsupported config format "+ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
