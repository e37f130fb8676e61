package benchmark

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

const metadataFile = "metadata.json"

// Metadata describes one framework run.
type Metadata struct {
	RunID             string    `json:"run_id"`
	Name              string    `json:"name"`
	Framework         string    `json:"framework"`
	FrameworkVersion  string    `json:"framework_version"`
	Type              string    `json:"type"`
	Metric            string    `json:"metric"`
	Fold              int       `json:"fold"`
	MaxRuntimeSeconds int       `json:"max_runtime_seconds"`
	Cores             int       `json:"cores"`
	MaxMemSizeMB      int       `json:"max_mem_size_mb"`
	Seed              *int64    `json:"seed,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// SaveMetadata writes <output_dir>/metadata.json for the run and returns it.
func SaveMetadata(cfg *Config, version string) (*Metadata, error) {
	md := &Metadata{
		RunID:             uuid.New().String(),
		Name:              cfg.Name,
		Framework:         cfg.Framework,
		FrameworkVersion:  version,
		Type:              cfg.Type,
		Metric:            cfg.Metric,
		Fold:              cfg.Fold,
		MaxRuntimeSeconds: cfg.MaxRuntimeSeconds,
		Cores:             cfg.Cores,
		MaxMemSizeMB:      cfg.MaxMemSizeMB,
		Seed:              cfg.Seed,
		CreatedAt:         time.Now().UTC(),
	}
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "save metadata")
	}
	path := filepath.Join(cfg.OutputDir, metadataFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, errors.Wrapf(err, "save metadata %s", path)
	}
	return md, nil
}
