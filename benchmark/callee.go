package benchmark

import (
	"context"
	"encoding/json"
	"io"

	"github.com/YuminosukeSato/gamabench/dataset"
	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

// RunFunc runs one framework on one fold.
type RunFunc func(ctx context.Context, ds *Dataset, cfg *Config) (*Result, error)

// Request is the document the harness sends on stdin as JSON, or that
// LoadRequest reads from a file.
type Request struct {
	Dataset Dataset `json:"dataset" yaml:"dataset" toml:"dataset"`
	Config  Config  `json:"config" yaml:"config" toml:"config"`
}

// Summary is the JSON document written back on success.
type Summary struct {
	OutputFile       string  `json:"output_file"`
	ModelsCount      int     `json:"models_count"`
	TrainingDuration float64 `json:"training_duration"`
	PredictDuration  float64 `json:"predict_duration"`
}

type failure struct {
	ErrorMessage string `json:"error_message"`
}

// ReadRequest decodes and validates a harness request.
func ReadRequest(r io.Reader) (*Request, error) {
	req := &Request{}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(req); err != nil {
		return nil, errors.Wrap(err, "decode request")
	}
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// CallRun serves one harness request read from r: it runs fn, saves the
// predictions and writes a Summary to w. On failure an error_message
// document is written instead and the error is returned.
func CallRun(ctx context.Context, r io.Reader, w io.Writer, fn RunFunc) error {
	return call(ctx, w, fn, func() (*Request, error) { return ReadRequest(r) })
}

// CallRunFile is CallRun for a request stored in a file, see LoadRequest.
func CallRunFile(ctx context.Context, path string, w io.Writer, fn RunFunc) error {
	return call(ctx, w, fn, func() (*Request, error) { return LoadRequest(path) })
}

func call(ctx context.Context, w io.Writer, fn RunFunc, load func() (*Request, error)) error {
	enc := json.NewEncoder(w)
	req, err := load()
	if err == nil {
		err = serve(ctx, req, enc, fn)
	}
	if err != nil {
		if encErr := enc.Encode(failure{ErrorMessage: err.Error()}); encErr != nil {
			return errors.Wrap(encErr, err.Error())
		}
	}
	return err
}

// serve runs fn for a decoded request and writes the Summary.
func serve(ctx context.Context, req *Request, enc *json.Encoder, fn RunFunc) error {
	res, err := fn(ctx, &req.Dataset, &req.Config)
	if err != nil {
		return err
	}
	if res.Truth == nil && req.Dataset.TestPath != "" {
		test, err := dataset.ReadFile(req.Dataset.TestPath, req.Dataset.Target, "utf-8")
		if err != nil {
			return errors.Wrap(err, "load truth")
		}
		res.Truth = test.Labels
	}
	if err := SaveResult(res); err != nil {
		return err
	}
	return errors.WithStack(enc.Encode(Summary{
		OutputFile:       res.OutputFile,
		ModelsCount:      res.ModelsCount,
		TrainingDuration: res.TrainingDuration.Seconds(),
		PredictDuration:  res.PredictDuration.Seconds(),
	}))
}
