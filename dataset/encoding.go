package dataset

import (
	"io"
	"os"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// openDecoded opens path and decodes it from the named encoding to UTF-8.
// An empty name means UTF-8.
func openDecoded(path, encoding string) (io.ReadCloser, error) {
	if encoding == "" {
		encoding = "utf-8"
	}
	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return nil, errors.NewValidationError("encoding", "unknown text encoding", encoding)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &decodedFile{Reader: transform.NewReader(f, enc.NewDecoder()), f: f}, nil
}

type decodedFile struct {
	io.Reader
	f *os.File
}

func (d *decodedFile) Close() error { return d.f.Close() }
