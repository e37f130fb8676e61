package benchmark

import (
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

// Touch creates path and its missing parent directories, or updates the
// modification time of an existing file.
func Touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "touch %s", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "touch %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "touch %s", path)
	}
	now := time.Now()
	return errors.WithStack(os.Chtimes(path, now, now))
}

// Timer measures wall-clock time.
//
//	t := benchmark.StartTimer()
//	doWork()
//	d := t.Stop()
type Timer struct {
	start    time.Time
	duration time.Duration
	stopped  bool
}

func StartTimer() *Timer { return &Timer{start: time.Now()} }

// Stop freezes the duration. Later calls return the first result.
func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.duration = time.Since(t.start)
		t.stopped = true
	}
	return t.duration
}

// Duration is the elapsed time so far, or the frozen one after Stop.
func (t *Timer) Duration() time.Duration {
	if t.stopped {
		return t.duration
	}
	return time.Since(t.start)
}

// Time runs fn and returns how long it took along with its error.
func Time(fn func() error) (time.Duration, error) {
	t := StartTimer()
	err := fn()
	return t.Stop(), err
}
