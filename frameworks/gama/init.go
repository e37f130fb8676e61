package gama

import (
	"os"
	"runtime"
	"sync"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

var (
	initOnce sync.Once
	initErr  error
)

// InitProcess pins the thread pools of native numeric libraries to one
// thread and sets their temp folder. It affects the whole process and runs
// once; later calls return the first result.
func InitProcess() error {
	initOnce.Do(func() {
		env := map[string]string{
			"JOBLIB_TEMP_FOLDER":   os.TempDir(),
			"OMP_NUM_THREADS":      "1",
			"OPENBLAS_NUM_THREADS": "1",
			"MKL_NUM_THREADS":      "1",
		}
		if runtime.GOOS == "darwin" {
			env["OBJC_DISABLE_INITIALIZE_FORK_SAFETY"] = "YES"
		}
		for k, v := range env {
			if err := os.Setenv(k, v); err != nil {
				initErr = errors.Wrapf(err, "set %s", k)
				return
			}
		}
	})
	return initErr
}
