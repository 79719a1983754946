package capture

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/squadnox/gamedig/internal/core"
)

// The process-wide writer, installed exactly once before any socket traffic.
var (
	registryMu sync.Mutex
	active     Writer
	activeFile io.Closer
)

// Install sets the process-wide capture writer. A second call is a
// setup-order bug and returns core.ErrWriterInstalled.
func Install(w Writer) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if active != nil {
		return core.ErrWriterInstalled
	}
	active = w
	return nil
}

// Active returns the installed writer, or a NopWriter when capture was never
// set up.
func Active() Writer {
	registryMu.Lock()
	defer registryMu.Unlock()
	if active == nil {
		return NopWriter{}
	}
	return active
}

// Setup installs the capture writer for the process. An empty path installs
// a NopWriter; otherwise a new capture file is created at path (which must
// not already exist) and a Recorder writing to it is installed.
func Setup(path string) error {
	if path == "" {
		return Install(NopWriter{})
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", core.ErrCaptureFileExists, path)
		}
		return fmt.Errorf("failed to create capture file: %w", err)
	}

	rec, err := NewRecorder(f)
	if err != nil {
		f.Close()
		return err
	}
	if err := Install(rec); err != nil {
		f.Close()
		return err
	}

	registryMu.Lock()
	activeFile = f
	registryMu.Unlock()
	return nil
}

// Close flushes and closes the capture file, if Setup opened one. Called at
// process teardown; the writer stays installed so late events fail loudly
// instead of reinstalling.
func Close() error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if activeFile == nil {
		return nil
	}
	err := activeFile.Close()
	activeFile = nil
	return err
}
