package capture

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/squadnox/gamedig/internal/core"
)

// resetRegistry clears the process-wide writer between tests. Production
// code never uninstalls.
func resetRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	active = nil
	if activeFile != nil {
		activeFile.Close()
		activeFile = nil
	}
	registryMu.Unlock()
}

func TestActiveDefaultsToNop(t *testing.T) {
	resetRegistry(t)
	require.IsType(t, NopWriter{}, Active())
}

func TestInstallOnlyOnce(t *testing.T) {
	resetRegistry(t)
	defer resetRegistry(t)

	var buf bytes.Buffer
	rec, err := NewRecorder(&buf)
	require.NoError(t, err)

	require.NoError(t, Install(rec))
	require.Same(t, rec, Active())
	require.ErrorIs(t, Install(NopWriter{}), core.ErrWriterInstalled)
	require.Same(t, rec, Active())
}

func TestSetupDisabled(t *testing.T) {
	resetRegistry(t)
	defer resetRegistry(t)

	require.NoError(t, Setup(""))
	require.IsType(t, NopWriter{}, Active())
}

func TestSetupCreatesCaptureFile(t *testing.T) {
	resetRegistry(t)
	defer resetRegistry(t)

	path := filepath.Join(t.TempDir(), "session.pcapng")
	require.NoError(t, Setup(path))
	require.IsType(t, &Recorder{}, Active())
	require.ErrorIs(t, Setup(path), core.ErrWriterInstalled)

	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Section header block type, little-endian.
	require.Equal(t, []byte{0x0A, 0x0D, 0x0D, 0x0A}, data[:4])
}

func TestSetupRefusesExistingFile(t *testing.T) {
	resetRegistry(t)
	defer resetRegistry(t)

	path := filepath.Join(t.TempDir(), "session.pcapng")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.ErrorIs(t, Setup(path), core.ErrCaptureFileExists)
	require.IsType(t, NopWriter{}, Active())
}
