package writeback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWriteFile_ReplacesContent(t *testing.T) {
	path := tempFile(t, "a.wat", "(module)")
	require.NoError(t, WriteFile(path, []byte("(module\n)\n")))

	got, _ := os.ReadFile(path)
	assert.Equal(t, "(module\n)\n", string(got))
}

func TestWriteFile_PreservesPermissions(t *testing.T) {
	path := tempFile(t, "a.wat", "content")
	require.NoError(t, os.Chmod(path, 0o755))

	require.NoError(t, WriteFile(path, []byte("new")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestWriteFile_NoTempLeftBehind(t *testing.T) {
	path := tempFile(t, "a.wat", "x")
	require.NoError(t, WriteFile(path, []byte("y")))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFile_NonexistentFile(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "nope.wat"), []byte("x"))
	assert.Error(t, err)
}

func TestFormatFile(t *testing.T) {
	path := tempFile(t, "m.wat", "(module (memory 1))")

	changed, err := FormatFile(path)
	require.NoError(t, err)
	assert.True(t, changed)

	got, _ := os.ReadFile(path)
	assert.Equal(t, "(module\n  (memory 1)\n)\n", string(got))

	changed, err = FormatFile(path)
	require.NoError(t, err)
	assert.False(t, changed, "second pass must be a no-op")
}

func TestFormatFile_InvalidLeavesFileUntouched(t *testing.T) {
	path := tempFile(t, "bad.wat", "(module))")

	changed, err := FormatFile(path)
	require.Error(t, err)
	assert.False(t, changed)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	got, _ := os.ReadFile(path)
	assert.Equal(t, "(module))", string(got))
}
