package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAtomicWriteFile tests content and permissions of the written file
// TestAtomicWriteFile 测试写入文件的内容和权限
func TestAtomicWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, AtomicWriteFile(path, []byte("one"), 0600))
	require.NoError(t, AtomicWriteFile(path, []byte("two"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "atomic-*.tmp"))
	assert.Empty(t, matches)
}

func TestPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "firesense.pid")

	pid, err := ReadPID(path)
	require.NoError(t, err)
	assert.Zero(t, pid)

	require.NoError(t, WritePID(path))
	pid, err = ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))
	_, err = ReadPID(path)
	assert.Error(t, err)
}
