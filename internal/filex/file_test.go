package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureSubdDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	defer chdir(t, tmp)()

	got, err := EnsureSubdDir("", "out")
	require.NoError(t, err)

	want := filepath.Join(tmp, "out")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureSubdDir_NestedAndIdempotent(t *testing.T) {
	tmp := t.TempDir()

	first, err := EnsureSubdDir(tmp, filepath.Join("a", "chunks"))
	require.NoError(t, err)

	second, err := EnsureSubdDir(tmp, filepath.Join("a", "chunks"))
	require.NoError(t, err)

	require.Equal(t, first, second)
	fi, err := os.Stat(second)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureSubdDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "out"), []byte("x"), 0o660))

	_, err := EnsureSubdDir(tmp, "out")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestNewRunDir_Unique(t *testing.T) {
	tmp := t.TempDir()

	a, err := NewRunDir(tmp)
	require.NoError(t, err)
	b, err := NewRunDir(tmp)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	_, err = uuid.Parse(filepath.Base(a))
	require.NoError(t, err)
}

func TestWriteFileAtomic(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "manifest.cbor")

	require.NoError(t, WriteFileAtomic(path, []byte("v1"), 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte("v2"), 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "v2", string(got))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "f"), []byte("x"), 0o600)
	require.Error(t, err)
}

func TestListFiles(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"2.cbor", "0.cbor", "1.cbor", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(tmp, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(tmp, "sub.cbor"), 0o700))

	got, err := ListFiles(tmp, ".cbor")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(tmp, "0.cbor"),
		filepath.Join(tmp, "1.cbor"),
		filepath.Join(tmp, "2.cbor"),
	}, got)
}
