package pagefile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luigitni/rbfdb/pagefile"
	"github.com/luigitni/rbfdb/rbferrors"
)

func newTestDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "pfmdata")
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

func TestCreateFile(t *testing.T) {
	dir := newTestDir(t)
	m, err := pagefile.NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.CreateFile("t1"))

	_, err = os.Stat(filepath.Join(dir, "t1"))
	require.NoError(t, err)

	err = m.CreateFile("t1")
	require.ErrorIs(t, err, rbferrors.ErrAlreadyExists)
}

func TestDestroyFile(t *testing.T) {
	dir := newTestDir(t)
	m, err := pagefile.NewManager(dir)
	require.NoError(t, err)

	err = m.DestroyFile("nope")
	require.ErrorIs(t, err, rbferrors.ErrNotTracked)

	require.NoError(t, m.CreateFile("t1"))

	var h pagefile.FileHandle
	require.NoError(t, m.OpenFile("t1", &h))

	err = m.DestroyFile("t1")
	require.ErrorIs(t, err, rbferrors.ErrBusy)

	require.NoError(t, m.CloseFile(&h))
	require.NoError(t, m.DestroyFile("t1"))

	_, statErr := os.Stat(filepath.Join(dir, "t1"))
	require.True(t, os.IsNotExist(statErr))
}

func TestOpenFile(t *testing.T) {
	dir := newTestDir(t)
	m, err := pagefile.NewManager(dir)
	require.NoError(t, err)

	var h pagefile.FileHandle
	err = m.OpenFile("missing", &h)
	require.ErrorIs(t, err, rbferrors.ErrNotFound)

	require.NoError(t, m.CreateFile("t1"))
	require.NoError(t, m.OpenFile("t1", &h))
	require.True(t, h.IsOpen())

	err = m.OpenFile("t1", &h)
	require.ErrorIs(t, err, rbferrors.ErrBusy)

	require.NoError(t, m.CloseFile(&h))
}

func TestOpenFileNotCreatedThroughPFM(t *testing.T) {
	dir := newTestDir(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	raw, err := os.Create(filepath.Join(dir, "external"))
	require.NoError(t, err)
	require.NoError(t, raw.Truncate(pagefile.PageSize))
	require.NoError(t, raw.Close())

	m, err := pagefile.NewManager(dir)
	require.NoError(t, err)

	var h pagefile.FileHandle
	require.NoError(t, m.OpenFile("external", &h))
	require.NoError(t, m.CloseFile(&h))
}

func TestCloseFileIdempotent(t *testing.T) {
	dir := newTestDir(t)
	m, err := pagefile.NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.CreateFile("t1"))

	var h pagefile.FileHandle
	require.NoError(t, m.OpenFile("t1", &h))
	require.NoError(t, m.CloseFile(&h))

	err = m.CloseFile(&h)
	require.Error(t, err)
	require.False(t, h.IsOpen())
}
