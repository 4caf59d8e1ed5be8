package fs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgtdlr/sfs"
	st "github.com/lgtdlr/sfs/testing"
)

func TestCreateReturnsAscendingInumbers(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	for expected := uint32(0); expected < 5; expected++ {
		inumber, err := fsys.Create()
		require.NoError(t, err)
		assert.Equal(t, expected, inumber)
	}
}

func TestCreateReusesLowestFreeInode(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	for i := 0; i < 3; i++ {
		_, err := fsys.Create()
		require.NoError(t, err)
	}
	require.NoError(t, fsys.Remove(1))

	inumber, err := fsys.Create()
	require.NoError(t, err)
	assert.EqualValues(t, 1, inumber)
}

func TestCreateUntilTableIsFull(t *testing.T) {
	// A five-block volume has a single inode block: 128 inodes.
	fsys, _ := st.NewMountedFS(t, 5)
	defer fsys.Unmount()

	for i := 0; i < 128; i++ {
		_, err := fsys.Create()
		require.NoError(t, err, "create %d failed with free inodes left", i)
	}

	_, err := fsys.Create()
	assert.ErrorIs(t, err, sfs.ErrNoFreeInodes)
}

func TestStatOfNewFileIsZero(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	inumber, err := fsys.Create()
	require.NoError(t, err)

	size, err := fsys.Stat(inumber)
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)
}

func TestStatOfInvalidInodeFails(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	_, err := fsys.Stat(0)
	assert.ErrorIs(t, err, sfs.ErrNotFound)

	_, err = fsys.Stat(256)
	assert.ErrorIs(t, err, sfs.ErrArgumentOutOfRange)
}

func TestRemoveReleasesEverything(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 40)
	defer fsys.Unmount()

	before, err := fsys.FSStat()
	require.NoError(t, err)

	inumber, err := fsys.Create()
	require.NoError(t, err)

	// Large enough to populate all five direct pointers plus the indirect
	// block, so remove has to walk both.
	payload := pattern(21000)
	n, err := fsys.Write(inumber, payload, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	require.NoError(t, fsys.Remove(inumber))

	after, err := fsys.FSStat()
	require.NoError(t, err)
	assert.Equal(
		t, before.FreeBlocks, after.FreeBlocks,
		"remove must return the bitmap to its pre-create state")

	_, err = fsys.Stat(inumber)
	assert.ErrorIs(t, err, sfs.ErrNotFound)
}

func TestRemovedInodeIsReusableAndEmpty(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 40)
	defer fsys.Unmount()

	inumber, err := fsys.Create()
	require.NoError(t, err)
	_, err = fsys.Write(inumber, pattern(21000), 0)
	require.NoError(t, err)
	require.NoError(t, fsys.Remove(inumber))

	reused, err := fsys.Create()
	require.NoError(t, err)
	assert.Equal(t, inumber, reused)

	payload := []byte("fresh start")
	n, err := fsys.Write(reused, payload, 0)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	readBack := make([]byte, len(payload))
	n, err = fsys.Read(reused, readBack, 0)
	require.NoError(t, err)
	assert.Equal(t, payload, readBack[:n])
}

func TestRemoveInvalidInodeFails(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	assert.ErrorIs(t, fsys.Remove(0), sfs.ErrNotFound)
	assert.ErrorIs(t, fsys.Remove(9999), sfs.ErrArgumentOutOfRange)
}
