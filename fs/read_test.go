package fs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgtdlr/sfs"
	st "github.com/lgtdlr/sfs/testing"
)

func TestSmallWriteReadRoundTrip(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	inumber, err := fsys.Create()
	require.NoError(t, err)
	require.EqualValues(t, 0, inumber)

	n, err := fsys.Write(inumber, []byte("helloworld"), 0)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	size, err := fsys.Stat(inumber)
	require.NoError(t, err)
	assert.EqualValues(t, 10, size)

	buffer := make([]byte, 10)
	n, err = fsys.Read(inumber, buffer, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, []byte("helloworld"), buffer)
}

func TestReadClampsToEndOfFile(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	inumber, err := fsys.Create()
	require.NoError(t, err)
	_, err = fsys.Write(inumber, []byte("helloworld"), 0)
	require.NoError(t, err)

	buffer := make([]byte, 100)
	n, err := fsys.Read(inumber, buffer, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte("oworld"), buffer[:n])
}

func TestReadAtEndOfFileReturnsZero(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	inumber, err := fsys.Create()
	require.NoError(t, err)
	_, err = fsys.Write(inumber, []byte("helloworld"), 0)
	require.NoError(t, err)

	n, err := fsys.Read(inumber, make([]byte, 10), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReadPastEndOfFileFails(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	inumber, err := fsys.Create()
	require.NoError(t, err)
	_, err = fsys.Write(inumber, []byte("helloworld"), 0)
	require.NoError(t, err)

	_, err = fsys.Read(inumber, make([]byte, 10), 11)
	assert.ErrorIs(t, err, sfs.ErrArgumentOutOfRange)
}

func TestReadOfInvalidInodeFails(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	_, err := fsys.Read(3, make([]byte, 10), 0)
	assert.ErrorIs(t, err, sfs.ErrNotFound)

	_, err = fsys.Read(1000, make([]byte, 10), 0)
	assert.ErrorIs(t, err, sfs.ErrArgumentOutOfRange)
}

func TestCrossBoundaryWriteReadRoundTrip(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	before, err := fsys.FSStat()
	require.NoError(t, err)

	inumber, err := fsys.Create()
	require.NoError(t, err)

	// 5000 bytes spans Direct[0] and Direct[1].
	payload := pattern(5000)
	n, err := fsys.Write(inumber, payload, 0)
	require.NoError(t, err)
	require.Equal(t, 5000, n)

	size, err := fsys.Stat(inumber)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, size)

	after, err := fsys.FSStat()
	require.NoError(t, err)
	assert.Equal(
		t, before.FreeBlocks-2, after.FreeBlocks,
		"a 5000-byte write must allocate exactly two data blocks")

	readBack := make([]byte, 5000)
	n, err = fsys.Read(inumber, readBack, 0)
	require.NoError(t, err)
	assert.Equal(t, 5000, n)
	assert.Equal(t, payload, readBack)
}

func TestReadAtUnalignedOffsets(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	inumber, err := fsys.Create()
	require.NoError(t, err)
	payload := pattern(10000)
	_, err = fsys.Write(inumber, payload, 0)
	require.NoError(t, err)

	for _, tc := range []struct{ offset, length int }{
		{0, 10000},   // whole file
		{0, 4096},    // exactly one block
		{4096, 4096}, // exactly the second block
		{1, 4095},    // up to a block boundary
		{4095, 2},    // straddling a boundary
		{3000, 5000}, // three blocks, both ends unaligned
		{8192, 1808}, // the partial tail block
		{9999, 1},    // last byte
	} {
		buffer := make([]byte, tc.length)
		n, err := fsys.Read(inumber, buffer, uint32(tc.offset))
		require.NoErrorf(t, err, "read of %d bytes at %d failed", tc.length, tc.offset)
		require.Equal(t, tc.length, n)
		assert.Equalf(
			t, payload[tc.offset:tc.offset+tc.length], buffer,
			"read of %d bytes at %d returned wrong data", tc.length, tc.offset)
	}
}

func TestBoundaryAlignedEndDoesNotOverrun(t *testing.T) {
	fsys, _ := st.NewMountedFS(t, 20)
	defer fsys.Unmount()

	inumber, err := fsys.Create()
	require.NoError(t, err)

	// Exactly two blocks: (offset + length) % 4096 == 0 on read-back.
	payload := pattern(8192)
	n, err := fsys.Write(inumber, payload, 0)
	require.NoError(t, err)
	require.Equal(t, 8192, n)

	readBack := make([]byte, 8192)
	n, err = fsys.Read(inumber, readBack, 0)
	require.NoError(t, err)
	assert.Equal(t, 8192, n)
	assert.Equal(t, payload, readBack)
}
