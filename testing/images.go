package testing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/lgtdlr/sfs/disk"
	"github.com/lgtdlr/sfs/fs"
)

// NewBlankDisk returns an in-memory block device of `nblocks` zeroed blocks.
// Writes never touch the host file system.
func NewBlankDisk(t *testing.T, nblocks uint32) *disk.Disk {
	t.Helper()

	storage := make([]byte, int64(nblocks)*disk.BlockSize)
	return disk.NewFromStream(bytesextra.NewReadWriteSeeker(storage), nblocks)
}

// NewFormattedDisk returns an in-memory device that has been formatted but
// not mounted.
func NewFormattedDisk(t *testing.T, nblocks uint32) *disk.Disk {
	t.Helper()

	dev := NewBlankDisk(t, nblocks)
	require.NoError(t, fs.Format(dev), "formatting %d-block image failed", nblocks)
	return dev
}

// NewMountedFS formats an in-memory device and mounts it. The device is
// returned as well so tests can inspect raw blocks or counters.
func NewMountedFS(t *testing.T, nblocks uint32) (*fs.FileSystem, *disk.Disk) {
	t.Helper()

	dev := NewFormattedDisk(t, nblocks)
	fsys, err := fs.Mount(dev)
	require.NoError(t, err, "mounting %d-block image failed", nblocks)
	return fsys, dev
}
