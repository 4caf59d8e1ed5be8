// Package disk emulates a fixed-size block device on top of a host file or
// any seekable stream. All I/O happens in whole blocks; a transfer that moves
// fewer bytes than a full block is an error, never a partial success.
package disk

import (
	"fmt"
	"io"
	"os"

	"github.com/lgtdlr/sfs"
)

// BlockSize is the size of a single device block, in bytes. It is part of the
// on-disk format; changing it breaks compatibility with existing images.
const BlockSize = 4096

// Disk is a flat array of fixed-size blocks addressed by a non-negative index.
//
// The mount counter is a tag preventing a mounted volume from being formatted
// out from under its file system, not a lock. No concurrent use is implied or
// supported.
type Disk struct {
	stream io.ReadWriteSeeker
	closer io.Closer
	blocks uint32
	mounts int
	reads  uint64
	writes uint64
}

// Open opens or creates the host file at `path` and sizes it to exactly
// `nblocks` blocks, truncating or extending as needed.
func Open(path string, nblocks uint32) (*Disk, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, sfs.ErrIOFailed.WrapError(err)
	}

	if err = f.Truncate(int64(nblocks) * BlockSize); err != nil {
		f.Close()
		return nil, sfs.ErrIOFailed.WrapError(err)
	}

	return &Disk{stream: f, closer: f, blocks: nblocks}, nil
}

// OpenImage opens an existing image at `path` and infers the block count from
// the file size, rounded down to a whole number of blocks.
func OpenImage(path string) (*Disk, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, sfs.ErrIOFailed.WrapError(err)
	}

	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, sfs.ErrIOFailed.WrapError(err)
	}

	return &Disk{stream: f, closer: f, blocks: uint32(end / BlockSize)}, nil
}

// NewFromStream wraps any seekable stream as a block device of `nblocks`
// blocks. The stream must already be at least `nblocks * BlockSize` bytes.
func NewFromStream(stream io.ReadWriteSeeker, nblocks uint32) *Disk {
	return &Disk{stream: stream, blocks: nblocks}
}

// Size returns the total number of blocks on the device, including block 0.
func (d *Disk) Size() uint32 {
	return d.blocks
}

// Reads returns the number of successful block reads since the device was
// opened.
func (d *Disk) Reads() uint64 {
	return d.reads
}

// Writes returns the number of successful block writes since the device was
// opened.
func (d *Disk) Writes() uint64 {
	return d.writes
}

// Mount increments the in-use counter.
func (d *Disk) Mount() {
	d.mounts++
}

// Unmount decrements the in-use counter. It never goes below zero.
func (d *Disk) Unmount() {
	if d.mounts > 0 {
		d.mounts--
	}
}

// Mounted reports whether any client currently has the device mounted.
func (d *Disk) Mounted() bool {
	return d.mounts > 0
}

func (d *Disk) checkIO(blocknum uint32, p []byte) error {
	if blocknum >= d.blocks {
		return sfs.ErrArgumentOutOfRange.WithMessage(
			fmt.Sprintf("block %d not in range [0, %d)", blocknum, d.blocks))
	}
	if len(p) != BlockSize {
		return sfs.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("buffer must be exactly %d bytes, got %d", BlockSize, len(p)))
	}
	return nil
}

// Read fills `p` with the contents of block `blocknum`. `p` must be exactly
// BlockSize bytes.
func (d *Disk) Read(blocknum uint32, p []byte) error {
	if err := d.checkIO(blocknum, p); err != nil {
		return err
	}

	if _, err := d.stream.Seek(int64(blocknum)*BlockSize, io.SeekStart); err != nil {
		return sfs.ErrIOFailed.WrapError(err)
	}

	if _, err := io.ReadFull(d.stream, p); err != nil {
		return sfs.ErrUnexpectedEOF.WrapError(err)
	}

	d.reads++
	return nil
}

// Write stores `p` into block `blocknum`. `p` must be exactly BlockSize bytes.
func (d *Disk) Write(blocknum uint32, p []byte) error {
	if err := d.checkIO(blocknum, p); err != nil {
		return err
	}

	if _, err := d.stream.Seek(int64(blocknum)*BlockSize, io.SeekStart); err != nil {
		return sfs.ErrIOFailed.WrapError(err)
	}

	n, err := d.stream.Write(p)
	if err != nil {
		return sfs.ErrIOFailed.WrapError(err)
	}
	if n != BlockSize {
		return sfs.ErrIOFailed.WithMessage(
			fmt.Sprintf("short write to block %d: %d of %d bytes", blocknum, n, BlockSize))
	}

	d.writes++
	return nil
}

// Close releases the host file, if any. It is safe to call more than once.
func (d *Disk) Close() error {
	if d.closer == nil {
		return nil
	}

	closer := d.closer
	d.closer = nil
	if err := closer.Close(); err != nil {
		return sfs.ErrIOFailed.WrapError(err)
	}
	return nil
}
