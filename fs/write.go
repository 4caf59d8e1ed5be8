package fs

import (
	"errors"
	"fmt"

	"github.com/lgtdlr/sfs"
	"github.com/lgtdlr/sfs/disk"
)

// Write copies len(p) bytes from `p` into the file at `offset`, allocating
// direct blocks, the indirect block, and indirect pointers on demand. Writes
// must start at or before the current end of file; appending requires
// offset == Size.
//
// When the device runs out of free blocks the write commits everything
// written so far and returns a short count with a nil error; only invalid
// arguments and device failures surface as errors. The returned count is the
// number of bytes actually persisted, and Size grows to offset + count.
func (fsys *FileSystem) Write(inumber uint32, p []byte, offset uint32) (int, error) {
	ino, err := fsys.loadInode(inumber)
	if err != nil {
		return 0, err
	}
	if ino.Valid == 0 {
		return 0, sfs.ErrNotFound.WithMessage(fmt.Sprintf("inode %d is not in use", inumber))
	}

	if offset > ino.Size {
		return 0, sfs.ErrArgumentOutOfRange.WithMessage(
			fmt.Sprintf("offset %d past end of file (size %d)", offset, ino.Size))
	}

	length := uint32(len(p))
	if length > MaxFileSize-offset {
		length = MaxFileSize - offset
	}

	var pointers [PointersPerBlock]uint32
	pointersLoaded := false
	pointersDirty := false
	inodeDirty := false

	blockData := make([]byte, disk.BlockSize)
	written := uint32(0)

	for block := offset / disk.BlockSize; written < length; block++ {
		target, stop, err := fsys.resolveWriteBlock(&ino, &pointers, &pointersLoaded,
			&pointersDirty, &inodeDirty, block)
		if err != nil {
			return int(written), err
		}
		if stop {
			break
		}

		writeOffset := uint32(0)
		if written == 0 {
			writeOffset = offset % disk.BlockSize
		}
		writeLength := disk.BlockSize - writeOffset
		if writeLength > length-written {
			writeLength = length - written
		}

		// A partial block keeps its untouched bytes, so merge with what is
		// already on disk before writing back.
		if writeLength < disk.BlockSize {
			if err := fsys.dev.Read(target, blockData); err != nil {
				return int(written), err
			}
		}

		copy(blockData[writeOffset:writeOffset+writeLength], p[written:written+writeLength])
		if err := fsys.dev.Write(target, blockData); err != nil {
			return int(written), err
		}
		written += writeLength
	}

	if offset+written > ino.Size {
		ino.Size = offset + written
		inodeDirty = true
	}

	// The indirect image is written back exactly once, after the loop.
	if pointersDirty {
		if err := fsys.dev.Write(ino.Indirect, EncodePointers(pointers)); err != nil {
			return int(written), err
		}
	}
	if inodeDirty {
		if err := fsys.storeInode(inumber, ino); err != nil {
			return int(written), err
		}
	}

	return int(written), nil
}

// resolveWriteBlock returns the data block backing logical `block`,
// allocating the block (and, past the direct range, the indirect block and
// its pointer slot) as needed. `stop` is true when the walk must end: the
// device is full or the file has no more addressable blocks. Progress made so
// far is the caller's to commit.
func (fsys *FileSystem) resolveWriteBlock(
	ino *Inode,
	pointers *[PointersPerBlock]uint32,
	pointersLoaded *bool,
	pointersDirty *bool,
	inodeDirty *bool,
	block uint32,
) (target uint32, stop bool, err error) {
	if block >= PointersPerInode+PointersPerBlock {
		return 0, true, nil
	}

	if block < PointersPerInode {
		if ino.Direct[block] == 0 {
			b, err := fsys.allocBlock()
			if errors.Is(err, sfs.ErrNoSpaceOnDevice) {
				return 0, true, nil
			}
			if err != nil {
				return 0, false, err
			}
			ino.Direct[block] = b
			*inodeDirty = true
		}
		return ino.Direct[block], false, nil
	}

	if ino.Indirect == 0 {
		b, err := fsys.allocBlock()
		if errors.Is(err, sfs.ErrNoSpaceOnDevice) {
			return 0, true, nil
		}
		if err != nil {
			return 0, false, err
		}
		ino.Indirect = b
		*inodeDirty = true

		// A freshly allocated indirect block is zero-filled on disk; the
		// in-memory image is already all zeroes.
		*pointersLoaded = true
	}

	if !*pointersLoaded {
		pointerData := make([]byte, disk.BlockSize)
		if err := fsys.dev.Read(ino.Indirect, pointerData); err != nil {
			return 0, false, err
		}
		*pointers = DecodePointers(pointerData)
		*pointersLoaded = true
	}

	slot := block - PointersPerInode
	if pointers[slot] == 0 {
		b, err := fsys.allocBlock()
		if errors.Is(err, sfs.ErrNoSpaceOnDevice) {
			return 0, true, nil
		}
		if err != nil {
			return 0, false, err
		}
		pointers[slot] = b
		*pointersDirty = true
	}
	return pointers[slot], false, nil
}
