package fs

import (
	"fmt"

	"github.com/lgtdlr/sfs"
	"github.com/lgtdlr/sfs/disk"
)

// Read copies up to len(p) bytes of file content starting at `offset` into
// `p` and returns the number of bytes copied. Reads are clamped to the end of
// the file; reading exactly at the end returns 0, reading past it fails.
func (fsys *FileSystem) Read(inumber uint32, p []byte, offset uint32) (int, error) {
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
	if offset == ino.Size || len(p) == 0 {
		return 0, nil
	}

	length := uint32(len(p))
	if length > ino.Size-offset {
		length = ino.Size - offset
	}

	// The indirect block is read at most once, and only if the read range
	// extends beyond the direct pointers.
	var pointers [PointersPerBlock]uint32
	endBlock := (offset + length - 1) / disk.BlockSize
	if endBlock >= PointersPerInode {
		if ino.Indirect == 0 {
			return 0, sfs.ErrFileSystemCorrupted.WithMessage(
				fmt.Sprintf("inode %d is %d bytes but has no indirect block", inumber, ino.Size))
		}
		pointerData := make([]byte, disk.BlockSize)
		if err = fsys.dev.Read(ino.Indirect, pointerData); err != nil {
			return 0, err
		}
		pointers = DecodePointers(pointerData)
	}

	blockData := make([]byte, disk.BlockSize)
	copied := uint32(0)
	for block := offset / disk.BlockSize; copied < length; block++ {
		var source uint32
		if block < PointersPerInode {
			source = ino.Direct[block]
		} else {
			source = pointers[block-PointersPerInode]
		}
		if source == 0 {
			return int(copied), sfs.ErrFileSystemCorrupted.WithMessage(
				fmt.Sprintf("inode %d has no block backing byte %d of %d",
					inumber, offset+copied, ino.Size))
		}

		if err = fsys.dev.Read(source, blockData); err != nil {
			return int(copied), err
		}

		start := uint32(0)
		if copied == 0 {
			start = offset % disk.BlockSize
		}
		chunk := disk.BlockSize - start
		if chunk > length-copied {
			chunk = length - copied
		}

		copy(p[copied:copied+chunk], blockData[start:start+chunk])
		copied += chunk
	}

	return int(copied), nil
}
