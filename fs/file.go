package fs

import (
	"fmt"

	"github.com/lgtdlr/sfs"
	"github.com/lgtdlr/sfs/disk"
)

// Create claims the lowest-numbered free inode, persists it as a valid empty
// file, and returns its inumber. Returns ErrNoFreeInodes when every inode in
// the table is in use.
func (fsys *FileSystem) Create() (uint32, error) {
	if fsys.dev == nil {
		return 0, sfs.ErrNotMounted
	}

	blockData := make([]byte, disk.BlockSize)
	for i := uint32(0); i < fsys.super.InodeBlocks; i++ {
		if err := fsys.dev.Read(1+i, blockData); err != nil {
			return 0, err
		}

		for slot := uint32(0); slot < InodesPerBlock; slot++ {
			if DecodeInode(blockData, slot).Valid != 0 {
				continue
			}

			Inode{Valid: 1}.EncodeInto(blockData, slot)
			if err := fsys.dev.Write(1+i, blockData); err != nil {
				return 0, err
			}
			return i*InodesPerBlock + slot, nil
		}
	}
	return 0, sfs.ErrNoFreeInodes
}

// Remove releases every block the inode references and invalidates it. The
// indirect block is read before its pointer is discarded so the data blocks
// it names can be freed.
func (fsys *FileSystem) Remove(inumber uint32) error {
	ino, err := fsys.loadInode(inumber)
	if err != nil {
		return err
	}
	if ino.Valid == 0 {
		return sfs.ErrNotFound.WithMessage(fmt.Sprintf("inode %d is not in use", inumber))
	}

	for i, b := range ino.Direct {
		if b != 0 {
			fsys.markFree(b)
			ino.Direct[i] = 0
		}
	}

	if ino.Indirect != 0 {
		pointerData := make([]byte, disk.BlockSize)
		if err = fsys.dev.Read(ino.Indirect, pointerData); err != nil {
			return err
		}
		for _, b := range DecodePointers(pointerData) {
			if b != 0 {
				fsys.markFree(b)
			}
		}

		// The indirect block itself goes last; nothing references it anymore
		// once the inode record is rewritten below.
		fsys.markFree(ino.Indirect)
		ino.Indirect = 0
	}

	ino.Valid = 0
	ino.Size = 0
	return fsys.storeInode(inumber, ino)
}

// Stat returns the logical size of the file, in bytes.
func (fsys *FileSystem) Stat(inumber uint32) (uint32, error) {
	ino, err := fsys.loadInode(inumber)
	if err != nil {
		return 0, err
	}
	if ino.Valid == 0 {
		return 0, sfs.ErrNotFound.WithMessage(fmt.Sprintf("inode %d is not in use", inumber))
	}
	return ino.Size, nil
}
