// Package fs interprets a block device as an SFS volume: block 0 is the
// superblock, blocks 1..InodeBlocks hold the inode table, and the rest is a
// pool of data and indirect blocks. Files are flat and nameless, identified
// by inode number.
package fs

import (
	"fmt"

	bitmap "github.com/boljen/go-bitmap"

	"github.com/lgtdlr/sfs"
	"github.com/lgtdlr/sfs/disk"
)

// FileSystem is a mounted volume. It owns the device tag, the cached
// superblock geometry, and the transient free-block bitmap reconstructed at
// mount time. It assumes a single caller; there is no locking.
type FileSystem struct {
	dev     *disk.Disk
	super   Superblock
	freeMap bitmap.Bitmap // true = free
}

// Mount validates the superblock of the device and reconstructs the
// free-block bitmap by walking every valid inode. On any validation failure
// the device is left untouched and unmounted.
func Mount(dev *disk.Disk) (*FileSystem, error) {
	if dev.Mounted() {
		return nil, sfs.ErrAlreadyMounted
	}

	blockData := make([]byte, disk.BlockSize)
	if err := dev.Read(0, blockData); err != nil {
		return nil, err
	}

	super := DecodeSuperblock(blockData)
	if err := super.Validate(dev.Size()); err != nil {
		return nil, err
	}

	fsys := &FileSystem{
		dev:     dev,
		super:   super,
		freeMap: bitmap.New(int(super.Blocks)),
	}

	// Everything starts out free except the superblock and the inode table.
	for i := uint32(0); i < super.Blocks; i++ {
		fsys.freeMap.Set(int(i), i > super.InodeBlocks)
	}

	// Walk the inode table and claim every block reachable from a valid inode.
	pointerData := make([]byte, disk.BlockSize)
	for i := uint32(0); i < super.InodeBlocks; i++ {
		if err := dev.Read(1+i, blockData); err != nil {
			return nil, err
		}

		for slot := uint32(0); slot < InodesPerBlock; slot++ {
			ino := DecodeInode(blockData, slot)
			if ino.Valid == 0 {
				continue
			}

			for _, b := range ino.Direct {
				if b != 0 {
					fsys.markUsed(b)
				}
			}

			if ino.Indirect == 0 {
				continue
			}
			fsys.markUsed(ino.Indirect)
			if err := dev.Read(ino.Indirect, pointerData); err != nil {
				return nil, err
			}
			for _, b := range DecodePointers(pointerData) {
				if b != 0 {
					fsys.markUsed(b)
				}
			}
		}
	}

	dev.Mount()
	return fsys, nil
}

// Unmount discards the free-block bitmap and releases the device tag. The
// FileSystem must not be used afterwards.
func (fsys *FileSystem) Unmount() error {
	if fsys.dev == nil {
		return sfs.ErrNotMounted
	}

	fsys.dev.Unmount()
	fsys.dev = nil
	fsys.freeMap = nil
	return nil
}

// Stat describes the state of a mounted volume.
type Stat struct {
	BlockSize   int
	TotalBlocks uint32
	FreeBlocks  uint32
	InodeBlocks uint32
	Inodes      uint32
	FilesInUse  uint32
}

// FSStat reports volume geometry and occupancy. The free-block count comes
// from the in-memory bitmap, the file count from a scan of the inode table.
func (fsys *FileSystem) FSStat() (Stat, error) {
	if fsys.dev == nil {
		return Stat{}, sfs.ErrNotMounted
	}

	freeBlocks := uint32(0)
	for i := uint32(0); i < fsys.super.Blocks; i++ {
		if fsys.freeMap.Get(int(i)) {
			freeBlocks++
		}
	}

	filesInUse := uint32(0)
	blockData := make([]byte, disk.BlockSize)
	for i := uint32(0); i < fsys.super.InodeBlocks; i++ {
		if err := fsys.dev.Read(1+i, blockData); err != nil {
			return Stat{}, err
		}
		for slot := uint32(0); slot < InodesPerBlock; slot++ {
			if DecodeInode(blockData, slot).Valid != 0 {
				filesInUse++
			}
		}
	}

	return Stat{
		BlockSize:   disk.BlockSize,
		TotalBlocks: fsys.super.Blocks,
		FreeBlocks:  freeBlocks,
		InodeBlocks: fsys.super.InodeBlocks,
		Inodes:      fsys.super.Inodes,
		FilesInUse:  filesInUse,
	}, nil
}

func (fsys *FileSystem) markUsed(blocknum uint32) {
	fsys.freeMap.Set(int(blocknum), false)
}

func (fsys *FileSystem) markFree(blocknum uint32) {
	fsys.freeMap.Set(int(blocknum), true)
}

// allocBlock claims the lowest free block, zero-fills it on disk so stale
// content never leaks into readers, and returns its index. Returns
// ErrNoSpaceOnDevice when the bitmap has no free bit.
func (fsys *FileSystem) allocBlock() (uint32, error) {
	for i := uint32(0); i < fsys.super.Blocks; i++ {
		if !fsys.freeMap.Get(int(i)) {
			continue
		}

		if err := fsys.dev.Write(i, make([]byte, disk.BlockSize)); err != nil {
			return 0, err
		}
		fsys.freeMap.Set(int(i), false)
		return i, nil
	}
	return 0, sfs.ErrNoSpaceOnDevice
}

// inodeLocation maps an inumber onto its device block and slot within it.
func (fsys *FileSystem) inodeLocation(inumber uint32) (blocknum, slot uint32, err error) {
	if inumber >= fsys.super.Inodes {
		return 0, 0, sfs.ErrArgumentOutOfRange.WithMessage(
			fmt.Sprintf("inumber %d not in range [0, %d)", inumber, fsys.super.Inodes))
	}
	return 1 + inumber/InodesPerBlock, inumber % InodesPerBlock, nil
}

func (fsys *FileSystem) loadInode(inumber uint32) (Inode, error) {
	if fsys.dev == nil {
		return Inode{}, sfs.ErrNotMounted
	}

	blocknum, slot, err := fsys.inodeLocation(inumber)
	if err != nil {
		return Inode{}, err
	}

	blockData := make([]byte, disk.BlockSize)
	if err = fsys.dev.Read(blocknum, blockData); err != nil {
		return Inode{}, err
	}
	return DecodeInode(blockData, slot), nil
}

// storeInode persists one inode record without disturbing the other 127
// records sharing its block.
func (fsys *FileSystem) storeInode(inumber uint32, ino Inode) error {
	blocknum, slot, err := fsys.inodeLocation(inumber)
	if err != nil {
		return err
	}

	blockData := make([]byte, disk.BlockSize)
	if err = fsys.dev.Read(blocknum, blockData); err != nil {
		return err
	}
	ino.EncodeInto(blockData, slot)
	return fsys.dev.Write(blocknum, blockData)
}
