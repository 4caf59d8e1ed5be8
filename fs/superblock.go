package fs

import (
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/noxer/bytewriter"

	"github.com/lgtdlr/sfs"
	"github.com/lgtdlr/sfs/disk"
)

// MagicNumber is stored in the first word of every formatted superblock.
const MagicNumber = 0xf0f03410

const (
	// InodesPerBlock is the number of 32-byte inode records packed into one
	// inode-table block.
	InodesPerBlock = disk.BlockSize / InodeSize

	// PointersPerInode is the number of direct block pointers in an inode.
	PointersPerInode = 5

	// PointersPerBlock is the number of 32-bit block pointers in an indirect
	// block.
	PointersPerBlock = disk.BlockSize / 4

	// MaxFileSize is the largest payload addressable from a single inode:
	// five direct blocks plus one fully populated indirect block.
	MaxFileSize = (PointersPerInode + PointersPerBlock) * disk.BlockSize
)

// Superblock is the volume header stored in block 0. Only the first 16 bytes
// of the block are used; the remainder is reserved and persisted as zero.
type Superblock struct {
	Magic       uint32
	Blocks      uint32
	InodeBlocks uint32
	Inodes      uint32
}

// InodeBlocksForSize gives the number of inode-table blocks a volume of
// `blocks` total blocks carries: ten percent, rounded up.
func InodeBlocksForSize(blocks uint32) uint32 {
	return (blocks + 9) / 10
}

// NewSuperblock builds the superblock format writes for a device of the given
// size.
func NewSuperblock(deviceBlocks uint32) Superblock {
	inodeBlocks := InodeBlocksForSize(deviceBlocks)
	return Superblock{
		Magic:       MagicNumber,
		Blocks:      deviceBlocks,
		InodeBlocks: inodeBlocks,
		Inodes:      inodeBlocks * InodesPerBlock,
	}
}

// DecodeSuperblock reads the superblock fields from a raw copy of block 0.
func DecodeSuperblock(blockData []byte) Superblock {
	return Superblock{
		Magic:       binary.LittleEndian.Uint32(blockData[0:4]),
		Blocks:      binary.LittleEndian.Uint32(blockData[4:8]),
		InodeBlocks: binary.LittleEndian.Uint32(blockData[8:12]),
		Inodes:      binary.LittleEndian.Uint32(blockData[12:16]),
	}
}

// Encode renders the superblock as a full block image, reserved area zeroed.
func (sb Superblock) Encode() []byte {
	blockData := make([]byte, disk.BlockSize)
	writer := bytewriter.New(blockData)
	binary.Write(writer, binary.LittleEndian, &sb)
	return blockData
}

// Validate checks every invariant the mount path relies on and reports all
// violations at once rather than stopping at the first.
func (sb Superblock) Validate(deviceBlocks uint32) error {
	var result *multierror.Error

	if sb.Magic != MagicNumber {
		result = multierror.Append(result, fmt.Errorf(
			"bad magic number: expected 0x%08x, got 0x%08x", uint32(MagicNumber), sb.Magic))
	}
	if sb.Blocks != deviceBlocks {
		result = multierror.Append(result, fmt.Errorf(
			"superblock says %d blocks but the device has %d", sb.Blocks, deviceBlocks))
	}
	if sb.InodeBlocks != InodeBlocksForSize(sb.Blocks) {
		result = multierror.Append(result, fmt.Errorf(
			"inode block count %d does not match ceil(%d / 10) = %d",
			sb.InodeBlocks, sb.Blocks, InodeBlocksForSize(sb.Blocks)))
	}
	if sb.Inodes != sb.InodeBlocks*InodesPerBlock {
		result = multierror.Append(result, fmt.Errorf(
			"inode count %d does not match %d inode blocks of %d inodes each",
			sb.Inodes, sb.InodeBlocks, InodesPerBlock))
	}

	if result != nil {
		return sfs.ErrFileSystemCorrupted.WrapError(result.ErrorOrNil())
	}
	return nil
}
