package fs

import (
	"bytes"
	"encoding/binary"

	"github.com/noxer/bytewriter"

	"github.com/lgtdlr/sfs/disk"
)

// InodeSize is the on-disk footprint of one inode record, in bytes.
const InodeSize = 32

// Inode describes one file: a validity flag, the logical byte size, five
// direct block pointers, and one indirect block pointer. A pointer value of 0
// means "unallocated"; block 0 holds the superblock so it can never back file
// data.
type Inode struct {
	Valid    uint32
	Size     uint32
	Direct   [PointersPerInode]uint32
	Indirect uint32
}

// DecodeInode extracts the inode in `slot` from a raw inode-table block.
func DecodeInode(blockData []byte, slot uint32) Inode {
	var ino Inode
	reader := bytes.NewReader(blockData[slot*InodeSize : (slot+1)*InodeSize])
	binary.Read(reader, binary.LittleEndian, &ino)
	return ino
}

// EncodeInto serializes the inode over `slot` of a raw inode-table block,
// leaving the other 127 records untouched.
func (ino Inode) EncodeInto(blockData []byte, slot uint32) {
	writer := bytewriter.New(blockData[slot*InodeSize : (slot+1)*InodeSize])
	binary.Write(writer, binary.LittleEndian, &ino)
}

// DecodePointers interprets a raw data block as an indirect block of 1024
// block pointers.
func DecodePointers(blockData []byte) [PointersPerBlock]uint32 {
	var pointers [PointersPerBlock]uint32
	for i := range pointers {
		pointers[i] = binary.LittleEndian.Uint32(blockData[i*4 : i*4+4])
	}
	return pointers
}

// EncodePointers renders an indirect pointer array as a full block image.
func EncodePointers(pointers [PointersPerBlock]uint32) []byte {
	blockData := make([]byte, disk.BlockSize)
	for i, p := range pointers {
		binary.LittleEndian.PutUint32(blockData[i*4:i*4+4], p)
	}
	return blockData
}
