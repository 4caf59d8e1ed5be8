package fs

import (
	"fmt"
	"io"

	"github.com/lgtdlr/sfs/disk"
)

// Debug prints the superblock and every valid inode to `w`. It reads straight
// from the device and needs no mount; it never mutates state.
func Debug(dev *disk.Disk, w io.Writer) error {
	blockData := make([]byte, disk.BlockSize)
	if err := dev.Read(0, blockData); err != nil {
		return err
	}
	super := DecodeSuperblock(blockData)

	fmt.Fprintln(w, "SuperBlock:")
	if super.Magic == MagicNumber {
		fmt.Fprintln(w, "    magic number is valid")
	} else {
		fmt.Fprintf(w, "    magic number is invalid (0x%08x)\n", super.Magic)
	}
	fmt.Fprintf(w, "    %d blocks\n", super.Blocks)
	fmt.Fprintf(w, "    %d inode blocks\n", super.InodeBlocks)
	fmt.Fprintf(w, "    %d inodes\n", super.Inodes)

	// An unformatted or corrupted superblock can claim more inode blocks than
	// the device holds; walk only what is actually there.
	inodeBlocks := super.InodeBlocks
	if dev.Size() > 0 && inodeBlocks > dev.Size()-1 {
		inodeBlocks = dev.Size() - 1
	}

	pointerData := make([]byte, disk.BlockSize)
	for i := uint32(0); i < inodeBlocks; i++ {
		if err := dev.Read(1+i, blockData); err != nil {
			return err
		}

		for slot := uint32(0); slot < InodesPerBlock; slot++ {
			ino := DecodeInode(blockData, slot)
			if ino.Valid == 0 {
				continue
			}

			fmt.Fprintf(w, "Inode %d:\n", i*InodesPerBlock+slot)
			fmt.Fprintf(w, "    size: %d bytes\n", ino.Size)

			fmt.Fprint(w, "    direct blocks:")
			for _, b := range ino.Direct {
				if b != 0 {
					fmt.Fprintf(w, " %d", b)
				}
			}
			fmt.Fprintln(w)

			if ino.Indirect == 0 {
				continue
			}
			fmt.Fprintf(w, "    indirect block: %d\n", ino.Indirect)
			if err := dev.Read(ino.Indirect, pointerData); err != nil {
				return err
			}
			fmt.Fprint(w, "    indirect data blocks:")
			for _, b := range DecodePointers(pointerData) {
				if b != 0 {
					fmt.Fprintf(w, " %d", b)
				}
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}
