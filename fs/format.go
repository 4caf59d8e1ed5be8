package fs

import (
	"github.com/lgtdlr/sfs"
	"github.com/lgtdlr/sfs/disk"
)

// Format writes a fresh superblock and zeroes every other block on the
// device. It refuses to touch a mounted device and does not mount the result.
func Format(dev *disk.Disk) error {
	if dev.Mounted() {
		return sfs.ErrAlreadyMounted.WithMessage("cannot format a mounted device")
	}

	super := NewSuperblock(dev.Size())
	if err := dev.Write(0, super.Encode()); err != nil {
		return err
	}

	empty := make([]byte, disk.BlockSize)
	for i := uint32(1); i < super.Blocks; i++ {
		if err := dev.Write(i, empty); err != nil {
			return err
		}
	}
	return nil
}
