package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/lgtdlr/sfs"
	"github.com/lgtdlr/sfs/disk"
	"github.com/lgtdlr/sfs/disks"
	"github.com/lgtdlr/sfs/fs"
)

func main() {
	app := cli.App{
		Name:  "sfs",
		Usage: "Manage simple file system disk images",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log device I/O statistics and diagnostics",
			},
		},
		Before: func(context *cli.Context) error {
			if context.Bool("verbose") {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create or wipe an image",
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  "blocks",
						Usage: "total number of 4 KiB blocks on the volume",
					},
					&cli.StringFlag{
						Name:  "profile",
						Usage: fmt.Sprintf("predefined volume profile, one of %v", disks.Slugs()),
					},
				},
				Action: formatImage,
			},
			{
				Name:      "debug",
				Usage:     "Print the superblock and all valid inodes",
				ArgsUsage: "IMAGE_FILE",
				Action:    debugImage,
			},
			{
				Name:      "mount",
				Usage:     "Mount an image and report volume statistics",
				ArgsUsage: "IMAGE_FILE",
				Action:    mountImage,
			},
			{
				Name:      "create",
				Usage:     "Allocate a new empty file and print its inumber",
				ArgsUsage: "IMAGE_FILE",
				Action:    createFile,
			},
			{
				Name:      "remove",
				Usage:     "Delete a file and release its blocks",
				ArgsUsage: "IMAGE_FILE INUMBER",
				Action:    removeFile,
			},
			{
				Name:      "stat",
				Usage:     "Print the size of a file in bytes",
				ArgsUsage: "IMAGE_FILE INUMBER",
				Action:    statFile,
			},
			{
				Name:      "read",
				Usage:     "Copy file contents to stdout or a host file",
				ArgsUsage: "IMAGE_FILE INUMBER",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "offset", Usage: "byte offset to start reading at"},
					&cli.UintFlag{
						Name:  "length",
						Usage: "bytes to read (default: the rest of the file)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "host file to write to instead of stdout",
					},
				},
				Action: readFile,
			},
			{
				Name:      "write",
				Usage:     "Copy a host file into a file on the volume",
				ArgsUsage: "IMAGE_FILE INUMBER HOST_FILE",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "offset", Usage: "byte offset to start writing at"},
				},
				Action: writeFile,
			},
		},
	}

	// Only a failure of the host image itself is fatal; anything else (bad
	// inumber, full volume, unformatted image) is reported in-band.
	if err := app.Run(os.Args); err != nil {
		if errors.Is(err, sfs.ErrIOFailed) || errors.Is(err, sfs.ErrUnexpectedEOF) {
			log.Fatalf("fatal error: %s", err.Error())
		}
		fmt.Fprintf(os.Stderr, "sfs: %s\n", err.Error())
	}
}

func formatImage(context *cli.Context) error {
	if context.NArg() != 1 {
		return fmt.Errorf("expected exactly one image file, got %d arguments", context.NArg())
	}

	nblocks := uint32(context.Uint("blocks"))
	if slug := context.String("profile"); slug != "" {
		profile, err := disks.GetPredefinedProfile(slug)
		if err != nil {
			return err
		}
		nblocks = profile.Blocks
	}
	if nblocks == 0 {
		return fmt.Errorf("either --blocks or --profile is required")
	}

	dev, err := disk.Open(context.Args().First(), nblocks)
	if err != nil {
		return err
	}
	defer reportAndClose(dev)

	return fs.Format(dev)
}

func debugImage(context *cli.Context) error {
	dev, err := openImageArg(context, 1)
	if err != nil {
		return err
	}
	defer reportAndClose(dev)

	return fs.Debug(dev, context.App.Writer)
}

func mountImage(context *cli.Context) error {
	dev, err := openImageArg(context, 1)
	if err != nil {
		return err
	}
	defer reportAndClose(dev)

	fsys, err := fs.Mount(dev)
	if err != nil {
		return err
	}
	defer fsys.Unmount()

	stat, err := fsys.FSStat()
	if err != nil {
		return err
	}

	fmt.Fprintf(context.App.Writer, "%d blocks of %d bytes, %d free\n",
		stat.TotalBlocks, stat.BlockSize, stat.FreeBlocks)
	fmt.Fprintf(context.App.Writer, "%d inode blocks, %d inodes, %d files in use\n",
		stat.InodeBlocks, stat.Inodes, stat.FilesInUse)
	return nil
}

func createFile(context *cli.Context) error {
	fsys, dev, err := mountImageArg(context, 1)
	if err != nil {
		return err
	}
	defer reportAndClose(dev)
	defer fsys.Unmount()

	inumber, err := fsys.Create()
	if err != nil {
		return err
	}

	fmt.Fprintln(context.App.Writer, inumber)
	return nil
}

func removeFile(context *cli.Context) error {
	fsys, dev, err := mountImageArg(context, 2)
	if err != nil {
		return err
	}
	defer reportAndClose(dev)
	defer fsys.Unmount()

	inumber, err := inumberArg(context)
	if err != nil {
		return err
	}
	return fsys.Remove(inumber)
}

func statFile(context *cli.Context) error {
	fsys, dev, err := mountImageArg(context, 2)
	if err != nil {
		return err
	}
	defer reportAndClose(dev)
	defer fsys.Unmount()

	inumber, err := inumberArg(context)
	if err != nil {
		return err
	}

	size, err := fsys.Stat(inumber)
	if err != nil {
		return err
	}

	fmt.Fprintln(context.App.Writer, size)
	return nil
}

func readFile(context *cli.Context) error {
	fsys, dev, err := mountImageArg(context, 2)
	if err != nil {
		return err
	}
	defer reportAndClose(dev)
	defer fsys.Unmount()

	inumber, err := inumberArg(context)
	if err != nil {
		return err
	}

	offset := uint32(context.Uint("offset"))
	length := uint32(context.Uint("length"))
	if !context.IsSet("length") {
		size, err := fsys.Stat(inumber)
		if err != nil {
			return err
		}
		if offset > size {
			return fmt.Errorf("offset %d past end of file (size %d)", offset, size)
		}
		length = size - offset
	}

	buffer := make([]byte, length)
	n, err := fsys.Read(inumber, buffer, offset)
	if err != nil {
		return err
	}

	output := os.Stdout
	if path := context.String("output"); path != "" {
		output, err = os.Create(path)
		if err != nil {
			return err
		}
		defer output.Close()
	}

	_, err = output.Write(buffer[:n])
	return err
}

func writeFile(context *cli.Context) error {
	if context.NArg() != 3 {
		return fmt.Errorf("expected IMAGE_FILE INUMBER HOST_FILE, got %d arguments", context.NArg())
	}

	source, err := os.ReadFile(context.Args().Get(2))
	if err != nil {
		return err
	}

	fsys, dev, err := mountImageArg(context, 3)
	if err != nil {
		return err
	}
	defer reportAndClose(dev)
	defer fsys.Unmount()

	inumber, err := inumberArg(context)
	if err != nil {
		return err
	}

	n, err := fsys.Write(inumber, source, uint32(context.Uint("offset")))
	if err != nil {
		return err
	}
	if n < len(source) {
		log.Warnf("volume full: wrote %d of %d bytes", n, len(source))
	}

	fmt.Fprintln(context.App.Writer, n)
	return nil
}

func openImageArg(context *cli.Context, nargs int) (*disk.Disk, error) {
	if context.NArg() < nargs {
		return nil, fmt.Errorf("expected at least %d arguments, got %d", nargs, context.NArg())
	}
	return disk.OpenImage(context.Args().First())
}

func mountImageArg(context *cli.Context, nargs int) (*fs.FileSystem, *disk.Disk, error) {
	dev, err := openImageArg(context, nargs)
	if err != nil {
		return nil, nil, err
	}

	fsys, err := fs.Mount(dev)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return fsys, dev, nil
}

func inumberArg(context *cli.Context) (uint32, error) {
	raw := context.Args().Get(1)
	inumber, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid inumber %q: %w", raw, err)
	}
	return uint32(inumber), nil
}

// reportAndClose surfaces the device I/O counters the way the disk emulator
// reports them at shutdown, then releases the host file.
func reportAndClose(dev *disk.Disk) {
	log.Debugf("%d disk block reads", dev.Reads())
	log.Debugf("%d disk block writes", dev.Writes())
	if err := dev.Close(); err != nil {
		log.Errorf("closing image: %s", err.Error())
	}
}
