// Package disks holds a registry of predefined volume sizes so images for
// common scenarios can be created by name instead of a raw block count.
package disks

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/lgtdlr/sfs/disk"
)

// Profile describes one predefined volume.
type Profile struct {
	Name   string `csv:"name"`
	Slug   string `csv:"slug"`
	Blocks uint32 `csv:"blocks"`
	Notes  string `csv:"notes"`
}

// TotalSizeBytes gives the size of the host image file backing this profile.
func (p *Profile) TotalSizeBytes() int64 {
	return int64(p.Blocks) * disk.BlockSize
}

// InodeCapacity gives the number of files the profile can hold: one inode
// block per ten volume blocks, 128 inodes each.
func (p *Profile) InodeCapacity() uint32 {
	return (p.Blocks + 9) / 10 * 128
}

//go:embed profiles.csv
var profilesRawCSV string
var profiles = make(map[string]Profile)

// GetPredefinedProfile looks up a profile by its slug.
func GetPredefinedProfile(slug string) (Profile, error) {
	profile, ok := profiles[slug]
	if ok {
		return profile, nil
	}

	err := fmt.Errorf("no predefined volume profile exists with slug %q", slug)
	return Profile{}, err
}

// Slugs returns every registered profile slug in sorted order.
func Slugs() []string {
	slugs := make([]string, 0, len(profiles))
	for slug := range profiles {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

func init() {
	reader := strings.NewReader(profilesRawCSV)
	err := gocsv.UnmarshalToCallback(
		reader,
		func(row Profile) error {
			_, exists := profiles[row.Slug]
			if exists {
				return fmt.Errorf(
					"duplicate definition for profile %q found on row %d",
					row.Slug,
					len(profiles)+1,
				)
			}
			if row.Blocks == 0 {
				return fmt.Errorf("profile %q has zero blocks", row.Slug)
			}
			profiles[row.Slug] = row
			return nil
		},
	)
	if err != nil && err != io.EOF {
		panic(err)
	}
}
