package disks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgtdlr/sfs/disks"
)

func TestGetPredefinedProfile(t *testing.T) {
	profile, err := disks.GetPredefinedProfile("tiny")
	require.NoError(t, err)

	assert.Equal(t, "tiny", profile.Slug)
	assert.EqualValues(t, 20, profile.Blocks)
	assert.EqualValues(t, 20*4096, profile.TotalSizeBytes())
	assert.EqualValues(t, 256, profile.InodeCapacity())
}

func TestGetPredefinedProfileUnknownSlug(t *testing.T) {
	_, err := disks.GetPredefinedProfile("no-such-volume")
	assert.Error(t, err)
}

func TestSlugsAreSortedAndComplete(t *testing.T) {
	slugs := disks.Slugs()
	assert.Equal(t, []string{"large", "medium", "scratch", "small", "tiny"}, slugs)
}
