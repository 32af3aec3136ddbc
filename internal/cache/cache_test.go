package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePathwayRoundTrip(t *testing.T) {
	c := New(t.TempDir())

	_, ok, err := c.GetPathway("hsa", "hsa00010")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.PutPathway("hsa", "hsa00010", "ENTRY hsa00010\n///\n"))

	text, ok, err := c.GetPathway("hsa", "hsa00010")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ENTRY hsa00010\n///\n", text)
}

func TestCacheEnzymeFanOut(t *testing.T) {
	root := t.TempDir()
	c := New(root)

	require.NoError(t, c.PutEnzyme("2.7.1.1", "ENTRY EC 2.7.1.1\n///\n"))

	// enzyme entries fan out over the EC number components
	_, err := os.Stat(filepath.Join(root, "enzyme", "2", "7", "1", "2.7.1.1.txt"))
	require.NoError(t, err)

	text, ok, err := c.GetEnzyme("2.7.1.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ENTRY EC 2.7.1.1\n///\n", text)
}

func TestCacheSequenceRoundTrip(t *testing.T) {
	root := t.TempDir()
	c := New(root)

	require.NoError(t, c.PutSequence("hsa", "3098", ">hsa:3098\nMIAA\n"))

	_, err := os.Stat(filepath.Join(root, "aaseq", "hsa", "3098.txt"))
	require.NoError(t, err)

	text, ok, err := c.GetSequence("hsa", "3098")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ">hsa:3098\nMIAA\n", text)

	_, ok, err = c.GetSequence("hsa", "9999")
	require.NoError(t, err)
	assert.False(t, ok)
}
