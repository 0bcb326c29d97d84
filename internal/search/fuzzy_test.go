package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLibrary(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	return root
}

func TestScanSkipsNonAudio(t *testing.T) {
	root := writeLibrary(t,
		"Blue Train/Moment's Notice.mp3",
		"Blue Train/cover.jpg",
		"Kind of Blue/So What.FLAC",
		"notes.txt",
	)

	lib, err := Scan(context.Background(), root)
	require.NoError(t, err)

	var names []string
	for _, tr := range lib.Tracks() {
		names = append(names, tr.Name)
	}
	assert.ElementsMatch(t, []string{"Moment's Notice", "So What"}, names)
}

func TestResolveBestMatch(t *testing.T) {
	root := writeLibrary(t,
		"Blue Train/Moment's Notice.mp3",
		"Kind of Blue/So What.flac",
		"Kind of Blue/Freddie Freeloader.ogg",
	)
	lib, err := Scan(context.Background(), root)
	require.NoError(t, err)

	path, err := lib.Resolve("so what")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Kind of Blue", "So What.flac"), path)

	path, err = lib.Resolve("frdloader")
	require.NoError(t, err)
	assert.Equal(t, "Freddie Freeloader.ogg", filepath.Base(path))

	hits := lib.Search("kind of blue", 0)
	assert.Len(t, hits, 2)
}

func TestResolveNoMatch(t *testing.T) {
	lib, err := Scan(context.Background(), writeLibrary(t, "a/One.wav"))
	require.NoError(t, err)

	_, err = lib.Resolve("zzzzzz")
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Empty(t, lib.Search("", 5))
}

func TestScanMissingDir(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
