package playlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dune.m3u")

	p := New("Dune")
	p.Add(Entry{Path: filepath.Join(dir, "dune_Prologue.mp3"), Title: "Prologue", Duration: 95600 * time.Millisecond})
	p.Add(Entry{Path: filepath.Join(dir, "dune_Chapter 1.mp3"), Title: "Chapter 1"})
	p.Add(Entry{Path: "/elsewhere/dune_Chapter 2.mp3", Title: "Chapter\n2", Duration: time.Minute})
	require.Equal(t, 3, p.Len())

	require.NoError(t, p.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n"+
		"#PLAYLIST:Dune\n"+
		"#EXTINF:96,Prologue\n"+
		"dune_Prologue.mp3\n"+
		"#EXTINF:-1,Chapter 1\n"+
		"dune_Chapter 1.mp3\n"+
		"#EXTINF:60,Chapter 2\n"+
		"/elsewhere/dune_Chapter 2.mp3\n", string(data))
}

func TestWrite_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "book.m3u")

	require.NoError(t, New("").Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n", string(data))
}
