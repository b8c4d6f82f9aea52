// Package playlist writes extended M3U playlists for generated chapters.
package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// one playlist line pair
type Entry struct {
	Path     string
	Title    string
	Duration time.Duration // zero when unknown
}

// extended M3U playlist
type Playlist struct {
	Title   string
	Entries []Entry
}

func New(title string) *Playlist {
	return &Playlist{Title: title}
}

func (p *Playlist) Add(e Entry) {
	p.Entries = append(p.Entries, e)
}

// Len returns the number of entries.
func (p *Playlist) Len() int {
	return len(p.Entries)
}

// writes the playlist to path; entries in the same directory are written relative to it
func (p *Playlist) Write(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	dir := filepath.Dir(path)

	var sb strings.Builder
	sb.WriteString("#EXTM3U\n")
	if p.Title != "" {
		sb.WriteString(fmt.Sprintf("#PLAYLIST:%s\n", oneLine(p.Title)))
	}

	for _, e := range p.Entries {
		// #EXTINF:seconds,title (-1 when unknown)
		sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s\n", extinfSeconds(e.Duration), oneLine(e.Title)))
		sb.WriteString(relativeTo(dir, e.Path))
		sb.WriteString("\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func extinfSeconds(d time.Duration) int {
	if d <= 0 {
		return -1
	}
	return int(d.Round(time.Second) / time.Second)
}

func relativeTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
