// Package naming builds the on-disk names of downloaded parts, chapter files and playlists.
package naming

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrNoBaseName is returned when a URL path does not end in a word segment.
var ErrNoBaseName = errors.New("url path has no base name")

const audioExt = ".mp3"

var (
	baseNameRe = regexp.MustCompile(`/(\w+)$`)
	unsafeRe   = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]`)
)

// Clean normalizes s to NFC and replaces characters that are not allowed in file names.
func Clean(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return unsafeRe.ReplaceAllString(s, "_")
}

// SourceBaseName returns the last URL path segment, e.g. "part01" for
// https://host/a1b2/part01. The segment must consist of word characters only, so
// paths like /a1b2/part01.mp3 have no base name.
func SourceBaseName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}
	m := baseNameRe.FindStringSubmatch(u.Path)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrNoBaseName, rawURL)
	}
	return m[1], nil
}

// DownloadPath is where the raw part downloaded from rawURL is stored.
func DownloadPath(dir, book, rawURL string) (string, error) {
	base, err := SourceBaseName(rawURL)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, Clean(book)+"_"+base+audioExt), nil
}

// ChapterPath is the output file for one labeled segment.
func ChapterPath(dir, book, label string) string {
	return filepath.Join(dir, Clean(book)+"_"+Clean(label)+audioExt)
}

// PlaylistPath is the M3U playlist for a book.
func PlaylistPath(dir, book string) string {
	return filepath.Join(dir, Clean(book)+".m3u")
}
