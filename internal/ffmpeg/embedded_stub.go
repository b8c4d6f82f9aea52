//go:build !ffmpeg_embedded

package ffmpeg

import "io"

// regular builds carry no bundle; discovery falls through to the download
func openEmbeddedAsset(string) (io.ReadCloser, bool, error) {
	return nil, false, nil
}
