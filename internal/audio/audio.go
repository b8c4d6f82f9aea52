// Package audio locates chapter-gap silences in audiobook parts and probes their durations.
package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/audiobooker/internal/ffmpeg"
)

// extensions ffmpeg can stream-copy into an MP3 chapter
var audioExts = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".m4b":  true,
	".aac":  true,
	".ogg":  true,
	".flac": true,
	".wav":  true,
}

// IsAudioFile checks the extension only.
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// GetDuration asks ffprobe for the container duration of path.
func GetDuration(ctx context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}

	ffprobePath, err := ffmpeg.FFprobePath()
	if err != nil {
		return 0, err
	}

	// #nosec G204 -- fixed arguments, path is a local file produced by the pipeline
	out, err := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, &ffmpeg.ToolError{Tool: filepath.Base(ffprobePath), Err: err}
	}

	return parseProbeDuration(string(out))
}

// parseProbeDuration reads ffprobe's bare "seconds" output, e.g. "3723.450000".
func parseProbeDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration %q: %w", s, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
