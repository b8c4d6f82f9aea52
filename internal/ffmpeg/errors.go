package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolExecution marks a non-zero exit of ffmpeg or ffprobe. Runs abort on it.
	ErrToolExecution = errors.New("external tool failed")

	// ErrNotFound indicates no usable ffmpeg/ffprobe pair could be located or installed.
	ErrNotFound = errors.New("ffmpeg not found")

	// ErrUnsupportedPlatform indicates there is no prebuilt bundle for this OS/architecture.
	ErrUnsupportedPlatform = errors.New("unsupported platform for bundled ffmpeg")
)

// diagnosticTail is how many trailing lines of tool output end up in the error message.
const diagnosticTail = 8

// ToolError describes a failed ffmpeg invocation.
type ToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with error: %v", e.Tool, e.Err)
	if tail := lastLines(e.Output, diagnosticTail); tail != "" {
		msg += "\n" + tail
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Is reports ErrToolExecution so callers can match with errors.Is.
func (e *ToolError) Is(target error) bool {
	return target == ErrToolExecution
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
