package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// silencedetect filter parameters
type SilenceDetect struct {
	NoiseDB     float64       // loudness threshold, negative dB
	MinDuration time.Duration // shortest silence ffmpeg reports
}

// Tag is one -metadata key=value pair; order is preserved on the command line.
type Tag struct {
	Key   string
	Value string
}

// Extraction is a stream-copy cut of Source into Output.
// A nil Start reads from the beginning, a nil End reads to the end of the file.
type Extraction struct {
	Source string
	Start  *time.Duration
	End    *time.Duration
	Tags   []Tag
	Output string
}

// execFn runs a binary and returns its combined stdout/stderr.
type execFn func(ctx context.Context, name string, args []string) (string, error)

// Runner invokes ffmpeg for silence analysis and segment extraction.
type Runner struct {
	ffmpegPath string
	exec       execFn
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithExec replaces process execution (for tests).
func WithExec(fn execFn) RunnerOption {
	return func(r *Runner) { r.exec = fn }
}

// NewRunner creates a Runner for the given ffmpeg binary. An empty path
// resolves to "ffmpeg" on PATH.
func NewRunner(ffmpegPath string, opts ...RunnerOption) *Runner {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	r := &Runner{
		ffmpegPath: ffmpegPath,
		exec:       combinedOutput,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Analyze runs silencedetect over path and returns the diagnostic text.
func (r *Runner) Analyze(ctx context.Context, path string, opts SilenceDetect) (string, error) {
	args := silenceDetectArgs(path, opts)
	out, err := r.exec(ctx, r.ffmpegPath, args)
	if err != nil {
		return "", r.toolError(args, out, err)
	}
	return out, nil
}

// Extract performs one cut. Existing output files are overwritten.
func (r *Runner) Extract(ctx context.Context, x Extraction) error {
	args := extractionArgs(x)
	out, err := r.exec(ctx, r.ffmpegPath, args)
	if err != nil {
		return r.toolError(args, out, err)
	}
	return nil
}

func (r *Runner) toolError(args []string, out string, err error) error {
	return &ToolError{
		Tool:   filepath.Base(r.ffmpegPath),
		Args:   args,
		Output: out,
		Err:    err,
	}
}

func silenceDetectArgs(path string, opts SilenceDetect) []string {
	filter := fmt.Sprintf("silencedetect=n=%sdB:d=%s",
		strconv.FormatFloat(opts.NoiseDB, 'f', -1, 64),
		FormatSeconds(opts.MinDuration),
	)
	return ffmpeg.Input(path).
		Output("-", ffmpeg.KwArgs{
			"af": filter,
			"f":  "null",
		}).
		GetArgs()
}

// the output path stays the final argument, so -y goes in with the output kwargs
func extractionArgs(x Extraction) []string {
	kwargs := ffmpeg.KwArgs{
		"c": "copy",
		"y": "",
	}
	if x.Start != nil {
		kwargs["ss"] = FormatSeconds(*x.Start)
	}
	if x.End != nil {
		kwargs["to"] = FormatSeconds(*x.End)
	}
	if len(x.Tags) > 0 {
		metadata := make([]string, 0, len(x.Tags))
		for _, t := range x.Tags {
			metadata = append(metadata, t.Key+"="+t.Value)
		}
		kwargs["metadata"] = metadata
	}

	return ffmpeg.Input(x.Source).Output(x.Output, kwargs).GetArgs()
}

// FormatSeconds renders d as decimal seconds, the way ffmpeg time options expect.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func combinedOutput(ctx context.Context, name string, args []string) (string, error) {
	// #nosec G204 -- args are assembled by this package, not taken from user input
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}
