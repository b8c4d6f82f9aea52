// Package extract cuts labeled segments out of downloaded parts.
package extract

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mgpai22/audiobooker/internal/chapter"
	"github.com/mgpai22/audiobooker/internal/ffmpeg"
	"github.com/mgpai22/audiobooker/internal/logging"
	"github.com/mgpai22/audiobooker/internal/naming"
)

// Runner performs one stream-copy extraction.
type Runner interface {
	Extract(ctx context.Context, x ffmpeg.Extraction) error
}

// book-level tags written to every segment
type Metadata struct {
	Title    string
	Author   string
	Narrator string
	Composer string // falls back to Narrator
}

// Options controls where segments go and how much silence they keep.
type Options struct {
	Dir  string
	Book string
	// Padding is kept on each side of a cut, normally half the silence threshold.
	Padding time.Duration
}

// Cutter turns segment requests into chapter files.
type Cutter struct {
	runner Runner
	meta   Metadata
	opts   Options
	logger *logging.Logger
}

// CutterOption configures a Cutter.
type CutterOption func(*Cutter)

// WithLogger sets the logger used for overwrite warnings.
func WithLogger(l *logging.Logger) CutterOption {
	return func(c *Cutter) { c.logger = l }
}

func NewCutter(runner Runner, meta Metadata, opts Options, cutterOpts ...CutterOption) *Cutter {
	c := &Cutter{
		runner: runner,
		meta:   meta,
		opts:   opts,
		logger: logging.NewNop(),
	}
	for _, opt := range cutterOpts {
		opt(c)
	}
	return c
}

// Cut extracts req and returns the path of the written file. An existing file
// with the same name is overwritten.
func (c *Cutter) Cut(ctx context.Context, req chapter.Request) (string, error) {
	output := naming.ChapterPath(c.opts.Dir, c.opts.Book, req.Label)

	if _, err := os.Stat(output); err == nil {
		c.logger.Warnw("overwriting existing segment", "path", output, "label", req.Label)
	}

	x := ffmpeg.Extraction{
		Source: req.Source,
		Start:  c.padStart(req.Start),
		End:    c.padEnd(req.End),
		Tags:   Tags(c.meta, req),
		Output: output,
	}

	c.logger.Debugw("extracting segment",
		"label", req.Label,
		"track", req.Track,
		"source", req.Source,
		"start", x.Start,
		"end", x.End,
	)

	if err := c.runner.Extract(ctx, x); err != nil {
		return "", fmt.Errorf("extract %q from %s: %w", req.Label, req.Source, err)
	}
	return output, nil
}

func (c *Cutter) padStart(start *time.Duration) *time.Duration {
	if start == nil {
		return nil
	}
	d := max(*start-c.opts.Padding, 0)
	return &d
}

func (c *Cutter) padEnd(end *time.Duration) *time.Duration {
	if end == nil {
		return nil
	}
	d := *end + c.opts.Padding
	return &d
}

// Tags returns the metadata written to a segment, in command-line order.
func Tags(meta Metadata, req chapter.Request) []ffmpeg.Tag {
	composer := meta.Composer
	if composer == "" {
		composer = meta.Narrator
	}
	return []ffmpeg.Tag{
		{Key: "album", Value: meta.Title},
		{Key: "author", Value: meta.Author},
		{Key: "album_artist", Value: meta.Author},
		{Key: "composer", Value: composer},
		{Key: "title", Value: req.Label},
		{Key: "track", Value: strconv.Itoa(req.Track)},
	}
}
