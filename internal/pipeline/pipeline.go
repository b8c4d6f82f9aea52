// Package pipeline runs a whole book: capture, downloads, silence analysis, segmentation and extraction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/audiobooker/internal/audio"
	"github.com/mgpai22/audiobooker/internal/chapter"
	"github.com/mgpai22/audiobooker/internal/download"
	"github.com/mgpai22/audiobooker/internal/har"
	"github.com/mgpai22/audiobooker/internal/logging"
	"github.com/mgpai22/audiobooker/internal/metrics"
	"github.com/mgpai22/audiobooker/internal/naming"
	"github.com/mgpai22/audiobooker/internal/playlist"
	"github.com/mgpai22/audiobooker/internal/storage"
)

// Fetcher downloads one media part.
type Fetcher interface {
	Fetch(ctx context.Context, loc har.Locator) (download.Result, error)
}

// SilenceLocator finds chapter gaps in one file.
type SilenceLocator interface {
	Locate(ctx context.Context, path string) ([]audio.Interval, error)
}

// Cutter writes one segment and returns its path.
type Cutter interface {
	Cut(ctx context.Context, req chapter.Request) (string, error)
}

// DurationProber reports the playing time of a file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Options describes one run.
type Options struct {
	HARFile   string
	MediaHost string
	OutputDir string
	Book      string // file name stem
	Title     string
	Chapters  chapter.Options

	Playlist    bool
	MetricsFile string
}

// Deps are the collaborators of a run. Prober, Publisher and Metrics are optional.
type Deps struct {
	Fetcher   Fetcher
	Silences  SilenceLocator
	Cutter    Cutter
	Prober    DurationProber
	Publisher storage.Publisher
	Metrics   *metrics.Recorder
	Logger    *logging.Logger
}

// Orchestrator sequences one book from capture to chapter files.
type Orchestrator struct {
	opts Options
	deps Deps
}

func New(opts Options, deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	return &Orchestrator{opts: opts, deps: deps}
}

// Run processes the book. Download failures skip the part; a capture parse error
// or a tool failure aborts the run.
func (o *Orchestrator) Run(ctx context.Context) (report *Report, err error) {
	started := time.Now()
	report = &Report{RunID: uuid.NewString()}
	logger := o.deps.Logger.With("run_id", report.RunID)

	defer func() {
		report.Elapsed = time.Since(started)
		if err == nil {
			o.deps.Metrics.MarkSuccess(time.Now())
		}
		if o.opts.MetricsFile != "" {
			if werr := o.deps.Metrics.WriteTextfile(o.opts.MetricsFile); werr != nil {
				logger.Warnw("failed to write metrics", "path", o.opts.MetricsFile, "error", werr)
			}
		}
	}()

	locators, err := har.LoadFile(o.opts.HARFile, o.opts.MediaHost)
	if err != nil {
		return report, err
	}
	report.Locators = len(locators)
	o.deps.Metrics.Locators.Add(float64(len(locators)))
	logger.Infow("media locators extracted", "har_file", o.opts.HARFile, "count", len(locators))

	files, err := o.downloadAll(ctx, logger, locators, report)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		logger.Warnw("no media parts available, nothing to split")
		return report, nil
	}

	list := playlist.New(o.opts.Title)
	state := &chapter.State{}
	segmenter := chapter.NewSegmenter(o.opts.Chapters)

	for i, file := range files {
		lastFile := o.opts.Chapters.Epilogue && i == len(files)-1
		if err := o.splitFile(ctx, logger, segmenter, state, file, lastFile, list, report); err != nil {
			return report, err
		}
	}

	if o.opts.Playlist && list.Len() > 0 {
		path := naming.PlaylistPath(o.opts.OutputDir, o.opts.Book)
		if err := list.Write(path); err != nil {
			return report, fmt.Errorf("write playlist: %w", err)
		}
		report.Playlist = path
		logger.Infow("playlist written", "path", path, "entries", list.Len())
		o.publish(ctx, logger, path)
	}

	logger.Infow("book split",
		"segments", len(report.Segments),
		"chapters", state.Chapter,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return report, nil
}

func (o *Orchestrator) downloadAll(
	ctx context.Context,
	logger *logging.Logger,
	locators []har.Locator,
	report *Report,
) ([]string, error) {
	files := make([]string, 0, len(locators))

	for i, loc := range locators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := o.deps.Fetcher.Fetch(ctx, loc)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			o.recordFailure(logger, i, loc, err, report)
			continue
		}

		if res.Skipped {
			report.Skipped++
			o.deps.Metrics.Downloads.WithLabelValues(metrics.OutcomeSkipped).Inc()
			logger.Infow("part already downloaded", "index", i+1, "path", res.Path)
		} else {
			report.Downloaded++
			o.deps.Metrics.Downloads.WithLabelValues(metrics.OutcomeDownloaded).Inc()
			o.deps.Metrics.DownloadBytes.Add(float64(res.Bytes))
			logger.Infow("part downloaded", "index", i+1, "path", res.Path, "bytes", res.Bytes)
		}
		files = append(files, res.Path)
	}
	return files, nil
}

func (o *Orchestrator) recordFailure(logger *logging.Logger, i int, loc har.Locator, err error, report *Report) {
	switch {
	case errors.Is(err, download.ErrExpired):
		report.Expired++
		o.deps.Metrics.Downloads.WithLabelValues(metrics.OutcomeExpired).Inc()
		logger.Warnw("media link expired, capture a fresh HAR to fetch it", "index", i+1, "error", err)
	case errors.Is(err, download.ErrInvalidLocator):
		report.Invalid++
		o.deps.Metrics.Downloads.WithLabelValues(metrics.OutcomeInvalid).Inc()
		logger.Warnw("skipping unusable locator", "index", i+1, "error", err)
	default:
		report.Failed++
		o.deps.Metrics.Downloads.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Errorw("download failed", "index", i+1, "url", loc.URL, "error", err)
	}
}

func (o *Orchestrator) splitFile(
	ctx context.Context,
	logger *logging.Logger,
	segmenter *chapter.Segmenter,
	state *chapter.State,
	file string,
	lastFile bool,
	list *playlist.Playlist,
	report *Report,
) error {
	var silences []audio.Interval
	if o.opts.Chapters.DetectChapters {
		began := time.Now()
		found, err := o.deps.Silences.Locate(ctx, file)
		o.deps.Metrics.ObserveTool(metrics.OpAnalyze, began)
		if err != nil {
			return err
		}
		silences = found
		report.Silences += len(silences)
		o.deps.Metrics.Silences.Add(float64(len(silences)))
		logger.Infow("silences located", "file", file, "count", len(silences))
	}

	for _, req := range segmenter.Segment(file, silences, state, lastFile) {
		began := time.Now()
		path, err := o.deps.Cutter.Cut(ctx, req)
		o.deps.Metrics.ObserveTool(metrics.OpExtract, began)
		if err != nil {
			return err
		}
		o.deps.Metrics.Segments.Inc()
		logger.Infow("segment written", "label", req.Label, "track", req.Track, "path", path)

		seg := Segment{Label: req.Label, Track: req.Track, Path: path}
		seg.Location = o.publish(ctx, logger, path)
		report.Segments = append(report.Segments, seg)

		list.Add(playlist.Entry{Path: path, Title: req.Label, Duration: o.duration(ctx, logger, path)})
	}
	return nil
}

// publish uploads path when a publisher is configured. Failures are logged, the
// local file is still the result of the run.
func (o *Orchestrator) publish(ctx context.Context, logger *logging.Logger, path string) string {
	if o.deps.Publisher == nil {
		return ""
	}
	location, err := o.deps.Publisher.Publish(ctx, path)
	if err != nil {
		logger.Warnw("publish failed", "path", path, "error", err)
		return ""
	}
	o.deps.Metrics.Published.Inc()
	logger.Debugw("published", "path", path, "location", location)
	return location
}

func (o *Orchestrator) duration(ctx context.Context, logger *logging.Logger, path string) time.Duration {
	if o.deps.Prober == nil || !o.opts.Playlist {
		return 0
	}
	d, err := o.deps.Prober.Duration(ctx, path)
	if err != nil {
		logger.Debugw("duration unavailable", "path", path, "error", err)
		return 0
	}
	return d
}
