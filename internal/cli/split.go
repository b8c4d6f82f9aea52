package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/audiobooker/internal/audio"
	"github.com/mgpai22/audiobooker/internal/chapter"
	"github.com/mgpai22/audiobooker/internal/config"
	"github.com/mgpai22/audiobooker/internal/download"
	"github.com/mgpai22/audiobooker/internal/extract"
	"github.com/mgpai22/audiobooker/internal/ffmpeg"
	"github.com/mgpai22/audiobooker/internal/metrics"
	"github.com/mgpai22/audiobooker/internal/pipeline"
	"github.com/mgpai22/audiobooker/internal/storage"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Download an audiobook and split it into chapters",
	Long: `Download every audiobook part referenced by the HAR capture, then cut
each part at its silences into one MP3 per chapter.

Chapters are numbered continuously across parts. Front matter
(introduction, prologue) and back matter (epilogue, conclusion) are
labeled when the corresponding flags are set.

Examples:
  audiobooker split --name dune --title Dune --author "Frank Herbert" --narrator "Scott Brick"
  audiobooker split -f session.har --name dune ... --has-prologue --has-epilogue
  audiobooker split --name dune ... --no-chapters`,
	Args: cobra.NoArgs,
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	addCaptureFlags(splitCmd)
	addSilenceFlags(splitCmd)
	addBookFlags(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		logger.Warnw(w)
	}

	logger.Infow("Starting split",
		"book", cfg.Name,
		"har_file", cfg.HARFile,
		"output_dir", cfg.OutputDir,
		"no_chapters", cfg.NoChapters,
	)
	logger.Debugw("Configuration", "config", cfg.String())

	ffmpegPath, err := ffmpeg.FFmpegPath()
	if err != nil {
		return fmt.Errorf("ffmpeg unavailable: %w", err)
	}
	runner := ffmpeg.NewRunner(ffmpegPath)

	deps := pipeline.Deps{
		Fetcher: download.New(cfg.OutputDir, cfg.Name, download.WithRate(cfg.DownloadRate)),
		Silences: audio.NewLocator(runner, audio.SilenceOptions{
			NoiseDB:     cfg.SilenceDBThreshold,
			MinDuration: cfg.MinSilence(),
			MaxDuration: cfg.MaxSilence(),
		}),
		Cutter: extract.NewCutter(runner,
			extract.Metadata{
				Title:    cfg.Title,
				Author:   cfg.Author,
				Narrator: cfg.Narrator,
				Composer: cfg.Composer,
			},
			extract.Options{Dir: cfg.OutputDir, Book: cfg.Name, Padding: cfg.Padding()},
			extract.WithLogger(logger),
		),
		Prober:  audio.NewProber(),
		Metrics: metrics.New(),
		Logger:  logger,
	}

	if cfg.S3Enabled() {
		publisher, err := storage.NewS3Publisher(ctx, storage.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Prefix:   cfg.S3Prefix,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return fmt.Errorf("s3 publisher: %w", err)
		}
		deps.Publisher = publisher
	}

	report, err := pipeline.New(pipelineOptions(cfg), deps).Run(ctx)
	if report != nil {
		report.Print(cmd.OutOrStdout())
	}
	return err
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		HARFile:   cfg.HARFile,
		MediaHost: cfg.MediaHost,
		OutputDir: cfg.OutputDir,
		Book:      cfg.Name,
		Title:     cfg.Title,
		Chapters: chapter.Options{
			Introduction:   cfg.HasIntroduction,
			Prologue:       cfg.HasPrologue,
			Epilogue:       cfg.HasEpilogue,
			Conclusion:     cfg.HasConclusion,
			DetectChapters: !cfg.NoChapters,
		},
		Playlist:    cfg.Playlist,
		MetricsFile: cfg.MetricsFile,
	}
}
