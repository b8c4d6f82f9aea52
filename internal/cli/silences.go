package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/audiobooker/internal/audio"
	"github.com/mgpai22/audiobooker/internal/config"
	"github.com/mgpai22/audiobooker/internal/ffmpeg"
)

var silencesCmd = &cobra.Command{
	Use:   "silences [audio_file]",
	Short: "Show the silences that would become chapter breaks",
	Long: `Run silence detection on one audio file and print the silences that
fall between the duration threshold and the maximum silence. Use it to
tune the thresholds before splitting a whole book.

Examples:
  audiobooker silences download/dune_part01.mp3
  audiobooker silences part.mp3 -d 2.5 -n -40 -m 6`,
	Args: cobra.ExactArgs(1),
	RunE: runSilences,
}

func init() {
	rootCmd.AddCommand(silencesCmd)

	addSilenceFlags(silencesCmd)
}

func runSilences(cmd *cobra.Command, args []string) error {
	audioPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", audioPath)
	}
	if !audio.IsAudioFile(audioPath) {
		return fmt.Errorf("unsupported file type: %s (expected an audio file)", filepath.Ext(audioPath))
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if cfg.MaximumSilence <= cfg.SilenceDurationThreshold {
		return fmt.Errorf("%w: maximum-silence must be greater than silence-duration-threshold", config.ErrInvalid)
	}

	ffmpegPath, err := ffmpeg.FFmpegPath()
	if err != nil {
		return fmt.Errorf("ffmpeg unavailable: %w", err)
	}

	logger.Infow("Detecting silences",
		"file", audioPath,
		"noise_db", cfg.SilenceDBThreshold,
		"min_duration", cfg.MinSilence(),
		"max_duration", cfg.MaxSilence(),
	)

	locator := audio.NewLocator(ffmpeg.NewRunner(ffmpegPath), audio.SilenceOptions{
		NoiseDB:     cfg.SilenceDBThreshold,
		MinDuration: cfg.MinSilence(),
		MaxDuration: cfg.MaxSilence(),
	})
	silences, err := locator.Locate(ctx, audioPath)
	if err != nil {
		return err
	}

	printSilences(cmd, silences)
	return nil
}

func printSilences(cmd *cobra.Command, silences []audio.Interval) {
	out := cmd.OutOrStdout()
	for i, s := range silences {
		fmt.Fprintf(out, "%3d  %s  (%s)\n", i+1, s, s.Duration())
	}
	fmt.Fprintf(out, "%d silences, %d segments\n", len(silences), len(silences)+1)
}
