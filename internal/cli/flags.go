package cli

import (
	"github.com/spf13/cobra"

	"github.com/mgpai22/audiobooker/internal/config"
	"github.com/mgpai22/audiobooker/internal/har"
)

// flag defaults mirror the environment defaults in config; a flag only wins when set
func addCaptureFlags(cmd *cobra.Command) {
	cmd.Flags().
		StringP("har-file", "f", "libbyapp.com.har", "HAR capture of the listening session")
	cmd.Flags().
		String("media-host", har.DefaultMediaHost, "Host serving the audiobook parts")
}

func addSilenceFlags(cmd *cobra.Command) {
	cmd.Flags().
		Float64P("silence-duration-threshold", "d", 3.5, "Shortest silence (seconds) treated as a chapter break")
	cmd.Flags().
		Float64P("silence-db-threshold", "n", -35, "Loudness (dB) below which audio counts as silence")
	cmd.Flags().
		Float64P("maximum-silence", "m", 5, "Silences this long (seconds) or longer are ignored")
}

func addBookFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Book name used in file names")
	cmd.Flags().String("title", "", "Album tag")
	cmd.Flags().String("author", "", "Author and album artist tags")
	cmd.Flags().String("narrator", "", "Narrator")
	cmd.Flags().String("composer", "", "Composer tag (defaults to the narrator)")

	cmd.Flags().Bool("has-introduction", false, "The first segment is an introduction")
	cmd.Flags().Bool("has-prologue", false, "A prologue follows the introduction")
	cmd.Flags().Bool("has-epilogue", false, "The book ends with an epilogue")
	cmd.Flags().Bool("has-conclusion", false, "A conclusion follows the epilogue")
	cmd.Flags().Bool("no-chapters", false, "Skip silence analysis and keep one part per download")

	cmd.Flags().StringP("output-dir", "o", "download", "Working directory for downloads and chapters")
	cmd.Flags().Float64("download-rate", 2, "Maximum downloads started per second (0 = unlimited)")
	cmd.Flags().Bool("playlist", true, "Write an M3U playlist of the chapters")
	cmd.Flags().String("metrics-file", "", "Write run metrics in Prometheus text format to this file")

	cmd.Flags().String("s3-bucket", "", "Publish chapters to this S3 bucket")
	cmd.Flags().String("s3-region", "", "Region of the S3 bucket")
	cmd.Flags().String("s3-prefix", "", "Key prefix for published files")
	cmd.Flags().String("s3-endpoint", "", "Custom S3-compatible endpoint")
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	stringFlags := map[string]*string{
		"name":         &cfg.Name,
		"title":        &cfg.Title,
		"author":       &cfg.Author,
		"narrator":     &cfg.Narrator,
		"composer":     &cfg.Composer,
		"har-file":     &cfg.HARFile,
		"media-host":   &cfg.MediaHost,
		"output-dir":   &cfg.OutputDir,
		"metrics-file": &cfg.MetricsFile,
		"s3-bucket":    &cfg.S3Bucket,
		"s3-region":    &cfg.S3Region,
		"s3-prefix":    &cfg.S3Prefix,
		"s3-endpoint":  &cfg.S3Endpoint,
		"log-level":    &cfg.LogLevel,
	}
	for name, dst := range stringFlags {
		if flagChanged(cmd, name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}

	boolFlags := map[string]*bool{
		"has-introduction": &cfg.HasIntroduction,
		"has-prologue":     &cfg.HasPrologue,
		"has-epilogue":     &cfg.HasEpilogue,
		"has-conclusion":   &cfg.HasConclusion,
		"no-chapters":      &cfg.NoChapters,
		"playlist":         &cfg.Playlist,
	}
	for name, dst := range boolFlags {
		if flagChanged(cmd, name) {
			*dst, _ = cmd.Flags().GetBool(name)
		}
	}

	floatFlags := map[string]*float64{
		"silence-duration-threshold": &cfg.SilenceDurationThreshold,
		"silence-db-threshold":       &cfg.SilenceDBThreshold,
		"maximum-silence":            &cfg.MaximumSilence,
		"download-rate":              &cfg.DownloadRate,
	}
	for name, dst := range floatFlags {
		if flagChanged(cmd, name) {
			*dst, _ = cmd.Flags().GetFloat64(name)
		}
	}
}

// flagChanged reports whether a flag defined on cmd (or inherited) was set.
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
