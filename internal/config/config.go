// Package config provides run configuration from defaults, environment variables and flags.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "AUDIOBOOKER_"

// Config holds the settings for one run.
type Config struct {
	// Book metadata
	Name     string `env:"NAME" json:"name" validate:"required"`
	Title    string `env:"TITLE" json:"title" validate:"required"`
	Author   string `env:"AUTHOR" json:"author" validate:"required"`
	Narrator string `env:"NARRATOR" json:"narrator" validate:"required"`
	Composer string `env:"COMPOSER" json:"composer"` // defaults to the narrator

	// Book structure
	HasIntroduction bool `env:"HAS_INTRODUCTION" json:"has_introduction"`
	HasPrologue     bool `env:"HAS_PROLOGUE" json:"has_prologue"`
	HasEpilogue     bool `env:"HAS_EPILOGUE" json:"has_epilogue"`
	HasConclusion   bool `env:"HAS_CONCLUSION" json:"has_conclusion"`

	// Input and output
	HARFile   string `env:"HAR_FILE, default=libbyapp.com.har" json:"har_file" validate:"required"`
	OutputDir string `env:"OUTPUT_DIR, default=download" json:"output_dir" validate:"required"`
	MediaHost string `env:"MEDIA_HOST, default=odrmediaclips.cachefly.net" json:"media_host" validate:"required,hostname_rfc1123"`

	// Silence detection, in seconds and dB
	SilenceDurationThreshold float64 `env:"SILENCE_DURATION_THRESHOLD, default=3.5" json:"silence_duration_threshold" validate:"gt=0"`
	SilenceDBThreshold       float64 `env:"SILENCE_DB_THRESHOLD, default=-35" json:"silence_db_threshold" validate:"lt=0"`
	MaximumSilence           float64 `env:"MAXIMUM_SILENCE, default=5" json:"maximum_silence" validate:"gtfield=SilenceDurationThreshold"`
	NoChapters               bool    `env:"NO_CHAPTERS" json:"no_chapters"`

	DownloadRate float64 `env:"DOWNLOAD_RATE, default=2" json:"download_rate" validate:"gte=0"` // per second, 0 = unlimited
	Playlist     bool    `env:"PLAYLIST, default=true" json:"playlist"`
	MetricsFile  string  `env:"METRICS_FILE" json:"metrics_file,omitempty"`

	// Optional S3 publishing
	S3Bucket   string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region   string `env:"S3_REGION" json:"s3_region,omitempty" validate:"required_with=S3Bucket"`
	S3Prefix   string `env:"S3_PREFIX" json:"s3_prefix,omitempty"`
	S3Endpoint string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`

	LogLevel string `env:"LOG_LEVEL, default=info" json:"log_level" validate:"oneof=debug info warn warning error"`
}

// Load reads configuration from AUDIOBOOKER_* environment variables.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through the given lookuper (unprefixed names are prefixed).
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, l),
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// S3Enabled returns true if a bucket is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// EffectiveComposer is the composer tag value.
func (c *Config) EffectiveComposer() string {
	if c.Composer != "" {
		return c.Composer
	}
	return c.Narrator
}

// MinSilence is the shortest silence treated as a chapter break.
func (c *Config) MinSilence() time.Duration {
	return seconds(c.SilenceDurationThreshold)
}

// MaxSilence is the exclusive upper bound on a chapter-break silence.
func (c *Config) MaxSilence() time.Duration {
	return seconds(c.MaximumSilence)
}

// Padding is the silence kept on each side of a cut.
func (c *Config) Padding() time.Duration {
	return c.MinSilence() / 2
}

// Warnings lists settings that are valid but probably not what the user meant.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.HasConclusion && !c.HasEpilogue {
		warnings = append(warnings, "has-conclusion has no effect without has-epilogue")
	}
	if c.NoChapters && (c.HasIntroduction || c.HasPrologue) {
		warnings = append(warnings, "introduction and prologue are not detected when chapter detection is disabled")
	}
	return warnings
}

// String returns a one-line summary of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Name: %s, HARFile: %s, OutputDir: %s, MediaHost: %s, SilenceDurationThreshold: %g, SilenceDBThreshold: %g, MaximumSilence: %g, NoChapters: %t, S3Bucket: %s, LogLevel: %s}",
		c.Name,
		c.HARFile,
		c.OutputDir,
		c.MediaHost,
		c.SilenceDurationThreshold,
		c.SilenceDBThreshold,
		c.MaximumSilence,
		c.NoChapters,
		c.S3Bucket,
		c.LogLevel,
	)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
