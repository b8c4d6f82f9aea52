package audio

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/mgpai22/audiobooker/internal/ffmpeg"
)

// Interval is a quiet span inside one audio file, a chapter boundary candidate.
type Interval struct {
	Start time.Duration
	End   time.Duration
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End - i.Start
}

func (i Interval) String() string {
	return fmt.Sprintf("%s-%s", ffmpeg.FormatSeconds(i.Start), ffmpeg.FormatSeconds(i.End))
}

// Analyzer produces silencedetect diagnostics for one file.
type Analyzer interface {
	Analyze(ctx context.Context, path string, opts ffmpeg.SilenceDetect) (string, error)
}

// settings for silence location
type SilenceOptions struct {
	NoiseDB     float64       // loudness threshold in dB (negative)
	MinDuration time.Duration // shortest silence to report
	MaxDuration time.Duration // silences this long or longer are dead air, not chapter gaps
}

// Locator finds chapter-gap silences in audio files.
type Locator struct {
	analyzer Analyzer
	opts     SilenceOptions
}

func NewLocator(analyzer Analyzer, opts SilenceOptions) *Locator {
	return &Locator{analyzer: analyzer, opts: opts}
}

// Locate returns the retained silences of path in file order.
func (l *Locator) Locate(ctx context.Context, path string) ([]Interval, error) {
	out, err := l.analyzer.Analyze(ctx, path, ffmpeg.SilenceDetect{
		NoiseDB:     l.opts.NoiseDB,
		MinDuration: l.opts.MinDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("silence analysis of %s: %w", path, err)
	}

	return filterSilences(parseSilences(out), l.opts.MaxDuration), nil
}

// silencedetect prints a start line immediately followed by its end line:
//
//	[silencedetect @ 0x55d1c] silence_start: 42.123
//	[silencedetect @ 0x55d1c] silence_end: 45.456 | silence_duration: 3.333
//
// A file that opens in silence reports a negative start; that pair is not a
// chapter gap and does not match.
var silencePairRe = regexp.MustCompile(
	`(?m)^\[silencedetect.*silence_start: ([\d.]+)\r?\n` +
		`\[silencedetect.+silence_end: ([\d.]+) \| silence_duration: ([\d.]+)`,
)

type silence struct {
	Interval
	reported time.Duration
}

func parseSilences(output string) []silence {
	var silences []silence
	for _, m := range silencePairRe.FindAllStringSubmatch(output, -1) {
		start, err1 := parseSeconds(m[1])
		end, err2 := parseSeconds(m[2])
		dur, err3 := parseSeconds(m[3])
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		silences = append(silences, silence{
			Interval: Interval{Start: start, End: end},
			reported: dur,
		})
	}
	return silences
}

func filterSilences(silences []silence, maxDuration time.Duration) []Interval {
	intervals := make([]Interval, 0, len(silences))
	for _, s := range silences {
		if s.reported < maxDuration {
			intervals = append(intervals, s.Interval)
		}
	}
	return intervals
}

func parseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(f * float64(time.Second)), nil
}
