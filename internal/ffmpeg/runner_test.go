package ffmpeg

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	name string
	args []string
}

func fakeExec(out string, err error, calls *[]recordedCall) execFn {
	return func(_ context.Context, name string, args []string) (string, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return out, err
	}
}

func durationPtr(d time.Duration) *time.Duration { return &d }

func TestRunner_AnalyzeBuildsSilenceDetect(t *testing.T) {
	var calls []recordedCall
	diag := "[silencedetect @ 0x1] silence_start: 10\n[silencedetect @ 0x1] silence_end: 12 | silence_duration: 2\n"
	r := NewRunner("/opt/ffmpeg", WithExec(fakeExec(diag, nil, &calls)))

	out, err := r.Analyze(context.Background(), "book_part1.mp3", SilenceDetect{
		NoiseDB:     -35,
		MinDuration: 3500 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, diag, out)

	require.Len(t, calls, 1)
	assert.Equal(t, "/opt/ffmpeg", calls[0].name)
	joined := strings.Join(calls[0].args, " ")
	assert.Contains(t, joined, "-i book_part1.mp3")
	assert.Contains(t, joined, "silencedetect=n=-35dB:d=3.5")
	assert.Contains(t, joined, "-f null")
	assert.Equal(t, "-", calls[0].args[len(calls[0].args)-1])
}

func TestRunner_AnalyzeFailureIsToolError(t *testing.T) {
	var calls []recordedCall
	exitErr := errors.New("exit status 1")
	r := NewRunner("ffmpeg", WithExec(fakeExec("book_part1.mp3: No such file or directory\n", exitErr, &calls)))

	_, err := r.Analyze(context.Background(), "book_part1.mp3", SilenceDetect{NoiseDB: -35, MinDuration: time.Second})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolExecution)
	assert.ErrorIs(t, err, exitErr)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "ffmpeg", toolErr.Tool)
	assert.Contains(t, toolErr.Error(), "No such file or directory")
}

func TestRunner_ExtractOutputIsLastArgument(t *testing.T) {
	var calls []recordedCall
	r := NewRunner("ffmpeg", WithExec(fakeExec("", nil, &calls)))

	err := r.Extract(context.Background(), Extraction{
		Source: "download/book_abc.mp3",
		Start:  durationPtr(10250 * time.Millisecond),
		End:    durationPtr(50 * time.Second),
		Tags:   []Tag{{Key: "title", Value: "Chapter 2"}},
		Output: "download/book_Chapter 2.mp3",
	})
	require.NoError(t, err)
	require.Len(t, calls, 1)

	args := calls[0].args
	assert.Equal(t, "download/book_Chapter 2.mp3", args[len(args)-1])
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i download/book_abc.mp3")
	assert.Contains(t, joined, "-c copy")
	assert.Contains(t, joined, "-ss 10.25")
	assert.Contains(t, joined, "-to 50")
	assert.Contains(t, args, "-y")
}

func TestRunner_ExtractOpenRange(t *testing.T) {
	var calls []recordedCall
	r := NewRunner("ffmpeg", WithExec(fakeExec("", nil, &calls)))

	require.NoError(t, r.Extract(context.Background(), Extraction{
		Source: "in.mp3",
		Output: "out.mp3",
	}))

	assert.NotContains(t, calls[0].args, "-ss")
	assert.NotContains(t, calls[0].args, "-to")
}

func TestRunner_ExtractFailure(t *testing.T) {
	var calls []recordedCall
	r := NewRunner("ffmpeg", WithExec(fakeExec("Invalid data found when processing input", errors.New("exit status 69"), &calls)))

	err := r.Extract(context.Background(), Extraction{Source: "in.mp3", Output: "out.mp3"})
	assert.ErrorIs(t, err, ErrToolExecution)
}

func TestNewRunner_DefaultPath(t *testing.T) {
	r := NewRunner("")
	assert.Equal(t, "ffmpeg", r.ffmpegPath)
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0"},
		{1750 * time.Millisecond, "1.75"},
		{52 * time.Second, "52"},
		{90*time.Minute + 500*time.Millisecond, "5400.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSeconds(tt.in))
	}
}

func TestLastLines(t *testing.T) {
	out := "a\nb\nc\nd\n"
	assert.Equal(t, "c\nd", lastLines(out, 2))
	assert.Equal(t, "a\nb\nc\nd", lastLines(out, 10))
	assert.Equal(t, "", lastLines("", 3))
}
