package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAudioFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"book_abc.mp3", true},
		{"BOOK.M4B", true},
		{"part.flac", true},
		{"notes.wma", false},
		{"capture.har", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAudioFile(tt.path))
		})
	}
}

func TestParseProbeDuration(t *testing.T) {
	d, err := parseProbeDuration("3723.450000\n")
	require.NoError(t, err)
	assert.Equal(t, 3723450*time.Millisecond, d.Round(time.Millisecond))

	for _, bad := range []string{"", "N/A\n", "abc"} {
		_, err = parseProbeDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestProber_PrefersTags(t *testing.T) {
	ffprobeCalled := false
	p := &Prober{
		tags: func(context.Context, string) (time.Duration, error) { return time.Minute, nil },
		ffprobe: func(context.Context, string) (time.Duration, error) {
			ffprobeCalled = true
			return 0, nil
		},
	}

	d, err := p.Duration(context.Background(), "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
	assert.False(t, ffprobeCalled)
}

func TestProber_FallsBackToFFprobe(t *testing.T) {
	p := &Prober{
		tags:    func(context.Context, string) (time.Duration, error) { return 0, errors.New("no frames") },
		ffprobe: func(context.Context, string) (time.Duration, error) { return 90 * time.Second, nil },
	}

	d, err := p.Duration(context.Background(), "a.mp3")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
}

func TestProber_BothFail(t *testing.T) {
	p := &Prober{
		tags:    func(context.Context, string) (time.Duration, error) { return 0, errors.New("no frames") },
		ffprobe: func(context.Context, string) (time.Duration, error) { return 0, errors.New("ffprobe failed") },
	}

	_, err := p.Duration(context.Background(), "a.mp3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no frames")
}
