package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/simonhull/audiometa"
)

// Prober reports audio durations. Tag parsing is tried first since it needs
// no subprocess; ffprobe covers files whose headers audiometa cannot read.
type Prober struct {
	tags    func(ctx context.Context, path string) (time.Duration, error)
	ffprobe func(ctx context.Context, path string) (time.Duration, error)
}

func NewProber() *Prober {
	return &Prober{
		tags:    tagDuration,
		ffprobe: GetDuration,
	}
}

// Duration returns the playing time of path.
func (p *Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	d, tagErr := p.tags(ctx, path)
	if tagErr == nil && d > 0 {
		return d, nil
	}

	d, err := p.ffprobe(ctx, path)
	if err != nil {
		if tagErr != nil {
			return 0, fmt.Errorf("probe %s: %w (tags: %v)", path, err, tagErr)
		}
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	return d, nil
}

func tagDuration(ctx context.Context, path string) (time.Duration, error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return file.Audio.Duration, nil
}
