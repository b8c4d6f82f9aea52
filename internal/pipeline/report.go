package pipeline

import (
	"fmt"
	"io"
	"time"
)

// Segment is one written chapter file.
type Segment struct {
	Label    string
	Track    int
	Path     string
	Location string // remote location when published
}

// Report summarises a run.
type Report struct {
	RunID string

	Locators   int
	Downloaded int
	Skipped    int
	Expired    int
	Invalid    int
	Failed     int

	Silences int
	Segments []Segment
	Playlist string

	Elapsed time.Duration
}

// Parts is the number of media parts available for splitting.
func (r *Report) Parts() int {
	return r.Downloaded + r.Skipped
}

// Print writes a human readable summary.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "run %s finished in %s\n", r.RunID, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  locators:  %d\n", r.Locators)
	fmt.Fprintf(w, "  downloads: %d parts (%d new, %d existing), %d expired, %d invalid, %d failed\n",
		r.Parts(), r.Downloaded, r.Skipped, r.Expired, r.Invalid, r.Failed)
	fmt.Fprintf(w, "  silences:  %d\n", r.Silences)
	fmt.Fprintf(w, "  segments:  %d\n", len(r.Segments))
	for _, s := range r.Segments {
		if s.Location != "" {
			fmt.Fprintf(w, "    %3d  %-16s %s -> %s\n", s.Track, s.Label, s.Path, s.Location)
			continue
		}
		fmt.Fprintf(w, "    %3d  %-16s %s\n", s.Track, s.Label, s.Path)
	}
	if r.Playlist != "" {
		fmt.Fprintf(w, "  playlist:  %s\n", r.Playlist)
	}
}
