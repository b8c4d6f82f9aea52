// Package chapter assigns chapter labels and track numbers to the spans between silences.
package chapter

import (
	"fmt"
	"time"

	"github.com/mgpai22/audiobooker/internal/audio"
)

// section labels
const (
	LabelIntroduction = "Introduction"
	LabelPrologue     = "Prologue"
	LabelEpilogue     = "Epilogue"
	LabelConclusion   = "Conclusion"
)

// Options describes the book's front and back matter.
type Options struct {
	Introduction bool
	Prologue     bool
	Epilogue     bool
	Conclusion   bool
	// DetectChapters is false when silences are not analysed and each file becomes one part.
	DetectChapters bool
}

// State carries numbering across files. The zero value is the start of a run.
type State struct {
	Chapter             int
	Track               int
	IntroductionEmitted bool
	PrologueEmitted     bool
}

// Request is one span of a source file to extract.
type Request struct {
	Source string
	Start  *time.Duration // nil: from the beginning of the file
	End    *time.Duration // nil: to the end of the file
	Label  string
	Track  int
}

func (r Request) String() string {
	return fmt.Sprintf("#%d %s [%s, %s]", r.Track, r.Label, bound(r.Start, "start"), bound(r.End, "end"))
}

func bound(d *time.Duration, open string) string {
	if d == nil {
		return open
	}
	return d.String()
}

// Segmenter applies the labeling rules for one book.
type Segmenter struct {
	opts Options
}

// NewSegmenter creates a Segmenter.
func NewSegmenter(opts Options) *Segmenter {
	return &Segmenter{opts: opts}
}

// Segment splits one file at its silences. The returned requests cover the whole
// file in order: one per silence plus a trailing one that runs to the end.
// lastFile must only be set for the final file of a book that has an epilogue.
func (s *Segmenter) Segment(source string, silences []audio.Interval, state *State, lastFile bool) []Request {
	requests := make([]Request, 0, len(silences)+1)
	var next *time.Duration

	for i, silence := range silences {
		end := silence.Start
		requests = append(requests, s.emit(state, source, next, &end, s.intervalLabel(state, i == len(silences)-1, lastFile)))

		resume := silence.End
		next = &resume
	}

	return append(requests, s.emit(state, source, next, nil, s.trailingLabel(state, lastFile)))
}

func (s *Segmenter) intervalLabel(state *State, lastSilence, lastFile bool) string {
	switch {
	case s.opts.Introduction && !state.IntroductionEmitted:
		state.IntroductionEmitted = true
		return LabelIntroduction
	case s.opts.Prologue && !state.PrologueEmitted:
		state.PrologueEmitted = true
		return LabelPrologue
	case lastSilence && s.opts.Conclusion && lastFile:
		return LabelEpilogue
	default:
		state.Chapter++
		return chapterLabel(state.Chapter)
	}
}

func (s *Segmenter) trailingLabel(state *State, lastFile bool) string {
	switch {
	case lastFile && s.opts.Conclusion:
		return LabelConclusion
	case lastFile:
		return LabelEpilogue
	case !s.opts.DetectChapters:
		state.Chapter++
		return partLabel(state.Chapter)
	default:
		state.Chapter++
		return chapterLabel(state.Chapter)
	}
}

func (s *Segmenter) emit(state *State, source string, start, end *time.Duration, label string) Request {
	state.Track++
	return Request{
		Source: source,
		Start:  start,
		End:    end,
		Label:  label,
		Track:  state.Track,
	}
}

func chapterLabel(n int) string {
	return fmt.Sprintf("Chapter %d", n)
}

func partLabel(n int) string {
	return fmt.Sprintf("Part %d", n)
}
