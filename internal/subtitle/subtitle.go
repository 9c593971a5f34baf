package subtitle

import (
	"io"
	"time"

	"github.com/mgpai22/readalong/internal/model"
)

// represents single cue
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents complete cue track
type Subtitle struct {
	Entries  []Entry
	Language string // BCP 47 tag written to the VTT and ASS headers
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// interface for serializing cue tracks
type Encoder interface {
	Encode(w io.Writer, sub *Subtitle) error
}

// FromSegments emits one cue per timed run. Segments are laid end to end
// when offsets are given (offsets[i] is added to segment i's times), which
// turns per-clip timing into a single track.
func FromSegments(segments []model.Segment, offsets []time.Duration) *Subtitle {
	sub := &Subtitle{Entries: []Entry{}}

	index := 1
	for i, seg := range segments {
		var offset time.Duration
		if i < len(offsets) {
			offset = offsets[i]
		}

		for _, run := range seg.Runs {
			span := run.Span()
			if !span.Valid {
				continue
			}
			sub.Entries = append(sub.Entries, Entry{
				Index:     index,
				StartTime: offset + millis(span.Start),
				EndTime:   offset + millis(span.End),
				Text:      run.Text(),
			})
			index++
		}
	}

	return sub
}

// Offsets places each segment on the page timeline. A segment with a
// declared global range starts at its range start; otherwise it starts
// where the previous segment ended. A segment's length is, in order of
// preference, its declared duration, its global range, its probed clip,
// and finally its last timed word.
func Offsets(segments []model.Segment) []time.Duration {
	offsets := make([]time.Duration, len(segments))
	var cursor time.Duration
	for i, seg := range segments {
		if seg.Timeline.Valid {
			cursor = millis(seg.Timeline.Start)
		}
		offsets[i] = cursor
		cursor += segmentLength(seg)
	}
	return offsets
}

func segmentLength(seg model.Segment) time.Duration {
	switch {
	case seg.DurationMs > 0:
		return millis(seg.DurationMs)
	case seg.Timeline.Valid:
		return millis(seg.Timeline.End - seg.Timeline.Start)
	case seg.AudioDuration > 0:
		return seg.AudioDuration
	default:
		return millis(seg.T1)
	}
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
