package model

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/mgpai22/readalong/internal/geometry"
)

// narration interval of a word in milliseconds; the zero value is untimed
type Timing struct {
	Start float64 `json:"t0"`
	End   float64 `json:"t1"`
	Valid bool    `json:"-"`
}

// At returns a valid timing for [start, end].
func At(start, end float64) Timing {
	return Timing{Start: start, End: end, Valid: true}
}

// Merge widens the envelope to include [start, end].
// An untimed value takes the interval as is.
func (t *Timing) Merge(start, end float64) {
	if !t.Valid {
		*t = At(start, end)
		return
	}
	t.Start = math.Min(t.Start, start)
	t.End = math.Max(t.End, end)
}

// untimed words encode as null
func (t Timing) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Start float64 `json:"t0"`
		End   float64 `json:"t1"`
	}{t.Start, t.End})
}

// one recognized word
type Word struct {
	ID     string        `json:"id"`
	Index  int           `json:"idx"`
	Text   string        `json:"text"`
	BBox   geometry.BBox `json:"bbox"`
	Timing Timing        `json:"timing"`
}

// one clustered reading line, words ordered left to right
type Run struct {
	ID    string        `json:"id"`
	BBox  geometry.BBox `json:"bbox"`
	Words []*Word       `json:"words"`
}

// Text joins the run's words with single spaces.
func (r Run) Text() string {
	var sb strings.Builder
	for i, w := range r.Words {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(w.Text)
	}
	return sb.String()
}

// Span returns the envelope of the run's timed words.
func (r Run) Span() Timing {
	var span Timing
	for _, w := range r.Words {
		if w.Timing.Valid {
			span.Merge(w.Timing.Start, w.Timing.End)
		}
	}
	return span
}

// one image region paired with one narration clip
type Segment struct {
	ID            string        `json:"id"`
	AudioURL      string        `json:"audio_url"`
	Text          string        `json:"text"`
	T0            float64       `json:"t0"`
	T1            float64       `json:"t1"`
	Runs          []Run         `json:"runs"`
	Words         []*Word       `json:"-"`
	ImageWidth    int           `json:"image_width"`
	ImageHeight   int           `json:"image_height"`
	AudioDuration time.Duration `json:"audio_duration,omitempty"`

	// position and length on the page-wide narration timeline, when declared
	Timeline   Timing  `json:"timeline"`
	DurationMs float64 `json:"duration_ms,omitempty"`
}

// input descriptor for one segment
type Asset struct {
	ID       string
	AudioURL string
	OCRURL   string
	TTSURL   string
	Text     string

	Timeline   Timing  // global [start, end] in ms; untimed if undeclared
	DurationMs float64 // declared clip length, 0 if unknown
}

// assembled result for a batch of assets
type Page struct {
	ImageWidth  int       `json:"image_width"`
	ImageHeight int       `json:"image_height"`
	Segments    []Segment `json:"segments"`
}

// TimeRange returns the min start / max end over timed words, 0/0 if none.
func TimeRange(words []*Word) (float64, float64) {
	var span Timing
	for _, w := range words {
		if w.Timing.Valid {
			span.Merge(w.Timing.Start, w.Timing.End)
		}
	}
	if !span.Valid {
		return 0, 0
	}
	return span.Start, span.End
}
