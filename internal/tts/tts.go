package tts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/mgpai22/readalong/internal/model"
)

// synthesized narration timing document
type Payload struct {
	Header  map[string]any `json:"header"`
	Payload Body           `json:"payload"`
}

type Body struct {
	Subtitles []Token `json:"subtitles"`
}

// one timed token; times are milliseconds into the clip
type Token struct {
	Text       string    `json:"text"`
	BeginTime  float64   `json:"begin_time"`
	EndTime    float64   `json:"end_time"`
	BeginIndex WordIndex `json:"begin_index"`
	EndIndex   WordIndex `json:"end_index"`
}

// optional word reference; anything but a whole number decodes as unset
type WordIndex struct {
	Value int
	Set   bool
}

func Index(i int) WordIndex {
	return WordIndex{Value: i, Set: true}
}

func (wi *WordIndex) UnmarshalJSON(data []byte) error {
	*wi = WordIndex{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == 'n' || data[0] == '"' {
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil
	}
	*wi = Index(int(f))
	return nil
}

func (wi WordIndex) MarshalJSON() ([]byte, error) {
	if !wi.Set {
		return []byte("null"), nil
	}
	return json.Marshal(wi.Value)
}

// parses a TTS timing document
func Decode(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse TTS JSON: %w", err)
	}
	return &p, nil
}

// AttachTiming merges each token's interval onto the word its begin_index
// points at. Tokens without a usable index are skipped.
func AttachTiming(words []*model.Word, p *Payload) (attached, skipped int) {
	if p == nil {
		return 0, 0
	}

	for _, tok := range p.Payload.Subtitles {
		idx := tok.BeginIndex
		if !idx.Set || idx.Value < 0 || idx.Value >= len(words) || words[idx.Value] == nil {
			skipped++
			continue
		}
		words[idx.Value].Timing.Merge(tok.BeginTime, tok.EndTime)
		attached++
	}

	return attached, skipped
}
