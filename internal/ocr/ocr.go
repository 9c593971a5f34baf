package ocr

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/mgpai22/readalong/internal/geometry"
	"github.com/mgpai22/readalong/internal/model"
)

// raw OCR document as produced by the recognition backend
type Payload struct {
	Code int  `json:"code"`
	Data Data `json:"data"`
}

type Data struct {
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Words  []RawWord `json:"words"`
}

// RotatedRect is [cx, cy, w, h, angle] with (cx, cy) the box center.
type RawWord struct {
	Text        string    `json:"text"`
	RotatedRect []float64 `json:"rotated_rect"`
}

func (w RawWord) Angle() float64 {
	if len(w.RotatedRect) < 5 {
		return 0
	}
	return w.RotatedRect[4]
}

// parses and validates an OCR document
func Decode(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse OCR JSON: %w", err)
	}

	for i, w := range p.Data.Words {
		if len(w.RotatedRect) < 4 {
			return nil, fmt.Errorf(
				"word %d (%q): rotated_rect needs at least 4 values, got %d",
				i,
				w.Text,
				len(w.RotatedRect),
			)
		}
	}

	return &p, nil
}

// BuildWords converts center-based OCR records into axis-aligned words.
// Rotation is not modeled; the angle is dropped.
func BuildWords(p *Payload) []*model.Word {
	words := make([]*model.Word, 0, len(p.Data.Words))
	for i, raw := range p.Data.Words {
		cx, cy := raw.RotatedRect[0], raw.RotatedRect[1]
		w, h := raw.RotatedRect[2], raw.RotatedRect[3]
		words = append(words, &model.Word{
			ID:    fmt.Sprintf("word-%d", i),
			Index: i,
			Text:  raw.Text,
			BBox:  geometry.NewBBox(cx-w/2, cy-h/2, w, h),
		})
	}
	return words
}

// RotatedWords lists indexes of words whose angle exceeds tolerance (degrees).
func RotatedWords(p *Payload, tolerance float64) []int {
	var out []int
	for i, raw := range p.Data.Words {
		if math.Abs(raw.Angle()) > tolerance {
			out = append(out, i)
		}
	}
	return out
}
