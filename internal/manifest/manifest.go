package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"

	"github.com/mgpai22/readalong/internal/fetch"
	"github.com/mgpai22/readalong/internal/model"
)

var ErrInvalid = errors.New("invalid manifest")

// dataset description listing every segment of a page
type Manifest struct {
	Dataset      string    `json:"dataset"`
	Image        string    `json:"image"`
	Source       Source    `json:"source"`
	SegmentCount int       `json:"segment_count"`
	Segments     []Segment `json:"segments"`
}

type Source struct {
	Image string `json:"image"`
	Audio string `json:"audio"`
	OCR   string `json:"ocr"`
	TTS   string `json:"tts"`
}

type Segment struct {
	ID              string     `json:"id"`
	Image           string     `json:"image"`
	Audio           string     `json:"audio"`
	OCR             string     `json:"ocr"`
	TTS             string     `json:"tts"`
	GlobalTimeRange [2]float64 `json:"global_time_range_ms"`
	DurationMs      float64    `json:"duration_ms"`
	WordIndexRange  [2]float64 `json:"word_index_range"`
	Text            string     `json:"text"`
}

func Decode(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Load fetches and validates the manifest at ref.
func Load(ctx context.Context, f fetch.Fetcher, ref string) (*Manifest, error) {
	rc, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	m, err := Decode(rc)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// checks ids and the declared segment count
func (m *Manifest) Validate() error {
	if len(m.Segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrInvalid)
	}
	if m.SegmentCount != 0 && m.SegmentCount != len(m.Segments) {
		return fmt.Errorf(
			"%w: segment_count is %d but %d segments are listed",
			ErrInvalid,
			m.SegmentCount,
			len(m.Segments),
		)
	}

	seen := make(map[string]bool, len(m.Segments))
	for i, s := range m.Segments {
		if s.ID == "" {
			return fmt.Errorf("%w: segment %d has no id", ErrInvalid, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate segment id %q", ErrInvalid, s.ID)
		}
		seen[s.ID] = true
		if s.OCR == "" || s.TTS == "" {
			return fmt.Errorf("%w: segment %q is missing ocr or tts", ErrInvalid, s.ID)
		}
	}
	return nil
}

// Assets converts segments into loader inputs, resolving every file
// relative to base (the manifest's own path or URL).
func (m *Manifest) Assets(base string) []model.Asset {
	assets := make([]model.Asset, 0, len(m.Segments))
	for _, s := range m.Segments {
		assets = append(assets, model.Asset{
			ID:       s.ID,
			Text:     s.Text,
			AudioURL: Resolve(base, s.Audio),
			OCRURL:   Resolve(base, s.OCR),
			TTSURL:   Resolve(base, s.TTS),

			Timeline:   s.Timeline(),
			DurationMs: s.DurationMs,
		})
	}
	return assets
}

// Timeline returns the segment's global time range, untimed when the
// range is missing or empty.
func (s Segment) Timeline() model.Timing {
	start, end := s.GlobalTimeRange[0], s.GlobalTimeRange[1]
	if end <= start {
		return model.Timing{}
	}
	return model.At(start, end)
}

// Resolve joins ref onto the directory of base. Absolute paths and URLs
// are returned unchanged.
func Resolve(base, ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return ref
	}
	if filepath.IsAbs(ref) {
		return ref
	}

	if fetch.IsRemote(base) {
		bu, err := url.Parse(base)
		if err != nil {
			return ref
		}
		bu.Path = path.Join(path.Dir(bu.Path), ref)
		bu.RawQuery = ""
		bu.Fragment = ""
		return bu.String()
	}

	return filepath.Join(filepath.Dir(base), ref)
}
