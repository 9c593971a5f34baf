// Package hocr renders an assembled page as an hOCR document: one
// ocr_carea per segment, one ocr_line per run and one ocrx_word per word.
// Narration timing is carried in data-t0/data-t1 attributes (milliseconds).
package hocr

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"

	"github.com/mgpai22/readalong/internal/geometry"
	"github.com/mgpai22/readalong/internal/model"
)

//go:embed templates/page.tmpl
var templateFS embed.FS

type document struct {
	Title    string
	Language string
	Image    string
	Width    int
	Height   int
	Areas    []area
}

type area struct {
	ID     string
	BBox   string
	T0, T1 int64
	Lines  []line
}

type line struct {
	ID    string
	BBox  string
	Words []word
}

type word struct {
	ID     string
	BBox   string
	Text   string
	Timed  bool
	T0, T1 int64
}

type Options struct {
	Title    string
	Language string
	Image    string // page image reference
}

// Generate renders page as hOCR.
func Generate(page *model.Page, opts Options) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/page.tmpl")
	if err != nil {
		return "", fmt.Errorf("error parsing hOCR template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, build(page, opts)); err != nil {
		return "", fmt.Errorf("error rendering hOCR template: %w", err)
	}

	return buf.String(), nil
}

func build(page *model.Page, opts Options) document {
	doc := document{
		Title:    opts.Title,
		Language: opts.Language,
		Image:    opts.Image,
		Width:    page.ImageWidth,
		Height:   page.ImageHeight,
	}
	if doc.Title == "" {
		doc.Title = "Read-along page"
	}
	if doc.Language == "" {
		doc.Language = "unknown"
	}

	for _, seg := range page.Segments {
		a := area{
			ID: "carea_" + seg.ID,
			T0: int64(seg.T0),
			T1: int64(seg.T1),
		}

		boxes := make([]geometry.BBox, 0, len(seg.Runs))
		for _, run := range seg.Runs {
			boxes = append(boxes, run.BBox)

			l := line{ID: "line_" + run.ID, BBox: formatBBox(run.BBox)}
			for _, w := range run.Words {
				hw := word{
					ID:   fmt.Sprintf("%s_%s", seg.ID, w.ID),
					BBox: formatBBox(w.BBox),
					Text: w.Text,
				}
				if w.Timing.Valid {
					hw.Timed = true
					hw.T0 = int64(w.Timing.Start)
					hw.T1 = int64(w.Timing.End)
				}
				l.Words = append(l.Words, hw)
			}
			a.Lines = append(a.Lines, l)
		}
		if len(boxes) > 0 {
			a.BBox = formatBBox(geometry.Union(boxes...))
		} else {
			a.BBox = "0 0 0 0"
		}

		doc.Areas = append(doc.Areas, a)
	}

	return doc
}

// hOCR bbox: integer x0 y0 x1 y1, expanded outward
func formatBBox(b geometry.BBox) string {
	return fmt.Sprintf("%d %d %d %d",
		int(math.Floor(b.X)),
		int(math.Floor(b.Y)),
		int(math.Ceil(b.Right())),
		int(math.Ceil(b.Bottom())),
	)
}
