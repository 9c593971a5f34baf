package layout

import (
	"fmt"
	"math"
	"sort"

	"github.com/mgpai22/readalong/internal/geometry"
	"github.com/mgpai22/readalong/internal/model"
)

// tuned for two-column scanned book pages
const (
	ColumnSplit     = 0.55 // fraction of image width separating the columns
	MinLineTol      = 10.0 // pixels
	LineTolFraction = 0.6  // of the reference word height
)

// ClusterRuns groups words into reading lines: left column then right column,
// ordered top to bottom, words left to right. Empty lines are dropped.
func ClusterRuns(words []*model.Word, imageWidth float64) [][]*model.Word {
	split := imageWidth * ColumnSplit

	var left, right []*model.Word
	for _, w := range words {
		if w.BBox.X < split {
			left = append(left, w)
		} else {
			right = append(right, w)
		}
	}

	lines := append(makeLines(left), makeLines(right)...)

	out := lines[:0]
	for _, line := range lines {
		if len(line) > 0 {
			out = append(out, line)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i][0].BBox, out[j][0].BBox
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	return out
}

// greedy line assignment within one column
func makeLines(words []*model.Word) [][]*model.Word {
	sorted := make([]*model.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ca, cb := a.BBox.CenterY(), b.BBox.CenterY(); ca != cb {
			return ca < cb
		}
		if a.BBox.X != b.BBox.X {
			return a.BBox.X < b.BBox.X
		}
		return a.Index < b.Index
	})

	var lines [][]*model.Word
	for _, w := range sorted {
		cy := w.BBox.CenterY()
		placed := false
		for i, line := range lines {
			// the first member is the line's reference word
			head := line[0].BBox
			if math.Abs(cy-head.CenterY()) <= math.Max(MinLineTol, head.H*LineTolFraction) {
				lines[i] = append(line, w)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, []*model.Word{w})
		}
	}

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			a, b := line[i], line[j]
			if a.BBox.X != b.BBox.X {
				return a.BBox.X < b.BBox.X
			}
			if ca, cb := a.BBox.CenterY(), b.BBox.CenterY(); ca != cb {
				return ca < cb
			}
			return a.Index < b.Index
		})
	}

	return lines
}

// BuildRuns clusters a segment's words and materializes each line as a run.
func BuildRuns(segmentID string, words []*model.Word, imageWidth float64) []model.Run {
	lines := ClusterRuns(words, imageWidth)
	runs := make([]model.Run, 0, len(lines))
	for i, line := range lines {
		boxes := make([]geometry.BBox, len(line))
		for j, w := range line {
			boxes[j] = w.BBox
		}
		runs = append(runs, model.Run{
			ID:    fmt.Sprintf("%s-run-%d", segmentID, i+1),
			BBox:  geometry.Union(boxes...),
			Words: line,
		})
	}
	return runs
}
