package progress

import (
	"math"
	"sort"

	"github.com/mgpai22/readalong/internal/model"
)

// RunProgress returns how far, in [0,1], the highlight has swept across the
// run's box at playback time tMs. Silent gaps between words are interpolated
// across the horizontal gap so the highlight keeps moving.
func RunProgress(run model.Run, tMs float64) float64 {
	timed := make([]*model.Word, 0, len(run.Words))
	for _, w := range run.Words {
		if w.Timing.Valid {
			timed = append(timed, w)
		}
	}
	if len(timed) == 0 {
		return 0
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Timing.Start < timed[j].Timing.Start
	})

	if tMs <= timed[0].Timing.Start {
		return 0
	}
	if tMs >= timed[len(timed)-1].Timing.End {
		return 1
	}

	xFill := run.BBox.X
	for i, cur := range timed {
		right := cur.BBox.Right()

		if tMs >= cur.Timing.End {
			xFill = math.Max(xFill, right)
			continue
		}

		if tMs >= cur.Timing.Start {
			ratio := clamp01((tMs - cur.Timing.Start) / math.Max(1, cur.Timing.End-cur.Timing.Start))
			xFill = math.Max(xFill, cur.BBox.X+cur.BBox.W*ratio)
			break
		}

		// tMs is before this word starts: we are in the gap after the previous one
		if i > 0 {
			prev := timed[i-1]
			prevRight := prev.BBox.Right()
			ratio := clamp01((tMs - prev.Timing.End) / math.Max(1, cur.Timing.Start-prev.Timing.End))
			xFill = math.Max(xFill, prevRight+(cur.BBox.X-prevRight)*ratio)
		}
		break
	}

	return clamp01((xFill - run.BBox.X) / math.Max(1, run.BBox.W))
}

// SegmentProgress evaluates every run of a segment at tMs.
func SegmentProgress(seg model.Segment, tMs float64) []float64 {
	out := make([]float64, len(seg.Runs))
	for i, run := range seg.Runs {
		out[i] = RunProgress(run, tMs)
	}
	return out
}

// ActiveRun returns the index of the run being narrated at tMs, or -1.
// Between runs the most recently started one stays active.
func ActiveRun(seg model.Segment, tMs float64) int {
	active := -1
	best := math.Inf(-1)
	for i, run := range seg.Runs {
		span := run.Span()
		if !span.Valid || tMs < span.Start {
			continue
		}
		if span.Start > best {
			best = span.Start
			active = i
		}
	}
	return active
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
