package geometry

import "math"

// axis-aligned rectangle in image pixel space
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NewBBox builds a box, clamping degenerate width/height to 1.
func NewBBox(x, y, w, h float64) BBox {
	return BBox{X: x, Y: y, W: math.Max(1, w), H: math.Max(1, h)}
}

func (b BBox) Right() float64 {
	return b.X + b.W
}

func (b BBox) Bottom() float64 {
	return b.Y + b.H
}

func (b BBox) CenterY() float64 {
	return b.Y + b.H/2
}

// reports whether other lies fully inside b
func (b BBox) Contains(other BBox) bool {
	return other.X >= b.X && other.Y >= b.Y &&
		other.Right() <= b.Right() && other.Bottom() <= b.Bottom()
}

// Union returns the minimal rectangle enclosing every box.
// Callers pass at least one box; an empty call yields the zero box.
func Union(boxes ...BBox) BBox {
	if len(boxes) == 0 {
		return BBox{}
	}

	x0, y0 := boxes[0].X, boxes[0].Y
	x1, y1 := boxes[0].Right(), boxes[0].Bottom()
	for _, b := range boxes[1:] {
		x0 = math.Min(x0, b.X)
		y0 = math.Min(y0, b.Y)
		x1 = math.Max(x1, b.Right())
		y1 = math.Max(y1, b.Bottom())
	}

	return BBox{X: x0, Y: y0, W: math.Max(1, x1-x0), H: math.Max(1, y1-y0)}
}

// Expand pads a box for highlighting. Vertical padding is asymmetric
// so descenders stay inside the highlight.
func Expand(b BBox) BBox {
	padX := math.Max(1, round(b.H*0.06))
	top := math.Max(1, round(b.H*0.10))
	bottom := math.Max(2, round(b.H*0.18))

	return BBox{
		X: b.X - padX,
		Y: b.Y - top,
		W: math.Max(1, b.W+padX*2),
		H: math.Max(1, b.H+top+bottom),
	}
}

// half rounds toward +Inf, matching the renderer's rounding
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}
