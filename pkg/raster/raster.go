// Package raster draws strokes and filled polygons directly into frames.
//
// Output is aliased on purpose: every pixel receives either the drawing value
// or keeps its old value, so masks never gain intermediate labels.
package raster

import (
	"math"
	"sort"

	"niimask/internal/models"
)

// FillRule specifies how to determine which areas are inside a polygon.
type FillRule int

const (
	// FillRuleEvenOdd fills pixels crossed an odd number of times.
	FillRuleEvenOdd FillRule = iota
	// FillRuleNonZero uses the non-zero winding rule.
	FillRuleNonZero
)

// Brush returns the square footprint offsets [lo, lo+width) used for a
// stroke of the given width.
func Brush(width int) (lo, hi int) {
	if width < 1 {
		width = 1
	}
	lo = -(width - 1) / 2
	return lo, lo + width
}

// Stamp paints a width x width square centred on p.
func Stamp(f *models.Frame, p models.Point, width int, v models.Value) {
	lo, hi := Brush(width)
	for dy := lo; dy < hi; dy++ {
		f.FillSpan(p.X+lo, p.X+hi, p.Y+dy, v)
	}
}

// Line draws a segment from a to b by walking Bresenham's line and stamping a
// square brush at every step. Both endpoints are painted.
func Line(f *models.Frame, a, b models.Point, width int, v models.Value) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy

	x, y := a.X, a.Y
	for {
		Stamp(f, models.Point{X: x, Y: y}, width, v)
		if x == b.X && y == b.Y {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// Polyline draws connected segments through pts.
func Polyline(f *models.Frame, pts []models.Point, width int, v models.Value) {
	if len(pts) == 1 {
		Stamp(f, pts[0], width, v)
		return
	}
	for i := 1; i < len(pts); i++ {
		Line(f, pts[i-1], pts[i], width, v)
	}
}

type edge struct {
	x0, y0 float64
	x1, y1 float64
	dir    int
}

type crossing struct {
	x   float64
	dir int
}

// FillPolygon fills the closed polygon through pts. A pixel is inside when
// its centre (x+0.5, y+0.5) is inside the polygon under rule. Vertices are
// taken as exact coordinates, so a polygon with corners (2,2) and (7,7)
// covers pixels 2..6 on both axes. It returns the number of pixels written.
func FillPolygon(f *models.Frame, pts []models.Point, rule FillRule, v models.Value) int {
	if len(pts) < 3 {
		return 0
	}

	edges := make([]edge, 0, len(pts))
	yMin := math.MaxFloat64
	yMax := -math.MaxFloat64
	for i := range pts {
		p0 := pts[i]
		p1 := pts[(i+1)%len(pts)]

		// Horizontal edges never cross a sample row
		if p0.Y == p1.Y {
			continue
		}

		e := edge{x0: float64(p0.X), y0: float64(p0.Y), x1: float64(p1.X), y1: float64(p1.Y), dir: 1}
		if e.y0 > e.y1 {
			e.x0, e.x1 = e.x1, e.x0
			e.y0, e.y1 = e.y1, e.y0
			e.dir = -1
		}
		edges = append(edges, e)
		yMin = math.Min(yMin, e.y0)
		yMax = math.Max(yMax, e.y1)
	}

	if len(edges) == 0 {
		return 0
	}

	rowMin := int(math.Floor(yMin))
	rowMax := int(math.Ceil(yMax))
	if rowMin < 0 {
		rowMin = 0
	}
	if rowMax > f.Height {
		rowMax = f.Height
	}

	written := 0
	xs := make([]crossing, 0, len(edges))
	for y := rowMin; y < rowMax; y++ {
		scanY := float64(y) + 0.5

		xs = xs[:0]
		for _, e := range edges {
			if e.y0 <= scanY && scanY < e.y1 {
				x := e.x0 + (scanY-e.y0)*(e.x1-e.x0)/(e.y1-e.y0)
				xs = append(xs, crossing{x: x, dir: e.dir})
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Slice(xs, func(i, j int) bool { return xs[i].x < xs[j].x })

		switch rule {
		case FillRuleNonZero:
			winding := 0
			var start float64
			for _, c := range xs {
				if winding == 0 {
					start = c.x
				}
				winding += c.dir
				if winding == 0 {
					written += fillSpan(f, start, c.x, y, v)
				}
			}
		default:
			for i := 0; i+1 < len(xs); i += 2 {
				written += fillSpan(f, xs[i].x, xs[i+1].x, y, v)
			}
		}
	}

	return written
}

// fillSpan paints the pixels of row y whose centres lie in [xa, xb).
func fillSpan(f *models.Frame, xa, xb float64, y int, v models.Value) int {
	x0 := int(math.Ceil(xa - 0.5))
	x1 := int(math.Ceil(xb - 0.5))
	if x0 < 0 {
		x0 = 0
	}
	if x1 > f.Width {
		x1 = f.Width
	}
	if x1 <= x0 {
		return 0
	}
	f.FillSpan(x0, x1, y, v)
	return x1 - x0
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
