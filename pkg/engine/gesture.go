package engine

import (
	"errors"

	"niimask/internal/models"
	"niimask/pkg/history"
	"niimask/pkg/raster"
)

var (
	// ErrEmptyRegion is returned when a fill is committed with fewer than
	// three collected points.
	ErrEmptyRegion = errors.New("fill region needs at least 3 points")

	// ErrNoActiveFrame is returned when a gesture targets a nil frame.
	ErrNoActiveFrame = errors.New("no active frame")
)

// State is the gesture state of the engine.
type State int

const (
	Idle State = iota
	Stroking
	Filling
)

func (s State) String() string {
	switch s {
	case Stroking:
		return "stroking"
	case Filling:
		return "filling"
	default:
		return "idle"
	}
}

// Gesture is the transient pointer state between pointer-down and
// pointer-up (pen, eraser) or commit (fill).
type Gesture struct {
	State State

	// Anchor is the last pointer position of a pen or eraser stroke
	Anchor models.Point

	// Points are the fill polygon vertices collected so far
	Points []models.Point
}

// Begin handles pointer-down. Pen and eraser strokes return a snapshot of f
// taken before anything is drawn; the caller must record it. Fill gestures
// start or extend the point list and never touch f.
func Begin(f *models.Frame, index int, tool Tool, g Gesture, p models.Point) (Gesture, *history.Entry) {
	if !tool.Strokes() {
		if g.State != Filling {
			return Gesture{State: Filling, Points: []models.Point{p}}, nil
		}
		g.Points = append(g.Points, p)
		return g, nil
	}

	snap := history.Snapshot(index, f)
	return Gesture{State: Stroking, Anchor: p}, &snap
}

// Continue handles pointer-move. While stroking it draws the segment from the
// anchor to p into f and moves the anchor, so a drag produces a connected
// polyline. While filling it appends p to the polygon.
func Continue(f *models.Frame, tool Tool, g Gesture, p models.Point) Gesture {
	switch g.State {
	case Stroking:
		raster.Line(f, g.Anchor, p, tool.Width, tool.Color)
		g.Anchor = p
	case Filling:
		g.Points = append(g.Points, p)
	}
	return g
}

// End handles pointer-up. Strokes return to Idle; fill gestures are left
// untouched until committed.
func End(g Gesture) Gesture {
	if g.State == Stroking {
		return Gesture{}
	}
	return g
}

// Commit fills the collected polygon into f with the even-odd rule. The
// returned snapshot was taken before f was modified. With fewer than three
// points it returns ErrEmptyRegion and leaves f unchanged. Either way the
// returned gesture is Idle.
func Commit(f *models.Frame, index int, tool Tool, g Gesture, rule raster.FillRule) (Gesture, *history.Entry, int, error) {
	if g.State != Filling || len(g.Points) < 3 {
		return Gesture{}, nil, 0, ErrEmptyRegion
	}

	snap := history.Snapshot(index, f)
	n := raster.FillPolygon(f, g.Points, rule, tool.Color)
	return Gesture{}, &snap, n, nil
}
