// Package engine applies drawing gestures to frames.
//
// The gesture functions (Begin, Continue, End, Commit) are pure with respect
// to engine state: they take the frame, tool and gesture and return the new
// gesture plus the snapshot to record. Engine wraps them with tool memory and
// records every snapshot before the frame is touched.
package engine

import (
	"niimask/internal/logging"
	"niimask/internal/models"
	"niimask/pkg/history"
	"niimask/pkg/raster"
)

// Recorder receives pre-edit snapshots. *history.Stack implements it.
type Recorder interface {
	Add(e history.Entry)
}

// Defaults are the initial settings of each tool.
type Defaults struct {
	Pen    Tool
	Eraser Tool
	Fill   Tool
}

// Engine holds the tool selection and the in-progress gesture.
type Engine struct {
	// FillRule decides polygon interiors on commit
	FillRule raster.FillRule

	rec     Recorder
	tools   map[Kind]Tool
	active  Kind
	gesture Gesture
}

// New returns an idle engine with the pen selected.
func New(rec Recorder, d Defaults) *Engine {
	d.Pen.Kind = KindPen
	d.Eraser.Kind = KindEraser
	d.Fill.Kind = KindFill

	return &Engine{
		FillRule: raster.FillRuleEvenOdd,
		rec:      rec,
		tools: map[Kind]Tool{
			KindPen:    d.Pen,
			KindEraser: d.Eraser,
			KindFill:   d.Fill,
		},
		active: KindPen,
	}
}

// Tool returns the active tool with its current settings.
func (e *Engine) Tool() Tool {
	return e.tools[e.active]
}

// ToolFor returns the remembered settings of a tool kind.
func (e *Engine) ToolFor(k Kind) Tool {
	return e.tools[k]
}

// State returns the gesture state.
func (e *Engine) State() State {
	return e.gesture.State
}

// GuidePoints returns a copy of the fill points collected so far, for the
// host to draw as a guide polyline.
func (e *Engine) GuidePoints() []models.Point {
	out := make([]models.Point, len(e.gesture.Points))
	copy(out, e.gesture.Points)
	return out
}

// Select makes t the active tool and remembers its settings. Any gesture in
// progress is abandoned; collected fill points are discarded uncommitted.
func (e *Engine) Select(t Tool) {
	if e.gesture.State != Idle {
		logging.Logger().Debug("abandoning gesture on tool switch",
			"state", e.gesture.State.String(), "points", len(e.gesture.Points))
	}
	e.gesture = Gesture{}
	e.tools[t.Kind] = t
	e.active = t.Kind
}

// SelectKind activates a tool kind with its last-used settings.
func (e *Engine) SelectKind(k Kind) {
	e.Select(e.tools[k])
}

// Cancel abandons the current gesture without drawing.
func (e *Engine) Cancel() {
	e.gesture = Gesture{}
}

// BeginStroke handles pointer-down on frame f at sequence position index.
func (e *Engine) BeginStroke(f *models.Frame, index int, p models.Point) error {
	if f == nil {
		return ErrNoActiveFrame
	}

	g, snap := Begin(f, index, e.Tool(), e.gesture, p)
	if snap != nil {
		e.rec.Add(*snap)
	}
	e.gesture = g
	return nil
}

// ContinueStroke handles pointer-move.
func (e *Engine) ContinueStroke(f *models.Frame, p models.Point) error {
	if f == nil {
		return ErrNoActiveFrame
	}
	e.gesture = Continue(f, e.Tool(), e.gesture, p)
	return nil
}

// EndStroke handles pointer-up.
func (e *Engine) EndStroke() {
	e.gesture = End(e.gesture)
}

// CommitFill fills the collected polygon and returns the number of pixels
// written. With fewer than three points it returns ErrEmptyRegion and f is
// unchanged.
func (e *Engine) CommitFill(f *models.Frame, index int) (int, error) {
	if f == nil {
		e.gesture = Gesture{}
		return 0, ErrNoActiveFrame
	}

	g, snap, n, err := Commit(f, index, e.Tool(), e.gesture, e.FillRule)
	if snap != nil {
		e.rec.Add(*snap)
	}
	e.gesture = g
	return n, err
}
