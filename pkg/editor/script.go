package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	"gopkg.in/yaml.v3"

	"niimask/internal/logging"
	"niimask/internal/models"
	"niimask/pkg/engine"
	"niimask/pkg/history"
)

// Script is a recorded editing session: an input, the events a UI shell
// would have forwarded, and where to save the result.
type Script struct {
	// Input is opened before the first event when set
	Input string `yaml:"input,omitempty"`

	// Output is saved after the last event when set
	Output string `yaml:"output,omitempty"`

	Events []Event `yaml:"events"`
}

// Event is one step of a script. Fields that are set are applied in this
// order: tool, color, width, goto, next, previous, down, move, stroke,
// polygon, preview, up, commit, undo, save.
type Event struct {
	Tool  string `yaml:"tool,omitempty"`
	Color string `yaml:"color,omitempty"`
	Width int    `yaml:"width,omitempty"`

	Goto     *int `yaml:"goto,omitempty"`
	Next     int  `yaml:"next,omitempty"`
	Previous int  `yaml:"previous,omitempty"`

	Down *[2]int  `yaml:"down,omitempty"`
	Move [][2]int `yaml:"move,omitempty"`
	Up   bool     `yaml:"up,omitempty"`

	// Stroke is down on the first point, move through the rest, then up
	Stroke [][2]int `yaml:"stroke,omitempty"`

	// Polygon selects the fill tool, adds every point and commits
	Polygon [][2]int `yaml:"polygon,omitempty"`

	// Preview writes the active frame with the fill guide drawn to an image
	Preview string `yaml:"preview,omitempty"`

	Commit bool   `yaml:"commit,omitempty"`
	Undo   int    `yaml:"undo,omitempty"`
	Save   string `yaml:"save,omitempty"`
}

// Report summarizes a script run.
type Report struct {
	Events   int
	Filled   int
	Undone   int
	Warnings []string
	Previews []string
	Saved    []string
}

// LoadScript reads a YAML script. Unknown keys are rejected.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML script.
func ParseScript(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("error parsing script: %w", err)
	}
	return &s, nil
}

func pt(p [2]int) models.Point {
	return models.Pt(p[0], p[1])
}

// Run replays the script against s. Empty fill regions and undo on an empty
// history are recorded as warnings; any other error stops the run.
func (sc *Script) Run(ctx context.Context, s *Session) (*Report, error) {
	rep := &Report{}

	if sc.Input != "" {
		if err := s.Open(ctx, sc.Input); err != nil {
			return rep, err
		}
	}

	for i, ev := range sc.Events {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := sc.apply(ctx, s, ev, rep); err != nil {
			return rep, fmt.Errorf("event %d: %w", i+1, err)
		}
		rep.Events++
	}

	if sc.Output != "" {
		path, err := s.Save(ctx, sc.Output)
		if err != nil {
			return rep, err
		}
		rep.Saved = append(rep.Saved, path)
	}

	return rep, nil
}

// warn records a non-fatal editor error and passes anything else through.
func warn(rep *Report, err error) error {
	if errors.Is(err, engine.ErrEmptyRegion) || errors.Is(err, history.ErrEmptyHistory) {
		rep.Warnings = append(rep.Warnings, err.Error())
		logging.Logger().Warn("script step had no effect", "error", err)
		return nil
	}
	return err
}

func (sc *Script) apply(ctx context.Context, s *Session, ev Event, rep *Report) error {
	if ev.Tool != "" {
		k, err := engine.ParseKind(ev.Tool)
		if err != nil {
			return err
		}
		s.SelectKind(k)
	}
	if ev.Color != "" {
		if err := s.SetColor(ev.Color); err != nil {
			return err
		}
	}
	if ev.Width != 0 {
		if err := s.SetWidth(ev.Width); err != nil {
			return err
		}
	}

	if ev.Goto != nil {
		s.SetActiveIndex(*ev.Goto)
	}
	for n := 0; n < ev.Next; n++ {
		s.Next()
	}
	for n := 0; n < ev.Previous; n++ {
		s.Previous()
	}

	if ev.Down != nil {
		if err := s.PointerDown(pt(*ev.Down)); err != nil {
			return err
		}
	}
	for _, p := range ev.Move {
		if err := s.PointerMove(pt(p)); err != nil {
			return err
		}
	}

	if len(ev.Stroke) > 0 {
		if err := s.PointerDown(pt(ev.Stroke[0])); err != nil {
			return err
		}
		// A single point still paints one brush stamp
		rest := ev.Stroke[1:]
		if len(rest) == 0 {
			rest = ev.Stroke[:1]
		}
		for _, p := range rest {
			if err := s.PointerMove(pt(p)); err != nil {
				return err
			}
		}
		if err := s.PointerUp(); err != nil {
			if err := warn(rep, err); err != nil {
				return err
			}
		}
	}

	if len(ev.Polygon) > 0 {
		s.SelectKind(engine.KindFill)
		for _, p := range ev.Polygon {
			if err := s.PointerDown(pt(p)); err != nil {
				return err
			}
		}
		ev.Commit = true
	}

	if ev.Preview != "" {
		f := s.GuideOverlay()
		if f == nil {
			return ErrNotLoaded
		}
		if err := imaging.Save(f.Image(), ev.Preview); err != nil {
			return fmt.Errorf("saving preview: %w", err)
		}
		rep.Previews = append(rep.Previews, ev.Preview)
	}

	if ev.Up {
		if err := s.PointerUp(); err != nil {
			if err := warn(rep, err); err != nil {
				return err
			}
		}
	}

	if ev.Commit {
		n, err := s.CommitFill()
		if err != nil {
			if err := warn(rep, err); err != nil {
				return err
			}
		}
		rep.Filled += n
	}

	for n := 0; n < ev.Undo; n++ {
		if err := s.Undo(); err != nil {
			if err := warn(rep, err); err != nil {
				return err
			}
			break
		}
		rep.Undone++
	}

	if ev.Save != "" {
		path, err := s.Save(ctx, ev.Save)
		if err != nil {
			return err
		}
		rep.Saved = append(rep.Saved, path)
	}

	return nil
}
