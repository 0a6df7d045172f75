// Package editor wires the frame store, edit engine and history stack into
// the session a UI shell talks to. The shell forwards pointer events, tool
// selection, navigation, undo and save; the session owns everything else.
package editor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"niimask/internal/logging"
	"niimask/internal/models"
	"niimask/pkg/codec"
	"niimask/pkg/codec/document"
	"niimask/pkg/codec/imagedir"
	"niimask/pkg/codec/nifti"
	"niimask/pkg/config"
	"niimask/pkg/engine"
	"niimask/pkg/framestore"
	"niimask/pkg/history"
	"niimask/pkg/raster"
)

// ErrUnknownFormat is returned for paths no codec handles.
var ErrUnknownFormat = errors.New("unknown file format")

// ErrNotLoaded is returned by operations that need an open sequence.
var ErrNotLoaded = errors.New("no sequence loaded")

// CodecFor picks the codec for path: .nii and .nii.gz volumes, .pdf
// documents, and directories (existing, or extension-less for saving) of
// slice images.
func CodecFor(path string, cfg *config.Config) (codec.Codec, error) {
	switch {
	case nifti.Match(path):
		return nifti.New(cfg.Volume.Axis), nil
	case document.Match(path):
		return document.New(cfg.Document.DPI), nil
	case imagedir.Match(path), filepath.Ext(path) == "":
		return imagedir.New(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// DefaultOutputPath returns drawed_<name> next to path, keeping the format.
// Compressed volumes are saved uncompressed.
func DefaultOutputPath(path string) string {
	path = filepath.Clean(path)
	dir, base := filepath.Split(path)

	if strings.HasSuffix(strings.ToLower(base), ".nii.gz") {
		base = base[:len(base)-len(".gz")]
	}

	return filepath.Join(dir, "drawed_"+base)
}

// Session is one editing session over one loaded sequence. It is not safe
// for concurrent use; a host drives it from a single event loop.
type Session struct {
	// AutoCommitFill commits a fill polygon on pointer-up
	AutoCommitFill bool

	cfg     *config.Config
	store   *framestore.Store
	history *history.Stack
	engine  *engine.Engine
	path    string
}

// NewSession returns an empty session using cfg (DefaultConfig when nil).
func NewSession(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	stack := history.NewStack(cfg.Editor.UndoLimit)
	eng, err := newEngine(cfg, models.SourceVolume, 1, stack)
	if err != nil {
		return nil, err
	}

	return &Session{
		AutoCommitFill: cfg.Editor.AutoCommitFill,
		cfg:            cfg,
		store:          framestore.New(),
		history:        stack,
		engine:         eng,
	}, nil
}

// newEngine builds an engine with the tool defaults for the given source
// kind, resolving colors for frames with channels channels.
func newEngine(cfg *config.Config, kind models.SourceKind, channels int, rec engine.Recorder) (*engine.Engine, error) {
	v := cfg.Variant(kind)

	pen, err := cfg.Palette.Resolve(v.Pen.Color, channels)
	if err != nil {
		return nil, fmt.Errorf("pen color: %w", err)
	}
	eraser, err := cfg.Palette.Resolve(v.Eraser.Color, channels)
	if err != nil {
		return nil, fmt.Errorf("eraser color: %w", err)
	}
	fill, err := cfg.Palette.Resolve(v.Fill.Color, channels)
	if err != nil {
		return nil, fmt.Errorf("fill color: %w", err)
	}

	return engine.New(rec, engine.Defaults{
		Pen:    engine.Pen(pen, v.Pen.Width),
		Eraser: engine.Eraser(eraser, v.Eraser.Width),
		Fill:   engine.FillRegion(fill),
	}), nil
}

// Open loads the file or directory at path and replaces the session's
// sequence. History is cleared and the tools get the defaults of the new
// source kind. On error the session is unchanged.
func (s *Session) Open(ctx context.Context, path string) error {
	c, err := CodecFor(path, s.cfg)
	if err != nil {
		return err
	}

	seq, err := c.Load(ctx, path)
	if err != nil {
		return err
	}
	return s.Load(seq)
}

// Load replaces the session's sequence with seq. On error the session is
// unchanged.
func (s *Session) Load(seq *models.Sequence) error {
	if seq == nil || seq.Len() == 0 || seq.Frames[0] == nil {
		return fmt.Errorf("%w: empty sequence", framestore.ErrInvalidSequence)
	}

	stack := history.NewStack(s.cfg.Editor.UndoLimit)
	eng, err := newEngine(s.cfg, seq.Source.Kind, seq.Frames[0].Channels, stack)
	if err != nil {
		return err
	}

	if err := s.store.Load(seq); err != nil {
		return err
	}

	s.history = stack
	s.engine = eng
	s.path = seq.Source.Path

	logging.Logger().Info("opened sequence", "path", s.path, "kind", seq.Source.Kind.String(),
		"frames", seq.Len(), "shape", seq.Frames[0].Shape())
	return nil
}

// Path returns the path the current sequence was loaded from.
func (s *Session) Path() string {
	return s.path
}

// Len returns the number of frames.
func (s *Session) Len() int {
	return s.store.Len()
}

// Index returns the active frame index.
func (s *Session) Index() int {
	return s.store.Index()
}

// ActiveFrame returns the frame being edited, or nil before Open.
func (s *Session) ActiveFrame() *models.Frame {
	return s.store.ActiveFrame()
}

// Sequence returns the loaded sequence.
func (s *Session) Sequence() *models.Sequence {
	return s.store.Sequence()
}

// State returns the gesture state.
func (s *Session) State() engine.State {
	return s.engine.State()
}

// Tool returns the active tool.
func (s *Session) Tool() engine.Tool {
	return s.engine.Tool()
}

// GuidePoints returns the fill polygon collected so far.
func (s *Session) GuidePoints() []models.Point {
	return s.engine.GuidePoints()
}

// UndoDepth returns the number of undoable edits.
func (s *Session) UndoDepth() int {
	return s.history.Len()
}

// HistoryBytes returns the encoded size of all undo snapshots.
func (s *Session) HistoryBytes() int {
	return s.history.Bytes()
}

// GuideOverlay returns a copy of the active frame with the fill points
// collected so far drawn as a one pixel polyline in the fill color. The
// frame being edited is not touched. It returns nil before Open.
func (s *Session) GuideOverlay() *models.Frame {
	f := s.store.ActiveFrame()
	if f == nil {
		return nil
	}

	out := f.Clone()
	if pts := s.engine.GuidePoints(); len(pts) > 0 {
		raster.Polyline(out, pts, 1, s.engine.ToolFor(engine.KindFill).Color)
	}
	return out
}

// SelectTool makes t the active tool. A fill in progress is discarded.
func (s *Session) SelectTool(t engine.Tool) {
	s.engine.Select(t)
}

// SelectKind activates a tool kind with its remembered settings.
func (s *Session) SelectKind(k engine.Kind) {
	s.engine.SelectKind(k)
}

// SetColor changes the active tool's color: a palette label, a
// #rrggbb code or an intensity.
func (s *Session) SetColor(color string) error {
	channels := 1
	if f := s.store.ActiveFrame(); f != nil {
		channels = f.Channels
	}

	v, err := s.cfg.Palette.Resolve(color, channels)
	if err != nil {
		return err
	}
	t := s.engine.Tool()
	t.Color = v
	s.engine.Select(t)
	return nil
}

// SetWidth changes the active tool's brush width.
func (s *Session) SetWidth(width int) error {
	if width < 1 {
		return fmt.Errorf("brush width must be >= 1, got %d", width)
	}
	t := s.engine.Tool()
	t.Width = width
	s.engine.Select(t)
	return nil
}

// PointerDown starts a stroke or adds a fill point on the active frame.
func (s *Session) PointerDown(p models.Point) error {
	return s.engine.BeginStroke(s.store.ActiveFrame(), s.store.Index(), p)
}

// PointerMove extends the current stroke or fill polygon.
func (s *Session) PointerMove(p models.Point) error {
	return s.engine.ContinueStroke(s.store.ActiveFrame(), p)
}

// PointerUp ends a stroke. With AutoCommitFill set, a fill gesture is
// committed and its result returned.
func (s *Session) PointerUp() error {
	s.engine.EndStroke()
	if s.AutoCommitFill && s.engine.State() == engine.Filling {
		_, err := s.CommitFill()
		return err
	}
	return nil
}

// CommitFill fills the collected polygon on the active frame.
func (s *Session) CommitFill() (int, error) {
	n, err := s.engine.CommitFill(s.store.ActiveFrame(), s.store.Index())
	if err != nil {
		return 0, err
	}
	logging.Logger().Debug("filled region", "frame", s.store.Index(), "pixels", n)
	return n, nil
}

// Undo restores the most recent snapshot into the frame it was taken from
// and makes that frame active. Only that frame changes. With nothing to undo
// it returns history.ErrEmptyHistory.
func (s *Session) Undo() error {
	entry, ok := s.history.Peek()
	if !ok {
		return history.ErrEmptyHistory
	}

	f := s.store.Frame(entry.Index)
	if f == nil {
		return fmt.Errorf("undo target frame %d no longer exists", entry.Index)
	}
	if err := entry.Restore(f); err != nil {
		return err
	}

	// Restored, so the entry can go
	if _, err := s.history.Pop(); err != nil {
		return err
	}
	s.engine.Cancel()
	s.store.SetActiveIndex(entry.Index)
	return nil
}

// Next moves to the next frame. Any gesture in progress is cancelled.
func (s *Session) Next() int {
	s.engine.Cancel()
	return s.store.Next()
}

// Previous moves to the previous frame. Any gesture in progress is
// cancelled.
func (s *Session) Previous() int {
	s.engine.Cancel()
	return s.store.Previous()
}

// SetActiveIndex moves to frame i, clamped to the sequence. Any gesture in
// progress is cancelled.
func (s *Session) SetActiveIndex(i int) int {
	s.engine.Cancel()
	return s.store.SetActiveIndex(i)
}

// Save writes the sequence to path with the codec matching its extension.
// An empty path means DefaultOutputPath of the source. The in-memory
// sequence is untouched either way.
func (s *Session) Save(ctx context.Context, path string) (string, error) {
	if !s.store.Loaded() {
		return "", ErrNotLoaded
	}
	if path == "" {
		path = DefaultOutputPath(s.path)
	}

	c, err := CodecFor(path, s.cfg)
	if err != nil {
		return "", err
	}
	if err := s.store.Serialize(ctx, c, path); err != nil {
		return "", err
	}

	logging.Logger().Info("saved sequence", "path", path, "frames", s.store.Len())
	return path, nil
}
