// Package framestore holds the frame sequence being edited and the active
// index into it.
package framestore

import (
	"context"
	"errors"
	"fmt"

	"niimask/internal/models"
)

// ErrInvalidSequence is returned by Load for empty sequences or sequences
// whose frames disagree on dimensions.
var ErrInvalidSequence = errors.New("invalid frame sequence")

// Writer serializes a whole sequence to an external format.
type Writer interface {
	Save(ctx context.Context, seq *models.Sequence, path string) error
}

// Store owns the loaded frames exclusively while they are being edited.
type Store struct {
	seq   *models.Sequence
	index int
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Load replaces the held sequence and resets the active index to 0. On error
// the previous sequence is kept.
func (s *Store) Load(seq *models.Sequence) error {
	if seq == nil {
		return fmt.Errorf("%w: nil sequence", ErrInvalidSequence)
	}
	if err := seq.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSequence, err)
	}

	s.seq = seq
	s.index = 0
	return nil
}

// Loaded reports whether a sequence is held.
func (s *Store) Loaded() bool {
	return s.seq != nil
}

// Len returns the number of frames held.
func (s *Store) Len() int {
	return s.seq.Len()
}

// Index returns the active index.
func (s *Store) Index() int {
	return s.index
}

// ActiveFrame returns the mutable frame at the active index, or nil when
// nothing is loaded.
func (s *Store) ActiveFrame() *models.Frame {
	if s.Len() == 0 {
		return nil
	}
	return s.seq.Frames[s.index]
}

// Frame returns the frame at i, or nil if i is out of range.
func (s *Store) Frame(i int) *models.Frame {
	if i < 0 || i >= s.Len() {
		return nil
	}
	return s.seq.Frames[i]
}

// SetActiveIndex moves to frame i, clamped to [0, Len()-1], and returns the
// resulting index. Out of range requests stop at the boundary.
func (s *Store) SetActiveIndex(i int) int {
	n := s.Len()
	switch {
	case n == 0:
		i = 0
	case i < 0:
		i = 0
	case i > n-1:
		i = n - 1
	}
	s.index = i
	return s.index
}

// Next moves one frame forward, stopping at the last frame.
func (s *Store) Next() int {
	return s.SetActiveIndex(s.index + 1)
}

// Previous moves one frame back, stopping at the first frame.
func (s *Store) Previous() int {
	return s.SetActiveIndex(s.index - 1)
}

// Sequence returns the held sequence.
func (s *Store) Sequence() *models.Sequence {
	return s.seq
}

// Serialize hands the whole sequence to w and returns its error unchanged.
func (s *Store) Serialize(ctx context.Context, w Writer, path string) error {
	if s.seq == nil {
		return fmt.Errorf("%w: nothing loaded", ErrInvalidSequence)
	}
	return w.Save(ctx, s.seq, path)
}
