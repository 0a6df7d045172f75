// Package history implements the undo stack of the mask editor.
//
// Every entry is a full snapshot of one frame. Snapshots are run-length
// encoded, which keeps mostly empty masks and white pages small, but the
// stack still grows with every edit unless a Limit is set.
package history

import (
	"errors"
	"fmt"

	"github.com/tj/go-rle"

	"niimask/internal/models"
)

// ErrEmptyHistory is returned by Pop when there is nothing to undo.
var ErrEmptyHistory = errors.New("history is empty")

// Entry is a snapshot of one frame, tagged with the sequence index it was
// taken from.
type Entry struct {
	// Index is the frame's position in the sequence
	Index int

	width    int
	height   int
	channels int
	encoded  []byte
}

// Snapshot captures f as an entry for the given index.
func Snapshot(index int, f *models.Frame) Entry {
	return Entry{
		Index:    index,
		width:    f.Width,
		height:   f.Height,
		channels: f.Channels,
		encoded:  rle.EncodeInt64(packPixels(f)),
	}
}

// Frame decodes the snapshot into a new frame.
func (e Entry) Frame() (*models.Frame, error) {
	packed, err := rle.DecodeInt64(e.encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot of frame %d: %w", e.Index, err)
	}
	if len(packed) != e.width*e.height {
		return nil, fmt.Errorf("snapshot of frame %d holds %d pixels, expected %d", e.Index, len(packed), e.width*e.height)
	}

	f := models.NewFrame(e.width, e.height, e.channels)
	unpackPixels(f, packed)
	return f, nil
}

// Restore overwrites dst with the snapshot. dst must have the snapshot's shape.
func (e Entry) Restore(dst *models.Frame) error {
	f, err := e.Frame()
	if err != nil {
		return err
	}
	return dst.CopyFrom(f)
}

// Size returns the encoded size of the snapshot in bytes.
func (e Entry) Size() int {
	return len(e.encoded)
}

// Stack is a LIFO of snapshots. The zero value is an unbounded, empty stack.
type Stack struct {
	// Limit caps the number of retained entries; the oldest are dropped
	// first. Zero means unbounded.
	Limit int

	entries []Entry
}

// NewStack returns a stack retaining at most limit entries (0 = unbounded).
func NewStack(limit int) *Stack {
	return &Stack{Limit: limit}
}

// Push records a snapshot of f, taken now, for frame index.
func (s *Stack) Push(index int, f *models.Frame) {
	s.Add(Snapshot(index, f))
}

// Add records an entry that was captured earlier with Snapshot.
func (s *Stack) Add(e Entry) {
	s.entries = append(s.entries, e)

	if s.Limit > 0 && len(s.entries) > s.Limit {
		drop := len(s.entries) - s.Limit
		copy(s.entries, s.entries[drop:])
		for i := len(s.entries) - drop; i < len(s.entries); i++ {
			s.entries[i] = Entry{}
		}
		s.entries = s.entries[:s.Limit]
	}
}

// Pop removes and returns the most recent entry.
func (s *Stack) Pop() (Entry, error) {
	if len(s.entries) == 0 {
		return Entry{}, ErrEmptyHistory
	}
	last := s.entries[len(s.entries)-1]
	s.entries[len(s.entries)-1] = Entry{}
	s.entries = s.entries[:len(s.entries)-1]
	return last, nil
}

// Peek returns the most recent entry without removing it.
func (s *Stack) Peek() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Bytes returns the total encoded size of all entries.
func (s *Stack) Bytes() int {
	n := 0
	for _, e := range s.entries {
		n += e.Size()
	}
	return n
}

// Clear drops every entry.
func (s *Stack) Clear() {
	s.entries = nil
}

// packPixels folds each pixel's channels into one int64 so that runs of
// identical pixels encode as a single run.
func packPixels(f *models.Frame) []int64 {
	out := make([]int64, f.Width*f.Height)
	for i := range out {
		var v int64
		for c := 0; c < f.Channels; c++ {
			v = v<<8 | int64(f.Pix[i*f.Channels+c])
		}
		out[i] = v
	}
	return out
}

func unpackPixels(f *models.Frame, packed []int64) {
	for i, v := range packed {
		for c := f.Channels - 1; c >= 0; c-- {
			f.Pix[i*f.Channels+c] = uint8(v & 0xff)
			v >>= 8
		}
	}
}
