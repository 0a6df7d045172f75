package framestore

import (
	"context"
	"errors"
	"testing"

	"niimask/internal/models"
)

func sequence(n, width, height, channels int) *models.Sequence {
	seq := &models.Sequence{}
	for i := 0; i < n; i++ {
		seq.Frames = append(seq.Frames, models.NewFrame(width, height, channels))
	}
	return seq
}

// TestLoad verifies that loading resets the active index
func TestLoad(t *testing.T) {
	s := New()
	if s.ActiveFrame() != nil {
		t.Error("Expected nil active frame before load")
	}

	if err := s.Load(sequence(4, 8, 8, 1)); err != nil {
		t.Fatalf("Failed to load sequence: %v", err)
	}
	s.SetActiveIndex(3)

	if err := s.Load(sequence(2, 8, 8, 1)); err != nil {
		t.Fatalf("Failed to reload sequence: %v", err)
	}
	if s.Index() != 0 {
		t.Errorf("Expected index 0 after load, got %d", s.Index())
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 frames, got %d", s.Len())
	}
}

// TestLoadInvalid verifies that inconsistent sequences are rejected and the
// previous sequence survives
func TestLoadInvalid(t *testing.T) {
	s := New()
	good := sequence(3, 8, 8, 1)
	if err := s.Load(good); err != nil {
		t.Fatalf("Failed to load sequence: %v", err)
	}

	bad := sequence(2, 8, 8, 1)
	bad.Frames = append(bad.Frames, models.NewFrame(8, 9, 1))

	tests := []struct {
		name string
		seq  *models.Sequence
	}{
		{"nil", nil},
		{"empty", &models.Sequence{}},
		{"mismatched height", bad},
		{"mixed channels", &models.Sequence{Frames: []*models.Frame{models.NewFrame(2, 2, 1), models.NewFrame(2, 2, 3)}}},
		{"unsupported channels", &models.Sequence{Frames: []*models.Frame{models.NewFrame(2, 2, 2)}}},
	}

	for _, tt := range tests {
		err := s.Load(tt.seq)
		if !errors.Is(err, ErrInvalidSequence) {
			t.Errorf("%s: expected ErrInvalidSequence, got %v", tt.name, err)
		}
	}

	if s.Sequence() != good {
		t.Error("Expected previous sequence to be kept after failed loads")
	}
}

// TestSetActiveIndexClamps verifies that the index never leaves [0, len-1]
func TestSetActiveIndexClamps(t *testing.T) {
	for _, n := range []int{1, 2, 7} {
		s := New()
		if err := s.Load(sequence(n, 2, 2, 1)); err != nil {
			t.Fatalf("Failed to load sequence: %v", err)
		}

		for _, req := range []int{-100, -1, 0, 1, n - 1, n, n + 5, 1 << 30} {
			got := s.SetActiveIndex(req)
			if got < 0 || got > n-1 {
				t.Errorf("len=%d request=%d: index %d out of range", n, req, got)
			}
			if got != s.Index() {
				t.Errorf("Returned index %d disagrees with Index() %d", got, s.Index())
			}
		}
	}
}

// TestNavigation verifies next/previous stop at the boundaries
func TestNavigation(t *testing.T) {
	s := New()
	if err := s.Load(sequence(3, 2, 2, 1)); err != nil {
		t.Fatalf("Failed to load sequence: %v", err)
	}

	if s.Previous() != 0 {
		t.Error("Expected previous at the first frame to stay at 0")
	}
	s.Next()
	s.Next()
	if s.Next() != 2 {
		t.Errorf("Expected next at the last frame to stay at 2, got %d", s.Index())
	}
	if s.ActiveFrame() != s.Frame(2) {
		t.Error("Expected active frame to be frame 2")
	}
	if s.Frame(3) != nil || s.Frame(-1) != nil {
		t.Error("Expected nil for out of range frames")
	}
}

type recordingWriter struct {
	seq  *models.Sequence
	path string
	err  error
}

func (w *recordingWriter) Save(ctx context.Context, seq *models.Sequence, path string) error {
	w.seq = seq
	w.path = path
	return w.err
}

// TestSerialize verifies the writer receives the full sequence and its error
// is returned unchanged
func TestSerialize(t *testing.T) {
	s := New()
	seq := sequence(2, 2, 2, 1)
	if err := s.Load(seq); err != nil {
		t.Fatalf("Failed to load sequence: %v", err)
	}

	w := &recordingWriter{}
	if err := s.Serialize(context.Background(), w, "out.nii"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if w.seq != seq || w.path != "out.nii" {
		t.Error("Expected writer to receive the held sequence and path")
	}

	sentinel := errors.New("disk full")
	w.err = sentinel
	if err := s.Serialize(context.Background(), w, "out.nii"); err != sentinel {
		t.Errorf("Expected writer error returned unchanged, got %v", err)
	}

	if err := New().Serialize(context.Background(), w, "x"); !errors.Is(err, ErrInvalidSequence) {
		t.Errorf("Expected ErrInvalidSequence for empty store, got %v", err)
	}
}
